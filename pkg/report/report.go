// Package report records the outcome of each provisioning run as YAML under
// the XDG state directory.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/jaspreet-dot-casa/devstrap/pkg/runner"
)

// Version is the current report schema version.
const Version = "1"

// Run statuses.
const (
	StatusOK          = "ok"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// Report is one run of the provisioning sequence.
type Report struct {
	Version  string       `yaml:"version"`
	RunID    string       `yaml:"run_id"`
	Started  time.Time    `yaml:"started"`
	Finished time.Time    `yaml:"finished"`
	DryRun   bool         `yaml:"dry_run,omitempty"`
	Host     Host         `yaml:"host"`
	Status   string       `yaml:"status"`
	ExitCode int          `yaml:"exit_code"`
	Error    string       `yaml:"error,omitempty"`
	Steps    []StepReport `yaml:"steps"`
}

// Host describes where the run happened.
type Host struct {
	User    string `yaml:"user"`
	OS      string `yaml:"os,omitempty"`
	Profile string `yaml:"profile,omitempty"`
}

// StepReport is the outcome of one step.
type StepReport struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name"`
	Status   string          `yaml:"status"`
	Duration string          `yaml:"duration,omitempty"`
	Warnings []string        `yaml:"warnings,omitempty"`
	Skipped  []string        `yaml:"skipped,omitempty"`
	Versions []VersionReport `yaml:"versions,omitempty"`
	Error    string          `yaml:"error,omitempty"`
}

// VersionReport is the version line a tool printed.
type VersionReport struct {
	Tool    string `yaml:"tool"`
	Output  string `yaml:"output"`
	Version string `yaml:"version,omitempty"`
}

// New starts a report with a fresh run ID.
func New(host Host, dryRun bool) *Report {
	return &Report{
		Version: Version,
		RunID:   uuid.NewString(),
		Started: time.Now(),
		DryRun:  dryRun,
		Host:    host,
		Status:  StatusOK,
	}
}

// Complete fills in the step outcomes and the final status from a run.
// result may be nil when the run never started. interrupted marks a failed
// run whose context was cancelled, even when a step failed as a result.
func (r *Report) Complete(result *runner.Result, runErr error, exitCode int, interrupted bool) {
	r.Finished = time.Now()
	r.ExitCode = exitCode
	if runErr != nil {
		r.Status = StatusFailed
		r.Error = runErr.Error()
		if interrupted {
			r.Status = StatusInterrupted
		}
	}
	if result == nil {
		return
	}
	if !result.Started.IsZero() {
		r.Started = result.Started
	}
	if !result.Finished.IsZero() {
		r.Finished = result.Finished
	}
	if runErr != nil && result.Failed() == nil {
		r.Status = StatusInterrupted
	}

	r.Steps = make([]StepReport, 0, len(result.Steps))
	for _, s := range result.Steps {
		sr := StepReport{
			ID:       s.ID,
			Name:     s.Name,
			Status:   string(s.Status),
			Warnings: s.Warnings,
			Skipped:  s.Skipped,
		}
		if d := s.Duration(); d > 0 {
			sr.Duration = d.Round(time.Millisecond).String()
		}
		if s.Err != nil {
			sr.Error = s.Err.Error()
		}
		for _, v := range s.Versions {
			sr.Versions = append(sr.Versions, VersionReport{Tool: v.Label, Output: v.Output, Version: v.Version})
		}
		r.Steps = append(r.Steps, sr)
	}
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// FileName returns the report's file name: <timestamp>-<run id>.yaml.
func (r *Report) FileName() string {
	return r.Started.UTC().Format("20060102T150405Z") + "-" + r.RunID + ".yaml"
}
