// Package runner executes a provisioning plan step by step.
//
// Steps run strictly in order. The first failing action that is not
// best-effort stops the run; later steps are reported as not run.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/steps"
)

// Status is the outcome of one step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusNotRun  Status = "not-run"
)

// Version is the output of one probe.
type Version struct {
	Label   string
	Output  string // First line of the probe output
	Version string // Extracted version number, if any
}

// StepResult records what happened to one step.
type StepResult struct {
	ID       string
	Name     string
	Status   Status
	Warnings []string // Swallowed best-effort failures
	Skipped  []string // Reasons for skipped actions
	Versions []Version
	Started  time.Time
	Finished time.Time
	Err      error
}

// Duration returns how long the step ran.
func (s StepResult) Duration() time.Duration {
	if s.Started.IsZero() || s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// Result is the outcome of a run.
type Result struct {
	Steps    []StepResult
	Started  time.Time
	Finished time.Time
}

// Failed returns the step that stopped the run, or nil.
func (r *Result) Failed() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Status == StatusFailed {
			return &r.Steps[i]
		}
	}
	return nil
}

// Warnings returns every best-effort failure, prefixed with its step.
func (r *Result) Warnings() []string {
	var out []string
	for _, s := range r.Steps {
		for _, w := range s.Warnings {
			out = append(out, s.Name+": "+w)
		}
	}
	return out
}

// Count returns how many steps ended with status.
func (r *Result) Count(status Status) int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == status {
			n++
		}
	}
	return n
}

// StepError is returned when a required action fails.
type StepError struct {
	StepID   string
	StepName string
	Action   string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.StepName, e.Action, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit status of the failed command, or 1.
func (e *StepError) ExitCode() int {
	return executor.ExitCode(e.Err)
}

// Option configures a Runner.
type Option func(*Runner)

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) {
		if fn != nil {
			r.progress = fn
		}
	}
}

// Runner walks a plan against an environment.
type Runner struct {
	env      *steps.Env
	progress ProgressFunc
	now      func() time.Time
}

// New creates a Runner for env.
func New(env *steps.Env, opts ...Option) *Runner {
	r := &Runner{
		env:      env,
		progress: NoOpProgress,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes plan in order. It returns the result together with a
// *StepError when a required action failed, or the context error when the
// run was interrupted between steps.
func (r *Runner) Run(ctx context.Context, plan []steps.Step) (*Result, error) {
	result := &Result{Started: r.now(), Steps: make([]StepResult, len(plan))}
	for i, s := range plan {
		result.Steps[i] = StepResult{ID: s.ID, Name: s.Name, Status: StatusNotRun}
	}
	defer func() { result.Finished = r.now() }()

	total := len(plan)
	for i, s := range plan {
		if err := ctx.Err(); err != nil {
			r.env.Logger.Warn().Str("step", s.ID).Msg("Run interrupted")
			r.emit(NewErrorEvent("Interrupted", err.Error()))
			return result, fmt.Errorf("interrupted before %s: %w", s.Name, err)
		}

		sr := &result.Steps[i]
		if err := r.runStep(ctx, s, i+1, total, sr); err != nil {
			if s.Required {
				return result, err
			}
			r.env.Logger.Warn().Err(err).Str("step", s.ID).Msg("Optional step failed, continuing")
		}
	}

	done := NewEvent(StageComplete, "Provisioning complete", 100)
	done.Total = total
	r.emit(done)
	return result, nil
}

func (r *Runner) runStep(ctx context.Context, s steps.Step, index, total int, sr *StepResult) error {
	log := r.env.Logger.With().Str("step", s.ID).Logger()
	sr.Started = r.now()
	defer func() { sr.Finished = r.now() }()

	event := func(stage Stage, message string) Event {
		e := NewEvent(stage, message, (index-1)*100/total)
		e.StepID, e.StepName, e.Index, e.Total = s.ID, s.Name, index, total
		return e
	}

	log.Info().Msg("Starting " + s.Name)
	r.emit(event(StageStep, s.Description))

	env := *r.env
	env.Logger = log
	env.Exec = &observed{Executor: r.env.Exec, emit: func(c executor.Command) {
		e := event(StageCommand, "")
		e.Command = c.String()
		r.emit(e)
	}}

	fail := func(action string, err error) error {
		sr.Status = StatusFailed
		sr.Err = err
		log.Error().Err(err).Str("action", action).Msg("Step failed")
		e := NewErrorEvent(fmt.Sprintf("%s failed: %s", s.Name, action), err.Error())
		e.StepID, e.StepName, e.Index, e.Total = s.ID, s.Name, index, total
		r.emit(e)
		return &StepError{StepID: s.ID, StepName: s.Name, Action: action, Err: err}
	}

	ran := 0
	for _, a := range s.Actions {
		if a.Skip != nil {
			if skip, reason := a.Skip(ctx, &env); skip {
				log.Info().Str("action", a.Description).Msg("Skipped: " + reason)
				sr.Skipped = append(sr.Skipped, reason)
				e := event(StageSkipped, a.Description)
				e.Detail = reason
				r.emit(e)
				continue
			}
		}

		r.emit(event(StageAction, a.Description))
		ran++
		if err := a.Run(ctx, &env); err != nil {
			if a.BestEffort {
				log.Warn().Err(err).Str("action", a.Description).Msg("Best-effort action failed, continuing")
				sr.Warnings = append(sr.Warnings, fmt.Sprintf("%s: %v", a.Description, err))
				e := event(StageWarning, a.Description)
				e.Detail = err.Error()
				r.emit(e)
				continue
			}
			return fail(a.Description, err)
		}
	}

	for _, p := range s.Probes {
		out, err := env.Exec.Output(ctx, p.Command)
		if err != nil {
			return fail("Verify "+p.Label, err)
		}
		v := Version{Label: p.Label, Output: p.Display(out), Version: p.Version(out)}
		sr.Versions = append(sr.Versions, v)
		log.Info().Str("tool", p.Label).Str("version", v.Output).Msg("Installed")
		e := event(StageVerify, p.Label)
		e.Detail = v.Output
		r.emit(e)
	}

	if ran == 0 && len(s.Actions) > 0 {
		sr.Status = StatusSkipped
	} else {
		sr.Status = StatusOK
	}
	done := event(StageStepDone, s.Name)
	done.Percent = index * 100 / total
	r.emit(done)
	return nil
}

func (r *Runner) emit(e Event) {
	r.progress(e)
}

// observed reports every command before it reaches the wrapped executor.
type observed struct {
	executor.Executor
	emit func(executor.Command)
}

func (o *observed) Run(ctx context.Context, c executor.Command) error {
	o.emit(c)
	return o.Executor.Run(ctx, c)
}

func (o *observed) Output(ctx context.Context, c executor.Command) (string, error) {
	o.emit(c)
	return o.Executor.Output(ctx, c)
}
