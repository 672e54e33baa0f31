// Package provision drives a full run: preflight guard, the ordered plan and
// the closing summary.
package provision

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/logging"
	"github.com/jaspreet-dot-casa/devstrap/pkg/osrelease"
	"github.com/jaspreet-dot-casa/devstrap/pkg/preflight"
	"github.com/jaspreet-dot-casa/devstrap/pkg/profile"
	"github.com/jaspreet-dot-casa/devstrap/pkg/report"
	"github.com/jaspreet-dot-casa/devstrap/pkg/runner"
	"github.com/jaspreet-dot-casa/devstrap/pkg/steps"
	"github.com/jaspreet-dot-casa/devstrap/pkg/summary"
)

// Options contains configuration for a provisioning run.
type Options struct {
	Identity      preflight.Identity
	Exec          executor.Executor
	Plan          steps.Options
	ProfilePath   string
	Dedupe        bool
	DryRun        bool
	OSReleasePath string        // Empty means /etc/os-release
	Reports       *report.Store // Nil disables run reports
}

// Outcome is everything a run produced. Fields are nil for phases that did
// not happen.
type Outcome struct {
	Release    *osrelease.Release
	Result     *runner.Result
	Summary    *summary.Summary
	Report     *report.Report
	ReportPath string
}

// Provisioner executes the plan against one host.
type Provisioner struct {
	opts   Options
	logger zerolog.Logger
}

// New creates a Provisioner.
func New(opts Options) *Provisioner {
	return &Provisioner{
		opts:   opts,
		logger: log.With().Str("component", "provision").Logger(),
	}
}

// Plan returns the ordered steps this provisioner runs.
func (p *Provisioner) Plan() []steps.Step {
	return steps.Plan(p.opts.Plan)
}

// Run checks the host, executes every step in order and collects the
// summary. The first failing required step aborts the run and its error is
// returned; use executor.ExitCode to map it to a process exit status.
func (p *Provisioner) Run(ctx context.Context, progress runner.ProgressFunc) (*Outcome, error) {
	out := &Outcome{}

	guard := preflight.NewGuard(p.opts.Exec)
	if p.opts.OSReleasePath != "" {
		guard.SetOSReleasePath(p.opts.OSReleasePath)
	}
	release, err := guard.Check(p.opts.Identity)
	if err != nil {
		return out, err
	}
	out.Release = release

	host := report.Host{User: p.opts.Identity.Username, OS: release.PrettyName, Profile: p.opts.ProfilePath}
	out.Report = report.New(host, p.opts.DryRun)
	logger := p.logger.With().Str("run", out.Report.RunID).Logger()
	logger.Info().Str("os", release.PrettyName).Str("user", host.User).Msg("Starting provisioning run")

	env := &steps.Env{
		Exec:    p.opts.Exec,
		Profile: profile.New(p.opts.ProfilePath, p.opts.Dedupe),
		Release: release,
		User:    p.opts.Identity.Username,
		Home:    p.opts.Identity.Home,
		Dedupe:  p.opts.Dedupe,
		Logger:  logger,
	}

	start := time.Now()
	plan := p.Plan()
	done := logging.LogOperationStart(logger, "provision")
	out.Result, err = runner.New(env, runner.WithProgress(progress)).Run(ctx, plan)
	done()
	if err != nil {
		interrupted := ctx.Err() != nil
		logger.Error().Err(err).Bool("interrupted", interrupted).Dur("elapsed", time.Since(start)).Msg("Provisioning failed")
		p.saveReport(out, err, interrupted, logger)
		return out, err
	}

	out.Summary = summary.Collect(ctx, p.opts.Exec, plan, p.opts.ProfilePath)
	out.Summary.AddWarnings(out.Result.Warnings()...)
	logger.Info().Dur("elapsed", time.Since(start)).Msg("Provisioning complete")

	p.saveReport(out, nil, false, logger)
	return out, nil
}

func (p *Provisioner) saveReport(out *Outcome, runErr error, interrupted bool, logger zerolog.Logger) {
	out.Report.Complete(out.Result, runErr, executor.ExitCode(runErr), interrupted)
	if p.opts.Reports == nil {
		return
	}
	path, err := p.opts.Reports.Save(out.Report)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to write run report")
		return
	}
	out.ReportPath = path
	logger.Debug().Str("path", path).Msg("Wrote run report")
}
