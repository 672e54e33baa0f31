package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/logging"
	"github.com/jaspreet-dot-casa/devstrap/pkg/progress"
	"github.com/jaspreet-dot-casa/devstrap/pkg/provision"
	"github.com/jaspreet-dot-casa/devstrap/pkg/report"
	"github.com/jaspreet-dot-casa/devstrap/pkg/runner"
	"github.com/jaspreet-dot-casa/devstrap/pkg/summary"
	"github.com/jaspreet-dot-casa/devstrap/pkg/ui"
)

// tailLines is how much command output the progress view keeps.
const tailLines = 6

type runOptions struct {
	tui bool
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().Bool("dry-run", false, "print commands instead of executing them")
	cmd.Flags().Bool("dedupe", false, "skip PATH and repository lines that are already present")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show an interactive progress view (terminal only)")
}

// newRunCmd creates the run subcommand
func newRunCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full provisioning sequence",
		Long: `Run the system update and every installer in order.

The first failing step stops the run and its exit status becomes devstrap's.
Re-running appends repository and PATH lines again unless --dedupe is set.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{provisionAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runProvision(cmd)
		},
	}
	addRunFlags(cmd, &c.run)
	return cmd
}

func (c *cli) runProvision(cmd *cobra.Command) error {
	logger := logging.GetLogger("cli")
	out := cmd.OutOrStdout()

	id, err := currentIdentity()
	if err != nil {
		return err
	}

	useTUI := c.useTUI()
	if c.run.tui && !useTUI {
		logger.Warn().Msg("stdout is not a terminal, falling back to plain output")
	}

	var (
		exec executor.Executor
		tail *progress.Tail
	)
	switch {
	case useTUI:
		tail = progress.NewTail(tailLines)
		if c.cfg.DryRun {
			exec = executor.NewDryRun(tail)
		} else {
			exec = executor.NewReal(tail, tail)
		}
	case c.cfg.DryRun:
		exec = executor.NewDryRun(out)
	default:
		exec = executor.NewReal(out, cmd.ErrOrStderr())
	}

	opts := provision.Options{
		Identity:    id,
		Exec:        exec,
		Plan:        c.cfg.StepOptions(),
		ProfilePath: c.cfg.ProfilePath(id.Home, os.Getenv("SHELL")),
		Dedupe:      c.cfg.Dedupe,
		DryRun:      c.cfg.DryRun,
	}
	if c.cfg.Report {
		opts.Reports = report.NewStore()
	}
	p := provision.New(opts)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var outcome *provision.Outcome
	run := func(ctx context.Context, progressFn runner.ProgressFunc) error {
		var err error
		outcome, err = p.Run(ctx, progressFn)
		return err
	}

	if useTUI {
		err = progress.Run(ctx, "devstrap", p.Plan(), tail, run)
	} else {
		printer := progress.NewPrinter(out, c.cfg.Verbose > 0)
		err = run(ctx, printer.Callback())
	}

	if outcome != nil {
		if outcome.Summary != nil {
			fmt.Fprintln(out)
			summary.Render(out, outcome.Summary)
		}
		if outcome.ReportPath != "" {
			fmt.Fprintln(out, ui.DimStyle.Render("Run report: "+outcome.ReportPath))
		}
	}
	return err
}
