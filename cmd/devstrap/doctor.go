package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/devstrap/pkg/doctor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/logging"
	"github.com/jaspreet-dot-casa/devstrap/pkg/preflight"
	"github.com/jaspreet-dot-casa/devstrap/pkg/steps"
	"github.com/jaspreet-dot-casa/devstrap/pkg/ui"
)

// newDoctorCmd creates the doctor subcommand
func newDoctorCmd(c *cli) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "doctor [group...]",
		Short: "Check the installed toolchain",
		Long: `Check which toolchain components are installed, their versions, docker
group membership and whether the Docker daemon answers. Nothing is changed
unless --fix is given.

Pass group IDs (host, a step ID such as nodejs, or docker-access) to check
only those groups.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDoctor(cmd, args, fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "run the install command for every missing component")
	return cmd
}

func (c *cli) runDoctor(cmd *cobra.Command, groupIDs []string, fix bool) error {
	logger := logging.GetLogger("doctor")
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	plan := steps.Plan(c.cfg.StepOptions())

	known := doctor.GetAllGroupIDs(plan)
	for _, gid := range groupIDs {
		if !slices.Contains(known, gid) {
			return fmt.Errorf("unknown check group %q (choose from: %s)", gid, strings.Join(known, ", "))
		}
	}

	id, err := currentIdentity()
	if err != nil {
		return err
	}
	if fix && id.IsRoot() {
		return preflight.ErrRunningAsRoot
	}

	exec := executor.NewReal(out, cmd.ErrOrStderr())
	checker := doctor.NewChecker(exec, plan, id.Username)

	dc, err := doctor.NewDockerClient()
	if err != nil {
		logger.Debug().Err(err).Msg("Docker client unavailable")
	} else {
		defer dc.Close()
		checker.SetDockerPinger(dc)
	}

	var groups []doctor.CheckGroup
	if len(groupIDs) == 0 {
		groups = checker.CheckAllAsync(ctx)
	} else {
		for _, gid := range groupIDs {
			groups = append(groups, checker.CheckGroup(ctx, gid))
		}
	}
	summary := checker.GetSummary(groups)
	doctor.Render(out, groups, summary, !fix)

	if fix {
		fixes := doctor.Fixes(groups)
		if len(fixes) == 0 {
			fmt.Fprintln(out, ui.SuccessStyle.Render("Nothing to fix."))
			return nil
		}
		fixer := doctor.NewFixer(exec)
		for _, f := range fixes {
			fmt.Fprintf(out, "\n%s %s\n", ui.AccentStyle.Render("→"), f.Description)
			if err := fixer.RunFix(ctx, f); err != nil {
				return fmt.Errorf("%s: %w", f.Description, err)
			}
		}
		return nil
	}

	if checker.HasIssues(groups) {
		return fmt.Errorf("%d missing, %d errors (run `devstrap doctor --fix` or `devstrap run`)", summary.Missing, summary.Errors)
	}
	return nil
}
