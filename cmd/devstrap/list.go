package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/devstrap/pkg/steps"
	"github.com/jaspreet-dot-casa/devstrap/pkg/ui"
)

// newListCmd creates the list subcommand
func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the provisioning plan",
		Long:  `List every step in execution order with its actions and version checks.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			plan := steps.Plan(c.cfg.StepOptions())

			for i, s := range plan {
				kind := "required"
				if !s.Required {
					kind = "optional"
				}
				fmt.Fprintf(out, "%s %s %s\n",
					ui.DimStyle.Render(fmt.Sprintf("%2d.", i+1)),
					ui.BoldStyle.Render(s.Name),
					ui.DimStyle.Render("("+s.ID+", "+kind+")"))

				for _, a := range s.Actions {
					line := "     - " + a.Description
					if a.BestEffort {
						line += " " + ui.WarningStyle.Render("[best-effort]")
					}
					fmt.Fprintln(out, line)
				}
				for _, p := range s.Probes {
					check := "     ✓ " + p.Command.String()
					if p.Constraint != "" {
						check += " " + ui.AccentStyle.Render("["+p.Constraint+"]")
					}
					fmt.Fprintln(out, ui.DimStyle.Render(check))
				}
			}
			return nil
		},
	}
}
