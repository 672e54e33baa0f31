package doctor

import (
	"fmt"
	"io"

	"github.com/jaspreet-dot-casa/devstrap/pkg/ui"
)

// statusKey maps a check status onto the shared status styles.
func statusKey(s CheckStatus) string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusMissing, StatusError:
		return "failed"
	default:
		return ""
	}
}

// Render writes the check results. With showFixes each failing check is
// followed by its fix command.
func Render(w io.Writer, groups []CheckGroup, summary Summary, showFixes bool) {
	for _, g := range groups {
		fmt.Fprintf(w, "%s %s\n", ui.BoldStyle.Render(g.Name), ui.DimStyle.Render(g.Description))
		for _, c := range g.Checks {
			msg := c.Message
			if c.Status != StatusOK {
				msg = ui.StatusStyle(statusKey(c.Status)).Render(msg)
			}
			fmt.Fprintf(w, "  %s %-16s %s\n", ui.RenderStatus(statusKey(c.Status)), c.Name, msg)
			if showFixes && c.Status != StatusOK && c.FixCommand != nil {
				fmt.Fprintf(w, "      %s\n", ui.DimStyle.Render("$ "+c.FixCommand.Command))
			}
		}
		fmt.Fprintln(w)
	}

	line := fmt.Sprintf("%d checks: %d ok, %d missing, %d warnings, %d errors",
		summary.Total, summary.OK, summary.Missing, summary.Warnings, summary.Errors)
	if summary.Missing > 0 || summary.Errors > 0 {
		fmt.Fprintln(w, ui.ErrorStyle.Render(line))
	} else if summary.Warnings > 0 {
		fmt.Fprintln(w, ui.WarningStyle.Render(line))
	} else {
		fmt.Fprintln(w, ui.SuccessStyle.Render(line))
	}
}
