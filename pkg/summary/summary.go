// Package summary builds the report printed after a successful run: the
// checklist of installed components, the version each tool reports now and
// the reminders the user has to act on.
package summary

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/steps"
	"github.com/jaspreet-dot-casa/devstrap/pkg/ui"
)

// VersionLine is what one tool reported.
type VersionLine struct {
	Label   string
	Command string
	Output  string // First line printed by the tool
	Version string // Extracted version, if any
	Warning string // Why the line could not be confirmed
}

// OK reports whether the tool answered without a warning.
func (v VersionLine) OK() bool {
	return v.Warning == ""
}

// Summary is the end-of-run report.
type Summary struct {
	Checklist []string
	Versions  []VersionLine
	Warnings  []string // Best-effort failures carried over from the run
	Notes     []string
}

// Collect re-queries every probe in plan. Query failures become warnings;
// they never fail the summary.
func Collect(ctx context.Context, exec executor.Executor, plan []steps.Step, profilePath string) *Summary {
	s := &Summary{}
	for _, step := range plan {
		if step.Checklist != "" && step.ID != steps.IDSystemUpdate {
			s.Checklist = append(s.Checklist, step.Checklist)
		}
		s.Notes = append(s.Notes, step.Notes...)

		for _, p := range step.Probes {
			line := VersionLine{Label: p.Label, Command: p.Command.String()}
			out, err := exec.Output(ctx, p.Command)
			if err != nil {
				line.Output = p.Display(out)
				line.Warning = fmt.Sprintf("could not query %s: %v", p.Binary(), err)
				s.Versions = append(s.Versions, line)
				continue
			}
			line.Output = p.Display(out)
			line.Version = p.Version(out)
			if err := p.Check(out); err != nil {
				line.Warning = fmt.Sprintf("expected %s: %v", p.Constraint, err)
			}
			s.Versions = append(s.Versions, line)
		}
	}

	if profilePath != "" {
		s.Notes = append(s.Notes, fmt.Sprintf("Run `source %s` or open a new shell to pick up PATH changes", profilePath))
	}
	return s
}

// AddWarnings records best-effort failures from the run.
func (s *Summary) AddWarnings(warnings ...string) {
	s.Warnings = append(s.Warnings, warnings...)
}

// HasWarnings reports whether anything needs the user's attention.
func (s *Summary) HasWarnings() bool {
	if len(s.Warnings) > 0 {
		return true
	}
	for _, v := range s.Versions {
		if !v.OK() {
			return true
		}
	}
	return false
}

// Render writes the summary to w.
func Render(w io.Writer, s *Summary) {
	var b strings.Builder

	b.WriteString(ui.TitleStyle.Render("Installation complete"))
	b.WriteString("\n\n")

	b.WriteString(ui.BoldStyle.Render("Installed:"))
	b.WriteString("\n")
	for _, item := range s.Checklist {
		fmt.Fprintf(&b, "  %s %s\n", ui.RenderStatus("ok"), item)
	}

	if len(s.Versions) > 0 {
		b.WriteString("\n")
		b.WriteString(ui.BoldStyle.Render("Versions:"))
		b.WriteString("\n")
		width := 0
		for _, v := range s.Versions {
			width = max(width, len(v.Label))
		}
		for _, v := range s.Versions {
			label := fmt.Sprintf("%-*s", width, v.Label)
			switch {
			case v.OK():
				fmt.Fprintf(&b, "  %s %s  %s\n", ui.RenderStatus("ok"), label, v.Output)
			case v.Output != "":
				fmt.Fprintf(&b, "  %s %s  %s %s\n", ui.RenderStatus("warning"), label, v.Output,
					ui.WarningStyle.Render("("+v.Warning+")"))
			default:
				fmt.Fprintf(&b, "  %s %s  %s\n", ui.RenderStatus("warning"), label, ui.WarningStyle.Render(v.Warning))
			}
		}
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(ui.WarningStyle.Render("Warnings:"))
		b.WriteString("\n")
		for _, warn := range s.Warnings {
			fmt.Fprintf(&b, "  %s %s\n", ui.RenderStatus("warning"), warn)
		}
	}

	if len(s.Notes) > 0 {
		b.WriteString("\n")
		b.WriteString(ui.BoldStyle.Render("Next steps:"))
		b.WriteString("\n")
		for _, note := range s.Notes {
			fmt.Fprintf(&b, "  %s %s\n", ui.AccentStyle.Render("→"), note)
		}
	}

	fmt.Fprint(w, b.String())
}
