// Package progress renders runner events, either as plain lines or as a
// Bubble Tea view.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/jaspreet-dot-casa/devstrap/pkg/runner"
	"github.com/jaspreet-dot-casa/devstrap/pkg/ui"
)

// Printer writes one line per event.
type Printer struct {
	w            io.Writer
	showCommands bool
	mu           sync.Mutex
}

// NewPrinter creates a Printer. With showCommands every executed command is
// echoed before it runs.
func NewPrinter(w io.Writer, showCommands bool) *Printer {
	return &Printer{w: w, showCommands: showCommands}
}

// Callback returns the ProgressFunc to hand to the runner.
func (p *Printer) Callback() runner.ProgressFunc {
	return p.Print
}

// Print renders a single event.
func (p *Printer) Print(e runner.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Stage {
	case runner.StageStep:
		fmt.Fprintf(p.w, "\n%s %s\n",
			ui.DimStyle.Render(fmt.Sprintf("[%d/%d]", e.Index, e.Total)),
			ui.BoldStyle.Render(e.StepName+": "+e.Message))
	case runner.StageAction:
		fmt.Fprintf(p.w, "  %s %s\n", ui.AccentStyle.Render("→"), e.Message)
	case runner.StageCommand:
		if p.showCommands {
			fmt.Fprintf(p.w, "    %s\n", ui.DimStyle.Render("$ "+e.Command))
		}
	case runner.StageSkipped:
		fmt.Fprintf(p.w, "  %s %s %s\n", ui.RenderStatus("skipped"), e.Message, ui.DimStyle.Render("("+e.Detail+")"))
	case runner.StageWarning:
		fmt.Fprintf(p.w, "  %s %s: %s\n", ui.RenderStatus("warning"), e.Message, ui.WarningStyle.Render(e.Detail))
	case runner.StageVerify:
		fmt.Fprintf(p.w, "  %s %s\n", ui.RenderStatus("ok"), e.Detail)
	case runner.StageError:
		fmt.Fprintf(p.w, "  %s %s\n", ui.RenderStatus("failed"), ui.ErrorStyle.Render(e.Message))
		if e.Detail != "" {
			fmt.Fprintf(p.w, "    %s\n", ui.DimStyle.Render(e.Detail))
		}
	case runner.StageComplete:
		fmt.Fprintf(p.w, "\n%s\n", ui.SuccessStyle.Render(e.Message))
	}
}
