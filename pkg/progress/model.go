package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jaspreet-dot-casa/devstrap/pkg/runner"
	"github.com/jaspreet-dot-casa/devstrap/pkg/steps"
	"github.com/jaspreet-dot-casa/devstrap/pkg/ui"
)

// RunFunc executes the plan, reporting through progress.
type RunFunc func(ctx context.Context, progress runner.ProgressFunc) error

// eventMsg wraps a runner.Event for Bubble Tea.
type eventMsg runner.Event

// doneMsg is sent once the run has returned.
type doneMsg struct {
	err error
}

// tickMsg refreshes the output tail.
type tickMsg time.Time

var (
	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	progressBarStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				PaddingRight(2)
)

type stepState struct {
	name    string
	status  string // ok, failed, warning, skipped, running or empty
	version string
}

// model is a Bubble Tea model showing the plan as a checklist with a
// progress bar and the tail of the running command's output.
type model struct {
	title  string
	states []stepState
	index  map[string]int
	tail   *Tail

	msgs   chan tea.Msg
	cancel context.CancelFunc

	spinner     spinner.Model
	progressBar progress.Model
	percent     int
	command     string
	warnings    []string
	failure     string

	done     bool
	quitting bool
	width    int
}

// newModel creates the view for plan. Events arrive on msgs; cancel is
// called when the user interrupts.
func newModel(title string, plan []steps.Step, tail *Tail, msgs chan tea.Msg, cancel context.CancelFunc) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.SpinnerStyle

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	m := model{
		title:       title,
		states:      make([]stepState, len(plan)),
		index:       make(map[string]int, len(plan)),
		tail:        tail,
		msgs:        msgs,
		cancel:      cancel,
		spinner:     s,
		progressBar: p,
	}
	for i, step := range plan {
		m.states[i] = stepState{name: step.Name}
		m.index[step.ID] = i
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent(), tick())
}

func (m model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.msgs
		if !ok {
			return nil
		}
		return msg
	}
}

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(10, min(msg.Width-10, 60))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case tickMsg:
		if !m.done {
			return m, tick()
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd

	case eventMsg:
		m.apply(runner.Event(msg))
		return m, tea.Batch(
			m.waitForEvent(),
			m.progressBar.SetPercent(float64(m.percent)/100.0),
		)

	case doneMsg:
		m.done = true
		if msg.err != nil && m.failure == "" {
			m.failure = msg.err.Error()
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m *model) apply(e runner.Event) {
	if e.Percent >= 0 {
		m.percent = min(e.Percent, 100)
	}
	i, known := m.index[e.StepID]

	switch e.Stage {
	case runner.StageStep:
		if known {
			m.states[i].status = "running"
		}
		m.command = ""
		if m.tail != nil {
			m.tail.Reset()
		}
	case runner.StageCommand:
		m.command = e.Command
	case runner.StageWarning:
		m.warnings = append(m.warnings, e.StepName+": "+e.Message+": "+e.Detail)
	case runner.StageVerify:
		if known && m.states[i].version == "" {
			m.states[i].version = e.Detail
		}
	case runner.StageStepDone:
		if known {
			m.states[i].status = "ok"
		}
	case runner.StageError:
		if known {
			m.states[i].status = "failed"
		}
		m.failure = e.Message
		if e.Detail != "" {
			m.failure += ": " + e.Detail
		}
	}
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString("\n")
	s.WriteString(ui.TitleStyle.Render(m.title))
	s.WriteString("\n\n")

	barView := m.progressBar.ViewAs(float64(m.percent) / 100.0)
	s.WriteString(progressBarStyle.Render(barView))
	s.WriteString(fmt.Sprintf(" %d%%", m.percent))
	s.WriteString("\n\n")

	for _, st := range m.states {
		switch st.status {
		case "running":
			if m.done {
				s.WriteString("  " + ui.RenderStatus("not-run") + " " + st.name)
			} else {
				s.WriteString("  " + m.spinner.View() + " " + activeStyle.Render(st.name))
			}
		case "":
			s.WriteString("  " + ui.RenderStatus("not-run") + " " + ui.DimStyle.Render(st.name))
		default:
			s.WriteString("  " + ui.RenderStatus(st.status) + " " + st.name)
		}
		if st.version != "" {
			s.WriteString("  " + ui.DimStyle.Render(st.version))
		}
		s.WriteString("\n")
	}

	if !m.done && m.command != "" {
		s.WriteString("\n")
		s.WriteString("  " + commandStyle.Render("$ "+m.command))
		s.WriteString("\n")
		if m.tail != nil {
			for _, line := range m.tail.Lines() {
				s.WriteString("    " + ui.DimStyle.Render(truncate(line, m.width-6)))
				s.WriteString("\n")
			}
		}
	}

	for _, w := range m.warnings {
		s.WriteString("\n  " + ui.RenderStatus("warning") + " " + ui.WarningStyle.Render(w))
	}
	if len(m.warnings) > 0 {
		s.WriteString("\n")
	}

	if m.failure != "" {
		s.WriteString("\n  " + ui.RenderStatus("failed") + " " + ui.ErrorStyle.Render(m.failure) + "\n")
	}

	s.WriteString("\n")
	switch {
	case m.quitting && !m.done:
		s.WriteString(ui.DimStyle.Render("  Cancelling..."))
	case !m.done:
		s.WriteString(ui.DimStyle.Render("  Press Ctrl+C to cancel"))
	}
	s.WriteString("\n")

	return s.String()
}

func truncate(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

// Run executes run in the background while showing the progress view and
// returns run's error. Interrupting the view cancels the run's context and
// waits for it to stop.
func Run(ctx context.Context, title string, plan []steps.Step, tail *Tail, run RunFunc, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs := make(chan tea.Msg, 100)
	result := make(chan error, 1)

	go func() {
		send := func(msg tea.Msg) {
			select {
			case msgs <- msg:
			case <-ctx.Done():
			}
		}
		err := run(ctx, func(e runner.Event) { send(eventMsg(e)) })
		result <- err
		send(doneMsg{err: err})
	}()

	m := newModel(title, plan, tail, msgs, cancel)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		cancel()
		<-result
		return fmt.Errorf("progress view failed: %w", err)
	}

	// The view may have quit early; make sure the run has stopped.
	cancel()
	return <-result
}
