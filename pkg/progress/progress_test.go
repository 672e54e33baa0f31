package progress

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreet-dot-casa/devstrap/pkg/runner"
	"github.com/jaspreet-dot-casa/devstrap/pkg/steps"
)

func stepEvent(stage runner.Stage, id, name, message string, index int) runner.Event {
	e := runner.NewEvent(stage, message, (index-1)*10)
	e.StepID, e.StepName, e.Index, e.Total = id, name, index, 10
	return e
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	cb := p.Callback()

	cb(stepEvent(runner.StageStep, "python", "Python", "Python 3 interpreter", 3))
	cb(stepEvent(runner.StageAction, "python", "Python", "Install python3", 3))
	cmd := stepEvent(runner.StageCommand, "python", "Python", "", 3)
	cmd.Command = "sudo apt-get install -y python3"
	cb(cmd)
	verify := stepEvent(runner.StageVerify, "python", "Python", "Python", 3)
	verify.Detail = "Python 3.12.3"
	cb(verify)
	cb(runner.NewErrorEvent("Docker failed: Install docker-ce", "exit status 100"))

	out := buf.String()
	assert.Contains(t, out, "[3/10]")
	assert.Contains(t, out, "Python: Python 3 interpreter")
	assert.Contains(t, out, "Install python3")
	assert.NotContains(t, out, "sudo apt-get install -y python3")
	assert.Contains(t, out, "Python 3.12.3")
	assert.Contains(t, out, "exit status 100")
}

func TestPrinter_ShowCommands(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)
	e := stepEvent(runner.StageCommand, "utilities", "Utilities", "", 10)
	e.Command = "sudo apt-get install -y jq"

	p.Print(e)

	assert.Contains(t, buf.String(), "$ sudo apt-get install -y jq")
}

func TestTail(t *testing.T) {
	tail := NewTail(2)

	_, err := tail.Write([]byte("Reading package lists...\nBuilding dep"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Reading package lists..."}, tail.Lines())

	_, err = tail.Write([]byte("endency tree\n\nprogress 10%\rprogress 90%\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Building dependency tree", "progress 90%"}, tail.Lines())

	tail.Reset()
	assert.Empty(t, tail.Lines())
}

func TestModel_AppliesEvents(t *testing.T) {
	plan := []steps.Step{steps.Python(), steps.Poetry()}
	var m tea.Model = newModel("Provisioning", plan, NewTail(3), make(chan tea.Msg), nil)

	m, _ = m.Update(eventMsg(stepEvent(runner.StageStep, steps.IDPython, "Python", "Python", 1)))
	cmd := stepEvent(runner.StageCommand, steps.IDPython, "Python", "", 1)
	cmd.Command = "sudo apt-get install -y python3"
	m, _ = m.Update(eventMsg(cmd))
	view := m.View()
	assert.Contains(t, view, "sudo apt-get install -y python3")
	assert.Contains(t, view, "Ctrl+C")

	verify := stepEvent(runner.StageVerify, steps.IDPython, "Python", "Python", 1)
	verify.Detail = "Python 3.12.3"
	m, _ = m.Update(eventMsg(verify))
	m, _ = m.Update(eventMsg(stepEvent(runner.StageStepDone, steps.IDPython, "Python", "Python", 1)))
	m, _ = m.Update(eventMsg(runner.NewErrorEvent("Poetry failed: Run the Poetry installer", "exit status 1")))

	state := m.(model)
	assert.Equal(t, "ok", state.states[0].status)
	assert.Equal(t, "Python 3.12.3", state.states[0].version)
	assert.Contains(t, state.failure, "exit status 1")

	m, quit := m.Update(doneMsg{err: errors.New("boom")})
	require.NotNil(t, quit)
	assert.True(t, m.(model).done)
	assert.Contains(t, m.View(), "Poetry failed")
}

func TestModel_CtrlCCancels(t *testing.T) {
	cancelled := false
	m := newModel("Provisioning", nil, nil, make(chan tea.Msg), func() { cancelled = true })

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.True(t, cancelled)
	assert.NotNil(t, cmd)
	assert.Contains(t, next.View(), "Cancelling")
}

func TestRun_ReturnsRunError(t *testing.T) {
	plan := []steps.Step{steps.Utilities()}
	want := errors.New("Utilities: Install jq: exit status 100")

	err := Run(context.Background(), "Provisioning", plan, NewTail(3),
		func(ctx context.Context, progress runner.ProgressFunc) error {
			progress(stepEvent(runner.StageStep, steps.IDUtilities, "Utilities", "Everyday tools", 1))
			return want
		},
		tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutSignalHandler())

	assert.Equal(t, want, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.True(t, strings.HasPrefix(truncate("abcdef", 2), "ab"))
	assert.Equal(t, "abcdef", truncate("abcdef", 0))
}
