package progress

import (
	"bytes"
	"strings"
	"sync"
)

// Tail is an io.Writer keeping the last few lines written to it. The TUI
// hands it to the executor so command output shows up under the active step
// instead of tearing the view.
type Tail struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial bytes.Buffer
}

// NewTail keeps up to max lines.
func NewTail(max int) *Tail {
	if max <= 0 {
		max = 1
	}
	return &Tail{max: max}
}

func (t *Tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partial.Write(p)
	for {
		line, err := t.partial.ReadString('\n')
		if err != nil {
			// Incomplete line: keep it for the next write.
			t.partial.Reset()
			t.partial.WriteString(line)
			break
		}
		t.push(line)
	}
	return len(p), nil
}

func (t *Tail) push(line string) {
	line = strings.TrimRight(line, "\r\n")
	if i := strings.LastIndexByte(line, '\r'); i >= 0 {
		line = line[i+1:]
	}
	if strings.TrimSpace(line) == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

// Lines returns the retained lines, oldest first.
func (t *Tail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

// Reset drops the retained lines.
func (t *Tail) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = nil
	t.partial.Reset()
}
