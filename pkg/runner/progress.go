package runner

import (
	"sync"
	"time"
)

// Stage is the phase a progress event belongs to.
type Stage string

const (
	StageStep     Stage = "step"
	StageAction   Stage = "action"
	StageCommand  Stage = "command"
	StageSkipped  Stage = "skipped"
	StageWarning  Stage = "warning"
	StageVerify   Stage = "verify"
	StageStepDone Stage = "step-done"
	StageComplete Stage = "complete"
	StageError    Stage = "error"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the stage.
func (s Stage) DisplayName() string {
	switch s {
	case StageStep:
		return "Installing"
	case StageAction:
		return "Running"
	case StageCommand:
		return "Command"
	case StageSkipped:
		return "Skipped"
	case StageWarning:
		return "Warning"
	case StageVerify:
		return "Verifying"
	case StageStepDone:
		return "Done"
	case StageComplete:
		return "Complete"
	case StageError:
		return "Error"
	default:
		return string(s)
	}
}

// Event is a provisioning progress update.
type Event struct {
	Stage     Stage
	StepID    string
	StepName  string
	Index     int    // 1-based position of the step in the plan
	Total     int    // Number of steps in the plan
	Message   string // Human-readable message
	Command   string // Command being executed
	Detail    string // Additional detail or output
	Percent   int    // 0-100, -1 for indeterminate
	IsError   bool
	Timestamp time.Time
}

// NewEvent creates a progress event.
func NewEvent(stage Stage, message string, percent int) Event {
	return Event{
		Stage:     stage,
		Message:   message,
		Percent:   percent,
		Timestamp: time.Now(),
	}
}

// NewErrorEvent creates an error event with detail.
func NewErrorEvent(message, detail string) Event {
	return Event{
		Stage:     StageError,
		Message:   message,
		Detail:    detail,
		Percent:   -1,
		IsError:   true,
		Timestamp: time.Now(),
	}
}

// ProgressFunc is called with progress updates during a run.
type ProgressFunc func(Event)

// NoOpProgress is a progress callback that does nothing.
func NoOpProgress(_ Event) {}

// Tracker collects progress events for later review.
type Tracker struct {
	mu     sync.Mutex
	events []Event
}

// NewTracker creates a new tracker.
func NewTracker() *Tracker {
	return &Tracker{events: make([]Event, 0)}
}

// Callback returns a ProgressFunc that records events.
func (t *Tracker) Callback() ProgressFunc {
	return func(e Event) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.events = append(t.events, e)
	}
}

// Events returns all recorded events.
func (t *Tracker) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

// LastEvent returns the most recent event, or nil if none.
func (t *Tracker) LastEvent() *Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.events) == 0 {
		return nil
	}
	e := t.events[len(t.events)-1]
	return &e
}

// HasErrors returns true if any error events were recorded.
func (t *Tracker) HasErrors() bool {
	return len(t.Errors()) > 0
}

// Errors returns all error events.
func (t *Tracker) Errors() []Event {
	return t.filter(func(e Event) bool { return e.IsError })
}

// ByStage returns the events of one stage in order.
func (t *Tracker) ByStage(stage Stage) []Event {
	return t.filter(func(e Event) bool { return e.Stage == stage })
}

func (t *Tracker) filter(keep func(Event) bool) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Event
	for _, e := range t.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
