package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Failure is an error carrying a process exit status, as returned by Fake.
type Failure struct {
	Code int
}

func (f *Failure) Error() string { return fmt.Sprintf("exit status %d", f.Code) }

// ExitCode returns the stubbed exit status.
func (f *Failure) ExitCode() int { return f.Code }

// Fail returns a Failure with the given exit status.
func Fail(code int) error { return &Failure{Code: code} }

// Rule stubs the result of every command whose line contains Match.
type Rule struct {
	Match  string
	Output string
	Err    error
}

// Fake is an in-memory Executor that records every command.
// Commands succeed with empty output unless a Rule says otherwise.
// `tee -a FILE` is simulated by appending stdin to Files[FILE].
type Fake struct {
	mu      sync.Mutex
	Calls   []Command
	Rules   []Rule
	Missing map[string]bool   // Executables LookPath should not find
	Files   map[string]string // Simulated file contents
	Path    []string          // Directories passed to PrependPath
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{
		Missing: make(map[string]bool),
		Files:   make(map[string]string),
	}
}

// On adds a rule and returns the fake for chaining.
func (f *Fake) On(match, output string, err error) *Fake {
	f.Rules = append(f.Rules, Rule{Match: match, Output: output, Err: err})
	return f
}

// Line joins the argument vector without shell quoting.
func Line(c Command) string {
	return strings.Join(c.Argv(), " ")
}

func (f *Fake) exec(c Command) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, c)
	line := Line(c)
	for _, r := range f.Rules {
		if strings.Contains(line, r.Match) {
			return r.Output, r.Err
		}
	}
	if c.Name == "tee" && len(c.Args) == 2 && c.Args[0] == "-a" {
		f.Files[c.Args[1]] += c.Stdin
	}
	return "", nil
}

// Run records the command.
func (f *Fake) Run(_ context.Context, c Command) error {
	_, err := f.exec(c)
	return err
}

// Output records the command and returns the stubbed output.
func (f *Fake) Output(_ context.Context, c Command) (string, error) {
	return f.exec(c)
}

// LookPath finds every executable not listed in Missing.
func (f *Fake) LookPath(file string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Missing[file] {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/usr/bin/" + file, nil
}

// FileExists reports whether the simulated file exists.
func (f *Fake) FileExists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Files[path]
	return ok
}

// ReadFile returns the simulated file contents.
func (f *Fake) ReadFile(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.Files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return []byte(content), nil
}

// AppendFile appends content to the simulated file.
func (f *Fake) AppendFile(path, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Files[path] += content
	return nil
}

// PrependPath records the directory.
func (f *Fake) PrependPath(dir string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Path = append(f.Path, dir)
}

// Lines returns every recorded command line in order.
func (f *Fake) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = Line(c)
	}
	return lines
}

// Count returns how many recorded command lines contain sub.
func (f *Fake) Count(sub string) int {
	n := 0
	for _, l := range f.Lines() {
		if strings.Contains(l, sub) {
			n++
		}
	}
	return n
}
