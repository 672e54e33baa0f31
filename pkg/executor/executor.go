// Package executor runs external commands for the provisioning steps.
//
// Every step talks to the host only through the Executor interface, so the
// whole sequence can be driven against Fake in tests or DryRun from the CLI.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Command describes a single external process invocation.
type Command struct {
	Name  string
	Args  []string
	Sudo  bool   // Prefix with sudo
	Stdin string // Fed to the process when non-empty
	Quiet bool   // Discard output instead of streaming it
}

// Argv returns the full argument vector, including sudo when requested.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+2)
	if c.Sudo {
		argv = append(argv, "sudo")
	}
	argv = append(argv, c.Name)
	return append(argv, c.Args...)
}

// String renders the command the way it would be typed in a shell.
func (c Command) String() string {
	parts := c.Argv()
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t|&;<>()$`\"'*") {
			parts[i] = "'" + strings.ReplaceAll(p, "'", `'\''`) + "'"
		}
	}
	return strings.Join(parts, " ")
}

// Sudo builds a command run through sudo.
func Sudo(name string, args ...string) Command {
	return Command{Name: name, Args: args, Sudo: true}
}

// Plain builds a command run as the invoking user.
func Plain(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// Shell builds a bash pipeline. pipefail makes `curl ... | sh` fail when the
// download fails instead of silently running an empty script.
func Shell(script string) Command {
	return Command{Name: "bash", Args: []string{"-o", "pipefail", "-c", script}}
}

// Executor is an interface for executing commands, allowing for testing.
type Executor interface {
	// Run executes a command, streaming its output.
	Run(ctx context.Context, cmd Command) error
	// Output executes a command and returns its trimmed output.
	Output(ctx context.Context, cmd Command) (string, error)
	LookPath(file string) (string, error)
	FileExists(path string) bool
	ReadFile(path string) ([]byte, error)
	// AppendFile appends content to path, creating the file and its directory.
	AppendFile(path, content string) error
	// PrependPath adds dir to the front of PATH for every later command.
	PrependPath(dir string)
}

// exitCoder is satisfied by *exec.ExitError and the fake failures.
type exitCoder interface {
	ExitCode() int
}

// ExitCode extracts the process exit status carried by err.
// It returns 0 for nil and 1 when err carries no status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec exitCoder
	if errors.As(err, &ec) && ec.ExitCode() > 0 {
		return ec.ExitCode()
	}
	return 1
}

// RealExecutor is the default command executor that uses the real system.
type RealExecutor struct {
	Stdout io.Writer
	Stderr io.Writer
	logger zerolog.Logger
}

// NewReal creates a RealExecutor streaming to the given writers.
func NewReal(stdout, stderr io.Writer) *RealExecutor {
	return &RealExecutor{
		Stdout: stdout,
		Stderr: stderr,
		logger: log.With().Str("component", "executor").Logger(),
	}
}

func (e *RealExecutor) command(ctx context.Context, c Command) *exec.Cmd {
	argv := c.Argv()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}
	e.logger.Debug().Str("command", argv[0]).Strs("args", argv[1:]).Msg("Executing command")
	return cmd
}

// Run executes a command with output streamed to the executor's writers.
func (e *RealExecutor) Run(ctx context.Context, c Command) error {
	cmd := e.command(ctx, c)
	if !c.Quiet {
		cmd.Stdout = e.Stdout
		cmd.Stderr = e.Stderr
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", c, err)
	}
	return nil
}

// Output runs a command and returns its output.
func (e *RealExecutor) Output(ctx context.Context, c Command) (string, error) {
	cmd := e.command(ctx, c)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return strings.TrimSpace(stderr.String()), fmt.Errorf("%s: %w", c, err)
		}
		return strings.TrimSpace(stdout.String()), fmt.Errorf("%s: %w", c, err)
	}
	// Some tools print their version to stderr
	output := stdout.String()
	if strings.TrimSpace(output) == "" {
		output = stderr.String()
	}
	return strings.TrimSpace(output), nil
}

// LookPath finds the path to an executable.
func (e *RealExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// FileExists checks if a file exists.
func (e *RealExecutor) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadFile reads a file from disk.
func (e *RealExecutor) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// AppendFile appends content to the file at path.
func (e *RealExecutor) AppendFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	e.logger.Debug().Str("path", path).Msg("Appended to file")
	return nil
}

// PrependPath updates PATH for this process, which every child inherits.
func (e *RealExecutor) PrependPath(dir string) {
	current := os.Getenv("PATH")
	for _, p := range filepath.SplitList(current) {
		if p == dir {
			return
		}
	}
	os.Setenv("PATH", dir+string(os.PathListSeparator)+current)
	e.logger.Debug().Str("dir", dir).Msg("Prepended to PATH")
}
