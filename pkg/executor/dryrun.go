package executor

import (
	"context"
	"fmt"
	"io"
)

// DryRun prints commands and file appends instead of performing them.
// Read-only lookups (LookPath, FileExists, ReadFile) go to Reads, the real
// system by default, so that conditional actions are reported accurately.
type DryRun struct {
	Out   io.Writer
	Reads Executor
}

// NewDryRun creates a DryRun executor printing to out.
func NewDryRun(out io.Writer) *DryRun {
	return &DryRun{Out: out, Reads: &RealExecutor{}}
}

// Run prints the command.
func (d *DryRun) Run(_ context.Context, c Command) error {
	fmt.Fprintf(d.Out, "  + %s\n", c)
	if c.Stdin != "" {
		fmt.Fprintf(d.Out, "    < %q\n", c.Stdin)
	}
	return nil
}

// Output prints the command and returns a placeholder.
func (d *DryRun) Output(ctx context.Context, c Command) (string, error) {
	if err := d.Run(ctx, c); err != nil {
		return "", err
	}
	return "(dry-run)", nil
}

func (d *DryRun) LookPath(file string) (string, error) { return d.Reads.LookPath(file) }

func (d *DryRun) FileExists(path string) bool { return d.Reads.FileExists(path) }

func (d *DryRun) ReadFile(path string) ([]byte, error) { return d.Reads.ReadFile(path) }

// AppendFile only reports the append.
func (d *DryRun) AppendFile(path, content string) error {
	fmt.Fprintf(d.Out, "  + append to %s\n    < %q\n", path, content)
	return nil
}

// PrependPath only reports the change.
func (d *DryRun) PrependPath(dir string) {
	fmt.Fprintf(d.Out, "  + export PATH=%q\n", dir+":$PATH")
}
