package doctor

import (
	"context"
	"fmt"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
)

// Fixes returns the fix for every check that is missing or failing, one per
// step, in group order.
func Fixes(groups []CheckGroup) []*FixCommand {
	seen := make(map[string]bool)
	var fixes []*FixCommand
	for _, g := range groups {
		for _, c := range g.Checks {
			if c.FixCommand == nil || c.Status == StatusOK {
				continue
			}
			key := c.FixCommand.StepID + "\x00" + c.FixCommand.Command
			if seen[key] {
				continue
			}
			seen[key] = true
			fixes = append(fixes, c.FixCommand)
		}
	}
	return fixes
}

// Fixer provides functionality to run fix commands.
type Fixer struct {
	executor executor.Executor
}

// NewFixer creates a new Fixer.
func NewFixer(exec executor.Executor) *Fixer {
	return &Fixer{
		executor: exec,
	}
}

// RunFix executes a fix command through bash.
func (f *Fixer) RunFix(ctx context.Context, fix *FixCommand) error {
	if fix == nil {
		return fmt.Errorf("no fix command available")
	}

	if err := f.executor.Run(ctx, executor.Shell(fix.Command)); err != nil {
		return fmt.Errorf("fix failed: %w", err)
	}

	return nil
}
