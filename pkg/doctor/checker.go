package doctor

import (
	"context"
	"sync"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/osrelease"
	"github.com/jaspreet-dot-casa/devstrap/pkg/steps"
)

// Checker provides toolchain checking functionality.
type Checker struct {
	executor      executor.Executor
	plan          []steps.Step
	user          string
	osReleasePath string
	docker        DaemonPinger
}

// NewChecker creates a Checker for the tools plan installs.
func NewChecker(exec executor.Executor, plan []steps.Step, user string) *Checker {
	return &Checker{
		executor:      exec,
		plan:          plan,
		user:          user,
		osReleasePath: osrelease.DefaultPath,
	}
}

// SetOSReleasePath overrides the os-release location.
func (c *Checker) SetOSReleasePath(path string) {
	c.osReleasePath = path
}

// SetDockerPinger sets the client used for the daemon check.
func (c *Checker) SetDockerPinger(p DaemonPinger) {
	c.docker = p
}

// CheckAll runs all checks and returns groups with results.
func (c *Checker) CheckAll(ctx context.Context) []CheckGroup {
	defs := groupDefinitions(c.plan)
	result := make([]CheckGroup, 0, len(defs))
	for _, def := range defs {
		result = append(result, c.checkGroup(ctx, def))
	}
	return result
}

// CheckAllAsync runs every group concurrently; the result keeps display
// order.
func (c *Checker) CheckAllAsync(ctx context.Context) []CheckGroup {
	defs := groupDefinitions(c.plan)
	result := make([]CheckGroup, len(defs))
	var wg sync.WaitGroup

	for i, def := range defs {
		wg.Add(1)
		go func(idx int, d groupDefinition) {
			defer wg.Done()
			result[idx] = c.checkGroup(ctx, d)
		}(i, def)
	}

	wg.Wait()
	return result
}

// CheckGroup runs all checks for a specific group.
func (c *Checker) CheckGroup(ctx context.Context, groupID string) CheckGroup {
	for _, def := range groupDefinitions(c.plan) {
		if def.ID == groupID {
			return c.checkGroup(ctx, def)
		}
	}
	return CheckGroup{
		ID:   groupID,
		Name: "Unknown",
	}
}

func (c *Checker) checkGroup(ctx context.Context, def groupDefinition) CheckGroup {
	group := CheckGroup{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
	}

	switch def.ID {
	case GroupHost:
		group.Checks = []Check{
			CheckPlatform(c.executor, c.osReleasePath),
			CheckSudo(c.executor),
		}
	case GroupAccess:
		group.Checks = []Check{
			CheckDockerGroup(ctx, c.executor, c.user),
			CheckDockerDaemon(ctx, c.docker),
		}
	default:
		for _, p := range def.Step.Probes {
			group.Checks = append(group.Checks, checkProbe(ctx, c.executor, def.Step, p))
		}
	}
	return group
}

// Summary represents an overall health summary.
type Summary struct {
	Total    int
	OK       int
	Missing  int
	Warnings int
	Errors   int
}

// GetSummary returns a summary of check results.
func (c *Checker) GetSummary(groups []CheckGroup) Summary {
	var summary Summary

	for _, group := range groups {
		for _, check := range group.Checks {
			summary.Total++
			switch check.Status {
			case StatusOK:
				summary.OK++
			case StatusMissing:
				summary.Missing++
			case StatusWarning:
				summary.Warnings++
			case StatusError:
				summary.Errors++
			}
		}
	}

	return summary
}

// HasIssues returns true if any checks have issues.
func (c *Checker) HasIssues(groups []CheckGroup) bool {
	summary := c.GetSummary(groups)
	return summary.Missing > 0 || summary.Errors > 0
}
