// Package steps describes the provisioning sequence as data.
//
// A Step is an ordered list of Actions followed by version Probes. Steps never
// execute themselves; pkg/runner walks them in order against an
// executor.Executor.
package steps

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/osrelease"
	"github.com/jaspreet-dot-casa/devstrap/pkg/profile"
)

// Env is everything an action may touch on the host.
type Env struct {
	Exec    executor.Executor
	Profile *profile.Profile
	Release *osrelease.Release
	User    string
	Home    string
	Dedupe  bool // Skip repository lines that are already present
	Logger  zerolog.Logger
}

// Action is one unit of work inside a step.
type Action struct {
	Description string
	// BestEffort actions log their failure and let the step continue.
	BestEffort bool
	// Skip reports whether the action is unnecessary, with a reason.
	Skip func(ctx context.Context, env *Env) (bool, string)
	Run  func(ctx context.Context, env *Env) error
}

// Step is a named installer.
type Step struct {
	ID          string
	Name        string
	Description string
	// Required steps abort the whole run when a non-best-effort action fails.
	Required  bool
	Checklist string   // Line shown in the final summary
	Hint      string   // Manual install command shown by doctor
	Notes     []string // Post-install reminders
	Actions   []Action
	Probes    []Probe
}

// Step IDs in execution order.
const (
	IDSystemUpdate = "system-update"
	IDBuildTools   = "build-tools"
	IDPython       = "python"
	IDPoetry       = "poetry"
	IDUV           = "uv"
	IDNodeJS       = "nodejs"
	IDDocker       = "docker"
	IDKubernetes   = "kubernetes"
	IDTerraform    = "terraform"
	IDUtilities    = "utilities"
)
