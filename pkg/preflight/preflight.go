// Package preflight refuses to provision a host the installers cannot handle.
package preflight

import (
	"errors"
	"fmt"
	"os"
	"os/user"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/osrelease"
)

var (
	// ErrRunningAsRoot is returned when devstrap is invoked as root.
	// Installers elevate per command so that user-local tools land in the
	// invoking user's home directory.
	ErrRunningAsRoot = errors.New("do not run devstrap as root; run it as a regular user with sudo access")

	// ErrUnsupportedPlatform is returned on hosts without apt.
	ErrUnsupportedPlatform = errors.New("only Debian-based distributions with apt are supported")
)

// Identity is the invoking user.
type Identity struct {
	UID      int
	Username string
	Home     string
}

// IsRoot reports whether the identity is the privileged root identity.
func (i Identity) IsRoot() bool {
	return i.UID == 0
}

// CurrentIdentity reads the effective user of this process.
func CurrentIdentity() (Identity, error) {
	id := Identity{UID: os.Geteuid()}

	u, err := user.Current()
	if err != nil {
		id.Username = os.Getenv("USER")
	} else {
		id.Username = u.Username
		id.Home = u.HomeDir
	}
	if id.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return id, fmt.Errorf("failed to determine home directory: %w", err)
		}
		id.Home = home
	}
	return id, nil
}

// Guard checks the invoking identity and host before any step runs.
type Guard struct {
	exec          executor.Executor
	osReleasePath string
}

// NewGuard creates a Guard reading os-release from its standard location.
func NewGuard(exec executor.Executor) *Guard {
	return &Guard{exec: exec, osReleasePath: osrelease.DefaultPath}
}

// SetOSReleasePath overrides the os-release location.
func (g *Guard) SetOSReleasePath(path string) {
	g.osReleasePath = path
}

// Check returns ErrRunningAsRoot for the root identity before touching
// anything else, then verifies the host is Debian-family.
func (g *Guard) Check(id Identity) (*osrelease.Release, error) {
	if id.IsRoot() {
		return nil, ErrRunningAsRoot
	}

	if _, err := g.exec.LookPath("apt-get"); err != nil {
		return nil, fmt.Errorf("%w: apt-get not found", ErrUnsupportedPlatform)
	}

	data, err := g.exec.ReadFile(g.osReleasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", g.osReleasePath, err)
	}
	rel, err := osrelease.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", g.osReleasePath, err)
	}
	if !rel.IsDebianFamily() {
		return nil, fmt.Errorf("%w: detected %q", ErrUnsupportedPlatform, rel.ID)
	}
	return rel, nil
}
