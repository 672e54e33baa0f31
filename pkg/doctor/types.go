// Package doctor checks which parts of the provisioned toolchain are present
// and healthy, without changing anything.
package doctor

// CheckStatus represents the status of a check.
type CheckStatus int

const (
	// StatusOK indicates the component is installed and working.
	StatusOK CheckStatus = iota
	// StatusMissing indicates the component is not installed.
	StatusMissing
	// StatusError indicates an error occurred during the check.
	StatusError
	// StatusWarning indicates the component has issues but may work.
	StatusWarning
)

// String returns the string representation of the status.
func (s CheckStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusError:
		return "error"
	case StatusWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Check represents a single check result.
type Check struct {
	ID          string      // Unique identifier, e.g., "python3", "docker-group"
	Name        string      // Display name
	Description string      // What is being checked
	Status      CheckStatus // Current status
	Message     string      // Status message (version info, error, etc.)
	FixCommand  *FixCommand // How to fix (nil if not fixable)
}

// FixCommand describes how to fix a failed check.
type FixCommand struct {
	Description string // Human-readable description of what the fix does
	Command     string // Shell command to run
	Sudo        bool   // Whether the command requires sudo
	StepID      string // Provisioning step the fix belongs to, if any
}

// CheckGroup represents a group of related checks.
type CheckGroup struct {
	ID          string  // Step ID or one of the Group constants
	Name        string  // Display name
	Description string  // What this group is for
	Checks      []Check // Individual checks in this group
}

// Group IDs for checks that are not tied to one installer.
const (
	GroupHost   = "host"
	GroupAccess = "docker-access"
)

// Check IDs for host and access checks.
const (
	IDPlatform     = "platform"
	IDSudo         = "sudo"
	IDDockerGroup  = "docker-group"
	IDDockerDaemon = "docker-daemon"
)
