package steps

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
)

// Probe asks an installed tool for its version.
type Probe struct {
	Label   string
	Command executor.Command
	// Pattern extracts the bare version from the output (first submatch).
	Pattern *regexp.Regexp
	// Constraint is a semver constraint such as "20.x"; empty means any.
	Constraint string
}

var defaultVersionRe = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?(?:-[a-zA-Z0-9]+)?)`)

// Binary returns the executable the probe runs.
func (p Probe) Binary() string {
	return p.Command.Name
}

// Display returns the first non-empty line of output, which is what gets
// printed to the user.
func (p Probe) Display(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// Version extracts the version number from output.
func (p Probe) Version(output string) string {
	re := p.Pattern
	if re == nil {
		re = defaultVersionRe
	}
	matches := re.FindStringSubmatch(output)
	if len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// Check compares the extracted version against the probe's constraint.
func (p Probe) Check(output string) error {
	if p.Constraint == "" {
		return nil
	}
	return CheckConstraint(p.Version(output), p.Constraint)
}

// CheckConstraint validates version against a semver constraint.
func CheckConstraint(version, constraint string) error {
	if version == "" {
		return fmt.Errorf("no version found, expected %s", constraint)
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", version, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("version %s does not satisfy %s", v, constraint)
	}
	return nil
}
