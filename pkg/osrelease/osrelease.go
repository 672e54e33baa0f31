// Package osrelease parses /etc/os-release to identify the host distribution.
package osrelease

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// DefaultPath is the standard location of the os-release file.
const DefaultPath = "/etc/os-release"

// Release holds the fields of os-release used by the installers.
type Release struct {
	ID             string   // e.g. "ubuntu"
	IDLike         []string // e.g. ["debian"]
	VersionID      string   // e.g. "24.04"
	Codename       string   // e.g. "noble"
	PrettyName     string
	UbuntuCodename string
	Fields         map[string]string
}

// Parse parses shell-style KEY=VALUE lines.
// It handles:
// - KEY="VALUE" and KEY='VALUE' (quotes are stripped)
// - Comments (lines starting with #)
// - Empty lines (skipped)
// - Values containing = signs (only first = is used as delimiter)
func Parse(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		vars[key] = value
	}

	return vars, scanner.Err()
}

// FromBytes builds a Release from os-release contents.
func FromBytes(data []byte) (*Release, error) {
	vars, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	rel := &Release{
		ID:             strings.ToLower(vars["ID"]),
		VersionID:      vars["VERSION_ID"],
		Codename:       vars["VERSION_CODENAME"],
		PrettyName:     vars["PRETTY_NAME"],
		UbuntuCodename: vars["UBUNTU_CODENAME"],
		Fields:         vars,
	}
	if like := vars["ID_LIKE"]; like != "" {
		rel.IDLike = strings.Fields(strings.ToLower(like))
	}
	return rel, nil
}

// IsDebianFamily reports whether apt-based installers apply to this host.
func (r *Release) IsDebianFamily() bool {
	if r.ID == "debian" || r.ID == "ubuntu" {
		return true
	}
	for _, like := range r.IDLike {
		if like == "debian" || like == "ubuntu" {
			return true
		}
	}
	return false
}

// AptDistro returns the distribution path segment used by vendor apt
// repositories (download.docker.com/linux/<distro>). Derivatives map to
// their upstream.
func (r *Release) AptDistro() string {
	if r.ID == "debian" || r.ID == "ubuntu" {
		return r.ID
	}
	if r.UbuntuCodename != "" {
		return "ubuntu"
	}
	for _, like := range r.IDLike {
		if like == "ubuntu" || like == "debian" {
			return like
		}
	}
	return r.ID
}

// AptCodename returns the suite name for vendor repositories, preferring the
// Ubuntu base codename on derivatives such as Linux Mint.
func (r *Release) AptCodename() string {
	if r.UbuntuCodename != "" {
		return r.UbuntuCodename
	}
	return r.Codename
}
