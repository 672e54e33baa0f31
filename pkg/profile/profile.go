// Package profile appends PATH exports to the user's shell profile.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
)

// Profile is a shell startup file such as ~/.bashrc.
//
// Appends are not deduplicated unless Dedupe is set: running the
// provisioning sequence twice writes each export twice.
type Profile struct {
	Path   string
	Dedupe bool
}

// New creates a Profile for the file at path.
func New(path string, dedupe bool) *Profile {
	return &Profile{Path: path, Dedupe: dedupe}
}

// DefaultPath picks the startup file for the user's login shell.
func DefaultPath(home, shell string) string {
	if strings.HasSuffix(shell, "zsh") {
		return filepath.Join(home, ".zshrc")
	}
	return filepath.Join(home, ".bashrc")
}

// ExportLine returns the line that prepends dir to PATH.
func ExportLine(dir string) string {
	return fmt.Sprintf("export PATH=\"%s:$PATH\"", dir)
}

// AppendPathExport appends an export for dir through exec, so a dry-run
// executor leaves the file untouched. It reports whether the file was
// modified; with Dedupe an existing identical line is left alone.
func (p *Profile) AppendPathExport(exec executor.Executor, dir string) (bool, error) {
	line := ExportLine(dir)

	if p.Dedupe {
		content, err := exec.ReadFile(p.Path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("failed to read %s: %w", p.Path, err)
		}
		if containsLine(string(content), line) {
			return false, nil
		}
	}

	if err := exec.AppendFile(p.Path, line+"\n"); err != nil {
		return false, err
	}
	return true, nil
}

func containsLine(content, line string) bool {
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == line {
			return true
		}
	}
	return false
}
