package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/jaspreet-dot-casa/devstrap/pkg/logging"
)

const (
	// RunsDirName is the report directory under the state directory.
	RunsDirName = "runs"
	// MaxReports is how many reports are kept; older ones are removed.
	MaxReports = 50
)

// Store reads and writes run reports.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a store under $XDG_STATE_HOME/devstrap/runs.
func NewStore() *Store {
	return NewStoreWithDir(filepath.Join(logging.StateDir(), RunsDirName))
}

// NewStoreWithDir creates a store with a custom directory.
func NewStoreWithDir(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the report directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the report atomically and prunes old reports. It returns the
// path written.
func (s *Store) Save(r *Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := filepath.Join(s.dir, r.FileName())
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		if removeErr := os.Remove(tmpPath); removeErr != nil {
			log.Warn().Err(removeErr).Str("path", tmpPath).Msg("Failed to clean up temp file")
		}
		return "", fmt.Errorf("failed to save report file: %w", err)
	}

	if err := s.prune(); err != nil {
		log.Warn().Err(err).Msg("Failed to prune old reports")
	}
	return path, nil
}

// List returns the report files, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read report directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		files = append(files, filepath.Join(s.dir, e.Name()))
	}
	// Names start with a UTC timestamp, so lexical order is chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

// Load reads one report.
func (s *Store) Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &r, nil
}

// Recent loads up to n reports, newest first. Unreadable files are skipped.
func (s *Store) Recent(n int) ([]*Report, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	var reports []*Report
	for _, f := range files {
		if n > 0 && len(reports) >= n {
			break
		}
		r, err := s.Load(f)
		if err != nil {
			log.Warn().Err(err).Str("path", f).Msg("Skipping unreadable report")
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (s *Store) prune() error {
	files, err := s.List()
	if err != nil {
		return err
	}
	if len(files) <= MaxReports {
		return nil
	}
	for _, f := range files[MaxReports:] {
		if err := os.Remove(f); err != nil {
			return err
		}
	}
	return nil
}
