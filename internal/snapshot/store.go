// Package snapshot persists the baseline registry to disk so windows
// survive restarts. Snapshots are JSON, snappy-compressed, written
// atomically via rename.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/driftwatch/driftd/internal/baseline"
	"github.com/driftwatch/driftd/internal/compression"
	"github.com/driftwatch/driftd/internal/logging"
)

const snapshotExt = ".snap"

// Store writes and restores registry snapshots in a directory
type Store struct {
	dir        string
	keep       int
	compressor compression.Compressor
	logger     *logging.Logger
	clock      func() time.Time
}

// NewStore creates a snapshot store. The directory is created on first
// write.
func NewStore(dir string, keep int, logger *logging.Logger) *Store {
	return &Store{
		dir:        dir,
		keep:       keep,
		compressor: compression.NewSnappyCompressor(),
		logger:     logger,
		clock:      time.Now,
	}
}

// Save writes the registry state to a new snapshot file and prunes old
// snapshots down to the retention count. It returns the snapshot path.
func (s *Store) Save(registry *baseline.Registry) (string, error) {
	state := registry.Export()

	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	compressed, err := s.compressor.Compress(data)
	if err != nil {
		return "", fmt.Errorf("failed to compress snapshot: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory %s: %w", s.dir, err)
	}

	name := fmt.Sprintf("baselines-%d%s", s.clock().UnixNano(), snapshotExt)
	path := filepath.Join(s.dir, name)

	// Write to a temp file first so a crash never leaves a partial snapshot
	tmp, err := os.CreateTemp(s.dir, name+".tmp-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp snapshot: %w", err)
	}

	if _, err := tmp.Write(compressed); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to finalize snapshot: %w", err)
	}

	s.logger.Info("Snapshot written",
		"path", path,
		"signals", len(state),
		"bytes", len(compressed),
	)

	if err := s.prune(); err != nil {
		s.logger.Warn("Failed to prune old snapshots", "error", err)
	}

	return path, nil
}

// Restore loads the newest readable snapshot into the registry. A
// missing directory or an empty one is not an error; it just means a
// cold start. A corrupt snapshot must never keep the service from
// starting, so unreadable files are skipped newest-first and an
// all-corrupt directory also degrades to a cold start.
func (s *Store) Restore(registry *baseline.Registry) (int, error) {
	files, err := s.list()
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	for i := len(files) - 1; i >= 0; i-- {
		path := filepath.Join(s.dir, files[i])

		state, err := s.read(path)
		if err != nil {
			s.logger.Warn("Skipping unreadable snapshot", "path", path, "error", err)
			continue
		}

		registry.Import(state)

		s.logger.Info("Snapshot restored",
			"path", path,
			"signals", len(state),
		)

		return len(state), nil
	}

	if len(files) > 0 {
		s.logger.Warn("No readable snapshot found, starting cold", "dir", s.dir)
	}

	return 0, nil
}

// read loads and decodes a single snapshot file
func (s *Store) read(path string) (map[string]baseline.SignalState, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	data, err := s.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot %s: %w", path, err)
	}

	var state map[string]baseline.SignalState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}

	return state, nil
}

// list returns snapshot file names sorted oldest first. Names embed a
// nanosecond timestamp, so lexicographic order is chronological.
func (s *Store) list() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// prune deletes the oldest snapshots beyond the retention count
func (s *Store) prune() error {
	files, err := s.list()
	if err != nil {
		return err
	}

	if len(files) <= s.keep {
		return nil
	}

	for _, name := range files[:len(files)-s.keep] {
		path := filepath.Join(s.dir, name)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove old snapshot %s: %w", path, err)
		}
		s.logger.Debug("Pruned old snapshot", "path", path)
	}

	return nil
}
