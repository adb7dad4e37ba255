package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"tweetstats/pkg/stats"
)

// Manager handles the on-disk report archive and duplicate run detection
type Manager struct {
	archiveDir   string
	archivedRuns map[string]bool
	mu           sync.RWMutex
}

// NewManager creates a new archive manager rooted at archiveDir
func NewManager(archiveDir string) (*Manager, error) {
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	manager := &Manager{
		archiveDir:   archiveDir,
		archivedRuns: make(map[string]bool),
	}

	if err := manager.scanExistingReports(); err != nil {
		return nil, fmt.Errorf("failed to scan existing reports: %w", err)
	}

	return manager, nil
}

// scanExistingReports indexes run IDs of reports already on disk
func (m *Manager) scanExistingReports() error {
	entries, err := os.ReadDir(m.archiveDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		// Filename format: <username>-<runid>.json
		name := strings.TrimSuffix(entry.Name(), ".json")
		if i := strings.LastIndex(name, "-"); i >= 0 {
			m.archivedRuns[name[i+1:]] = true
		}
	}

	return nil
}

// IsArchived checks if a report for the given run ID is already on disk
func (m *Manager) IsArchived(runID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.archivedRuns[runID]
}

// SaveSnapshot writes a snapshot to the archive atomically
func (m *Manager) SaveSnapshot(snapshot *stats.Snapshot) (string, error) {
	filename := filepath.Join(m.archiveDir, fmt.Sprintf("%s-%s.json", snapshot.Username, snapshot.RunID))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.archivedRuns[snapshot.RunID] = true
	m.mu.Unlock()

	return filename, nil
}

// ListSnapshots loads archived snapshots for a username, newest first.
// An empty username lists every archived snapshot.
func (m *Manager) ListSnapshots(username string) ([]*stats.Snapshot, error) {
	entries, err := os.ReadDir(m.archiveDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var snapshots []*stats.Snapshot
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if username != "" && !strings.HasPrefix(entry.Name(), username+"-") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.archiveDir, entry.Name()))
		if err != nil {
			continue
		}
		var snapshot stats.Snapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			continue
		}
		snapshots = append(snapshots, &snapshot)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CollectedAt.After(snapshots[j].CollectedAt)
	})

	return snapshots, nil
}

// ArchiveDir returns the archive directory path
func (m *Manager) ArchiveDir() string {
	return m.archiveDir
}

// Count returns the number of archived runs
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.archivedRuns)
}
