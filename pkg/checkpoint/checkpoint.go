package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"tweetstats/pkg/logger"
)

// Checkpoint represents the state of a collection run so an interrupted
// run can resume where it stopped instead of re-fetching every page
type Checkpoint struct {
	Username       string           `json:"username"`
	RunID          string           `json:"run_id"`
	ProfileDone    bool             `json:"profile_done"`
	TimelineMaxID  int64            `json:"timeline_max_id"`
	TimelinePages  int              `json:"timeline_pages"`
	TimelineDone   bool             `json:"timeline_done"`
	FollowerCursor int64            `json:"follower_cursor"`
	FollowerPages  int              `json:"follower_pages"`
	FollowersDone  bool             `json:"followers_done"`
	Metrics        map[string]int64 `json:"metrics"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Version        int              `json:"version"`
}

// Manager handles checkpoint operations for one username
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a new checkpoint manager
func NewManager(username string) (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}

	checkpointsDir := filepath.Join(dataDir, "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &Manager{
		checkpointPath: filepath.Join(checkpointsDir, fmt.Sprintf("%s.checkpoint.json", username)),
		logger:         logger.GetLogger(),
	}, nil
}

// Create creates and persists a fresh checkpoint
func (m *Manager) Create(username, runID string) (*Checkpoint, error) {
	cp := &Checkpoint{
		Username:  username,
		RunID:     runID,
		Metrics:   make(map[string]int64),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Version:   1,
	}

	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("checkpoint created", map[string]interface{}{
		"username": username,
		"run_id":   runID,
		"path":     m.checkpointPath,
	})

	return cp, nil
}

// Load loads an existing checkpoint. Returns (nil, nil) when none exists.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.Metrics == nil {
		cp.Metrics = make(map[string]int64)
	}

	m.logger.InfoWithFields("checkpoint loaded", map[string]interface{}{
		"username":       cp.Username,
		"timeline_pages": cp.TimelinePages,
		"follower_pages": cp.FollowerPages,
		"updated_at":     cp.UpdatedAt,
	})

	return &cp, nil
}

// Save persists the checkpoint to disk atomically
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"username":       cp.Username,
		"timeline_pages": cp.TimelinePages,
	})

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Debug("checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// UpdateTimeline records timeline pagination progress and saves
func (m *Manager) UpdateTimeline(cp *Checkpoint, maxID int64, pages int, done bool) error {
	cp.TimelineMaxID = maxID
	cp.TimelinePages = pages
	cp.TimelineDone = done
	return m.Save(cp)
}

// UpdateFollowers records follower pagination progress and saves
func (m *Manager) UpdateFollowers(cp *Checkpoint, cursor int64, pages int, done bool) error {
	cp.FollowerCursor = cursor
	cp.FollowerPages = pages
	cp.FollowersDone = done
	return m.Save(cp)
}

// Info returns a summary of the current checkpoint for display
func (m *Manager) Info() (map[string]interface{}, error) {
	cp, err := m.Load()
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, nil
	}

	return map[string]interface{}{
		"username":       cp.Username,
		"run_id":         cp.RunID,
		"timeline_pages": cp.TimelinePages,
		"follower_pages": cp.FollowerPages,
		"updated_at":     cp.UpdatedAt,
		"age":            time.Since(cp.UpdatedAt),
	}, nil
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "tweetstats")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "tweetstats")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "tweetstats")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "tweetstats")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
