package checkpoint

import (
	"os"
	"testing"
)

func TestCheckpointManager(t *testing.T) {
	// Create a temporary directory for testing
	tempDir, err := os.MkdirTemp("", "checkpoint_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Set environment variable to use temp directory
	os.Setenv("XDG_DATA_HOME", tempDir)
	defer os.Unsetenv("XDG_DATA_HOME")

	username := "testuser"

	t.Run("CreateAndLoad", func(t *testing.T) {
		mgr, err := NewManager(username)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(username, "run-12345")
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		if cp.Username != username {
			t.Errorf("Expected username %s, got %s", username, cp.Username)
		}
		if cp.RunID != "run-12345" {
			t.Errorf("Expected run ID run-12345, got %s", cp.RunID)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded == nil {
			t.Fatal("Expected checkpoint, got nil")
		}
		if loaded.Username != username {
			t.Errorf("Expected loaded username %s, got %s", username, loaded.Username)
		}
		if loaded.RunID != "run-12345" {
			t.Errorf("Expected loaded run ID run-12345, got %s", loaded.RunID)
		}
	})

	t.Run("LoadMissingReturnsNil", func(t *testing.T) {
		mgr, err := NewManager("nocheckpoint")
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Expected no error for missing checkpoint, got %v", err)
		}
		if loaded != nil {
			t.Fatal("Expected nil checkpoint when none exists")
		}
	})

	t.Run("UpdateTimeline", func(t *testing.T) {
		mgr, err := NewManager(username)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(username, "run-12345")
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		err = mgr.UpdateTimeline(cp, 99887766, 3, false)
		if err != nil {
			t.Fatalf("Failed to update timeline progress: %v", err)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded.TimelineMaxID != 99887766 {
			t.Errorf("Expected max ID 99887766, got %d", loaded.TimelineMaxID)
		}
		if loaded.TimelinePages != 3 {
			t.Errorf("Expected 3 pages, got %d", loaded.TimelinePages)
		}
		if loaded.TimelineDone {
			t.Error("Expected timeline to not be done")
		}
	})

	t.Run("UpdateFollowers", func(t *testing.T) {
		mgr, err := NewManager(username)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(username, "run-12345")
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		err = mgr.UpdateFollowers(cp, 1357924680, 2, true)
		if err != nil {
			t.Fatalf("Failed to update follower progress: %v", err)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded.FollowerCursor != 1357924680 {
			t.Errorf("Expected cursor 1357924680, got %d", loaded.FollowerCursor)
		}
		if loaded.FollowerPages != 2 {
			t.Errorf("Expected 2 pages, got %d", loaded.FollowerPages)
		}
		if !loaded.FollowersDone {
			t.Error("Expected followers to be done")
		}
	})

	t.Run("MetricsSurviveRoundTrip", func(t *testing.T) {
		mgr, err := NewManager(username)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(username, "run-12345")
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		cp.ProfileDone = true
		cp.Metrics["followers"] = 1500
		cp.Metrics["timeline_tweets"] = 400
		if err := mgr.Save(cp); err != nil {
			t.Fatalf("Failed to save checkpoint: %v", err)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if !loaded.ProfileDone {
			t.Error("Expected profile to be done")
		}
		if loaded.Metrics["followers"] != 1500 {
			t.Errorf("Expected 1500 followers, got %d", loaded.Metrics["followers"])
		}
		if loaded.Metrics["timeline_tweets"] != 400 {
			t.Errorf("Expected 400 timeline tweets, got %d", loaded.Metrics["timeline_tweets"])
		}
	})

	t.Run("Delete", func(t *testing.T) {
		mgr, err := NewManager(username)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		_, err = mgr.Create(username, "run-12345")
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		if !mgr.Exists() {
			t.Fatal("Expected checkpoint to exist")
		}

		if err := mgr.Delete(); err != nil {
			t.Fatalf("Failed to delete checkpoint: %v", err)
		}

		if mgr.Exists() {
			t.Error("Expected checkpoint to be gone after delete")
		}

		// Deleting a missing checkpoint is not an error
		if err := mgr.Delete(); err != nil {
			t.Errorf("Expected deleting missing checkpoint to succeed, got %v", err)
		}
	})

	t.Run("Info", func(t *testing.T) {
		mgr, err := NewManager(username)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(username, "run-12345")
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		if err := mgr.UpdateTimeline(cp, 100, 7, false); err != nil {
			t.Fatalf("Failed to update checkpoint: %v", err)
		}

		info, err := mgr.Info()
		if err != nil {
			t.Fatalf("Failed to get info: %v", err)
		}
		if info["username"] != username {
			t.Errorf("Expected username %s in info, got %v", username, info["username"])
		}
		if info["timeline_pages"] != 7 {
			t.Errorf("Expected 7 timeline pages in info, got %v", info["timeline_pages"])
		}
	})
}
