package sink

import (
	"context"

	"tweetstats/pkg/stats"
	"tweetstats/pkg/storage"
)

// ArchiveSink writes snapshots to the on-disk report archive
type ArchiveSink struct {
	manager *storage.Manager
}

// NewArchiveSink creates an archive sink rooted at dir
func NewArchiveSink(dir string) (*ArchiveSink, error) {
	manager, err := storage.NewManager(dir)
	if err != nil {
		return nil, err
	}
	return &ArchiveSink{manager: manager}, nil
}

// Name identifies the sink
func (s *ArchiveSink) Name() string { return "archive" }

// Publish writes the snapshot to disk unless the run is already archived
func (s *ArchiveSink) Publish(ctx context.Context, snapshot *stats.Snapshot) error {
	if s.manager.IsArchived(snapshot.RunID) {
		return nil
	}
	_, err := s.manager.SaveSnapshot(snapshot)
	return err
}

// Manager exposes the underlying archive manager
func (s *ArchiveSink) Manager() *storage.Manager {
	return s.manager
}
