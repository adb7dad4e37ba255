package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tweetstats/pkg/logger"
	"tweetstats/pkg/stats"
)

const (
	latestKeyPrefix  = "tweetstats:latest:"
	historyKeyPrefix = "tweetstats:history:"
)

// RedisSink stores the latest snapshot per account plus a bounded run
// history, so later runs (and other consumers) can read prior results
// without re-querying the API
type RedisSink struct {
	client      *redis.Client
	historySize int
	logger      logger.Logger
}

// NewRedisSink creates a redis sink
func NewRedisSink(addr, password string, db, historySize int, log logger.Logger) *RedisSink {
	if log == nil {
		log = logger.GetLogger()
	}
	if historySize <= 0 {
		historySize = 100
	}

	return &RedisSink{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		historySize: historySize,
		logger:      log,
	}
}

// NewRedisSinkWithClient creates a redis sink around an existing client
func NewRedisSinkWithClient(client *redis.Client, historySize int, log logger.Logger) *RedisSink {
	s := NewRedisSink("", "", 0, historySize, log)
	s.client = client
	return s
}

// Name identifies the sink
func (s *RedisSink) Name() string { return "redis" }

// Publish stores the snapshot as the latest value and appends it to the
// account's run history, trimming the history to its configured bound
func (s *RedisSink) Publish(ctx context.Context, snapshot *stats.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	latestKey := latestKeyPrefix + snapshot.Username
	historyKey := historyKeyPrefix + snapshot.Username

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, latestKey, data, 0)
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, int64(s.historySize)-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store snapshot in redis: %w", err)
	}

	s.logger.DebugWithFields("stored snapshot in redis", map[string]interface{}{
		"username": snapshot.Username,
		"run_id":   snapshot.RunID,
	})

	return nil
}

// Latest returns the most recent snapshot stored for a username.
// Returns (nil, nil) when none exists.
func (s *RedisSink) Latest(ctx context.Context, username string) (*stats.Snapshot, error) {
	data, err := s.client.Get(ctx, latestKeyPrefix+username).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest snapshot: %w", err)
	}

	var snapshot stats.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// History returns up to limit prior snapshots for a username, newest first
func (s *RedisSink) History(ctx context.Context, username string, limit int) ([]*stats.Snapshot, error) {
	if limit <= 0 || limit > s.historySize {
		limit = s.historySize
	}

	values, err := s.client.LRange(ctx, historyKeyPrefix+username, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot history: %w", err)
	}

	snapshots := make([]*stats.Snapshot, 0, len(values))
	for _, v := range values {
		var snapshot stats.Snapshot
		if err := json.Unmarshal([]byte(v), &snapshot); err != nil {
			continue
		}
		snapshots = append(snapshots, &snapshot)
	}
	return snapshots, nil
}

// Close releases the underlying redis connection
func (s *RedisSink) Close() error {
	return s.client.Close()
}
