package sink

import (
	"context"
	"errors"

	"tweetstats/pkg/logger"
	"tweetstats/pkg/stats"
)

// Sink delivers a finished snapshot somewhere: the terminal, the report
// archive, InfluxDB or Redis
type Sink interface {
	// Name identifies the sink in logs and error messages
	Name() string

	// Publish delivers the snapshot
	Publish(ctx context.Context, snapshot *stats.Snapshot) error
}

// Multi fans a snapshot out to several sinks, collecting every failure
// instead of stopping at the first one
type Multi struct {
	sinks  []Sink
	logger logger.Logger
}

// NewMulti creates a multi-sink
func NewMulti(log logger.Logger, sinks ...Sink) *Multi {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Multi{sinks: sinks, logger: log}
}

// Name identifies the multi-sink
func (m *Multi) Name() string { return "multi" }

// Publish delivers the snapshot to every sink
func (m *Multi) Publish(ctx context.Context, snapshot *stats.Snapshot) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Publish(ctx, snapshot); err != nil {
			m.logger.ErrorWithFields("sink publish failed", map[string]interface{}{
				"sink":   s.Name(),
				"run_id": snapshot.RunID,
				"error":  err.Error(),
			})
			errs = append(errs, err)
			continue
		}
		m.logger.DebugWithFields("sink publish succeeded", map[string]interface{}{
			"sink":   s.Name(),
			"run_id": snapshot.RunID,
		})
	}
	return errors.Join(errs...)
}

// Sinks returns the configured sinks
func (m *Multi) Sinks() []Sink {
	return m.sinks
}
