package stats

import (
	"sort"
	"time"

	"github.com/rs/xid"
)

// Well-known metric names produced by a collection run
const (
	MetricFollowers         = "followers"
	MetricFollowing         = "following"
	MetricTweets            = "tweets"
	MetricLikesGiven        = "likes_given"
	MetricListed            = "listed"
	MetricTimelineTweets    = "timeline_tweets"
	MetricTimelineRetweets  = "timeline_retweets"
	MetricTimelineReplies   = "timeline_replies"
	MetricRetweetsReceived  = "retweets_received"
	MetricFavoritesReceived = "favorites_received"
	MetricFollowersSampled  = "followers_sampled"
)

// Report maps metric names to aggregated counts. Counts are never negative.
type Report struct {
	counts map[string]int64
}

// NewReport creates an empty report
func NewReport() *Report {
	return &Report{counts: make(map[string]int64)}
}

// Add increments a metric by delta. Negative results clamp to zero.
func (r *Report) Add(name string, delta int64) {
	v := r.counts[name] + delta
	if v < 0 {
		v = 0
	}
	r.counts[name] = v
}

// Set assigns a metric to an absolute value. Negative values clamp to zero.
func (r *Report) Set(name string, value int64) {
	if value < 0 {
		value = 0
	}
	r.counts[name] = value
}

// Get returns the current count for a metric (zero if never recorded)
func (r *Report) Get(name string) int64 {
	return r.counts[name]
}

// Len returns the number of recorded metrics
func (r *Report) Len() int {
	return len(r.counts)
}

// Merge folds another report's counts into this one
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	for name, v := range other.counts {
		r.Add(name, v)
	}
}

// Names returns all metric names in sorted order for deterministic output
func (r *Report) Names() []string {
	names := make([]string, 0, len(r.counts))
	for name := range r.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counts returns a copy of the underlying metric map
func (r *Report) Counts() map[string]int64 {
	out := make(map[string]int64, len(r.counts))
	for name, v := range r.counts {
		out[name] = v
	}
	return out
}

// Snapshot is the result of one collection run for one account
type Snapshot struct {
	RunID       string           `json:"run_id"`
	Username    string           `json:"username"`
	CollectedAt time.Time        `json:"collected_at"`
	Duration    time.Duration    `json:"duration_ns"`
	Metrics     map[string]int64 `json:"metrics"`
	Partial     bool             `json:"partial,omitempty"`
}

// NewRunID generates a sortable unique ID for one collection run
func NewRunID() string {
	return xid.New().String()
}

// NewSnapshot freezes a report into a snapshot with a fresh run ID
func NewSnapshot(username string, report *Report) *Snapshot {
	return NewSnapshotForRun(NewRunID(), username, report)
}

// NewSnapshotForRun freezes a report into a snapshot for an existing run,
// keeping the run ID stable across checkpoint resumes
func NewSnapshotForRun(runID, username string, report *Report) *Snapshot {
	return &Snapshot{
		RunID:       runID,
		Username:    username,
		CollectedAt: time.Now().UTC(),
		Metrics:     report.Counts(),
	}
}
