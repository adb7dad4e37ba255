package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tweetstats/pkg/checkpoint"
	"tweetstats/pkg/config"
	errs "tweetstats/pkg/errors"
	"tweetstats/pkg/logger"
	"tweetstats/pkg/ratelimit"
	"tweetstats/pkg/retry"
	"tweetstats/pkg/sink"
	"tweetstats/pkg/stats"
	"tweetstats/pkg/twitter"
)

// Options controls checkpoint handling for one collection run
type Options struct {
	// Resume continues from an existing checkpoint
	Resume bool
	// ForceRestart discards an existing checkpoint and starts fresh
	ForceRestart bool
}

// Collector orchestrates one statistics collection run: credential check,
// profile gauges, timeline pages, follower pages, then delivery to sinks.
// A run is strictly sequential; pagination makes it so anyway.
type Collector struct {
	client      TwitterClient
	rateLimiter ratelimit.Limiter
	retrier     *retry.APIRetrier
	sinks       *sink.Multi
	config      *config.Config
	logger      logger.Logger
}

// New creates a Collector wired from configuration
func New(cfg *config.Config) (*Collector, error) {
	log := logger.GetLogger()

	client := twitter.NewClient(
		cfg.Twitter.BaseURL,
		cfg.Twitter.BearerToken,
		cfg.Collect.RequestTimeout,
		log,
	)
	if cfg.Twitter.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Twitter.UserAgent)
	}

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)

	sinks, err := buildSinks(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build sinks: %w", err)
	}

	return &Collector{
		client:      client,
		rateLimiter: limiter,
		retrier:     retry.NewAPIRetrier(cfg.Retry.MaxAttempts, log),
		sinks:       sinks,
		config:      cfg,
		logger:      log,
	}, nil
}

// NewWithClient creates a Collector with an injected client, limiter and
// sinks. Used by tests and the fan-out pool.
func NewWithClient(cfg *config.Config, client TwitterClient, limiter ratelimit.Limiter, sinks *sink.Multi, log logger.Logger) *Collector {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)
	}
	if sinks == nil {
		sinks = sink.NewMulti(log)
	}

	return &Collector{
		client:      client,
		rateLimiter: limiter,
		retrier:     retry.NewAPIRetrier(cfg.Retry.MaxAttempts, log),
		sinks:       sinks,
		config:      cfg,
		logger:      log,
	}
}

// buildSinks assembles the sink fan-out from configuration
func buildSinks(cfg *config.Config, log logger.Logger) (*sink.Multi, error) {
	var sinks []sink.Sink

	if cfg.Sinks.Stdout.Enabled {
		sinks = append(sinks, sink.NewStdoutSink(cfg.Sinks.Stdout.Format))
	}
	if cfg.Sinks.Archive.Enabled {
		archive, err := sink.NewArchiveSink(cfg.Sinks.Archive.Directory)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, archive)
	}
	if cfg.Sinks.Influx.Enabled {
		sinks = append(sinks, sink.NewInfluxSink(
			cfg.Sinks.Influx.Host,
			cfg.Sinks.Influx.Database,
			cfg.Sinks.Influx.Username,
			cfg.Sinks.Influx.Password,
			log,
		))
	}
	if cfg.Sinks.Redis.Enabled {
		sinks = append(sinks, sink.NewRedisSink(
			cfg.Sinks.Redis.Addr,
			cfg.Sinks.Redis.Password,
			cfg.Sinks.Redis.DB,
			cfg.Sinks.Redis.HistorySize,
			log,
		))
	}

	return sink.NewMulti(log, sinks...), nil
}

// Collect runs a full collection for one username and publishes the result
func (c *Collector) Collect(ctx context.Context, username string) (*stats.Snapshot, error) {
	return c.CollectWithOptions(ctx, username, Options{})
}

// CollectWithOptions runs a collection with explicit checkpoint handling
func (c *Collector) CollectWithOptions(ctx context.Context, username string, opts Options) (*stats.Snapshot, error) {
	username = twitter.SanitizeScreenName(username)
	if !twitter.IsValidScreenName(username) {
		return nil, fmt.Errorf("invalid screen name: %q", username)
	}

	checkpointMgr, err := checkpoint.NewManager(username)
	if err != nil {
		c.logger.WithError(err).WithField("username", username).Error("failed to create checkpoint manager")
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	cp, err := c.prepareCheckpoint(checkpointMgr, username, opts)
	if err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("starting collection", map[string]interface{}{
		"username": username,
		"run_id":   cp.RunID,
		"resumed":  opts.Resume && (cp.ProfileDone || cp.TimelinePages > 0),
	})

	start := time.Now()

	// Restore partial counts from the checkpoint
	report := stats.NewReport()
	for name, v := range cp.Metrics {
		report.Set(name, v)
	}

	// Authenticate once at startup; a bad token fails the whole run
	c.rateLimiter.Wait()
	if err := c.retrier.Do(ctx, func() error {
		return c.client.VerifyCredentials(ctx)
	}); err != nil {
		return nil, fmt.Errorf("credential verification failed: %w", err)
	}

	// On a phase failure the checkpoint stays behind for --resume and the
	// partial snapshot carries whatever was collected up to that point
	if err := c.collectProfile(ctx, username, report, checkpointMgr, cp); err != nil {
		return c.partialSnapshot(cp.RunID, username, report, start), err
	}
	if err := c.collectTimeline(ctx, username, report, checkpointMgr, cp); err != nil {
		return c.partialSnapshot(cp.RunID, username, report, start), err
	}
	if err := c.collectFollowers(ctx, username, report, checkpointMgr, cp); err != nil {
		return c.partialSnapshot(cp.RunID, username, report, start), err
	}

	snapshot := stats.NewSnapshotForRun(cp.RunID, username, report)
	snapshot.Duration = time.Since(start)

	// Collection is complete; the checkpoint has served its purpose
	if err := checkpointMgr.Delete(); err != nil {
		c.logger.WithError(err).Warn("failed to delete checkpoint")
	}

	c.logger.InfoWithFields("collection finished", map[string]interface{}{
		"username": username,
		"run_id":   snapshot.RunID,
		"metrics":  len(snapshot.Metrics),
		"duration": snapshot.Duration,
	})

	if err := c.sinks.Publish(ctx, snapshot); err != nil {
		return snapshot, fmt.Errorf("failed to publish report: %w", err)
	}

	return snapshot, nil
}

// prepareCheckpoint loads, discards or creates the checkpoint per options
func (c *Collector) prepareCheckpoint(mgr *checkpoint.Manager, username string, opts Options) (*checkpoint.Checkpoint, error) {
	if opts.ForceRestart && mgr.Exists() {
		if err := mgr.Delete(); err != nil {
			c.logger.WithError(err).Warn("failed to delete existing checkpoint")
		}
	} else if opts.Resume && mgr.Exists() {
		cp, err := mgr.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp != nil {
			c.logger.InfoWithFields("resuming from checkpoint", map[string]interface{}{
				"username":       username,
				"run_id":         cp.RunID,
				"timeline_pages": cp.TimelinePages,
			})
			return cp, nil
		}
	} else if mgr.Exists() {
		return nil, fmt.Errorf("checkpoint exists for %s - use --resume to continue or --force-restart to start fresh", username)
	}

	return mgr.Create(username, stats.NewRunID())
}

// collectProfile fetches the profile gauges unless already checkpointed
func (c *Collector) collectProfile(ctx context.Context, username string, report *stats.Report, mgr *checkpoint.Manager, cp *checkpoint.Checkpoint) error {
	if cp.ProfileDone {
		return nil
	}

	c.rateLimiter.Wait()
	user, err := retry.DoWithResult(func() (*twitter.User, error) {
		return c.client.GetUser(ctx, username)
	}, c.retryConfig(ctx))
	if err != nil {
		return fmt.Errorf("failed to fetch user profile: %w", err)
	}

	report.Set(stats.MetricFollowers, user.FollowersCount)
	report.Set(stats.MetricFollowing, user.FriendsCount)
	report.Set(stats.MetricTweets, user.StatusesCount)
	report.Set(stats.MetricLikesGiven, user.FavouritesCount)
	report.Set(stats.MetricListed, user.ListedCount)

	c.logger.InfoWithFields("fetched profile", map[string]interface{}{
		"username":  username,
		"followers": user.FollowersCount,
		"tweets":    user.StatusesCount,
	})

	cp.ProfileDone = true
	cp.Metrics = report.Counts()
	return mgr.Save(cp)
}

// collectTimeline pages backwards through the timeline aggregating counts
func (c *Collector) collectTimeline(ctx context.Context, username string, report *stats.Report, mgr *checkpoint.Manager, cp *checkpoint.Checkpoint) error {
	if cp.TimelineDone {
		return nil
	}

	pageSize := c.config.Collect.PageSize

	for cp.TimelinePages < c.config.Collect.TimelinePages {
		c.rateLimiter.Wait()
		tweets, err := retry.DoWithResult(func() ([]twitter.Tweet, error) {
			return c.client.GetUserTimeline(ctx, username, cp.TimelineMaxID, pageSize)
		}, c.retryConfig(ctx))
		if err != nil {
			return fmt.Errorf("failed to fetch timeline page %d: %w", cp.TimelinePages+1, err)
		}

		if len(tweets) == 0 {
			break
		}

		minID := tweets[0].ID
		for _, tweet := range tweets {
			if tweet.ID < minID {
				minID = tweet.ID
			}

			report.Add(stats.MetricTimelineTweets, 1)
			switch {
			case tweet.IsRetweet():
				report.Add(stats.MetricTimelineRetweets, 1)
			case tweet.IsReply():
				report.Add(stats.MetricTimelineReplies, 1)
			default:
				// Engagement counts only make sense on original tweets;
				// retweets mirror the source tweet's counters
				report.Add(stats.MetricRetweetsReceived, tweet.RetweetCount)
				report.Add(stats.MetricFavoritesReceived, tweet.FavoriteCount)
			}
		}

		done := len(tweets) < pageSize
		cp.Metrics = report.Counts()
		if err := mgr.UpdateTimeline(cp, minID-1, cp.TimelinePages+1, done); err != nil {
			c.logger.WithError(err).Warn("failed to save checkpoint")
		}

		c.logger.DebugWithFields("processed timeline page", map[string]interface{}{
			"username": username,
			"page":     cp.TimelinePages,
			"tweets":   len(tweets),
		})

		if done {
			return nil
		}
	}

	cp.TimelineDone = true
	return mgr.Save(cp)
}

// collectFollowers pages through follower IDs counting the sampled total
func (c *Collector) collectFollowers(ctx context.Context, username string, report *stats.Report, mgr *checkpoint.Manager, cp *checkpoint.Checkpoint) error {
	if cp.FollowersDone {
		return nil
	}

	for cp.FollowerPages < c.config.Collect.FollowerPages {
		c.rateLimiter.Wait()
		page, err := retry.DoWithResult(func() (*twitter.FollowerIDsPage, error) {
			return c.client.GetFollowerIDs(ctx, username, cp.FollowerCursor)
		}, c.retryConfig(ctx))
		if err != nil {
			return fmt.Errorf("failed to fetch follower page %d: %w", cp.FollowerPages+1, err)
		}

		report.Add(stats.MetricFollowersSampled, int64(len(page.IDs)))

		done := !page.HasNextPage()
		cp.Metrics = report.Counts()
		if err := mgr.UpdateFollowers(cp, page.NextCursor, cp.FollowerPages+1, done); err != nil {
			c.logger.WithError(err).Warn("failed to save checkpoint")
		}

		if done {
			return nil
		}
	}

	cp.FollowersDone = true
	return mgr.Save(cp)
}

// partialSnapshot packages the progress of a failed run. It is returned
// alongside the error and never published to sinks by the collector.
func (c *Collector) partialSnapshot(runID, username string, report *stats.Report, start time.Time) *stats.Snapshot {
	snapshot := stats.NewSnapshotForRun(runID, username, report)
	snapshot.Duration = time.Since(start)
	snapshot.Partial = true
	return snapshot
}

// retryConfig builds a per-call retry configuration bound to ctx
func (c *Collector) retryConfig(ctx context.Context) *retry.Config {
	return &retry.Config{
		MaxAttempts: c.config.Retry.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    c.config.Retry.BaseDelay,
			MaxDelay:     c.config.Retry.MaxDelay,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  c.logger,
	}
}

// Sinks returns the configured sink fan-out
func (c *Collector) Sinks() *sink.Multi {
	return c.sinks
}

// Classify maps an arbitrary error to its taxonomy type for exit reporting
func Classify(err error) errs.ErrorType {
	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return errs.ErrorTypeUnknown
}
