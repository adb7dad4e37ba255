package collector

import (
	"context"
	"os"
	"testing"
	"time"

	"tweetstats/pkg/checkpoint"
	"tweetstats/pkg/config"
	errs "tweetstats/pkg/errors"
	"tweetstats/pkg/logger"
	"tweetstats/pkg/sink"
	"tweetstats/pkg/stats"
	"tweetstats/pkg/twitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient scripts API responses for collector tests
type fakeClient struct {
	user          *twitter.User
	timelinePages map[int64][]twitter.Tweet
	followerPages map[int64]*twitter.FollowerIDsPage

	verifyErr   error
	userErr     error
	timelineErr error

	verifyCalls   int
	userCalls     int
	timelineCalls int
	followerCalls int
}

func (f *fakeClient) VerifyCredentials(ctx context.Context) error {
	f.verifyCalls++
	return f.verifyErr
}

func (f *fakeClient) GetUser(ctx context.Context, screenName string) (*twitter.User, error) {
	f.userCalls++
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.user, nil
}

func (f *fakeClient) GetUserTimeline(ctx context.Context, screenName string, maxID int64, count int) ([]twitter.Tweet, error) {
	f.timelineCalls++
	if f.timelineErr != nil {
		return nil, f.timelineErr
	}
	return f.timelinePages[maxID], nil
}

func (f *fakeClient) GetFollowerIDs(ctx context.Context, screenName string, cursor int64) (*twitter.FollowerIDsPage, error) {
	f.followerCalls++
	if page, ok := f.followerPages[cursor]; ok {
		return page, nil
	}
	return &twitter.FollowerIDsPage{}, nil
}

// capturingSink records published snapshots
type capturingSink struct {
	snapshots []*stats.Snapshot
}

func (c *capturingSink) Name() string { return "capture" }

func (c *capturingSink) Publish(ctx context.Context, snapshot *stats.Snapshot) error {
	c.snapshots = append(c.snapshots, snapshot)
	return nil
}

func intPtr(v int64) *int64 { return &v }

// newFakeClient scripts a profile, two timeline pages and one follower page
func newFakeClient() *fakeClient {
	return &fakeClient{
		user: &twitter.User{
			ID:              12,
			ScreenName:      "jack",
			FollowersCount:  1500,
			FriendsCount:    300,
			StatusesCount:   29000,
			FavouritesCount: 4000,
			ListedCount:     120,
		},
		timelinePages: map[int64][]twitter.Tweet{
			// Newest page: one original, one retweet
			0: {
				{ID: 300, RetweetCount: 7, FavoriteCount: 20},
				{ID: 200, RetweetedStatus: &struct {
					ID int64 `json:"id"`
				}{ID: 9999}},
			},
			// Second page: one reply, shorter than the page size so it is last
			199: {
				{ID: 100, InReplyToStatusID: intPtr(50), RetweetCount: 1, FavoriteCount: 2},
			},
		},
		followerPages: map[int64]*twitter.FollowerIDsPage{
			0: {IDs: []int64{1, 2, 3}, NextCursor: 0},
		},
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Twitter.BearerToken = "test-token"
	cfg.Collect.PageSize = 2
	cfg.Collect.TimelinePages = 10
	cfg.Collect.FollowerPages = 5
	cfg.Retry.MaxAttempts = 2
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond
	return cfg
}

func newTestCollector(t *testing.T, client TwitterClient) (*Collector, *capturingSink) {
	t.Helper()

	tempDir := t.TempDir()
	os.Setenv("XDG_DATA_HOME", tempDir)
	t.Cleanup(func() { os.Unsetenv("XDG_DATA_HOME") })

	capture := &capturingSink{}
	log := logger.NewTestLogger()
	coll := NewWithClient(testConfig(), client, nil, sink.NewMulti(log, capture), log)
	return coll, capture
}

func TestCollectProducesExactCounts(t *testing.T) {
	client := newFakeClient()
	coll, capture := newTestCollector(t, client)

	snapshot, err := coll.Collect(context.Background(), "jack")
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, "jack", snapshot.Username)
	assert.NotEmpty(t, snapshot.RunID)

	// Profile gauges come straight from the user object
	assert.Equal(t, int64(1500), snapshot.Metrics[stats.MetricFollowers])
	assert.Equal(t, int64(300), snapshot.Metrics[stats.MetricFollowing])
	assert.Equal(t, int64(29000), snapshot.Metrics[stats.MetricTweets])
	assert.Equal(t, int64(4000), snapshot.Metrics[stats.MetricLikesGiven])
	assert.Equal(t, int64(120), snapshot.Metrics[stats.MetricListed])

	// Timeline: 3 tweets total, 1 retweet, 1 reply, 1 original
	assert.Equal(t, int64(3), snapshot.Metrics[stats.MetricTimelineTweets])
	assert.Equal(t, int64(1), snapshot.Metrics[stats.MetricTimelineRetweets])
	assert.Equal(t, int64(1), snapshot.Metrics[stats.MetricTimelineReplies])

	// Engagement counts only from the original tweet
	assert.Equal(t, int64(7), snapshot.Metrics[stats.MetricRetweetsReceived])
	assert.Equal(t, int64(20), snapshot.Metrics[stats.MetricFavoritesReceived])

	// Followers sampled from the single ID page
	assert.Equal(t, int64(3), snapshot.Metrics[stats.MetricFollowersSampled])

	// The snapshot reached the sink
	require.Len(t, capture.snapshots, 1)
	assert.Equal(t, snapshot.RunID, capture.snapshots[0].RunID)

	// Exactly one verify, one profile fetch, two timeline pages, one follower page
	assert.Equal(t, 1, client.verifyCalls)
	assert.Equal(t, 1, client.userCalls)
	assert.Equal(t, 2, client.timelineCalls)
	assert.Equal(t, 1, client.followerCalls)
}

func TestCollectDeletesCheckpointOnSuccess(t *testing.T) {
	coll, _ := newTestCollector(t, newFakeClient())

	_, err := coll.Collect(context.Background(), "jack")
	require.NoError(t, err)

	mgr, err := checkpoint.NewManager("jack")
	require.NoError(t, err)
	assert.False(t, mgr.Exists())
}

func TestCollectRejectsInvalidScreenName(t *testing.T) {
	coll, _ := newTestCollector(t, newFakeClient())

	_, err := coll.Collect(context.Background(), "not a valid name!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid screen name")
}

func TestCollectSanitizesScreenName(t *testing.T) {
	coll, capture := newTestCollector(t, newFakeClient())

	snapshot, err := coll.Collect(context.Background(), "@jack")
	require.NoError(t, err)
	assert.Equal(t, "jack", snapshot.Username)
	require.Len(t, capture.snapshots, 1)
}

func TestCollectFailsOnBadCredentials(t *testing.T) {
	client := newFakeClient()
	client.verifyErr = errs.NewAuth(401, "invalid token")

	coll, capture := newTestCollector(t, client)

	_, err := coll.Collect(context.Background(), "jack")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential verification failed")

	// Auth errors are not retried
	assert.Equal(t, 1, client.verifyCalls)
	assert.Empty(t, capture.snapshots)
}

func TestCollectRetriesTransientErrors(t *testing.T) {
	client := newFakeClient()
	failures := 1
	client.userErr = nil

	// Wrap GetUser behavior: fail once with a server error, then succeed
	flaky := &flakyUserClient{fakeClient: client, failures: &failures}

	coll, _ := newTestCollector(t, flaky)

	snapshot, err := coll.Collect(context.Background(), "jack")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), snapshot.Metrics[stats.MetricFollowers])
	assert.Equal(t, 2, client.userCalls)
}

// flakyUserClient injects transient profile fetch failures
type flakyUserClient struct {
	*fakeClient
	failures *int
}

func (f *flakyUserClient) GetUser(ctx context.Context, screenName string) (*twitter.User, error) {
	if *f.failures > 0 {
		*f.failures--
		f.fakeClient.userCalls++
		return nil, errs.New(errs.ErrorTypeServerError, 503, "temporarily down")
	}
	return f.fakeClient.GetUser(ctx, screenName)
}

func TestCollectFailureReturnsPartialSnapshot(t *testing.T) {
	client := newFakeClient()
	client.timelineErr = errs.New(errs.ErrorTypeParsing, 0, "truncated response body")

	coll, capture := newTestCollector(t, client)

	snapshot, err := coll.Collect(context.Background(), "jack")
	require.Error(t, err)
	require.NotNil(t, snapshot)

	// The profile phase finished before the timeline failed
	assert.True(t, snapshot.Partial)
	assert.Equal(t, int64(1500), snapshot.Metrics[stats.MetricFollowers])
	assert.Zero(t, snapshot.Metrics[stats.MetricTimelineTweets])

	// Partial results are never published; the checkpoint stays for --resume
	assert.Empty(t, capture.snapshots)
	mgr, err := checkpoint.NewManager("jack")
	require.NoError(t, err)
	assert.True(t, mgr.Exists())
}

func TestCollectRefusesStaleCheckpointWithoutResume(t *testing.T) {
	coll, _ := newTestCollector(t, newFakeClient())

	// Leave a checkpoint behind
	mgr, err := checkpoint.NewManager("jack")
	require.NoError(t, err)
	_, err = mgr.Create("jack", "stale-run")
	require.NoError(t, err)

	_, err = coll.Collect(context.Background(), "jack")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--resume")
}

func TestCollectResumeSkipsCompletedPhases(t *testing.T) {
	client := newFakeClient()
	coll, _ := newTestCollector(t, client)

	// Checkpoint with the profile already collected
	mgr, err := checkpoint.NewManager("jack")
	require.NoError(t, err)
	cp, err := mgr.Create("jack", "resumed-run")
	require.NoError(t, err)
	cp.ProfileDone = true
	cp.Metrics = map[string]int64{stats.MetricFollowers: 1400}
	require.NoError(t, mgr.Save(cp))

	snapshot, err := coll.CollectWithOptions(context.Background(), "jack", Options{Resume: true})
	require.NoError(t, err)

	// Run ID survives the resume and the profile fetch is skipped
	assert.Equal(t, "resumed-run", snapshot.RunID)
	assert.Equal(t, 0, client.userCalls)

	// The checkpointed follower count is kept, not re-fetched
	assert.Equal(t, int64(1400), snapshot.Metrics[stats.MetricFollowers])

	// Timeline and followers still run
	assert.Equal(t, int64(3), snapshot.Metrics[stats.MetricTimelineTweets])
	assert.Equal(t, int64(3), snapshot.Metrics[stats.MetricFollowersSampled])
}

func TestCollectForceRestartDiscardsCheckpoint(t *testing.T) {
	client := newFakeClient()
	coll, _ := newTestCollector(t, client)

	mgr, err := checkpoint.NewManager("jack")
	require.NoError(t, err)
	cp, err := mgr.Create("jack", "old-run")
	require.NoError(t, err)
	cp.ProfileDone = true
	require.NoError(t, mgr.Save(cp))

	snapshot, err := coll.CollectWithOptions(context.Background(), "jack", Options{ForceRestart: true})
	require.NoError(t, err)

	// A fresh run, so the profile is fetched again under a new run ID
	assert.NotEqual(t, "old-run", snapshot.RunID)
	assert.Equal(t, 1, client.userCalls)
}

func TestCollectHonorsTimelinePageBudget(t *testing.T) {
	client := newFakeClient()
	// Every page is full, so only the budget stops pagination
	client.timelinePages = map[int64][]twitter.Tweet{}
	maxID := int64(0)
	id := int64(1000)
	for i := 0; i < 20; i++ {
		page := []twitter.Tweet{{ID: id}, {ID: id - 1}}
		client.timelinePages[maxID] = page
		maxID = id - 2
		id -= 10
	}

	coll, _ := newTestCollector(t, client)
	coll.config.Collect.TimelinePages = 3

	snapshot, err := coll.Collect(context.Background(), "jack")
	require.NoError(t, err)

	assert.Equal(t, 3, client.timelineCalls)
	assert.Equal(t, int64(6), snapshot.Metrics[stats.MetricTimelineTweets])
}

func TestCollectHonorsFollowerPageBudget(t *testing.T) {
	client := newFakeClient()
	// Endless follower pages; cursor chain 0 -> 10 -> 20 -> ...
	client.followerPages = map[int64]*twitter.FollowerIDsPage{}
	for cursor := int64(0); cursor < 200; cursor += 10 {
		client.followerPages[cursor] = &twitter.FollowerIDsPage{
			IDs:        []int64{1, 2, 3, 4, 5},
			NextCursor: cursor + 10,
		}
	}

	coll, _ := newTestCollector(t, client)
	coll.config.Collect.FollowerPages = 2

	snapshot, err := coll.Collect(context.Background(), "jack")
	require.NoError(t, err)

	assert.Equal(t, 2, client.followerCalls)
	assert.Equal(t, int64(10), snapshot.Metrics[stats.MetricFollowersSampled])
}

func TestCollectStopsOnEmptyTimeline(t *testing.T) {
	client := newFakeClient()
	client.timelinePages = map[int64][]twitter.Tweet{}

	coll, _ := newTestCollector(t, client)

	snapshot, err := coll.Collect(context.Background(), "jack")
	require.NoError(t, err)

	assert.Equal(t, 1, client.timelineCalls)
	assert.Equal(t, int64(0), snapshot.Metrics[stats.MetricTimelineTweets])
}

func TestClassify(t *testing.T) {
	assert.Equal(t, errs.ErrorTypeRateLimit, Classify(errs.NewRateLimit("slow down")))
	assert.Equal(t, errs.ErrorTypeUnknown, Classify(context.Canceled))
}
