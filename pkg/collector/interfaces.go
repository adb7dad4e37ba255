package collector

import (
	"context"

	"tweetstats/pkg/twitter"
)

// TwitterClient abstracts the API calls the collector issues, so tests can
// substitute a fake
type TwitterClient interface {
	VerifyCredentials(ctx context.Context) error
	GetUser(ctx context.Context, screenName string) (*twitter.User, error)
	GetUserTimeline(ctx context.Context, screenName string, maxID int64, count int) ([]twitter.Tweet, error)
	GetFollowerIDs(ctx context.Context, screenName string, cursor int64) (*twitter.FollowerIDsPage, error)
}
