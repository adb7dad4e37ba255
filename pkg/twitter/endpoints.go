package twitter

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// BaseURL is the default base URL for the Twitter REST API
	BaseURL = "https://api.twitter.com"

	// VerifyEndpoint checks that the bearer token is accepted
	VerifyEndpoint = "/1.1/application/rate_limit_status.json"

	// UserShowEndpoint returns a user profile with its public counters
	UserShowEndpoint = "/1.1/users/show.json"

	// UserTimelineEndpoint returns a page of a user's recent statuses
	UserTimelineEndpoint = "/1.1/statuses/user_timeline.json"

	// FollowerIDsEndpoint returns a cursored page of follower IDs
	FollowerIDsEndpoint = "/1.1/followers/ids.json"

	// DefaultPageSize is the default number of tweets per timeline request
	DefaultPageSize = 200

	// MaxPageSize is the largest page the timeline endpoint accepts
	MaxPageSize = 200
)

// VerifyURL constructs the URL for the credential check
func VerifyURL(baseURL string) string {
	params := url.Values{}
	params.Set("resources", "users,statuses,followers")
	return fmt.Sprintf("%s%s?%s", baseURL, VerifyEndpoint, params.Encode())
}

// UserShowURL constructs the URL for fetching a user's profile
func UserShowURL(baseURL, screenName string) string {
	params := url.Values{}
	params.Set("screen_name", screenName)
	return fmt.Sprintf("%s%s?%s", baseURL, UserShowEndpoint, params.Encode())
}

// UserTimelineURL constructs the URL for one timeline page. A maxID of 0
// means the newest page; otherwise only tweets with id <= maxID are returned.
func UserTimelineURL(baseURL, screenName string, maxID int64, count int) string {
	if count <= 0 {
		count = DefaultPageSize
	} else if count > MaxPageSize {
		count = MaxPageSize
	}

	params := url.Values{}
	params.Set("screen_name", screenName)
	params.Set("count", strconv.Itoa(count))
	params.Set("include_rts", "true")
	params.Set("trim_user", "true")
	if maxID > 0 {
		params.Set("max_id", strconv.FormatInt(maxID, 10))
	}
	return fmt.Sprintf("%s%s?%s", baseURL, UserTimelineEndpoint, params.Encode())
}

// FollowerIDsURL constructs the URL for one page of follower IDs. A cursor
// of 0 or -1 starts from the first page.
func FollowerIDsURL(baseURL, screenName string, cursor int64) string {
	if cursor == 0 {
		cursor = -1
	}

	params := url.Values{}
	params.Set("screen_name", screenName)
	params.Set("cursor", strconv.FormatInt(cursor, 10))
	params.Set("stringify_ids", "false")
	return fmt.Sprintf("%s%s?%s", baseURL, FollowerIDsEndpoint, params.Encode())
}

// IsValidScreenName checks a screen name against Twitter's character rules
func IsValidScreenName(screenName string) bool {
	if screenName == "" || len(screenName) > 15 {
		return false
	}

	for _, char := range screenName {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}

	return true
}

// SanitizeScreenName strips the leading @ and trailing junk from user input
func SanitizeScreenName(screenName string) string {
	if screenName == "" {
		return ""
	}

	if screenName[0] == '@' {
		screenName = screenName[1:]
	}
	for len(screenName) > 0 && (screenName[len(screenName)-1] == '/' || screenName[len(screenName)-1] == ' ') {
		screenName = screenName[:len(screenName)-1]
	}

	return screenName
}
