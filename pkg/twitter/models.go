package twitter

// User represents a Twitter user profile with its public counters
type User struct {
	ID              int64  `json:"id"`
	ScreenName      string `json:"screen_name"`
	Name            string `json:"name"`
	Protected       bool   `json:"protected"`
	FollowersCount  int64  `json:"followers_count"`
	FriendsCount    int64  `json:"friends_count"`
	StatusesCount   int64  `json:"statuses_count"`
	FavouritesCount int64  `json:"favourites_count"`
	ListedCount     int64  `json:"listed_count"`
}

// Tweet represents a single timeline status
type Tweet struct {
	ID                int64  `json:"id"`
	CreatedAt         string `json:"created_at"`
	Text              string `json:"text"`
	RetweetCount      int64  `json:"retweet_count"`
	FavoriteCount     int64  `json:"favorite_count"`
	InReplyToStatusID *int64 `json:"in_reply_to_status_id"`
	RetweetedStatus   *struct {
		ID int64 `json:"id"`
	} `json:"retweeted_status"`
}

// IsRetweet reports whether the tweet is a retweet of another status
func (t *Tweet) IsRetweet() bool {
	return t.RetweetedStatus != nil
}

// IsReply reports whether the tweet replies to another status
func (t *Tweet) IsReply() bool {
	return t.InReplyToStatusID != nil
}

// FollowerIDsPage is one page of a cursored followers/ids response
type FollowerIDsPage struct {
	IDs            []int64 `json:"ids"`
	NextCursor     int64   `json:"next_cursor"`
	PreviousCursor int64   `json:"previous_cursor"`
}

// HasNextPage reports whether another page of follower IDs exists
func (p *FollowerIDsPage) HasNextPage() bool {
	return p.NextCursor != 0
}

// apiErrorBody is the error envelope the API returns on failures
type apiErrorBody struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// rateLimitStatus is the (partial) response of application/rate_limit_status,
// used only to verify that the bearer token is accepted
type rateLimitStatus struct {
	RateLimitContext struct {
		Application string `json:"application"`
	} `json:"rate_limit_context"`
}
