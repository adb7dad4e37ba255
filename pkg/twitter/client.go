package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	errs "tweetstats/pkg/errors"
	"tweetstats/pkg/logger"
)

// Client is a bearer-token authenticated Twitter REST API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a new Twitter API client. The bearer token is attached
// to every request; token acquisition itself is out of scope.
func NewClient(baseURL, bearerToken string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = BaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Authorization": "Bearer " + bearerToken,
			"Accept":        "application/json",
			"User-Agent":    "tweetstats/2.0",
		},
		baseURL: baseURL,
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// BaseURL returns the base URL requests are issued against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.NewNetwork("network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// GetJSON performs a GET request and decodes the JSON response into target
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewNetwork("failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errs.New(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// checkResponseStatus maps the HTTP response status to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	message := apiErrorMessage(resp)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.NewAuth(resp.StatusCode, "%s", message)
	case http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.New(errs.ErrorTypeNotFound, resp.StatusCode, "%s", message)
	case http.StatusTooManyRequests:
		reset := rateLimitReset(resp)
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
			"reset":  reset,
		})
		return errs.NewRateLimit("%s (window resets at %s)", message, reset.Format(time.RFC3339))
	default:
		if resp.StatusCode >= 500 {
			c.logger.ErrorWithFields("server error", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return errs.New(errs.ErrorTypeServerError, resp.StatusCode, "%s", message)
		}
		c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.New(errs.ErrorTypeUnknown, resp.StatusCode, "unexpected status code %d: %s", resp.StatusCode, message)
	}
}

// apiErrorMessage extracts the first error message from the API error body
func apiErrorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var envelope apiErrorBody
		if json.Unmarshal(body, &envelope) == nil && len(envelope.Errors) > 0 {
			return fmt.Sprintf("%s (code %d)", envelope.Errors[0].Message, envelope.Errors[0].Code)
		}
	}
	return http.StatusText(resp.StatusCode)
}

// rateLimitReset reads the x-rate-limit-reset header (epoch seconds)
func rateLimitReset(resp *http.Response) time.Time {
	if v := resp.Header.Get("x-rate-limit-reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(epoch, 0)
		}
	}
	return time.Now().Add(15 * time.Minute)
}

// VerifyCredentials checks that the configured bearer token is accepted
func (c *Client) VerifyCredentials(ctx context.Context) error {
	var status rateLimitStatus
	if err := c.GetJSON(ctx, VerifyURL(c.baseURL), &status); err != nil {
		c.logger.WithError(err).Error("credential verification failed")
		return err
	}

	c.logger.Debug("credentials verified")
	return nil
}

// GetUser fetches the profile and public counters for a screen name
func (c *Client) GetUser(ctx context.Context, screenName string) (*User, error) {
	url := UserShowURL(c.baseURL, screenName)

	c.logger.DebugWithFields("fetching user profile", map[string]interface{}{
		"screen_name": screenName,
		"url":         url,
	})

	var user User
	if err := c.GetJSON(ctx, url, &user); err != nil {
		c.logger.ErrorWithFields("failed to fetch user profile", map[string]interface{}{
			"screen_name": screenName,
			"error":       err.Error(),
		})
		return nil, err
	}

	return &user, nil
}

// GetUserTimeline fetches one page of a user's timeline. Pass maxID 0 for
// the newest page; pass the lowest tweet ID minus one to page backwards.
func (c *Client) GetUserTimeline(ctx context.Context, screenName string, maxID int64, count int) ([]Tweet, error) {
	url := UserTimelineURL(c.baseURL, screenName, maxID, count)

	c.logger.DebugWithFields("fetching user timeline", map[string]interface{}{
		"screen_name": screenName,
		"max_id":      maxID,
		"url":         url,
	})

	var tweets []Tweet
	if err := c.GetJSON(ctx, url, &tweets); err != nil {
		c.logger.ErrorWithFields("failed to fetch user timeline", map[string]interface{}{
			"screen_name": screenName,
			"max_id":      maxID,
			"error":       err.Error(),
		})
		return nil, err
	}

	return tweets, nil
}

// GetFollowerIDs fetches one cursored page of follower IDs
func (c *Client) GetFollowerIDs(ctx context.Context, screenName string, cursor int64) (*FollowerIDsPage, error) {
	url := FollowerIDsURL(c.baseURL, screenName, cursor)

	c.logger.DebugWithFields("fetching follower ids", map[string]interface{}{
		"screen_name": screenName,
		"cursor":      cursor,
	})

	var page FollowerIDsPage
	if err := c.GetJSON(ctx, url, &page); err != nil {
		c.logger.ErrorWithFields("failed to fetch follower ids", map[string]interface{}{
			"screen_name": screenName,
			"cursor":      cursor,
			"error":       err.Error(),
		})
		return nil, err
	}

	return &page, nil
}
