// Package twitter implements a minimal Twitter REST API client for the
// read-only endpoints the stats collector needs: user lookup, timeline
// pages and follower ID pages.
//
// Authentication uses an app-only bearer token attached to every request.
// Obtaining the token (developer portal) and OAuth request signing are out
// of scope.
//
// Failures are returned as typed errors from pkg/errors so callers can
// distinguish authentication failures (fatal) from rate limits and network
// errors (retryable). 429 responses carry the window reset time parsed
// from the x-rate-limit-reset header.
package twitter
