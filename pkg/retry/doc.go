// Package retry provides retry logic with configurable backoff strategies.
//
// Transient failures (network errors, 429 rate limits, 5xx responses) are
// retried up to a bounded number of attempts; authentication and not-found
// errors fail immediately. Rate limit errors select a much longer backoff
// than ordinary network errors so the collector waits out the API window
// instead of hammering it.
//
// Usage:
//
//	retrier := retry.NewAPIRetrier(3, logger.GetLogger())
//	err := retrier.Do(ctx, func() error {
//	    return client.VerifyCredentials(ctx)
//	})
package retry
