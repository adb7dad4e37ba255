// Package ratelimit provides client-side rate limiting for the Twitter API.
//
// Twitter enforces per-endpoint request windows (typically 15 minutes); the
// collector stays under them instead of burning retry budget on 429 responses.
//
// Available implementations:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Matches Twitter's "N requests per window" published limits
//   - Default implementation used by the collector
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - Smoother request pacing over time
//
// All limiters implement the Limiter interface:
//   - Allow() bool - check if a request is allowed
//   - Wait() - block until a request is allowed
//   - Reset() - reset limiter state
package ratelimit
