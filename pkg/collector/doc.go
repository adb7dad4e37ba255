// Package collector orchestrates statistics collection runs.
//
// A Collector performs one run per account: verify credentials, fetch the
// profile gauges, walk the recent timeline page by page, sample follower
// IDs, then hand the finished snapshot to the configured sinks. Progress is
// checkpointed after every page so an interrupted run can resume without
// re-fetching completed pages or burning rate limit budget.
package collector
