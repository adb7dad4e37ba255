// Package sink delivers finished snapshots to their destinations.
//
// Four sinks are provided: stdout (table or JSON), the on-disk report
// archive, InfluxDB (1.x line protocol, keeping the measurement schema of
// the original follower-count job) and Redis (latest snapshot plus a
// bounded run history per account). Multi fans out to several sinks and
// reports all failures together.
package sink
