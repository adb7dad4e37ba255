// Package storage maintains the on-disk report archive. Each collection run
// is stored as one JSON file named <username>-<runid>.json; writes are atomic
// and existing run IDs are indexed at startup for duplicate detection.
package storage
