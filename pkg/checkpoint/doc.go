// Package checkpoint persists collection progress so interrupted runs can
// resume. One JSON checkpoint file is kept per username under the OS data
// directory; saves are atomic (write to temp file, fsync, rename) so a crash
// mid-save never corrupts the previous state.
//
// The checkpoint records the timeline max_id and follower cursor of the last
// completed page plus the partial metric counts accumulated so far. Resuming
// replays neither pages nor counts.
package checkpoint
