package main

import "errors"

// Error taxonomy for the sync run. The orchestrator contains failures at the
// smallest unit that preserves forward progress; these sentinels let callers
// distinguish the two cases that change behaviour from plain failures.
var (
	// ErrRateLimited marks a remote throttle. Nothing is retried in-process;
	// the next scheduled run re-derives the same window and picks up there.
	ErrRateLimited = errors.New("rate limited by remote")

	// ErrNotFound marks a channel or message that vanished between listing
	// and fetch. The affected item is skipped.
	ErrNotFound = errors.New("not found on remote")
)
