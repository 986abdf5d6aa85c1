// Package common holds the error sentinels and small shared types used
// across logloglog's packages.
package common

import "errors"

var (
	// ErrOutOfRange is returned when a line index or display row falls
	// outside [0, len). Non-fatal: callers may retry with a valid index.
	ErrOutOfRange = errors.New("logloglog: index out of range")

	// ErrCorruption is returned when an on-disk structure fails a magic,
	// size, or invariant check. Policy is to rebuild from scratch; see
	// index.Open.
	ErrCorruption = errors.New("logloglog: corrupted index")

	// ErrClosed is returned by Index.Update and Index.Append after Close
	// has been called.
	ErrClosed = errors.New("logloglog: index closed")

	// ErrInvalidConfig flags a malformed Config passed to Open.
	ErrInvalidConfig = errors.New("logloglog: invalid configuration")
)
