package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrMissingScope indicates a request without tenant/actor context.
	ErrMissingScope = errors.New("request scope missing")
	// ErrLockNotAcquired indicates the distributed lock is held elsewhere.
	ErrLockNotAcquired = errors.New("lock not acquired")
)
