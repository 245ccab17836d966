package apperrors

import "errors"

var (
	ErrInvalidRange  = errors.New("invalid date range")
	ErrInvalidEvent  = errors.New("invalid visit event")
	ErrInvalidRecord = errors.New("invalid site record")
	ErrInvalidRule   = errors.New("invalid classification rule")
	ErrInvalidGoals  = errors.New("invalid goals")
	ErrExcluded      = errors.New("domain excluded from tracking")
	ErrNotFound      = errors.New("not found")

	// ErrUpstreamFetch marks a failed read from the backing store. Callers may
	// retry; nothing in this module retries on its own.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrPersist marks a failed report write. No partial report is stored.
	ErrPersist = errors.New("persist failed")
)

// IsRetryable reports whether err is worth retrying by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamFetch)
}

// IsInvalidInput reports whether err was caused by malformed caller input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, ErrInvalidRule) ||
		errors.Is(err, ErrInvalidGoals)
}
