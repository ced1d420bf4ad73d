package utils

import "errors"

// Error taxonomy for the submission/result pipeline. Handlers map these to
// HTTP statuses with errors.Is; everything else is treated as a 500.
var (
	// ErrInvalidInput is client-caused (bad content type, empty or oversized
	// file). Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when no analysis exists for the given id.
	ErrNotFound = errors.New("record not found")

	// ErrUpstreamUnavailable covers job-store, queue and blob-store I/O
	// failures during submission. The caller sees a 503; no compensating
	// rollback is attempted (a partially created job stays in `processing`
	// until the stuck-job sweeper picks it up).
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
