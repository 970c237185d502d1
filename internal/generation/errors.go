package generation

import "errors"

var (
	// ErrUnavailable indicates the generation service could not be reached
	// or returned a server-side error after retries were exhausted.
	ErrUnavailable = errors.New("generation service unavailable")
	// ErrRequestRejected indicates the generation service rejected the
	// request itself (client-side error); never retried.
	ErrRequestRejected = errors.New("generation request rejected")
	// ErrEmptyReply indicates the service responded without any completion content.
	ErrEmptyReply = errors.New("generation reply empty")
)
