package grounding

import "errors"

// ErrContextUnavailable indicates the reference snapshot could not be
// fetched; the run aborts before any stage executes.
var ErrContextUnavailable = errors.New("grounding context unavailable")
