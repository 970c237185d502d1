package pipeline

import "errors"

// Pipeline failure modes. Every error returned from Execute wraps exactly
// one of these sentinels so callers can classify the failure without
// string matching.
var (
	ErrContextUnavailable = errors.New("grounding context unavailable")
	ErrTemplateRender     = errors.New("instruction template render failed")
	ErrAgentInvocation    = errors.New("agent invocation failed")
	ErrMalformedReply     = errors.New("agent reply malformed")
	ErrPersistence        = errors.New("task persistence failed")
)

// Kind returns the stable classification tag for a pipeline error, suitable
// for logs and API error bodies. Unrecognized errors classify as internal_error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrContextUnavailable):
		return "context_unavailable"
	case errors.Is(err, ErrTemplateRender):
		return "template_render_error"
	case errors.Is(err, ErrAgentInvocation):
		return "agent_invocation_error"
	case errors.Is(err, ErrMalformedReply):
		return "agent_output_malformed"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	default:
		return "internal_error"
	}
}
