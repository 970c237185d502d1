package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/careline/triage/internal/generation"
	"github.com/careline/triage/internal/grounding"
	"github.com/careline/triage/internal/prompts"
)

// Persister saves a completed task payload. Save is not idempotent:
// re-running the same transcript inserts a new row each time.
type Persister interface {
	Save(ctx context.Context, payload *TaskPayload, transcriptID *uuid.UUID) (uuid.UUID, error)
}

// Runtime bundles the dependencies that pipeline stages require.
// It is constructed by higher-level composition code from Infrastructure
// and Domain systems. Clock defaults to time.Now when nil; tests inject a
// fixed clock to make lineage timestamps deterministic.
type Runtime struct {
	Grounding grounding.System
	Prompts   prompts.System
	Generator generation.Client
	Persister Persister
	Logger    *slog.Logger
	Clock     func() time.Time
}

func (rt *Runtime) now() time.Time {
	if rt.Clock != nil {
		return rt.Clock()
	}
	return time.Now().UTC()
}
