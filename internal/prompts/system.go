package prompts

import (
	"context"

	"github.com/google/uuid"

	"github.com/careline/triage/pkg/pagination"
)

// System defines the public contract for prompt domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Prompt], error)

	Find(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Create(ctx context.Context, cmd CreateCommand) (*Prompt, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Prompt, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error)

	// Instructions returns the effective instruction template for a stage:
	// the active database override if one exists, otherwise the built-in default.
	Instructions(ctx context.Context, stage Stage) (string, error)

	// Render resolves a stage's effective instructions, substitutes the
	// supplied template variables, and appends the stage's output
	// specification. The result is the complete system prompt for the stage.
	Render(ctx context.Context, stage Stage, vars map[string]string) (string, error)
}
