package transcripts

import (
	"context"

	"github.com/google/uuid"

	"github.com/careline/triage/pkg/pagination"
)

// System defines the public contract for transcript domain operations.
type System interface {
	Handler(maxRequestSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Transcript], error)

	Find(ctx context.Context, id uuid.UUID) (*Transcript, error)
	Create(ctx context.Context, cmd CreateCommand) (*Transcript, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Text downloads the archived transcript body from blob storage.
	Text(ctx context.Context, id uuid.UUID) (string, error)
}
