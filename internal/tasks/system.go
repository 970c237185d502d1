package tasks

import (
	"context"

	"github.com/google/uuid"

	"github.com/careline/triage/internal/pipeline"
	"github.com/careline/triage/pkg/pagination"
)

// TranscriptSource resolves stored transcript text for pipeline runs
// initiated by transcript id.
type TranscriptSource interface {
	Text(ctx context.Context, id uuid.UUID) (string, error)
}

// System defines the public contract for task domain operations. It also
// implements pipeline.Persister so completed runs persist through the same
// repository that serves queries.
type System interface {
	pipeline.Persister

	Handler() *Handler

	// Process runs the full pipeline against raw transcript text. The result
	// carries exactly one terminal verdict; processing the same transcript
	// twice inserts two task records.
	Process(ctx context.Context, transcript string, transcriptID *uuid.UUID) (*pipeline.Result, error)

	// ProcessStored resolves a stored transcript's text and runs Process on it.
	ProcessStored(ctx context.Context, transcriptID uuid.UUID) (*pipeline.Result, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Task], error)

	Find(ctx context.Context, id uuid.UUID) (*Task, error)
	Stats(ctx context.Context) (*Stats, error)
}
