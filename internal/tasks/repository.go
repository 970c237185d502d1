package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/careline/triage/internal/generation"
	"github.com/careline/triage/internal/grounding"
	"github.com/careline/triage/internal/pipeline"
	"github.com/careline/triage/internal/prompts"
	"github.com/careline/triage/pkg/pagination"
	"github.com/careline/triage/pkg/query"
	"github.com/careline/triage/pkg/repository"
)

type repo struct {
	db            *sql.DB
	logger        *slog.Logger
	pagination    pagination.Config
	minTranscript int
	transcripts   TranscriptSource
	runtime       *pipeline.Runtime
}

// New creates a task repository implementing the System interface. The
// repository wires itself into the pipeline runtime as its Persister.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
	minTranscript int,
	groundingSys grounding.System,
	promptSys prompts.System,
	generator generation.Client,
	transcripts TranscriptSource,
) System {
	r := &repo{
		db:            db,
		logger:        logger.With("system", "tasks"),
		pagination:    pagination,
		minTranscript: minTranscript,
		transcripts:   transcripts,
	}

	r.runtime = &pipeline.Runtime{
		Grounding: groundingSys,
		Prompts:   promptSys,
		Generator: generator,
		Persister: r,
		Logger:    r.logger,
	}

	return r
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Process(
	ctx context.Context,
	transcript string,
	transcriptID *uuid.UUID,
) (*pipeline.Result, error) {
	if len(strings.TrimSpace(transcript)) < r.minTranscript {
		return nil, fmt.Errorf(
			"%w: minimum %d characters",
			ErrTranscriptTooShort, r.minTranscript,
		)
	}

	return pipeline.Execute(ctx, r.runtime, transcript, transcriptID)
}

func (r *repo) ProcessStored(
	ctx context.Context,
	transcriptID uuid.UUID,
) (*pipeline.Result, error) {
	text, err := r.transcripts.Text(ctx, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("resolve transcript %s: %w", transcriptID, err)
	}

	return r.Process(ctx, text, &transcriptID)
}

// Save inserts a completed task record. It is deliberately not idempotent:
// each call inserts a fresh row, so re-processing a transcript duplicates
// its task.
func (r *repo) Save(
	ctx context.Context,
	payload *pipeline.TaskPayload,
	transcriptID *uuid.UUID,
) (uuid.UUID, error) {
	lineage, err := json.Marshal(payload.Lineage)
	if err != nil {
		return uuid.Nil, fmt.Errorf("serialize lineage: %w", err)
	}

	q := `
		INSERT INTO tasks (
			transcript_id, participant_id, patient_id, category_id,
			description, due_date, expected_completion_date,
			priority_score, priority_level,
			source_spans, enriched_fields, score_breakdown,
			lineage_metadata, qa_metadata, prioritization_metadata,
			status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15, $16
		) RETURNING id`

	args := []any{
		transcriptID,
		payload.ParticipantID,
		payload.PatientID,
		payload.CategoryID,
		payload.Description,
		payload.DueDate,
		payload.ExpectedCompletionDate,
		payload.PriorityScore,
		payload.PriorityLevel,
		JSONMap(payload.SourceSpans),
		JSONMap(payload.EnrichedFields),
		JSONMap(payload.ScoreBreakdown),
		lineage,
		JSONMap(payload.QAMetadata),
		JSONMap(payload.PrioritizationMetadata),
		"pending",
	}

	id, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (uuid.UUID, error) {
		var id uuid.UUID
		if err := tx.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
			return uuid.Nil, err
		}
		return id, nil
	})

	if err != nil {
		return uuid.Nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("task saved", "id", id, "transcript_id", transcriptID)
	return id, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Task], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanTask)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Task, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	t, err := repository.QueryOne(ctx, r.db, q, args, scanTask)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
	}

	if err := r.db.QueryRowContext(
		ctx, "SELECT COUNT(*) FROM tasks",
	).Scan(&stats.TotalTasks); err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	if err := r.groupCounts(
		ctx,
		"SELECT status, COUNT(*) FROM tasks GROUP BY status",
		stats.ByStatus,
	); err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}

	if err := r.groupCounts(
		ctx,
		`SELECT COALESCE(priority_level, 'unassigned'), COUNT(*)
		 FROM tasks GROUP BY priority_level`,
		stats.ByPriority,
	); err != nil {
		return nil, fmt.Errorf("priority counts: %w", err)
	}

	return stats, nil
}

func (r *repo) groupCounts(ctx context.Context, q string, dest map[string]int) error {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dest[key] = count
	}

	return rows.Err()
}
