package transcripts

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/careline/triage/pkg/pagination"
	"github.com/careline/triage/pkg/query"
	"github.com/careline/triage/pkg/repository"
	"github.com/careline/triage/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a transcript repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "transcripts"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxRequestSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxRequestSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Transcript], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Source")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count transcripts: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanTranscript)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Transcript, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	t, err := repository.QueryOne(ctx, r.db, q, args, scanTranscript)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Transcript, error) {
	if strings.TrimSpace(cmd.Text) == "" {
		return nil, ErrEmptyText
	}

	id := uuid.New()
	key := buildStorageKey(id)

	if err := r.storage.Upload(
		ctx, key,
		strings.NewReader(cmd.Text),
		"text/plain; charset=utf-8",
	); err != nil {
		return nil, fmt.Errorf("upload transcript blob: %w", err)
	}

	q := `
		INSERT INTO transcripts(id, source, size_bytes, storage_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, source, size_bytes, storage_key, created_at`

	insertArgs := []any{id, cmd.Source, int64(len(cmd.Text)), key}

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Transcript, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanTranscript)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("transcript archived", "id", t.ID, "size_bytes", t.SizeBytes)
	return &t, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM transcripts WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, t.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", t.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("transcript deleted", "id", id)
	return nil
}

func (r *repo) Text(ctx context.Context, id uuid.UUID) (string, error) {
	t, err := r.Find(ctx, id)
	if err != nil {
		return "", err
	}

	reader, err := r.storage.Download(ctx, t.StorageKey)
	if err != nil {
		return "", fmt.Errorf("download transcript blob: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read transcript blob: %w", err)
	}

	return string(data), nil
}

func buildStorageKey(id uuid.UUID) string {
	return fmt.Sprintf("transcripts/%s/transcript.txt", id)
}
