package transcripts_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careline/triage/internal/transcripts"
	"github.com/careline/triage/pkg/pagination"
)

type mockSystem struct {
	transcript *transcripts.Transcript
	text       string
	err        error
	created    []transcripts.CreateCommand
	deleted    []uuid.UUID
}

func (m *mockSystem) Handler(int64) *transcripts.Handler { return nil }

func (m *mockSystem) List(
	context.Context,
	pagination.PageRequest,
	transcripts.Filters,
) (*pagination.PageResult[transcripts.Transcript], error) {
	page := pagination.NewPageResult([]transcripts.Transcript{*m.transcript}, 1, 1, 20)
	return &page, m.err
}

func (m *mockSystem) Find(context.Context, uuid.UUID) (*transcripts.Transcript, error) {
	return m.transcript, m.err
}

func (m *mockSystem) Create(_ context.Context, cmd transcripts.CreateCommand) (*transcripts.Transcript, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, cmd)
	return m.transcript, nil
}

func (m *mockSystem) Delete(_ context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *mockSystem) Text(context.Context, uuid.UUID) (string, error) {
	return m.text, m.err
}

func testTranscript() *transcripts.Transcript {
	source := "care-call"
	return &transcripts.Transcript{
		ID:         uuid.New(),
		Source:     &source,
		SizeBytes:  42,
		StorageKey: "transcripts/abc/transcript.txt",
		CreatedAt:  time.Now().UTC(),
	}
}

func newTestHandler(sys transcripts.System, maxRequestSize int64) *transcripts.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	return transcripts.NewHandler(sys, logger, cfg, maxRequestSize)
}

func TestCreate(t *testing.T) {
	sys := &mockSystem{transcript: testTranscript()}
	handler := newTestHandler(sys, 1<<20)

	body := strings.NewReader(`{"text": "Please schedule a follow-up.", "source": "care-call"}`)
	req := httptest.NewRequest(http.MethodPost, "/transcripts", body)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(sys.created) != 1 || sys.created[0].Text != "Please schedule a follow-up." {
		t.Errorf("create command not forwarded: %+v", sys.created)
	}

	var resp transcripts.Transcript
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != sys.transcript.ID {
		t.Errorf("expected id %s, got %s", sys.transcript.ID, resp.ID)
	}
}

func TestCreateEmptyText(t *testing.T) {
	sys := &mockSystem{err: transcripts.ErrEmptyText}
	handler := newTestHandler(sys, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/transcripts", strings.NewReader(`{"text": ""}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateBodyTooLarge(t *testing.T) {
	handler := newTestHandler(&mockSystem{}, 64)

	big := `{"text": "` + strings.Repeat("a", 256) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/transcripts", strings.NewReader(big))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestText(t *testing.T) {
	sys := &mockSystem{text: "raw transcript body"}
	handler := newTestHandler(sys, 1<<20)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/transcripts/"+id.String()+"/text", nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	handler.Text(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected plain text content type, got %q", ct)
	}
	if rec.Body.String() != "raw transcript body" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestFindNotFound(t *testing.T) {
	sys := &mockSystem{err: transcripts.ErrNotFound}
	handler := newTestHandler(sys, 1<<20)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/transcripts/"+id.String(), nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	handler.Find(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDelete(t *testing.T) {
	sys := &mockSystem{}
	handler := newTestHandler(sys, 1<<20)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/transcripts/"+id.String(), nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(sys.deleted) != 1 || sys.deleted[0] != id {
		t.Errorf("delete not forwarded: %v", sys.deleted)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: transcripts.ErrNotFound, want: http.StatusNotFound},
		{name: "duplicate", err: transcripts.ErrDuplicate, want: http.StatusConflict},
		{name: "empty text", err: transcripts.ErrEmptyText, want: http.StatusBadRequest},
		{name: "too large", err: transcripts.ErrTooLarge, want: http.StatusRequestEntityTooLarge},
		{name: "unknown", err: io.ErrUnexpectedEOF, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transcripts.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
