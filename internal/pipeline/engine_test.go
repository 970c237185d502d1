package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careline/triage/internal/grounding"
	"github.com/careline/triage/internal/pipeline"
	"github.com/careline/triage/internal/prompts"
)

var fixedNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

type fakeGrounding struct {
	snap *grounding.Snapshot
	err  error
}

func (f *fakeGrounding) Load(context.Context) (*grounding.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

// stubPrompts satisfies the full prompts contract through the embedded
// interface; only Render is ever called by the engine.
type stubPrompts struct {
	prompts.System
	err error
}

func (s *stubPrompts) Render(_ context.Context, stage prompts.Stage, _ map[string]string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "instructions for " + string(stage), nil
}

// scriptedGenerator replays canned replies in call order. A call at index
// failAt returns failErr instead.
type scriptedGenerator struct {
	replies []string
	failAt  int
	failErr error
	calls   int
}

func (g *scriptedGenerator) Complete(context.Context, string) (string, error) {
	i := g.calls
	g.calls++
	if g.failErr != nil && i == g.failAt {
		return "", g.failErr
	}
	if i >= len(g.replies) {
		return "", errors.New("generator called past scripted replies")
	}
	return g.replies[i], nil
}

type fakePersister struct {
	id    uuid.UUID
	err   error
	saved []*pipeline.TaskPayload
	ids   []*uuid.UUID
}

func (p *fakePersister) Save(_ context.Context, payload *pipeline.TaskPayload, transcriptID *uuid.UUID) (uuid.UUID, error) {
	if p.err != nil {
		return uuid.Nil, p.err
	}
	p.saved = append(p.saved, payload)
	p.ids = append(p.ids, transcriptID)
	return p.id, nil
}

func testSnapshot() *grounding.Snapshot {
	return &grounding.Snapshot{
		Participants: []grounding.Participant{
			{ID: uuid.New(), Name: "Dana Reyes", Role: "nurse", Department: "cardiology"},
		},
		Patients: []grounding.Patient{
			{ID: uuid.New(), Name: "John Smith", MRN: "MRN-1001"},
		},
		Policy: grounding.PolicySnapshot{
			Version: "2025.1",
			Rules:   json.RawMessage(`{}`),
		},
		Weights: []grounding.WeightEntry{
			{Name: "patient_acuity", Category: "clinical", Value: 0.4},
		},
	}
}

func testRuntime(gen *scriptedGenerator, pers *fakePersister) *pipeline.Runtime {
	return &pipeline.Runtime{
		Grounding: &fakeGrounding{snap: testSnapshot()},
		Prompts:   &stubPrompts{},
		Generator: gen,
		Persister: pers,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:     func() time.Time { return fixedNow },
	}
}

const (
	extractionReply = `{
		"description": "Schedule cardiology follow-up for John Smith",
		"patient": "John Smith",
		"participant": "Dana Reyes",
		"category": "appointment_scheduling",
		"due": "next Tuesday"
	}`

	normalizationReply = `{
		"description": "Schedule cardiology follow-up appointment",
		"patient_id": "7f9c24e5-2f3a-4b1e-9d6c-8a5b3c1d0e2f",
		"due_date": "2025-06-17",
		"enriched_fields": {"mrn": "MRN-1001"}
	}`

	approvedReply = `{
		"qa_decision": "approved",
		"validated_task": {
			"description": "Schedule cardiology follow-up appointment",
			"patient_id": "7f9c24e5-2f3a-4b1e-9d6c-8a5b3c1d0e2f",
			"due_date": "2025-06-17"
		},
		"qa_metadata": {"checks_passed": 5}
	}`

	priorityReply = `{
		"priority_score": 0.82,
		"priority_level": "high",
		"score_breakdown": {"patient_acuity": 0.4},
		"prioritization_metadata": {"method": "weighted"}
	}`

	rejectedReply = `{
		"qa_decision": "rejected",
		"rejection_reason": "patient reference could match two active records",
		"rejection_category": "ambiguous_reference"
	}`
)

func TestExecuteCompleted(t *testing.T) {
	gen := &scriptedGenerator{
		replies: []string{extractionReply, normalizationReply, approvedReply, priorityReply},
	}
	pers := &fakePersister{id: uuid.New()}
	rt := testRuntime(gen, pers)

	transcriptID := uuid.New()
	result, err := pipeline.Execute(context.Background(), rt, "Please schedule a follow-up for John Smith.", &transcriptID)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if result.Verdict != pipeline.VerdictCompleted {
		t.Fatalf("expected verdict %q, got %q", pipeline.VerdictCompleted, result.Verdict)
	}

	if result.TaskID == nil || *result.TaskID != pers.id {
		t.Errorf("expected task id %s, got %v", pers.id, result.TaskID)
	}

	if result.Rejection != nil {
		t.Errorf("completed run should carry no rejection, got %+v", result.Rejection)
	}

	if result.PolicyVersion != "2025.1" {
		t.Errorf("expected policy version 2025.1, got %q", result.PolicyVersion)
	}

	if len(pers.saved) != 1 {
		t.Fatalf("expected one persisted task, got %d", len(pers.saved))
	}

	if pers.ids[0] == nil || *pers.ids[0] != transcriptID {
		t.Errorf("expected transcript id %s passed to persister, got %v", transcriptID, pers.ids[0])
	}

	task := result.Task
	if task == nil {
		t.Fatal("completed run should carry the task payload")
	}

	if task.PriorityScore == nil || *task.PriorityScore != 0.82 {
		t.Errorf("expected priority score 0.82, got %v", task.PriorityScore)
	}
	if task.PriorityLevel == nil || *task.PriorityLevel != "high" {
		t.Errorf("expected priority level high, got %v", task.PriorityLevel)
	}
	if task.QAMetadata["checks_passed"] == nil {
		t.Error("expected qa metadata attached to the task")
	}

	wantAgents := []string{"extraction", "normalization", "qa", "prioritization"}
	chain := result.Lineage
	if len(chain) != len(wantAgents) {
		t.Fatalf("expected %d lineage entries, got %d", len(wantAgents), len(chain))
	}
	for i, want := range wantAgents {
		entry := chain[i]
		if entry.AgentName != want {
			t.Errorf("lineage[%d]: expected agent %q, got %q", i, want, entry.AgentName)
		}
		if entry.AgentVersion != "1.0.0" {
			t.Errorf("lineage[%d]: expected agent version 1.0.0, got %q", i, entry.AgentVersion)
		}
		if entry.PolicyVersion != "2025.1" {
			t.Errorf("lineage[%d]: expected policy version 2025.1, got %q", i, entry.PolicyVersion)
		}
		if !entry.Timestamp.Equal(fixedNow) {
			t.Errorf("lineage[%d]: expected timestamp %s, got %s", i, fixedNow, entry.Timestamp)
		}
	}

	if len(task.Lineage.ProcessingChain) != 4 {
		t.Errorf("expected four entries in the task's chain, got %d", len(task.Lineage.ProcessingChain))
	}
}

func TestExecuteApprovalWithoutValidatedTask(t *testing.T) {
	approvedWithoutTask := `{
		"qa_decision": "approved",
		"qa_metadata": {"checks_passed": 3}
	}`

	gen := &scriptedGenerator{
		replies: []string{extractionReply, normalizationReply, approvedWithoutTask, priorityReply},
	}
	pers := &fakePersister{id: uuid.New()}
	rt := testRuntime(gen, pers)

	result, err := pipeline.Execute(context.Background(), rt, "Schedule a follow-up.", nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	// Without a validated_task the normalized task carries forward.
	if result.Task.Description != "Schedule cardiology follow-up appointment" {
		t.Errorf("expected normalized description carried forward, got %q", result.Task.Description)
	}
	if result.Task.QAMetadata["checks_passed"] == nil {
		t.Error("expected qa metadata attached to the fallback task")
	}
	if pers.ids[0] != nil {
		t.Errorf("expected nil transcript id passed to persister, got %v", pers.ids[0])
	}
}

func TestExecuteRejected(t *testing.T) {
	gen := &scriptedGenerator{
		replies: []string{extractionReply, normalizationReply, rejectedReply},
	}
	pers := &fakePersister{id: uuid.New()}
	rt := testRuntime(gen, pers)

	result, err := pipeline.Execute(context.Background(), rt, "Do something for the patient.", nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if result.Verdict != pipeline.VerdictRejected {
		t.Fatalf("expected verdict %q, got %q", pipeline.VerdictRejected, result.Verdict)
	}

	if result.TaskID != nil || result.Task != nil {
		t.Error("rejected run should carry no task")
	}

	if result.Rejection == nil {
		t.Fatal("rejected run should carry the rejection")
	}
	if result.Rejection.Reason != "patient reference could match two active records" {
		t.Errorf("unexpected rejection reason %q", result.Rejection.Reason)
	}
	if result.Rejection.Category != pipeline.RejectionAmbiguousReference {
		t.Errorf("expected category %q, got %q", pipeline.RejectionAmbiguousReference, result.Rejection.Category)
	}

	if len(result.Lineage) != 3 {
		t.Errorf("expected three lineage entries, got %d", len(result.Lineage))
	}

	if len(pers.saved) != 0 {
		t.Errorf("rejected run must not persist; persister saw %d saves", len(pers.saved))
	}
}

func TestExecuteFailureClassification(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		mutate   func(rt *pipeline.Runtime, gen *scriptedGenerator)
		wantErr  error
		wantKind string
	}{
		{
			name: "grounding load failure",
			mutate: func(rt *pipeline.Runtime, _ *scriptedGenerator) {
				rt.Grounding = &fakeGrounding{err: boom}
			},
			wantErr:  pipeline.ErrContextUnavailable,
			wantKind: "context_unavailable",
		},
		{
			name: "prompt render failure",
			mutate: func(rt *pipeline.Runtime, _ *scriptedGenerator) {
				rt.Prompts = &stubPrompts{err: boom}
			},
			wantErr:  pipeline.ErrTemplateRender,
			wantKind: "template_render_error",
		},
		{
			name: "generator transport failure",
			mutate: func(_ *pipeline.Runtime, gen *scriptedGenerator) {
				gen.failAt, gen.failErr = 0, boom
			},
			wantErr:  pipeline.ErrAgentInvocation,
			wantKind: "agent_invocation_error",
		},
		{
			name: "unparseable extraction reply",
			mutate: func(_ *pipeline.Runtime, gen *scriptedGenerator) {
				gen.replies[0] = "I could not find a task in this transcript."
			},
			wantErr:  pipeline.ErrMalformedReply,
			wantKind: "agent_output_malformed",
		},
		{
			name: "extraction without description",
			mutate: func(_ *pipeline.Runtime, gen *scriptedGenerator) {
				gen.replies[0] = `{"description": "   "}`
			},
			wantErr:  pipeline.ErrMalformedReply,
			wantKind: "agent_output_malformed",
		},
		{
			name: "normalization without description",
			mutate: func(_ *pipeline.Runtime, gen *scriptedGenerator) {
				gen.replies[1] = `{"description": ""}`
			},
			wantErr:  pipeline.ErrMalformedReply,
			wantKind: "agent_output_malformed",
		},
		{
			name: "unknown qa decision",
			mutate: func(_ *pipeline.Runtime, gen *scriptedGenerator) {
				gen.replies[2] = `{"qa_decision": "maybe"}`
			},
			wantErr:  pipeline.ErrMalformedReply,
			wantKind: "agent_output_malformed",
		},
		{
			name: "rejection without reason",
			mutate: func(_ *pipeline.Runtime, gen *scriptedGenerator) {
				gen.replies[2] = `{"qa_decision": "rejected", "rejection_category": "missing_data"}`
			},
			wantErr:  pipeline.ErrMalformedReply,
			wantKind: "agent_output_malformed",
		},
		{
			name: "rejection with unknown category",
			mutate: func(_ *pipeline.Runtime, gen *scriptedGenerator) {
				gen.replies[2] = `{"qa_decision": "rejected", "rejection_reason": "bad", "rejection_category": "vibes"}`
			},
			wantErr:  pipeline.ErrMalformedReply,
			wantKind: "agent_output_malformed",
		},
		{
			name: "prioritization without score",
			mutate: func(_ *pipeline.Runtime, gen *scriptedGenerator) {
				gen.replies[3] = `{"priority_level": "high"}`
			},
			wantErr:  pipeline.ErrMalformedReply,
			wantKind: "agent_output_malformed",
		},
		{
			name: "prioritization with unknown level",
			mutate: func(_ *pipeline.Runtime, gen *scriptedGenerator) {
				gen.replies[3] = `{"priority_score": 0.5, "priority_level": "critical"}`
			},
			wantErr:  pipeline.ErrMalformedReply,
			wantKind: "agent_output_malformed",
		},
		{
			name: "persistence failure",
			mutate: func(rt *pipeline.Runtime, _ *scriptedGenerator) {
				rt.Persister = &fakePersister{err: boom}
			},
			wantErr:  pipeline.ErrPersistence,
			wantKind: "persistence_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{
				replies: []string{extractionReply, normalizationReply, approvedReply, priorityReply},
				failAt:  -1,
			}
			pers := &fakePersister{id: uuid.New()}
			rt := testRuntime(gen, pers)
			tt.mutate(rt, gen)

			result, err := pipeline.Execute(context.Background(), rt, "Schedule a follow-up.", nil)
			if err == nil {
				t.Fatalf("expected error, got result %+v", result)
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error wrapping %v, got %v", tt.wantErr, err)
			}
			if kind := pipeline.Kind(err); kind != tt.wantKind {
				t.Errorf("expected kind %q, got %q", tt.wantKind, kind)
			}
		})
	}
}

func TestKindUnrecognized(t *testing.T) {
	if kind := pipeline.Kind(errors.New("boom")); kind != "internal_error" {
		t.Errorf("expected internal_error, got %q", kind)
	}
}
