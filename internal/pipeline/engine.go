package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careline/triage/internal/grounding"
)

// Stage agent identities recorded in lineage entries.
const (
	agentExtraction     = "extraction"
	agentNormalization  = "normalization"
	agentQA             = "qa"
	agentPrioritization = "prioritization"

	agentVersion = "1.0.0"
)

// RunState is the working state of a single pipeline run. The snapshot is
// captured once before the first stage and never refreshed; Lineage mirrors
// the task payload's chain so a rejected run, which produces no payload,
// still documents its stage passes.
type RunState struct {
	Transcript   string
	TranscriptID *uuid.UUID
	Snapshot     *grounding.Snapshot
	Lineage      []LineageEntry
}

func newLineageEntry(agent string, state *RunState, at time.Time) LineageEntry {
	return LineageEntry{
		AgentName:     agent,
		AgentVersion:  agentVersion,
		PolicyVersion: state.Snapshot.Policy.Version,
		Timestamp:     at,
	}
}

// appendLineage copies the chain before appending so earlier stage outputs
// retained in the run state never observe later entries.
func appendLineage(chain []LineageEntry, entry LineageEntry) []LineageEntry {
	next := make([]LineageEntry, len(chain), len(chain)+1)
	copy(next, chain)
	return append(next, entry)
}

// Execute runs the full pipeline for one transcript: it captures the
// grounding snapshot, runs extraction, normalization, and QA in order, and
// branches on the QA verdict. An approval continues through prioritization
// and persistence; a rejection terminates the run with the documented
// reason. Every run ends in exactly one of completed, rejected, or an error
// wrapping a pipeline sentinel.
func Execute(
	ctx context.Context,
	rt *Runtime,
	transcript string,
	transcriptID *uuid.UUID,
) (*Result, error) {
	snapshot, err := rt.Grounding.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContextUnavailable, err)
	}

	state := &RunState{
		Transcript:   transcript,
		TranscriptID: transcriptID,
		Snapshot:     snapshot,
	}

	rt.Logger.InfoContext(
		ctx, "pipeline run started",
		"policy_version", snapshot.Policy.Version,
		"transcript_length", len(transcript),
	)

	extracted, err := runExtraction(ctx, rt, state)
	if err != nil {
		return nil, err
	}

	normalized, err := runNormalization(ctx, rt, state, extracted)
	if err != nil {
		return nil, err
	}

	outcome, err := runQA(ctx, rt, state, normalized)
	if err != nil {
		return nil, err
	}

	switch outcome.verdict {
	case VerdictRejected:
		rt.Logger.InfoContext(
			ctx, "pipeline run rejected",
			"category", outcome.rejection.Category,
			"stages", len(state.Lineage),
		)

		return &Result{
			Verdict:       VerdictRejected,
			Rejection:     outcome.rejection,
			Lineage:       state.Lineage,
			PolicyVersion: snapshot.Policy.Version,
			CompletedAt:   rt.now(),
		}, nil

	case VerdictCompleted:
		task := outcome.task
		if err := runPrioritization(ctx, rt, state, task); err != nil {
			return nil, err
		}

		id, err := rt.Persister.Save(ctx, task, transcriptID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}

		rt.Logger.InfoContext(
			ctx, "pipeline run completed",
			"task_id", id,
			"priority_level", task.PriorityLevel,
			"stages", len(state.Lineage),
		)

		return &Result{
			Verdict:       VerdictCompleted,
			TaskID:        &id,
			Task:          task,
			Lineage:       state.Lineage,
			PolicyVersion: snapshot.Policy.Version,
			CompletedAt:   rt.now(),
		}, nil

	default:
		return nil, fmt.Errorf("%w: qa: unhandled verdict %q", ErrMalformedReply, outcome.verdict)
	}
}
