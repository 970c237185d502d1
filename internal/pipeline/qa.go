package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/careline/triage/internal/prompts"
)

// QA decision values the model may return.
const (
	decisionApproved = "approved"
	decisionRejected = "rejected"
)

type qaReply struct {
	Decision          string         `json:"qa_decision"`
	ValidatedTask     *TaskPayload   `json:"validated_task"`
	QAMetadata        map[string]any `json:"qa_metadata"`
	RejectionReason   *string        `json:"rejection_reason"`
	RejectionCategory *string        `json:"rejection_category"`
}

// qaOutcome is the QA stage's resolved result: exactly one of task or
// rejection is populated, matching the verdict.
type qaOutcome struct {
	verdict   Verdict
	task      *TaskPayload
	rejection *Rejection
}

// runQA validates the normalized task against policy and renders the
// pipeline's single binary branch. An approval adopts the validated task
// (falling back to the normalized input when the model omits it) and
// attaches the review metadata; a rejection must carry a concrete reason
// and a known category or the reply is malformed. Both outcomes append a
// lineage entry, so a rejected run documents three stage passes.
func runQA(
	ctx context.Context,
	rt *Runtime,
	state *RunState,
	normalized *TaskPayload,
) (*qaOutcome, error) {
	normalizedJSON, err := payloadJSON(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: qa: %w", ErrTemplateRender, err)
	}

	vars, err := stageVars(state, map[string]string{
		prompts.VarNormalizedTask: normalizedJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: qa: %w", ErrTemplateRender, err)
	}

	reply, err := invoke[qaReply](ctx, rt, prompts.StageQA, vars)
	if err != nil {
		return nil, err
	}

	entry := newLineageEntry(agentQA, state, rt.now())

	switch reply.Decision {
	case decisionRejected:
		rejection, err := resolveRejection(reply)
		if err != nil {
			return nil, err
		}

		rt.Logger.InfoContext(
			ctx, "qa rejected task",
			"reason", rejection.Reason,
			"category", rejection.Category,
		)

		state.Lineage = appendLineage(normalized.Lineage.ProcessingChain, entry)
		return &qaOutcome{verdict: VerdictRejected, rejection: rejection}, nil

	case decisionApproved:
		task := reply.ValidatedTask
		if task == nil {
			task = normalized
		}
		task.QAMetadata = reply.QAMetadata
		task.Lineage = LineageMetadata{
			ProcessingChain: appendLineage(normalized.Lineage.ProcessingChain, entry),
		}
		state.Lineage = task.Lineage.ProcessingChain

		rt.Logger.InfoContext(ctx, "qa approved task")
		return &qaOutcome{verdict: VerdictCompleted, task: task}, nil

	default:
		return nil, fmt.Errorf("%w: qa: unknown decision %q", ErrMalformedReply, reply.Decision)
	}
}

func resolveRejection(reply qaReply) (*Rejection, error) {
	if reply.RejectionReason == nil || strings.TrimSpace(*reply.RejectionReason) == "" {
		return nil, fmt.Errorf("%w: qa: rejection without reason", ErrMalformedReply)
	}
	if reply.RejectionCategory == nil {
		return nil, fmt.Errorf("%w: qa: rejection without category", ErrMalformedReply)
	}

	category := RejectionCategory(*reply.RejectionCategory)
	if !category.Valid() {
		return nil, fmt.Errorf("%w: qa: unknown rejection category %q", ErrMalformedReply, category)
	}

	return &Rejection{
		Reason:   *reply.RejectionReason,
		Category: category,
	}, nil
}
