package pipeline

import (
	"context"
	"fmt"

	"github.com/careline/triage/internal/prompts"
)

type priorityReply struct {
	PriorityScore          *float64       `json:"priority_score"`
	PriorityLevel          string         `json:"priority_level"`
	ScoreBreakdown         map[string]any `json:"score_breakdown"`
	PrioritizationMetadata map[string]any `json:"prioritization_metadata"`
}

// runPrioritization scores the validated task and merges the priority fields
// onto it in place. The model returns only the priority fields; the task's
// identity and lineage never round-trip through the reply, so a confused
// model cannot corrupt them. Appends the fourth and final lineage entry.
func runPrioritization(
	ctx context.Context,
	rt *Runtime,
	state *RunState,
	task *TaskPayload,
) error {
	weightsJSON, err := state.Snapshot.WeightsJSON()
	if err != nil {
		return fmt.Errorf("%w: prioritization: serialize weights: %w", ErrTemplateRender, err)
	}

	validatedJSON, err := payloadJSON(task)
	if err != nil {
		return fmt.Errorf("%w: prioritization: %w", ErrTemplateRender, err)
	}

	vars, err := stageVars(state, map[string]string{
		prompts.VarPriorityWeights: weightsJSON,
		prompts.VarValidatedTask:   validatedJSON,
	})
	if err != nil {
		return fmt.Errorf("%w: prioritization: %w", ErrTemplateRender, err)
	}

	reply, err := invoke[priorityReply](ctx, rt, prompts.StagePrioritization, vars)
	if err != nil {
		return err
	}

	if reply.PriorityScore == nil {
		return fmt.Errorf("%w: prioritization: missing priority_score", ErrMalformedReply)
	}
	if !ValidPriorityLevel(reply.PriorityLevel) {
		return fmt.Errorf("%w: prioritization: unknown priority_level %q", ErrMalformedReply, reply.PriorityLevel)
	}

	task.PriorityScore = reply.PriorityScore
	task.PriorityLevel = &reply.PriorityLevel
	task.ScoreBreakdown = reply.ScoreBreakdown
	task.PrioritizationMetadata = reply.PrioritizationMetadata
	task.Lineage.ProcessingChain = appendLineage(
		task.Lineage.ProcessingChain,
		newLineageEntry(agentPrioritization, state, rt.now()),
	)
	state.Lineage = task.Lineage.ProcessingChain

	rt.Logger.InfoContext(
		ctx, "prioritization complete",
		"score", *reply.PriorityScore,
		"level", reply.PriorityLevel,
	)

	return nil
}
