package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/careline/triage/internal/prompts"
)

// runNormalization resolves the extraction's free-text references into
// canonical identifiers and enriched fields. The engine owns the lineage
// chain: whatever lineage the model echoes back is discarded and replaced
// with the extraction chain plus this stage's entry.
func runNormalization(
	ctx context.Context,
	rt *Runtime,
	state *RunState,
	extracted *extractionResult,
) (*TaskPayload, error) {
	extractionJSON, err := json.MarshalIndent(extracted, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: normalization: serialize extraction: %w", ErrTemplateRender, err)
	}

	vars, err := stageVars(state, map[string]string{
		prompts.VarExtractionOutput: string(extractionJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: normalization: %w", ErrTemplateRender, err)
	}

	task, err := invoke[TaskPayload](ctx, rt, prompts.StageNormalization, vars)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(task.Description) == "" {
		return nil, fmt.Errorf("%w: normalization: empty description", ErrMalformedReply)
	}

	task.Lineage = LineageMetadata{
		ProcessingChain: appendLineage(
			extracted.Lineage.ProcessingChain,
			newLineageEntry(agentNormalization, state, rt.now()),
		),
	}

	rt.Logger.InfoContext(
		ctx, "normalization complete",
		"participant_id", task.ParticipantID,
		"patient_id", task.PatientID,
		"category_id", task.CategoryID,
		"enriched_fields", len(task.EnrichedFields),
	)

	return &task, nil
}
