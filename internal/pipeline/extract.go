package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/careline/triage/internal/prompts"
)

// extractionResult is the extraction stage's typed output. References are
// still free-text mentions at this point; normalization resolves them to
// canonical identifiers.
type extractionResult struct {
	Description string          `json:"description"`
	Participant *string         `json:"participant"`
	Patient     *string         `json:"patient"`
	MRN         *string         `json:"mrn"`
	Category    *string         `json:"category"`
	Due         *string         `json:"due"`
	SourceSpans map[string]any  `json:"source_spans,omitempty"`
	Lineage     LineageMetadata `json:"lineage_metadata"`
}

// runExtraction grounds the transcript against the snapshot and produces the
// initial task sketch. The reply must carry a non-empty description; an
// extraction that found no task is malformed output, not a rejection — only
// QA may reject.
func runExtraction(ctx context.Context, rt *Runtime, state *RunState) (*extractionResult, error) {
	vars, err := stageVars(state, map[string]string{
		prompts.VarTranscript: state.Transcript,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: extraction: %w", ErrTemplateRender, err)
	}

	result, err := invoke[extractionResult](ctx, rt, prompts.StageExtraction, vars)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(result.Description) == "" {
		return nil, fmt.Errorf("%w: extraction: empty description", ErrMalformedReply)
	}

	result.Lineage = LineageMetadata{
		ProcessingChain: []LineageEntry{
			newLineageEntry(agentExtraction, state, rt.now()),
		},
	}

	rt.Logger.InfoContext(
		ctx, "extraction complete",
		"description", result.Description,
		"has_patient", result.Patient != nil,
		"has_participant", result.Participant != nil,
	)

	return &result, nil
}
