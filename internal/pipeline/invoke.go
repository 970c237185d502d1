package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/careline/triage/internal/prompts"
	"github.com/careline/triage/pkg/formatting"
)

// invoke renders a stage's system prompt, sends it to the generation model,
// and parses the reply into the stage's typed response. Each failure mode
// wraps the matching pipeline sentinel: render failures are configuration
// faults, transport failures are invocation faults, and unparseable replies
// are malformed output.
func invoke[T any](
	ctx context.Context,
	rt *Runtime,
	stage prompts.Stage,
	vars map[string]string,
) (T, error) {
	var zero T

	prompt, err := rt.Prompts.Render(ctx, stage, vars)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrTemplateRender, stage, err)
	}

	reply, err := rt.Generator.Complete(ctx, prompt)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrAgentInvocation, stage, err)
	}

	parsed, err := formatting.Parse[T](reply)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrMalformedReply, stage, err)
	}

	return parsed, nil
}

// stageVars assembles the template variables every stage receives plus the
// stage-specific extras, serializing the grounding snapshot once per call.
func stageVars(state *RunState, extras map[string]string) (map[string]string, error) {
	contextJSON, err := state.Snapshot.ContextJSON()
	if err != nil {
		return nil, fmt.Errorf("serialize context: %w", err)
	}

	policyJSON, err := state.Snapshot.PolicyJSON()
	if err != nil {
		return nil, fmt.Errorf("serialize policy: %w", err)
	}

	vars := map[string]string{
		prompts.VarContext: contextJSON,
		prompts.VarPolicy:  policyJSON,
	}
	for k, v := range extras {
		vars[k] = v
	}
	return vars, nil
}

// payloadJSON serializes a task payload for interpolation into a downstream
// stage's prompt, lineage included.
func payloadJSON(p *TaskPayload) (string, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize task payload: %w", err)
	}
	return string(data), nil
}
