package prompts

import (
	"encoding/json"
	"slices"
)

// Stage represents a pipeline stage that an instruction template targets.
type Stage string

// Pipeline stages in execution order.
const (
	StageExtraction     Stage = "extraction"
	StageNormalization  Stage = "normalization"
	StageQA             Stage = "qa"
	StagePrioritization Stage = "prioritization"
)

var stages = []Stage{
	StageExtraction,
	StageNormalization,
	StageQA,
	StagePrioritization,
}

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	return stages
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Stage(raw)
	if !slices.Contains(stages, v) {
		return ErrInvalidStage
	}
	*s = v
	return nil
}

// Valid reports whether the stage is one of the known pipeline stages.
func (s Stage) Valid() bool {
	return slices.Contains(stages, s)
}

// ParseStage validates a string as a known pipeline stage.
// Returns ErrInvalidStage if the value is not recognized.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}

// Template variable names available to instruction templates per stage.
// A template may only reference the variables of the stage it targets;
// validation rejects anything else.
const (
	VarContext          = "db_context"
	VarPolicy           = "policy"
	VarTranscript       = "transcript"
	VarExtractionOutput = "extraction_output"
	VarNormalizedTask   = "normalized_task"
	VarPriorityWeights  = "priority_weights"
	VarValidatedTask    = "validated_task"
)

var stageVars = map[Stage][]string{
	StageExtraction:     {VarContext, VarPolicy, VarTranscript},
	StageNormalization:  {VarContext, VarPolicy, VarExtractionOutput},
	StageQA:             {VarContext, VarPolicy, VarNormalizedTask},
	StagePrioritization: {VarContext, VarPolicy, VarPriorityWeights, VarValidatedTask},
}

// StageVars returns the template variable names a stage's instructions may reference.
func StageVars(stage Stage) []string {
	return stageVars[stage]
}
