// Package pipeline implements the four-stage triage pipeline that turns a
// free-text care coordination transcript into a single validated, prioritized
// task record or a documented rejection. Stages run in a fixed order —
// extraction, normalization, QA, prioritization — against an immutable
// grounding snapshot captured once per run, and every stage appends to an
// append-only lineage chain carried inside the task payload.
package pipeline

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Verdict is the terminal outcome of a pipeline run. Every run ends in
// exactly one of completed or rejected; anything else surfaces as an error.
type Verdict string

// Run verdicts.
const (
	VerdictCompleted Verdict = "completed"
	VerdictRejected  Verdict = "rejected"
)

// RejectionCategory classifies why QA rejected a task.
type RejectionCategory string

// Rejection categories the QA stage may assign.
const (
	RejectionMissingData        RejectionCategory = "missing_data"
	RejectionAmbiguousReference RejectionCategory = "ambiguous_reference"
	RejectionPolicyNoncompliant RejectionCategory = "policy_noncompliance"
)

var rejectionCategories = []RejectionCategory{
	RejectionMissingData,
	RejectionAmbiguousReference,
	RejectionPolicyNoncompliant,
}

// Valid reports whether the category is one of the known rejection categories.
func (c RejectionCategory) Valid() bool {
	return slices.Contains(rejectionCategories, c)
}

// Rejection documents a QA rejection: a concrete reason and its category.
type Rejection struct {
	Reason   string            `json:"reason"`
	Category RejectionCategory `json:"category"`
}

// LineageEntry records one stage's pass over the task.
type LineageEntry struct {
	AgentName     string    `json:"agent_name"`
	AgentVersion  string    `json:"agent_version"`
	PolicyVersion string    `json:"policy_version"`
	Timestamp     time.Time `json:"timestamp"`
}

// LineageMetadata carries the append-only chain of stage passes. The chain
// holds three entries when a run ends in rejection and four when it completes.
type LineageMetadata struct {
	ProcessingChain []LineageEntry `json:"processing_chain"`
}

// TaskPayload is the structured task a run builds up stage by stage.
// Normalization produces the core fields, QA attaches its review metadata,
// and prioritization attaches the score, level, and breakdown.
type TaskPayload struct {
	Description            string          `json:"description"`
	ParticipantID          *uuid.UUID      `json:"participant_id"`
	PatientID              *uuid.UUID      `json:"patient_id"`
	CategoryID             *uuid.UUID      `json:"category_id"`
	DueDate                *string         `json:"due_date"`
	ExpectedCompletionDate *string         `json:"expected_completion_date"`
	SourceSpans            map[string]any  `json:"source_spans,omitempty"`
	EnrichedFields         map[string]any  `json:"enriched_fields,omitempty"`
	PriorityScore          *float64        `json:"priority_score,omitempty"`
	PriorityLevel          *string         `json:"priority_level,omitempty"`
	ScoreBreakdown         map[string]any  `json:"score_breakdown,omitempty"`
	QAMetadata             map[string]any  `json:"qa_metadata,omitempty"`
	PrioritizationMetadata map[string]any  `json:"prioritization_metadata,omitempty"`
	Lineage                LineageMetadata `json:"lineage_metadata"`
}

// Priority levels the prioritization stage may assign.
var priorityLevels = []string{"low", "medium", "high", "urgent"}

// ValidPriorityLevel reports whether level is a known priority level.
func ValidPriorityLevel(level string) bool {
	return slices.Contains(priorityLevels, level)
}

// Result is the terminal outcome of a pipeline run. Exactly one of Task or
// Rejection is populated, matching the verdict. Lineage documents the stage
// passes for both outcomes: three entries for a rejection, four for a
// completion.
type Result struct {
	Verdict       Verdict        `json:"verdict"`
	TaskID        *uuid.UUID     `json:"task_id,omitempty"`
	Task          *TaskPayload   `json:"task,omitempty"`
	Rejection     *Rejection     `json:"rejection,omitempty"`
	Lineage       []LineageEntry `json:"lineage"`
	PolicyVersion string         `json:"policy_version"`
	CompletedAt   time.Time      `json:"completed_at"`
}
