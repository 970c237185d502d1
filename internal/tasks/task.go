// Package tasks implements the task record domain: executing the triage
// pipeline against a transcript, persisting completed task records, and
// serving task queries and statistics over HTTP.
package tasks

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JSONMap stores a JSONB column as a generic document.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported JSONB source %T", src)
	}
}

// Task is a persisted task record produced by a completed pipeline run.
// Status is always "pending" at insert; rejected runs produce no record.
type Task struct {
	ID                     uuid.UUID  `json:"id"`
	TranscriptID           *uuid.UUID `json:"transcript_id"`
	ParticipantID          *uuid.UUID `json:"participant_id"`
	PatientID              *uuid.UUID `json:"patient_id"`
	CategoryID             *uuid.UUID `json:"category_id"`
	Description            string     `json:"description"`
	DueDate                *time.Time `json:"due_date"`
	ExpectedCompletionDate *time.Time `json:"expected_completion_date"`
	PriorityScore          *float64   `json:"priority_score"`
	PriorityLevel          *string    `json:"priority_level"`
	SourceSpans            JSONMap    `json:"source_spans"`
	EnrichedFields         JSONMap    `json:"enriched_fields"`
	ScoreBreakdown         JSONMap    `json:"score_breakdown"`
	Lineage                JSONMap    `json:"lineage_metadata"`
	QAMetadata             JSONMap    `json:"qa_metadata"`
	PrioritizationMetadata JSONMap    `json:"prioritization_metadata"`
	Status                 string     `json:"status"`
	CreatedAt              time.Time  `json:"created_at"`
}

// Stats summarizes the task store for the statistics endpoint.
type Stats struct {
	TotalTasks int            `json:"total_tasks"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}
