package tasks

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/careline/triage/pkg/query"
	"github.com/careline/triage/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "tasks", "t").
	Project("id", "ID").
	Project("transcript_id", "TranscriptID").
	Project("participant_id", "ParticipantID").
	Project("patient_id", "PatientID").
	Project("category_id", "CategoryID").
	Project("description", "Description").
	Project("due_date", "DueDate").
	Project("expected_completion_date", "ExpectedCompletionDate").
	Project("priority_score", "PriorityScore").
	Project("priority_level", "PriorityLevel").
	Project("source_spans", "SourceSpans").
	Project("enriched_fields", "EnrichedFields").
	Project("score_breakdown", "ScoreBreakdown").
	Project("lineage_metadata", "Lineage").
	Project("qa_metadata", "QAMetadata").
	Project("prioritization_metadata", "PrioritizationMetadata").
	Project("status", "Status").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for task queries.
// Nil fields are ignored; all filters use exact matching.
type Filters struct {
	Status        *string    `json:"status,omitempty"`
	PriorityLevel *string    `json:"priority_level,omitempty"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	PatientID     *uuid.UUID `json:"patient_id,omitempty"`
	ParticipantID *uuid.UUID `json:"participant_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("PriorityLevel", f.PriorityLevel).
		WhereEquals("CategoryID", f.CategoryID).
		WhereEquals("PatientID", f.PatientID).
		WhereEquals("ParticipantID", f.ParticipantID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if p := values.Get("priority_level"); p != "" {
		f.PriorityLevel = &p
	}

	if c := values.Get("category_id"); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			f.CategoryID = &id
		}
	}

	if p := values.Get("patient_id"); p != "" {
		if id, err := uuid.Parse(p); err == nil {
			f.PatientID = &id
		}
	}

	if p := values.Get("participant_id"); p != "" {
		if id, err := uuid.Parse(p); err == nil {
			f.ParticipantID = &id
		}
	}

	return f
}

func scanTask(s repository.Scanner) (Task, error) {
	var t Task
	err := s.Scan(
		&t.ID,
		&t.TranscriptID,
		&t.ParticipantID,
		&t.PatientID,
		&t.CategoryID,
		&t.Description,
		&t.DueDate,
		&t.ExpectedCompletionDate,
		&t.PriorityScore,
		&t.PriorityLevel,
		&t.SourceSpans,
		&t.EnrichedFields,
		&t.ScoreBreakdown,
		&t.Lineage,
		&t.QAMetadata,
		&t.PrioritizationMetadata,
		&t.Status,
		&t.CreatedAt,
	)
	return t, err
}
