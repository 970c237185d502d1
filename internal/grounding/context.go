// Package grounding loads the immutable reference snapshot a pipeline run
// uses to resolve transcript mentions against known participants, patients,
// and task categories. A snapshot is fetched once at run start; store
// mutations after the fetch are invisible to the running pipeline.
package grounding

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Participant is an active care-team member tasks may be assigned to.
type Participant struct {
	ID         uuid.UUID `json:"participant_id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
}

// Patient is an active patient a task may reference.
type Patient struct {
	ID             uuid.UUID `json:"patient_id"`
	Name           string    `json:"name"`
	MRN            string    `json:"mrn"`
	HighAcuity     bool      `json:"high_acuity"`
	CriticalStatus bool      `json:"critical_status"`
}

// TaskCategory describes a permitted task type and its reference requirements.
type TaskCategory struct {
	ID                  uuid.UUID `json:"category_id"`
	Name                string    `json:"category_name"`
	Description         string    `json:"description"`
	RequiresPatient     bool      `json:"requires_patient"`
	RequiresParticipant bool      `json:"requires_participant"`
}

// CategorySLA carries the service-level windows for a category.
type CategorySLA struct {
	CategoryName    string `json:"category_name"`
	SLAHours        int    `json:"sla_hours"`
	EscalationHours int    `json:"escalation_hours"`
}

// PolicySnapshot is the single active business-rule version for a run.
// Every lineage entry produced during the run carries Version, even if the
// store's active policy changes mid-run.
type PolicySnapshot struct {
	Version string          `json:"policy_version"`
	Rules   json.RawMessage `json:"rules"`
}

// WeightEntry is a named scoring factor consumed by the prioritization stage.
type WeightEntry struct {
	Name        string  `json:"weight_name"`
	Category    string  `json:"weight_category"`
	Value       float64 `json:"weight_value"`
	Description string  `json:"description"`
}

// Snapshot aggregates all reference data for one pipeline run. It is
// read-only after Load returns; stages receive it by pointer and never
// mutate it.
type Snapshot struct {
	Participants []Participant  `json:"participants"`
	Patients     []Patient      `json:"patients"`
	Categories   []TaskCategory `json:"categories"`
	SLAs         []CategorySLA  `json:"slas"`
	Policy       PolicySnapshot `json:"-"`
	Weights      []WeightEntry  `json:"-"`
}

// ContextJSON serializes the entity collections for prompt interpolation.
// Policy and weights are interpolated separately per stage visibility rules.
func (s *Snapshot) ContextJSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PolicyJSON serializes the policy snapshot for prompt interpolation.
func (s *Snapshot) PolicyJSON() (string, error) {
	data, err := json.MarshalIndent(s.Policy, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WeightsJSON serializes the priority weight entries for prompt interpolation.
func (s *Snapshot) WeightsJSON() (string, error) {
	data, err := json.MarshalIndent(s.Weights, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Category returns the category with the given id, or nil when absent.
func (s *Snapshot) Category(id uuid.UUID) *TaskCategory {
	for i := range s.Categories {
		if s.Categories[i].ID == id {
			return &s.Categories[i]
		}
	}
	return nil
}

// DefaultPolicy is the degraded snapshot used when no active policy row
// exists; runs still execute and their lineage records version "none".
func DefaultPolicy() PolicySnapshot {
	return PolicySnapshot{
		Version: "none",
		Rules:   json.RawMessage(`{}`),
	}
}
