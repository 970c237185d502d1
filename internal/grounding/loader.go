package grounding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/careline/triage/pkg/repository"
)

// System defines the loader contract consumed by the workflow engine.
type System interface {
	// Load fetches the complete reference snapshot in one step. Any query
	// failure aborts with ErrContextUnavailable; the loader never mutates
	// the store.
	Load(ctx context.Context) (*Snapshot, error)
}

type loader struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a grounding loader over the given connection pool.
func New(db *sql.DB, logger *slog.Logger) System {
	return &loader{
		db:     db,
		logger: logger.With("system", "grounding"),
	}
}

const (
	participantsQuery = `
		SELECT participant_id, name, role, department
		FROM participants WHERE active = true`

	patientsQuery = `
		SELECT patient_id, name, mrn, high_acuity, critical_status
		FROM patients WHERE active = true`

	categoriesQuery = `
		SELECT category_id, category_name, description, requires_patient, requires_participant
		FROM task_categories WHERE active = true`

	slasQuery = `
		SELECT tc.category_name, cs.sla_hours, cs.escalation_hours
		FROM category_sla cs
		JOIN task_categories tc ON cs.category_id = tc.category_id`

	policyQuery = `
		SELECT policy_version, policy_data
		FROM task_policies WHERE active = true
		ORDER BY effective_date DESC LIMIT 1`

	weightsQuery = `
		SELECT weight_name, weight_category, weight_value, description
		FROM priority_weights WHERE active = true`
)

// Load runs the fixed read set. The queries are independent so they fan out
// concurrently, but the engine observes a single blocking load step.
func (l *loader) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := repository.QueryMany(gctx, l.db, participantsQuery, nil, scanParticipant)
		if err != nil {
			return fmt.Errorf("participants: %w", err)
		}
		snap.Participants = rows
		return nil
	})

	g.Go(func() error {
		rows, err := repository.QueryMany(gctx, l.db, patientsQuery, nil, scanPatient)
		if err != nil {
			return fmt.Errorf("patients: %w", err)
		}
		snap.Patients = rows
		return nil
	})

	g.Go(func() error {
		rows, err := repository.QueryMany(gctx, l.db, categoriesQuery, nil, scanCategory)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		snap.Categories = rows
		return nil
	})

	g.Go(func() error {
		rows, err := repository.QueryMany(gctx, l.db, slasQuery, nil, scanSLA)
		if err != nil {
			return fmt.Errorf("slas: %w", err)
		}
		snap.SLAs = rows
		return nil
	})

	g.Go(func() error {
		policy, err := l.loadPolicy(gctx)
		if err != nil {
			return fmt.Errorf("policy: %w", err)
		}
		snap.Policy = policy
		return nil
	})

	g.Go(func() error {
		rows, err := repository.QueryMany(gctx, l.db, weightsQuery, nil, scanWeight)
		if err != nil {
			return fmt.Errorf("weights: %w", err)
		}
		snap.Weights = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContextUnavailable, err)
	}

	l.logger.Debug(
		"grounding snapshot loaded",
		"participants", len(snap.Participants),
		"patients", len(snap.Patients),
		"categories", len(snap.Categories),
		"policy_version", snap.Policy.Version,
		"weights", len(snap.Weights),
	)

	return snap, nil
}

// loadPolicy selects the active policy with the latest effective date.
// Ties on effective_date resolve in database order. A store with no active
// policy row degrades to the "none" snapshot rather than failing the run.
func (l *loader) loadPolicy(ctx context.Context) (PolicySnapshot, error) {
	policy, err := repository.QueryOne(ctx, l.db, policyQuery, nil, scanPolicy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DefaultPolicy(), nil
		}
		return PolicySnapshot{}, err
	}
	return policy, nil
}

func scanParticipant(s repository.Scanner) (Participant, error) {
	var p Participant
	err := s.Scan(&p.ID, &p.Name, &p.Role, &p.Department)
	return p, err
}

func scanPatient(s repository.Scanner) (Patient, error) {
	var p Patient
	err := s.Scan(&p.ID, &p.Name, &p.MRN, &p.HighAcuity, &p.CriticalStatus)
	return p, err
}

func scanCategory(s repository.Scanner) (TaskCategory, error) {
	var c TaskCategory
	err := s.Scan(&c.ID, &c.Name, &c.Description, &c.RequiresPatient, &c.RequiresParticipant)
	return c, err
}

func scanSLA(s repository.Scanner) (CategorySLA, error) {
	var c CategorySLA
	err := s.Scan(&c.CategoryName, &c.SLAHours, &c.EscalationHours)
	return c, err
}

func scanPolicy(s repository.Scanner) (PolicySnapshot, error) {
	var p PolicySnapshot
	var rules []byte
	if err := s.Scan(&p.Version, &rules); err != nil {
		return p, err
	}
	p.Rules = rules
	return p, nil
}

func scanWeight(s repository.Scanner) (WeightEntry, error) {
	var w WeightEntry
	err := s.Scan(&w.Name, &w.Category, &w.Value, &w.Description)
	return w, err
}
