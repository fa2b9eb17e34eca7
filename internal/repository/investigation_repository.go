package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-fraud-cases/internal/database"
	"github.com/pesio-ai/be-fraud-cases/internal/errors"
)

// InvestigationRepository keeps the latest checklist per case.
type InvestigationRepository struct {
	q database.Querier
}

func NewInvestigationRepository(q database.Querier) *InvestigationRepository {
	return &InvestigationRepository{q: q}
}

// Upsert replaces the stored checklist for the case in full.
func (r *InvestigationRepository) Upsert(ctx context.Context, d *InvestigationDetail) error {
	checklistJSON, err := json.Marshal(d.Checklist)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal checklist")
	}

	query := `
		INSERT INTO investigation_details (case_id, checklist, investigator, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (case_id) DO UPDATE
		SET checklist = EXCLUDED.checklist,
		    investigator = EXCLUDED.investigator,
		    updated_at = EXCLUDED.updated_at
	`
	_, err = r.q.Exec(ctx, query, d.CaseID, checklistJSON, d.Investigator, d.UpdatedAt)
	return database.Classify(err, "failed to upsert investigation detail")
}

func (r *InvestigationRepository) GetByCaseID(ctx context.Context, caseID string) (*InvestigationDetail, error) {
	query := `
		SELECT case_id, checklist, investigator, updated_at
		FROM investigation_details
		WHERE case_id = $1
	`

	d := &InvestigationDetail{}
	var checklistJSON []byte
	err := r.q.QueryRow(ctx, query, caseID).Scan(&d.CaseID, &checklistJSON, &d.Investigator, &d.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("investigation detail", caseID)
	}
	if err != nil {
		return nil, database.Classify(err, "failed to get investigation detail")
	}
	if err := json.Unmarshal(checklistJSON, &d.Checklist); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal checklist")
	}
	return d, nil
}
