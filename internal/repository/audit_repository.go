package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-fraud-cases/internal/database"
)

// AuditRepository appends and reads immutable case audit log entries.
type AuditRepository struct {
	q database.Querier
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(q database.Querier) *AuditRepository {
	return &AuditRepository{q: q}
}

// Append inserts one audit entry. The table has an update/delete prevention
// trigger so this is the only mutation operation exposed.
func (r *AuditRepository) Append(ctx context.Context, entry *AuditEntry) error {
	query := `
		INSERT INTO case_audit_log (case_id, action, detail, performed_by, performed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		entry.CaseID,
		entry.Action,
		entry.Detail,
		entry.PerformedBy,
		entry.PerformedAt,
	).Scan(&entry.ID)
	return database.Classify(err, "failed to append audit entry")
}

// List returns the most recent entries, newest first. A nil caseID returns
// the system-wide feed.
func (r *AuditRepository) List(ctx context.Context, caseID *string, limit int) ([]*AuditEntry, error) {
	var (
		rows pgx.Rows
		err  error
	)
	limit = ClampLimit(limit)

	if caseID != nil {
		rows, err = r.q.Query(ctx, `
			SELECT id, case_id, action, detail, performed_by, performed_at
			FROM case_audit_log
			WHERE case_id = $1
			ORDER BY performed_at DESC, id DESC
			LIMIT $2
		`, *caseID, limit)
	} else {
		rows, err = r.q.Query(ctx, `
			SELECT id, case_id, action, detail, performed_by, performed_at
			FROM case_audit_log
			ORDER BY performed_at DESC, id DESC
			LIMIT $1
		`, limit)
	}
	if err != nil {
		return nil, database.Classify(err, "failed to get audit log")
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		e := &AuditEntry{}
		if err := rows.Scan(&e.ID, &e.CaseID, &e.Action, &e.Detail, &e.PerformedBy, &e.PerformedAt); err != nil {
			return nil, database.Classify(err, "failed to scan audit entry")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(err, "failed to get audit log")
	}
	return entries, nil
}
