package repository

import (
	"context"

	"github.com/pesio-ai/be-fraud-cases/internal/database"
)

// DocumentRepository stores metadata for files held by the upload service.
type DocumentRepository struct {
	q database.Querier
}

func NewDocumentRepository(q database.Querier) *DocumentRepository {
	return &DocumentRepository{q: q}
}

func (r *DocumentRepository) Insert(ctx context.Context, d *Document) error {
	query := `
		INSERT INTO case_documents (case_id, filename, size_bytes, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.q.QueryRow(ctx, query, d.CaseID, d.Filename, d.SizeBytes, d.UploadedBy, d.UploadedAt).Scan(&d.ID)
	return database.Classify(err, "failed to record document")
}

func (r *DocumentRepository) ListByCase(ctx context.Context, caseID string) ([]*Document, error) {
	query := `
		SELECT id, case_id, filename, size_bytes, uploaded_by, uploaded_at
		FROM case_documents
		WHERE case_id = $1
		ORDER BY uploaded_at DESC, id DESC
	`

	rows, err := r.q.Query(ctx, query, caseID)
	if err != nil {
		return nil, database.Classify(err, "failed to get documents")
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		d := &Document{}
		if err := rows.Scan(&d.ID, &d.CaseID, &d.Filename, &d.SizeBytes, &d.UploadedBy, &d.UploadedAt); err != nil {
			return nil, database.Classify(err, "failed to scan document")
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(err, "failed to get documents")
	}
	return docs, nil
}
