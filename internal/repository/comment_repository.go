package repository

import (
	"context"

	"github.com/pesio-ai/be-fraud-cases/internal/database"
)

// CommentRepository appends and reads case comments. Like the audit log, the
// table only accepts inserts.
type CommentRepository struct {
	q database.Querier
}

func NewCommentRepository(q database.Querier) *CommentRepository {
	return &CommentRepository{q: q}
}

func (r *CommentRepository) Append(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO case_comments (case_id, comment_text, comment_type, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.q.QueryRow(ctx, query, c.CaseID, c.Text, c.Type, c.Author, c.CreatedAt).Scan(&c.ID)
	return database.Classify(err, "failed to append comment")
}

// ListByCase returns a case's comments newest first.
func (r *CommentRepository) ListByCase(ctx context.Context, caseID string, limit int) ([]*Comment, error) {
	query := `
		SELECT id, case_id, comment_text, comment_type, created_by, created_at
		FROM case_comments
		WHERE case_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, caseID, ClampLimit(limit))
	if err != nil {
		return nil, database.Classify(err, "failed to get comments")
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		c := &Comment{}
		if err := rows.Scan(&c.ID, &c.CaseID, &c.Text, &c.Type, &c.Author, &c.CreatedAt); err != nil {
			return nil, database.Classify(err, "failed to scan comment")
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(err, "failed to get comments")
	}
	return comments, nil
}
