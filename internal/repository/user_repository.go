package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-fraud-cases/internal/database"
	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// UserRepository reads the user directory mirror used to resolve actors.
type UserRepository struct {
	q database.Querier
}

func NewUserRepository(q database.Querier) *UserRepository {
	return &UserRepository{q: q}
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*User, error) {
	query := `
		SELECT user_id, display_name, email, team, role, all_roles, active
		FROM users
		WHERE user_id = $1
	`

	u := &User{}
	var role string
	err := r.q.QueryRow(ctx, query, userID).Scan(&u.UserID, &u.DisplayName, &u.Email, &u.Team, &role, &u.AllRoles, &u.Active)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", userID)
	}
	if err != nil {
		return nil, database.Classify(err, "failed to get user")
	}
	u.Role = workflow.Role(role)
	return u, nil
}

// Upsert inserts or refreshes a directory entry. Used by bulk import only.
func (r *UserRepository) Upsert(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (user_id, display_name, email, team, role, all_roles, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    email = EXCLUDED.email,
		    team = EXCLUDED.team,
		    role = EXCLUDED.role,
		    all_roles = EXCLUDED.all_roles,
		    active = EXCLUDED.active,
		    updated_at = NOW()
	`
	_, err := r.q.Exec(ctx, query, u.UserID, u.DisplayName, u.Email, u.Team, string(u.Role), u.AllRoles, u.Active)
	return database.Classify(err, "failed to upsert user")
}
