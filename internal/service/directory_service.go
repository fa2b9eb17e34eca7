package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pesio-ai/be-fraud-cases/internal/auth"
	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/logger"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// DirectoryService loads users into the local directory copy the engine
// resolves actors from.
type DirectoryService struct {
	store repository.Store
	clock Clock
	log   *logger.Logger
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(store repository.Store, clock Clock, log *logger.Logger) *DirectoryService {
	return &DirectoryService{store: store, clock: clock, log: log}
}

// ImportUsers upserts users and writes one case-less "Bulk User Import"
// audit entry. Only Admin may import.
func (s *DirectoryService) ImportUsers(ctx context.Context, actor auth.Actor, users []*repository.User) (int, error) {
	if err := requireActive(actor); err != nil {
		return 0, err
	}
	if actor.Role != workflow.RoleAdmin {
		return 0, errors.New(errors.ErrCodeForbidden, "only Admin may import users")
	}
	if len(users) == 0 {
		return 0, errors.InvalidInput("users", "no users to import")
	}

	seen := make(map[string]bool, len(users))
	for i, u := range users {
		u.UserID = strings.TrimSpace(u.UserID)
		if u.UserID == "" {
			return 0, errors.MissingField(fmt.Sprintf("users[%d].user_id", i))
		}
		role, err := workflow.ParseRole(string(u.Role))
		if err != nil {
			return 0, errors.InvalidInput(fmt.Sprintf("users[%d].role", i), err.Error())
		}
		u.Role = role
		if seen[u.UserID] {
			return 0, errors.InvalidInput(fmt.Sprintf("users[%d].user_id", i), "duplicate user id "+u.UserID)
		}
		seen[u.UserID] = true
	}

	err := s.store.InTransaction(ctx, func(tx repository.Tx) error {
		for _, u := range users {
			if err := tx.UpsertUser(ctx, u); err != nil {
				return err
			}
		}
		return tx.AppendAudit(ctx, &repository.AuditEntry{
			Action:      ActionBulkUserImport,
			Detail:      fmt.Sprintf("Imported %d users", len(users)),
			PerformedBy: actor.UserID,
			PerformedAt: s.clock.Now(),
		})
	})
	if err != nil {
		return 0, err
	}

	s.log.Info().Int("count", len(users)).Str("actor", actor.UserID).Msg("Users imported")
	return len(users), nil
}

// Resolve loads the directory entry for userID as an Actor.
func (s *DirectoryService) Resolve(ctx context.Context, userID string) (auth.Actor, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return auth.Actor{}, err
	}
	return auth.ActorFromUser(u), nil
}
