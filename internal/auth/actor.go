// Package auth resolves the caller of a request into an Actor. Bearer tokens
// are HS256 JWTs; a token is only accepted while its session has not gone
// idle.
package auth

import (
	"context"

	"github.com/pesio-ai/be-fraud-cases/internal/authz"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// Actor is the resolved identity a request acts as.
type Actor struct {
	UserID       string
	Role         workflow.Role
	Capabilities authz.Capabilities
	Active       bool
}

// ActorFromUser builds an Actor from a directory entry.
func ActorFromUser(u *repository.User) Actor {
	return Actor{
		UserID:       u.UserID,
		Role:         u.Role,
		Capabilities: authz.Capabilities{AllRoles: u.AllRoles},
		Active:       u.Active,
	}
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying a.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
