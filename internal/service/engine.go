package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pesio-ai/be-fraud-cases/internal/auth"
	"github.com/pesio-ai/be-fraud-cases/internal/authz"
	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// Domain event types published after a successful commit.
const (
	EventCaseCreated          = "case_created"
	EventCaseStatusChanged    = "case_status_changed"
	EventCommentAdded         = "case_comment_added"
	EventDocumentRecorded     = "case_document_recorded"
	EventInvestigationUpdated = "case_investigation_updated"
)

// Audit actions.
const (
	ActionCaseCreated          = "Case Created"
	ActionStatusUpdate         = "Status Update"
	ActionCommentAdded         = "Comment Added"
	ActionDocumentAdded        = "Document Added"
	ActionInvestigationUpdated = "Investigation Updated"
	ActionBulkUserImport       = "Bulk User Import"
)

// DefaultCommentType is used when a comment is added without a type.
const DefaultCommentType = "General"

// EventPublisher delivers domain events. Implementations must not block the
// caller on delivery failure; errors are theirs to log.
type EventPublisher interface {
	PublishCaseEvent(ctx context.Context, eventType, caseID, actorID string, payload map[string]any)
}

type nopPublisher struct{}

func (nopPublisher) PublishCaseEvent(context.Context, string, string, string, map[string]any) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// CaseSnapshot is a case as seen by one actor.
type CaseSnapshot struct {
	Case               *repository.Case  `json:"case"`
	SLA                SLAProjection     `json:"sla"`
	AllowedTransitions []workflow.Status `json:"allowed_transitions"`
}

func newSnapshot(c *repository.Case, actor auth.Actor, sla SLAPolicy, now time.Time) *CaseSnapshot {
	return &CaseSnapshot{
		Case:               c,
		SLA:                sla.Project(c, now),
		AllowedTransitions: allowedFor(actor, c),
	}
}

// requireActive rejects requests from deactivated users.
func requireActive(actor auth.Actor) error {
	if actor.UserID == "" {
		return errors.New(errors.ErrCodeUnauthenticated, "no authenticated actor")
	}
	if !actor.Active {
		return errors.New(errors.ErrCodeForbidden, fmt.Sprintf("user %s is inactive", actor.UserID))
	}
	return nil
}

// permitted applies the gate plus the creator restriction on creator-only
// edges.
func permitted(actor auth.Actor, edge workflow.Edge, c *repository.Case) bool {
	if !authz.IsAuthorized(actor.Role, actor.Capabilities, edge) {
		return false
	}
	if edge.CreatorOnly && actor.Role != workflow.RoleAdmin {
		return c.CreatedBy == actor.UserID
	}
	return true
}

// allowedFor lists the statuses actor may move c to right now.
func allowedFor(actor auth.Actor, c *repository.Case) []workflow.Status {
	out := []workflow.Status{}
	if !actor.Active {
		return out
	}
	for _, e := range workflow.Outbound(c.Status) {
		if permitted(actor, e, c) {
			out = append(out, e.To)
		}
	}
	return out
}

func caseRef(id string) *string { return &id }
