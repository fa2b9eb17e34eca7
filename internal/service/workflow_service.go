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

// WorkflowService moves cases between statuses.
type WorkflowService struct {
	store  repository.Store
	events EventPublisher
	clock  Clock
	sla    SLAPolicy
	log    *logger.Logger
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(store repository.Store, events EventPublisher, clock Clock, sla SLAPolicy, log *logger.Logger) *WorkflowService {
	return &WorkflowService{
		store:  store,
		events: publisherOrNop(events),
		clock:  clock,
		sla:    sla,
		log:    log,
	}
}

// TransitionRequest asks for one status change. Rationale is optional; a
// blank rationale is treated as absent.
type TransitionRequest struct {
	CaseID    string          `json:"case_id"`
	To        workflow.Status `json:"status"`
	Rationale *string         `json:"rationale,omitempty"`
}

// AttemptTransition validates and applies a status change. The status update,
// stage stamp, audit entry and rationale comment commit together or not at
// all.
func (s *WorkflowService) AttemptTransition(ctx context.Context, actor auth.Actor, req TransitionRequest) (*CaseSnapshot, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !req.To.Valid() {
		return nil, errors.InvalidInput("status", fmt.Sprintf("unknown case status %q", req.To))
	}

	var rationale string
	if req.Rationale != nil {
		rationale = strings.TrimSpace(*req.Rationale)
	}

	var (
		updated *repository.Case
		from    workflow.Status
	)
	err := s.store.InTransaction(ctx, func(tx repository.Tx) error {
		c, err := tx.GetCaseForUpdate(ctx, req.CaseID)
		if err != nil {
			return err
		}
		from = c.Status

		edge, ok := workflow.Lookup(c.Status, req.To)
		if !ok {
			return errors.New(errors.ErrCodeInvalidTransition,
				fmt.Sprintf("transition from %s to %s is not permitted", c.Status, req.To)).
				WithDetail("current_status", c.Status).
				WithDetail("allowed_transitions", allowedFor(actor, c))
		}
		if !permitted(actor, edge, c) {
			return errors.New(errors.ErrCodeUnauthorized,
				fmt.Sprintf("transition from %s to %s is not permitted for role %s", c.Status, req.To, actor.Role)).
				WithDetail("current_status", c.Status).
				WithDetail("allowed_transitions", allowedFor(actor, c))
		}

		now := s.clock.Now()
		stage := workflow.StageFor(req.To)
		if err := tx.UpdateStatus(ctx, repository.StatusChange{
			CaseID:          c.CaseID,
			From:            c.Status,
			To:              req.To,
			ExpectedVersion: c.Version,
			Stage:           stage,
			Actor:           actor.UserID,
			At:              now,
		}); err != nil {
			return err
		}

		if err := tx.AppendAudit(ctx, &repository.AuditEntry{
			CaseID:      caseRef(c.CaseID),
			Action:      ActionStatusUpdate,
			Detail:      fmt.Sprintf("Status changed from %s to %s", c.Status, req.To),
			PerformedBy: actor.UserID,
			PerformedAt: now,
		}); err != nil {
			return err
		}

		if rationale != "" {
			if err := tx.AppendComment(ctx, &repository.Comment{
				CaseID:    c.CaseID,
				Text:      rationale,
				Type:      "Status Change to " + string(req.To),
				Author:    actor.UserID,
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}

		c.Status = req.To
		c.Version++
		c.UpdatedAt = now
		c.SetStamp(stage, repository.StageStamp{Actor: actor.UserID, At: now})
		updated = c
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).
			Str("case_id", req.CaseID).
			Str("to", string(req.To)).
			Str("actor", actor.UserID).
			Msg("Transition rejected")
		return nil, err
	}

	s.log.Info().
		Str("case_id", updated.CaseID).
		Str("from", string(from)).
		Str("to", string(updated.Status)).
		Str("actor", actor.UserID).
		Msg("Case status changed")

	s.events.PublishCaseEvent(ctx, EventCaseStatusChanged, updated.CaseID, actor.UserID, map[string]any{
		"from":           from,
		"to":             updated.Status,
		"version":        updated.Version,
		"with_rationale": rationale != "",
	})

	return newSnapshot(updated, actor, s.sla, s.clock.Now()), nil
}

// AllowedTransitions lists the statuses actor may move the case to.
func (s *WorkflowService) AllowedTransitions(ctx context.Context, actor auth.Actor, caseID string) ([]workflow.Status, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return allowedFor(actor, c), nil
}
