package service

import (
	"context"
	"fmt"

	"github.com/pesio-ai/be-fraud-cases/internal/auth"
	"github.com/pesio-ai/be-fraud-cases/internal/authz"
	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/logger"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// InvestigationService keeps the per-case investigation checklist.
type InvestigationService struct {
	store  repository.Store
	events EventPublisher
	clock  Clock
	log    *logger.Logger
}

// NewInvestigationService creates a new InvestigationService.
func NewInvestigationService(store repository.Store, events EventPublisher, clock Clock, log *logger.Logger) *InvestigationService {
	return &InvestigationService{
		store:  store,
		events: publisherOrNop(events),
		clock:  clock,
		log:    log,
	}
}

// Investigation is a stored checklist with its advisory hint.
type Investigation struct {
	*repository.InvestigationDetail
	Hint workflow.StatusHint `json:"status_hint"`
}

var investigationRoles = []workflow.Role{workflow.RoleInvestigator}

// Upsert replaces the case's checklist. Unset outcomes are stored as
// Pending. The hint is returned but never changes case status.
func (s *InvestigationService) Upsert(ctx context.Context, actor auth.Actor, caseID string, checklist workflow.Checklist) (*Investigation, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !authz.Allows(actor.Role, actor.Capabilities, investigationRoles) {
		return nil, errors.New(errors.ErrCodeForbidden,
			fmt.Sprintf("role %s may not update investigation details", actor.Role))
	}

	checklist.Normalize()
	if err := checklist.Validate(); err != nil {
		return nil, errors.InvalidInput("checklist", err.Error())
	}
	hint := workflow.DeriveStatusHint(checklist)

	var detail *repository.InvestigationDetail
	err := s.store.InTransaction(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetCaseForUpdate(ctx, caseID); err != nil {
			return err
		}
		now := s.clock.Now()
		detail = &repository.InvestigationDetail{
			CaseID:       caseID,
			Checklist:    checklist,
			Investigator: actor.UserID,
			UpdatedAt:    now,
		}
		if err := tx.UpsertInvestigation(ctx, detail); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, &repository.AuditEntry{
			CaseID:      caseRef(caseID),
			Action:      ActionInvestigationUpdated,
			Detail:      fmt.Sprintf("Investigation checklist updated (hint: %s)", hint),
			PerformedBy: actor.UserID,
			PerformedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("case_id", caseID).
		Str("investigator", actor.UserID).
		Str("hint", string(hint)).
		Msg("Investigation details updated")

	s.events.PublishCaseEvent(ctx, EventInvestigationUpdated, caseID, actor.UserID, map[string]any{
		"status_hint": hint,
	})
	return &Investigation{InvestigationDetail: detail, Hint: hint}, nil
}

// Get returns the stored checklist and its hint.
func (s *InvestigationService) Get(ctx context.Context, actor auth.Actor, caseID string) (*Investigation, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	detail, err := s.store.GetInvestigation(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return &Investigation{InvestigationDetail: detail, Hint: workflow.DeriveStatusHint(detail.Checklist)}, nil
}
