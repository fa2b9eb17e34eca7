package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pesio-ai/be-fraud-cases/internal/auth"
	"github.com/pesio-ai/be-fraud-cases/internal/authz"
	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/logger"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

const maxCaseIDLength = 64

// CaseService handles case intake and case reads.
type CaseService struct {
	store  repository.Store
	events EventPublisher
	clock  Clock
	sla    SLAPolicy
	log    *logger.Logger
}

// NewCaseService creates a new CaseService.
func NewCaseService(store repository.Store, events EventPublisher, clock Clock, sla SLAPolicy, log *logger.Logger) *CaseService {
	return &CaseService{
		store:  store,
		events: publisherOrNop(events),
		clock:  clock,
		sla:    sla,
		log:    log,
	}
}

// CustomerInput carries optional borrower demographics. Dates are YYYY-MM-DD.
type CustomerInput struct {
	Name             string `json:"name,omitempty"`
	PAN              string `json:"pan,omitempty"`
	Mobile           string `json:"mobile,omitempty"`
	Email            string `json:"email,omitempty"`
	BranchLocation   string `json:"branch_location,omitempty"`
	LoanAmount       *int64 `json:"loan_amount,omitempty"`
	DisbursementDate string `json:"disbursement_date,omitempty"`
}

// CreateCaseRequest represents a request to open a case. CaseID is generated
// when empty; Status defaults to Draft.
type CreateCaseRequest struct {
	CaseID      string          `json:"case_id,omitempty"`
	LAN         string          `json:"lan,omitempty"`
	CaseType    string          `json:"case_type"`
	Product     string          `json:"product"`
	Region      string          `json:"region"`
	ReferredBy  string          `json:"referred_by"`
	Description string          `json:"description"`
	CaseDate    string          `json:"case_date,omitempty"`
	Status      workflow.Status `json:"status,omitempty"`
	Customer    CustomerInput   `json:"customer"`
}

// CreateCase validates and stores a new case together with its
// "Case Created" audit entry.
func (s *CaseService) CreateCase(ctx context.Context, actor auth.Actor, req *CreateCaseRequest) (*CaseSnapshot, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if !authz.CanCreateCase(actor.Role, actor.Capabilities) {
		return nil, errors.New(errors.ErrCodeForbidden,
			fmt.Sprintf("role %s may not create cases", actor.Role))
	}

	now := s.clock.Now()
	c, err := s.buildCase(req, now)
	if err != nil {
		return nil, err
	}
	c.CreatedBy = actor.UserID

	err = s.store.InTransaction(ctx, func(tx repository.Tx) error {
		if err := tx.InsertCase(ctx, c); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, &repository.AuditEntry{
			CaseID:      caseRef(c.CaseID),
			Action:      ActionCaseCreated,
			Detail:      fmt.Sprintf("Case created with status: %s", c.Status),
			PerformedBy: actor.UserID,
			PerformedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("case_id", c.CaseID).
		Str("status", string(c.Status)).
		Str("created_by", actor.UserID).
		Msg("Case created")

	s.events.PublishCaseEvent(ctx, EventCaseCreated, c.CaseID, actor.UserID, map[string]any{
		"status":    c.Status,
		"case_type": c.CaseType,
		"product":   c.Product,
		"region":    c.Region,
	})

	return newSnapshot(c, actor, s.sla, now), nil
}

// buildCase validates req field by field and returns the case to insert.
func (s *CaseService) buildCase(req *CreateCaseRequest, now time.Time) (*repository.Case, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, errors.MissingField("description")
	}

	c := &repository.Case{
		LAN:         optional(req.LAN),
		Description: description,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var err error
	if c.CaseType, err = checkEnum("case_type", req.CaseType, CaseTypes); err != nil {
		return nil, err
	}
	if c.Product, err = checkEnum("product", req.Product, Products); err != nil {
		return nil, err
	}
	if c.Region, err = checkEnum("region", req.Region, Regions); err != nil {
		return nil, err
	}
	if c.ReferredBy, err = checkEnum("referred_by", req.ReferredBy, Referrers); err != nil {
		return nil, err
	}

	c.Status = req.Status
	if c.Status == "" {
		c.Status = workflow.StatusDraft
	}
	if !slices.Contains(workflow.InitialStatuses, c.Status) {
		return nil, errors.InvalidInput("status",
			fmt.Sprintf("a case cannot be created in status %s", c.Status))
	}

	c.CaseDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if req.CaseDate != "" {
		d, err := time.Parse(time.DateOnly, req.CaseDate)
		if err != nil {
			return nil, errors.InvalidInput("case_date", "invalid date format, expected YYYY-MM-DD")
		}
		if d.After(now) {
			return nil, errors.InvalidInput("case_date", "case date cannot be in the future")
		}
		c.CaseDate = d
	}

	if c.Customer, err = buildCustomer(req.Customer); err != nil {
		return nil, err
	}

	c.CaseID = strings.TrimSpace(req.CaseID)
	if c.CaseID == "" {
		c.CaseID = NewCaseID(now)
	}
	if len(c.CaseID) > maxCaseIDLength {
		return nil, errors.InvalidInput("case_id", "case id is too long")
	}
	return c, nil
}

func buildCustomer(in CustomerInput) (repository.Customer, error) {
	out := repository.Customer{
		Name:           optional(in.Name),
		BranchLocation: optional(in.BranchLocation),
		LoanAmount:     in.LoanAmount,
	}
	if strings.TrimSpace(in.PAN) != "" {
		pan, err := normalizePAN(in.PAN)
		if err != nil {
			return out, err
		}
		out.PAN = &pan
	}
	if strings.TrimSpace(in.Mobile) != "" {
		mobile, err := normalizeMobile(in.Mobile)
		if err != nil {
			return out, err
		}
		out.Mobile = &mobile
	}
	if strings.TrimSpace(in.Email) != "" {
		email, err := normalizeEmail(in.Email)
		if err != nil {
			return out, err
		}
		out.Email = &email
	}
	if in.LoanAmount != nil && *in.LoanAmount < 0 {
		return out, errors.InvalidInput("customer.loan_amount", "loan amount cannot be negative")
	}
	if in.DisbursementDate != "" {
		d, err := time.Parse(time.DateOnly, in.DisbursementDate)
		if err != nil {
			return out, errors.InvalidInput("customer.disbursement_date", "invalid date format, expected YYYY-MM-DD")
		}
		out.DisbursementDate = &d
	}
	return out, nil
}

// GetCase returns the case with its SLA projection and the transitions the
// actor may take.
func (s *CaseService) GetCase(ctx context.Context, actor auth.Actor, caseID string) (*CaseSnapshot, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return newSnapshot(c, actor, s.sla, s.clock.Now()), nil
}

// CasePage is one page of ListCases.
type CasePage struct {
	Cases    []*repository.Case `json:"cases"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// ListCases returns cases matching filter, newest first.
func (s *CaseService) ListCases(ctx context.Context, actor auth.Actor, filter repository.CaseFilter) (*CasePage, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 50
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, errors.InvalidInput("status", fmt.Sprintf("unknown case status %q", *filter.Status))
	}

	cases, total, err := s.store.ListCases(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &CasePage{Cases: cases, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// Statistics returns case counts by status, region and product.
func (s *CaseService) Statistics(ctx context.Context, actor auth.Actor) (*repository.CaseStatistics, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	return s.store.CaseStatistics(ctx)
}

// History returns the case's audit trail, newest first.
func (s *CaseService) History(ctx context.Context, actor auth.Actor, caseID string, limit int) ([]*repository.AuditEntry, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.ListAudit(ctx, &caseID, limit)
}

// AuditFeed returns the most recent audit entries across all cases,
// including system events.
func (s *CaseService) AuditFeed(ctx context.Context, actor auth.Actor, limit int) ([]*repository.AuditEntry, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	return s.store.ListAudit(ctx, nil, limit)
}
