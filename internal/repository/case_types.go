package repository

import (
	"time"

	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// ── Domain types for the case lifecycle ──────────────────────────────────────

// StageStamp records who moved a case into a pipeline stage, and when.
type StageStamp struct {
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`
}

// Customer holds the optional borrower demographics attached to a case.
type Customer struct {
	Name             *string    `json:"name,omitempty"`
	PAN              *string    `json:"pan,omitempty"`
	Mobile           *string    `json:"mobile,omitempty"`
	Email            *string    `json:"email,omitempty"`
	BranchLocation   *string    `json:"branch_location,omitempty"`
	LoanAmount       *int64     `json:"loan_amount,omitempty"` // minor units
	DisbursementDate *time.Time `json:"disbursement_date,omitempty"`
}

// Case is one fraud-investigation record.
type Case struct {
	CaseID      string          `json:"case_id"`
	LAN         *string         `json:"lan,omitempty"`
	CaseType    string          `json:"case_type"`
	Product     string          `json:"product"`
	Region      string          `json:"region"`
	ReferredBy  string          `json:"referred_by"`
	Description string          `json:"description"`
	CaseDate    time.Time       `json:"case_date"`
	Status      workflow.Status `json:"status"`
	Version     int64           `json:"version"`
	Customer    Customer        `json:"customer"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Review      *StageStamp `json:"review,omitempty"`
	Approval    *StageStamp `json:"approval,omitempty"`
	LegalReview *StageStamp `json:"legal_review,omitempty"`
	Closure     *StageStamp `json:"closure,omitempty"`
}

// StampFor returns the recorded stamp for stage, or nil if the case has not
// entered it.
func (c *Case) StampFor(stage workflow.Stage) *StageStamp {
	switch stage {
	case workflow.StageReview:
		return c.Review
	case workflow.StageApproval:
		return c.Approval
	case workflow.StageLegalReview:
		return c.LegalReview
	case workflow.StageClosure:
		return c.Closure
	}
	return nil
}

// SetStamp records entry into stage. StageNone is ignored.
func (c *Case) SetStamp(stage workflow.Stage, stamp StageStamp) {
	switch stage {
	case workflow.StageReview:
		c.Review = &stamp
	case workflow.StageApproval:
		c.Approval = &stamp
	case workflow.StageLegalReview:
		c.LegalReview = &stamp
	case workflow.StageClosure:
		c.Closure = &stamp
	}
}

// StatusChange is a compare-and-set status update. It applies only while the
// stored case still has status From and version ExpectedVersion.
type StatusChange struct {
	CaseID          string
	From            workflow.Status
	To              workflow.Status
	ExpectedVersion int64
	Stage           workflow.Stage
	Actor           string
	At              time.Time
}

// AuditEntry is one immutable record in the audit log. CaseID is nil for
// system-level events.
type AuditEntry struct {
	ID          int64     `json:"id"`
	CaseID      *string   `json:"case_id,omitempty"`
	Action      string    `json:"action"`
	Detail      string    `json:"detail"`
	PerformedBy string    `json:"performed_by"`
	PerformedAt time.Time `json:"performed_at"`
}

// Comment is one immutable annotation on a case.
type Comment struct {
	ID        int64     `json:"id"`
	CaseID    string    `json:"case_id"`
	Text      string    `json:"text"`
	Type      string    `json:"comment_type"`
	Author    string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is metadata for a file stored by the upload collaborator.
type Document struct {
	ID         int64     `json:"id"`
	CaseID     string    `json:"case_id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// InvestigationDetail is the latest checklist submitted for a case.
type InvestigationDetail struct {
	CaseID string `json:"case_id"`
	workflow.Checklist
	Investigator string    `json:"investigator"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// User is a directory entry as resolved by the identity collaborator.
type User struct {
	UserID      string        `json:"user_id"`
	DisplayName string        `json:"display_name"`
	Email       string        `json:"email"`
	Team        string        `json:"team"`
	Role        workflow.Role `json:"role"`
	AllRoles    bool          `json:"all_roles"`
	Active      bool          `json:"active"`
}

// CaseFilter narrows ListCases. Nil fields are not applied.
type CaseFilter struct {
	Status    *workflow.Status
	CaseType  *string
	Product   *string
	Region    *string
	CreatedBy *string
	Query     *string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// Offset returns the row offset for the filter's page.
func (f CaseFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// CaseStatistics are aggregate counts over the case table.
type CaseStatistics struct {
	Total     int64            `json:"total"`
	ByStatus  map[string]int64 `json:"by_status"`
	ByRegion  map[string]int64 `json:"by_region"`
	ByProduct map[string]int64 `json:"by_product"`
}
