package sqlite

import (
	"encoding/json"
	"time"

	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// Row models mirror the PostgreSQL schema table for table.

type userRow struct {
	UserID      string `gorm:"primaryKey"`
	DisplayName string `gorm:"not null;default:''"`
	Email       string `gorm:"not null;default:''"`
	Team        string `gorm:"not null;default:''"`
	Role        string `gorm:"not null"`
	AllRoles    bool   `gorm:"not null;default:false"`
	Active      bool   `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (userRow) TableName() string { return "users" }

type caseRow struct {
	CaseID      string `gorm:"primaryKey"`
	LAN         *string
	CaseType    string    `gorm:"not null"`
	Product     string    `gorm:"not null;index"`
	Region      string    `gorm:"not null;index"`
	ReferredBy  string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	CaseDate    time.Time `gorm:"not null"`
	Status      string    `gorm:"not null;index"`
	Version     int64     `gorm:"not null;default:1"`

	CustomerName     *string
	CustomerPAN      *string `gorm:"column:customer_pan"`
	CustomerMobile   *string
	CustomerEmail    *string
	BranchLocation   *string
	LoanAmount       *int64
	DisbursementDate *time.Time

	CreatedBy string    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`

	ReviewedBy      *string
	ReviewedAt      *time.Time
	ApprovedBy      *string
	ApprovedAt      *time.Time
	LegalReviewedBy *string
	LegalReviewedAt *time.Time
	ClosedBy        *string
	ClosedAt        *time.Time
}

func (caseRow) TableName() string { return "cases" }

type auditRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	CaseID      *string   `gorm:"index:idx_case_audit_log_case,priority:1"`
	Action      string    `gorm:"not null"`
	Detail      string    `gorm:"not null"`
	PerformedBy string    `gorm:"not null"`
	PerformedAt time.Time `gorm:"not null;index:idx_case_audit_log_case,priority:2"`
}

func (auditRow) TableName() string { return "case_audit_log" }

type commentRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	CaseID      string    `gorm:"not null;index"`
	CommentText string    `gorm:"not null"`
	CommentType string    `gorm:"not null"`
	CreatedBy   string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (commentRow) TableName() string { return "case_comments" }

type documentRow struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	CaseID     string    `gorm:"not null;index"`
	Filename   string    `gorm:"not null"`
	SizeBytes  int64     `gorm:"not null"`
	UploadedBy string    `gorm:"not null"`
	UploadedAt time.Time `gorm:"not null"`
}

func (documentRow) TableName() string { return "case_documents" }

type investigationRow struct {
	CaseID       string    `gorm:"primaryKey"`
	Checklist    []byte    `gorm:"not null"`
	Investigator string    `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (investigationRow) TableName() string { return "investigation_details" }

// ── conversions ──────────────────────────────────────────────────────────────

func toCaseRow(c *repository.Case) *caseRow {
	return &caseRow{
		CaseID:           c.CaseID,
		LAN:              c.LAN,
		CaseType:         c.CaseType,
		Product:          c.Product,
		Region:           c.Region,
		ReferredBy:       c.ReferredBy,
		Description:      c.Description,
		CaseDate:         c.CaseDate.UTC(),
		Status:           string(c.Status),
		Version:          c.Version,
		CustomerName:     c.Customer.Name,
		CustomerPAN:      c.Customer.PAN,
		CustomerMobile:   c.Customer.Mobile,
		CustomerEmail:    c.Customer.Email,
		BranchLocation:   c.Customer.BranchLocation,
		LoanAmount:       c.Customer.LoanAmount,
		DisbursementDate: c.Customer.DisbursementDate,
		CreatedBy:        c.CreatedBy,
		CreatedAt:        c.CreatedAt.UTC(),
		UpdatedAt:        c.UpdatedAt.UTC(),
	}
}

func (r *caseRow) toCase() *repository.Case {
	return &repository.Case{
		CaseID:      r.CaseID,
		LAN:         r.LAN,
		CaseType:    r.CaseType,
		Product:     r.Product,
		Region:      r.Region,
		ReferredBy:  r.ReferredBy,
		Description: r.Description,
		CaseDate:    r.CaseDate,
		Status:      workflow.Status(r.Status),
		Version:     r.Version,
		Customer: repository.Customer{
			Name:             r.CustomerName,
			PAN:              r.CustomerPAN,
			Mobile:           r.CustomerMobile,
			Email:            r.CustomerEmail,
			BranchLocation:   r.BranchLocation,
			LoanAmount:       r.LoanAmount,
			DisbursementDate: r.DisbursementDate,
		},
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Review:      stamp(r.ReviewedBy, r.ReviewedAt),
		Approval:    stamp(r.ApprovedBy, r.ApprovedAt),
		LegalReview: stamp(r.LegalReviewedBy, r.LegalReviewedAt),
		Closure:     stamp(r.ClosedBy, r.ClosedAt),
	}
}

func stamp(actor *string, at *time.Time) *repository.StageStamp {
	if actor == nil || at == nil {
		return nil
	}
	return &repository.StageStamp{Actor: *actor, At: *at}
}

func (r *auditRow) toEntry() *repository.AuditEntry {
	return &repository.AuditEntry{
		ID:          r.ID,
		CaseID:      r.CaseID,
		Action:      r.Action,
		Detail:      r.Detail,
		PerformedBy: r.PerformedBy,
		PerformedAt: r.PerformedAt,
	}
}

func (r *commentRow) toComment() *repository.Comment {
	return &repository.Comment{
		ID:        r.ID,
		CaseID:    r.CaseID,
		Text:      r.CommentText,
		Type:      r.CommentType,
		Author:    r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}

func (r *documentRow) toDocument() *repository.Document {
	return &repository.Document{
		ID:         r.ID,
		CaseID:     r.CaseID,
		Filename:   r.Filename,
		SizeBytes:  r.SizeBytes,
		UploadedBy: r.UploadedBy,
		UploadedAt: r.UploadedAt,
	}
}

func (r *investigationRow) toDetail() (*repository.InvestigationDetail, error) {
	d := &repository.InvestigationDetail{
		CaseID:       r.CaseID,
		Investigator: r.Investigator,
		UpdatedAt:    r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Checklist, &d.Checklist); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *userRow) toUser() *repository.User {
	return &repository.User{
		UserID:      r.UserID,
		DisplayName: r.DisplayName,
		Email:       r.Email,
		Team:        r.Team,
		Role:        workflow.Role(r.Role),
		AllRoles:    r.AllRoles,
		Active:      r.Active,
	}
}
