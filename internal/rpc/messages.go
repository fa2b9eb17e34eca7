package rpc

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// ── Cases ────────────────────────────────────────────────────────────────────

type Customer struct {
	Name             string `json:"name,omitempty"`
	PAN              string `json:"pan,omitempty"`
	Mobile           string `json:"mobile,omitempty"`
	Email            string `json:"email,omitempty"`
	BranchLocation   string `json:"branch_location,omitempty"`
	LoanAmount       *int64 `json:"loan_amount,omitempty"`
	DisbursementDate string `json:"disbursement_date,omitempty"`
}

type StageStamp struct {
	Stage string                 `json:"stage"`
	Actor string                 `json:"actor"`
	At    *timestamppb.Timestamp `json:"at"`
}

type SLA struct {
	FMR1Due     string `json:"fmr1_due"`
	FMR3Due     string `json:"fmr3_due"`
	RetainUntil string `json:"retain_until"`
	Status      string `json:"sla_status"`
}

type Case struct {
	CaseID             string                 `json:"case_id"`
	LAN                string                 `json:"lan,omitempty"`
	CaseType           string                 `json:"case_type"`
	Product            string                 `json:"product"`
	Region             string                 `json:"region"`
	ReferredBy         string                 `json:"referred_by"`
	Description        string                 `json:"description"`
	CaseDate           string                 `json:"case_date"`
	Status             string                 `json:"status"`
	Version            int64                  `json:"version"`
	Customer           *Customer              `json:"customer,omitempty"`
	CreatedBy          string                 `json:"created_by"`
	CreatedAt          *timestamppb.Timestamp `json:"created_at"`
	UpdatedAt          *timestamppb.Timestamp `json:"updated_at"`
	Stages             []*StageStamp          `json:"stages,omitempty"`
	SLA                *SLA                   `json:"sla,omitempty"`
	AllowedTransitions []string               `json:"allowed_transitions,omitempty"`
}

type CreateCaseRequest struct {
	CaseID      string    `json:"case_id,omitempty"`
	LAN         string    `json:"lan,omitempty"`
	CaseType    string    `json:"case_type"`
	Product     string    `json:"product"`
	Region      string    `json:"region"`
	ReferredBy  string    `json:"referred_by"`
	Description string    `json:"description"`
	CaseDate    string    `json:"case_date,omitempty"`
	Status      string    `json:"status,omitempty"`
	Customer    *Customer `json:"customer,omitempty"`
}

type GetCaseRequest struct {
	CaseID string `json:"case_id"`
}

type ListCasesRequest struct {
	Status    string `json:"status,omitempty"`
	CaseType  string `json:"case_type,omitempty"`
	Product   string `json:"product,omitempty"`
	Region    string `json:"region,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
	Query     string `json:"q,omitempty"`
	Page      int32  `json:"page,omitempty"`
	PageSize  int32  `json:"page_size,omitempty"`
}

type ListCasesResponse struct {
	Cases    []*Case `json:"cases"`
	Total    int64   `json:"total"`
	Page     int32   `json:"page"`
	PageSize int32   `json:"page_size"`
}

type TransitionCaseRequest struct {
	CaseID    string  `json:"case_id"`
	Status    string  `json:"status"`
	Rationale *string `json:"rationale,omitempty"`
}

type GetStatisticsRequest struct{}

type Statistics struct {
	Total     int64            `json:"total"`
	ByStatus  map[string]int64 `json:"by_status"`
	ByRegion  map[string]int64 `json:"by_region"`
	ByProduct map[string]int64 `json:"by_product"`
}

// ── Evidence ─────────────────────────────────────────────────────────────────

type AddCommentRequest struct {
	CaseID      string `json:"case_id"`
	Text        string `json:"text"`
	CommentType string `json:"comment_type,omitempty"`
}

type Comment struct {
	ID          int64                  `json:"id"`
	CaseID      string                 `json:"case_id"`
	Text        string                 `json:"text"`
	CommentType string                 `json:"comment_type"`
	CreatedBy   string                 `json:"created_by"`
	CreatedAt   *timestamppb.Timestamp `json:"created_at"`
}

type ListCommentsRequest struct {
	CaseID string `json:"case_id"`
	Limit  int32  `json:"limit,omitempty"`
}

type ListCommentsResponse struct {
	Comments []*Comment `json:"comments"`
}

type RecordDocumentRequest struct {
	CaseID    string `json:"case_id"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
}

type Document struct {
	ID         int64                  `json:"id"`
	CaseID     string                 `json:"case_id"`
	Filename   string                 `json:"filename"`
	SizeBytes  int64                  `json:"size_bytes"`
	UploadedBy string                 `json:"uploaded_by"`
	UploadedAt *timestamppb.Timestamp `json:"uploaded_at"`
}

type ListDocumentsRequest struct {
	CaseID string `json:"case_id"`
}

type ListDocumentsResponse struct {
	Documents []*Document `json:"documents"`
}

// ── Audit ────────────────────────────────────────────────────────────────────

// AuditTrailRequest reads one case's trail, or the global feed when CaseID
// is empty.
type AuditTrailRequest struct {
	CaseID string `json:"case_id,omitempty"`
	Limit  int32  `json:"limit,omitempty"`
}

type AuditEntry struct {
	ID          int64                  `json:"id"`
	CaseID      string                 `json:"case_id,omitempty"`
	Action      string                 `json:"action"`
	Detail      string                 `json:"detail"`
	PerformedBy string                 `json:"performed_by"`
	PerformedAt *timestamppb.Timestamp `json:"performed_at"`
}

type AuditTrailResponse struct {
	Entries []*AuditEntry `json:"entries"`
}

// ── Investigation ────────────────────────────────────────────────────────────

type UpsertInvestigationRequest struct {
	CaseID    string             `json:"case_id"`
	Checklist workflow.Checklist `json:"checklist"`
}

type GetInvestigationRequest struct {
	CaseID string `json:"case_id"`
}

type Investigation struct {
	CaseID       string                 `json:"case_id"`
	Checklist    workflow.Checklist     `json:"checklist"`
	Investigator string                 `json:"investigator"`
	UpdatedAt    *timestamppb.Timestamp `json:"updated_at"`
	StatusHint   string                 `json:"status_hint"`
}

// ── Directory ────────────────────────────────────────────────────────────────

type User struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Team        string `json:"team,omitempty"`
	Role        string `json:"role"`
	AllRoles    bool   `json:"all_roles,omitempty"`
	Active      bool   `json:"active"`
}

type ImportUsersRequest struct {
	Users []*User `json:"users"`
}

type ImportUsersResponse struct {
	Imported int32 `json:"imported"`
}
