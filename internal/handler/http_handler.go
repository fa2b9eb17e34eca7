package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/pesio-ai/be-fraud-cases/internal/auth"
	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/logger"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/service"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// Services bundles the application services the transports call into.
type Services struct {
	Cases          *service.CaseService
	Workflow       *service.WorkflowService
	Evidence       *service.EvidenceService
	Investigations *service.InvestigationService
	Directory      *service.DirectoryService
}

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	svc Services
	log *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(svc Services, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc: svc,
		log: log,
	}
}

// CreateCase handles POST /api/v1/cases
func (h *HTTPHandler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCaseRequest
	if !decode(w, r, &req) {
		return
	}

	snapshot, err := h.svc.Cases.CreateCase(r.Context(), actorOf(r), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

// GetCase handles GET /api/v1/cases/{caseID}
func (h *HTTPHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.svc.Cases.GetCase(r.Context(), actorOf(r), chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// ListCases handles GET /api/v1/cases
func (h *HTTPHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.CaseFilter{
		CaseType:  queryPtr(q.Get("case_type")),
		Product:   queryPtr(q.Get("product")),
		Region:    queryPtr(q.Get("region")),
		CreatedBy: queryPtr(q.Get("created_by")),
		Query:     queryPtr(q.Get("q")),
	}
	if status := q.Get("status"); status != "" {
		s := workflow.Status(status)
		filter.Status = &s
	}

	var err error
	if filter.From, err = queryDate("from", q.Get("from")); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.To, err = queryDate("to", q.Get("to")); err != nil {
		writeError(w, r, err)
		return
	}

	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	page, err := h.svc.Cases.ListCases(r.Context(), actorOf(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cases":     page.Cases,
		"total":     page.Total,
		"page":      page.Page,
		"page_size": page.PageSize,
	})
}

// Statistics handles GET /api/v1/cases/stats
func (h *HTTPHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Cases.Statistics(r.Context(), actorOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// TransitionCase handles POST /api/v1/cases/{caseID}/transitions
func (h *HTTPHandler) TransitionCase(w http.ResponseWriter, r *http.Request) {
	var req service.TransitionRequest
	if !decode(w, r, &req) {
		return
	}
	req.CaseID = chi.URLParam(r, "caseID")

	snapshot, err := h.svc.Workflow.AttemptTransition(r.Context(), actorOf(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// AllowedTransitions handles GET /api/v1/cases/{caseID}/transitions
func (h *HTTPHandler) AllowedTransitions(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	allowed, err := h.svc.Workflow.AllowedTransitions(r.Context(), actorOf(r), caseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"case_id":             caseID,
		"allowed_transitions": allowed,
	})
}

// AddComment handles POST /api/v1/cases/{caseID}/comments
func (h *HTTPHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req service.AddCommentRequest
	if !decode(w, r, &req) {
		return
	}
	req.CaseID = chi.URLParam(r, "caseID")

	comment, err := h.svc.Evidence.AddComment(r.Context(), actorOf(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// ListComments handles GET /api/v1/cases/{caseID}/comments
func (h *HTTPHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	comments, err := h.svc.Evidence.Comments(r.Context(), actorOf(r), chi.URLParam(r, "caseID"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

// RecordDocument handles POST /api/v1/cases/{caseID}/documents
func (h *HTTPHandler) RecordDocument(w http.ResponseWriter, r *http.Request) {
	var req service.RecordDocumentRequest
	if !decode(w, r, &req) {
		return
	}
	req.CaseID = chi.URLParam(r, "caseID")

	doc, err := h.svc.Evidence.RecordDocument(r.Context(), actorOf(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// ListDocuments handles GET /api/v1/cases/{caseID}/documents
func (h *HTTPHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Evidence.Documents(r.Context(), actorOf(r), chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// UpsertInvestigation handles PUT /api/v1/cases/{caseID}/investigation
func (h *HTTPHandler) UpsertInvestigation(w http.ResponseWriter, r *http.Request) {
	var checklist workflow.Checklist
	if !decode(w, r, &checklist) {
		return
	}

	inv, err := h.svc.Investigations.Upsert(r.Context(), actorOf(r), chi.URLParam(r, "caseID"), checklist)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// GetInvestigation handles GET /api/v1/cases/{caseID}/investigation
func (h *HTTPHandler) GetInvestigation(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Investigations.Get(r.Context(), actorOf(r), chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// CaseAudit handles GET /api/v1/cases/{caseID}/audit
func (h *HTTPHandler) CaseAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.svc.Cases.History(r.Context(), actorOf(r), chi.URLParam(r, "caseID"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// AuditFeed handles GET /api/v1/audit
func (h *HTTPHandler) AuditFeed(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.svc.Cases.AuditFeed(r.Context(), actorOf(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// ImportUsers handles POST /api/v1/users/import
func (h *HTTPHandler) ImportUsers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Users []*repository.User `json:"users"`
	}
	if !decode(w, r, &req) {
		return
	}

	n, err := h.svc.Directory.ImportUsers(r.Context(), actorOf(r), req.Users)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": n})
}

// Me handles GET /api/v1/me
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := actorOf(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":   actor.UserID,
		"role":      actor.Role,
		"all_roles": actor.Capabilities.AllRoles,
		"active":    actor.Active,
	})
}

type statusInfo struct {
	Status   workflow.Status `json:"status"`
	Label    string          `json:"label"`
	Terminal bool            `json:"terminal"`
}

type edgeInfo struct {
	From        workflow.Status `json:"from"`
	To          workflow.Status `json:"to"`
	Action      string          `json:"action"`
	Roles       []workflow.Role `json:"roles"`
	AdminOnly   bool            `json:"admin_only"`
	CreatorOnly bool            `json:"creator_only,omitempty"`
	Reverse     bool            `json:"reverse,omitempty"`
}

// WorkflowMeta handles GET /api/v1/meta/workflow. It exposes the status
// vocabulary and transition table so clients can render them.
func (h *HTTPHandler) WorkflowMeta(w http.ResponseWriter, r *http.Request) {
	statuses := make([]statusInfo, 0, len(workflow.AllStatuses))
	for _, s := range workflow.AllStatuses {
		statuses = append(statuses, statusInfo{Status: s, Label: s.Label(), Terminal: s.Terminal()})
	}

	edges := workflow.Edges()
	out := make([]edgeInfo, 0, len(edges))
	for _, e := range edges {
		roles := e.Roles
		if roles == nil {
			roles = []workflow.Role{}
		}
		out = append(out, edgeInfo{
			From: e.From, To: e.To, Action: e.Action, Roles: roles,
			AdminOnly: e.AdminOnly(), CreatorOnly: e.CreatorOnly, Reverse: e.Reverse,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"version":          workflow.StatusVocabularyVersion,
		"statuses":         statuses,
		"edges":            out,
		"initial_statuses": workflow.InitialStatuses,
		"roles":            workflow.AllRoles,
	})
}

func actorOf(r *http.Request) auth.Actor {
	actor, _ := auth.ActorFromContext(r.Context())
	return actor
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return false
	}
	return true
}

func queryPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func queryDate(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, errors.InvalidInput(field, field+" must be YYYY-MM-DD")
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Field   string           `json:"field,omitempty"`
	Details map[string]any   `json:"details,omitempty"`
}

// writeError renders err with the status its code maps to. Internal errors
// are logged and their message withheld.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		appErr = errors.Wrap(err, errors.ErrCodeInternal, "internal error")
	}

	status := errors.HTTPStatus(appErr.Code)
	body := errorBody{Code: appErr.Code, Message: appErr.Message, Field: appErr.Field, Details: appErr.Details}
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("code", string(appErr.Code)).Msg("Request failed")
		if appErr.Code == errors.ErrCodeInternal {
			body.Message = "internal error"
		}
	}
	writeJSON(w, status, body)
}
