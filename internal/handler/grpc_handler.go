package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/pesio-ai/be-fraud-cases/internal/auth"
	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/rpc"
	"github.com/pesio-ai/be-fraud-cases/internal/service"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// GRPCHandler implements the CaseService gRPC interface
type GRPCHandler struct {
	rpc.UnimplementedCaseServiceServer
	svc    Services
	logger zerolog.Logger
}

var _ rpc.CaseServiceServer = (*GRPCHandler)(nil)

// NewGRPCHandler creates a new gRPC handler
func NewGRPCHandler(svc Services, logger zerolog.Logger) *GRPCHandler {
	return &GRPCHandler{
		svc:    svc,
		logger: logger.With().Str("handler", "grpc").Logger(),
	}
}

// actor returns the caller resolved by the auth interceptor. A missing actor
// is rejected by the services as unauthenticated.
func actor(ctx context.Context) auth.Actor {
	a, _ := auth.ActorFromContext(ctx)
	return a
}

// CreateCase opens a new case
func (h *GRPCHandler) CreateCase(ctx context.Context, req *rpc.CreateCaseRequest) (*rpc.Case, error) {
	h.logger.Info().
		Str("case_id", req.CaseID).
		Str("case_type", req.CaseType).
		Str("region", req.Region).
		Msg("gRPC CreateCase called")

	serviceReq := &service.CreateCaseRequest{
		CaseID:      req.CaseID,
		LAN:         req.LAN,
		CaseType:    req.CaseType,
		Product:     req.Product,
		Region:      req.Region,
		ReferredBy:  req.ReferredBy,
		Description: req.Description,
		CaseDate:    req.CaseDate,
		Status:      workflow.Status(req.Status),
	}
	if req.Customer != nil {
		serviceReq.Customer = service.CustomerInput{
			Name:             req.Customer.Name,
			PAN:              req.Customer.PAN,
			Mobile:           req.Customer.Mobile,
			Email:            req.Customer.Email,
			BranchLocation:   req.Customer.BranchLocation,
			LoanAmount:       req.Customer.LoanAmount,
			DisbursementDate: req.Customer.DisbursementDate,
		}
	}

	snapshot, err := h.svc.Cases.CreateCase(ctx, actor(ctx), serviceReq)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create case")
		return nil, mapErrorToGRPC(err)
	}
	return snapshotToProto(snapshot), nil
}

// GetCase retrieves a case by ID
func (h *GRPCHandler) GetCase(ctx context.Context, req *rpc.GetCaseRequest) (*rpc.Case, error) {
	h.logger.Info().Str("case_id", req.CaseID).Msg("gRPC GetCase called")

	snapshot, err := h.svc.Cases.GetCase(ctx, actor(ctx), req.CaseID)
	if err != nil {
		h.logger.Error().Err(err).Str("case_id", req.CaseID).Msg("Failed to get case")
		return nil, mapErrorToGRPC(err)
	}
	return snapshotToProto(snapshot), nil
}

// ListCases lists cases with filters
func (h *GRPCHandler) ListCases(ctx context.Context, req *rpc.ListCasesRequest) (*rpc.ListCasesResponse, error) {
	h.logger.Info().Str("status", req.Status).Int32("page", req.Page).Msg("gRPC ListCases called")

	filter := repository.CaseFilter{
		CaseType:  queryPtr(req.CaseType),
		Product:   queryPtr(req.Product),
		Region:    queryPtr(req.Region),
		CreatedBy: queryPtr(req.CreatedBy),
		Query:     queryPtr(req.Query),
		Page:      int(req.Page),
		PageSize:  int(req.PageSize),
	}
	if req.Status != "" {
		s := workflow.Status(req.Status)
		filter.Status = &s
	}

	page, err := h.svc.Cases.ListCases(ctx, actor(ctx), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list cases")
		return nil, mapErrorToGRPC(err)
	}

	out := &rpc.ListCasesResponse{
		Cases:    make([]*rpc.Case, 0, len(page.Cases)),
		Total:    page.Total,
		Page:     int32(page.Page),
		PageSize: int32(page.PageSize),
	}
	for _, c := range page.Cases {
		out.Cases = append(out.Cases, caseToProto(c))
	}
	return out, nil
}

// TransitionCase moves a case to a new status
func (h *GRPCHandler) TransitionCase(ctx context.Context, req *rpc.TransitionCaseRequest) (*rpc.Case, error) {
	h.logger.Info().
		Str("case_id", req.CaseID).
		Str("status", req.Status).
		Msg("gRPC TransitionCase called")

	snapshot, err := h.svc.Workflow.AttemptTransition(ctx, actor(ctx), service.TransitionRequest{
		CaseID:    req.CaseID,
		To:        workflow.Status(req.Status),
		Rationale: req.Rationale,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("case_id", req.CaseID).Msg("Failed to transition case")
		return nil, mapErrorToGRPC(err)
	}
	return snapshotToProto(snapshot), nil
}

// GetStatistics returns aggregate case counts
func (h *GRPCHandler) GetStatistics(ctx context.Context, _ *rpc.GetStatisticsRequest) (*rpc.Statistics, error) {
	h.logger.Info().Msg("gRPC GetStatistics called")

	stats, err := h.svc.Cases.Statistics(ctx, actor(ctx))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get statistics")
		return nil, mapErrorToGRPC(err)
	}
	return &rpc.Statistics{
		Total:     stats.Total,
		ByStatus:  stats.ByStatus,
		ByRegion:  stats.ByRegion,
		ByProduct: stats.ByProduct,
	}, nil
}

// AddComment appends a comment to a case
func (h *GRPCHandler) AddComment(ctx context.Context, req *rpc.AddCommentRequest) (*rpc.Comment, error) {
	h.logger.Info().Str("case_id", req.CaseID).Msg("gRPC AddComment called")

	comment, err := h.svc.Evidence.AddComment(ctx, actor(ctx), service.AddCommentRequest{
		CaseID:      req.CaseID,
		Text:        req.Text,
		CommentType: req.CommentType,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("case_id", req.CaseID).Msg("Failed to add comment")
		return nil, mapErrorToGRPC(err)
	}
	return commentToProto(comment), nil
}

// ListComments lists a case's comments
func (h *GRPCHandler) ListComments(ctx context.Context, req *rpc.ListCommentsRequest) (*rpc.ListCommentsResponse, error) {
	h.logger.Info().Str("case_id", req.CaseID).Msg("gRPC ListComments called")

	comments, err := h.svc.Evidence.Comments(ctx, actor(ctx), req.CaseID, int(req.Limit))
	if err != nil {
		h.logger.Error().Err(err).Str("case_id", req.CaseID).Msg("Failed to list comments")
		return nil, mapErrorToGRPC(err)
	}
	out := &rpc.ListCommentsResponse{Comments: make([]*rpc.Comment, 0, len(comments))}
	for _, c := range comments {
		out.Comments = append(out.Comments, commentToProto(c))
	}
	return out, nil
}

// RecordDocument records uploaded document metadata
func (h *GRPCHandler) RecordDocument(ctx context.Context, req *rpc.RecordDocumentRequest) (*rpc.Document, error) {
	h.logger.Info().Str("case_id", req.CaseID).Str("filename", req.Filename).Msg("gRPC RecordDocument called")

	doc, err := h.svc.Evidence.RecordDocument(ctx, actor(ctx), service.RecordDocumentRequest{
		CaseID:    req.CaseID,
		Filename:  req.Filename,
		SizeBytes: req.SizeBytes,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("case_id", req.CaseID).Msg("Failed to record document")
		return nil, mapErrorToGRPC(err)
	}
	return documentToProto(doc), nil
}

// ListDocuments lists a case's documents
func (h *GRPCHandler) ListDocuments(ctx context.Context, req *rpc.ListDocumentsRequest) (*rpc.ListDocumentsResponse, error) {
	h.logger.Info().Str("case_id", req.CaseID).Msg("gRPC ListDocuments called")

	docs, err := h.svc.Evidence.Documents(ctx, actor(ctx), req.CaseID)
	if err != nil {
		h.logger.Error().Err(err).Str("case_id", req.CaseID).Msg("Failed to list documents")
		return nil, mapErrorToGRPC(err)
	}
	out := &rpc.ListDocumentsResponse{Documents: make([]*rpc.Document, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, documentToProto(d))
	}
	return out, nil
}

// GetAuditTrail returns a case's audit trail, or the global feed
func (h *GRPCHandler) GetAuditTrail(ctx context.Context, req *rpc.AuditTrailRequest) (*rpc.AuditTrailResponse, error) {
	h.logger.Info().Str("case_id", req.CaseID).Msg("gRPC GetAuditTrail called")

	var (
		entries []*repository.AuditEntry
		err     error
	)
	if req.CaseID == "" {
		entries, err = h.svc.Cases.AuditFeed(ctx, actor(ctx), int(req.Limit))
	} else {
		entries, err = h.svc.Cases.History(ctx, actor(ctx), req.CaseID, int(req.Limit))
	}
	if err != nil {
		h.logger.Error().Err(err).Str("case_id", req.CaseID).Msg("Failed to get audit trail")
		return nil, mapErrorToGRPC(err)
	}

	out := &rpc.AuditTrailResponse{Entries: make([]*rpc.AuditEntry, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, auditToProto(e))
	}
	return out, nil
}

// UpsertInvestigation replaces a case's investigation checklist
func (h *GRPCHandler) UpsertInvestigation(ctx context.Context, req *rpc.UpsertInvestigationRequest) (*rpc.Investigation, error) {
	h.logger.Info().Str("case_id", req.CaseID).Msg("gRPC UpsertInvestigation called")

	inv, err := h.svc.Investigations.Upsert(ctx, actor(ctx), req.CaseID, req.Checklist)
	if err != nil {
		h.logger.Error().Err(err).Str("case_id", req.CaseID).Msg("Failed to upsert investigation")
		return nil, mapErrorToGRPC(err)
	}
	return investigationToProto(inv), nil
}

// GetInvestigation returns a case's investigation checklist
func (h *GRPCHandler) GetInvestigation(ctx context.Context, req *rpc.GetInvestigationRequest) (*rpc.Investigation, error) {
	h.logger.Info().Str("case_id", req.CaseID).Msg("gRPC GetInvestigation called")

	inv, err := h.svc.Investigations.Get(ctx, actor(ctx), req.CaseID)
	if err != nil {
		h.logger.Error().Err(err).Str("case_id", req.CaseID).Msg("Failed to get investigation")
		return nil, mapErrorToGRPC(err)
	}
	return investigationToProto(inv), nil
}

// ImportUsers bulk-loads directory users
func (h *GRPCHandler) ImportUsers(ctx context.Context, req *rpc.ImportUsersRequest) (*rpc.ImportUsersResponse, error) {
	h.logger.Info().Int("count", len(req.Users)).Msg("gRPC ImportUsers called")

	users := make([]*repository.User, 0, len(req.Users))
	for _, u := range req.Users {
		if u == nil {
			continue
		}
		users = append(users, &repository.User{
			UserID:      u.UserID,
			DisplayName: u.DisplayName,
			Email:       u.Email,
			Team:        u.Team,
			Role:        workflow.Role(u.Role),
			AllRoles:    u.AllRoles,
			Active:      u.Active,
		})
	}

	n, err := h.svc.Directory.ImportUsers(ctx, actor(ctx), users)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to import users")
		return nil, mapErrorToGRPC(err)
	}
	return &rpc.ImportUsersResponse{Imported: int32(n)}, nil
}

// Helper functions

func snapshotToProto(s *service.CaseSnapshot) *rpc.Case {
	out := caseToProto(s.Case)
	out.SLA = &rpc.SLA{
		FMR1Due:     s.SLA.FMR1Due.Format(time.DateOnly),
		FMR3Due:     s.SLA.FMR3Due.Format(time.DateOnly),
		RetainUntil: s.SLA.RetainUntil.Format(time.DateOnly),
		Status:      s.SLA.Status,
	}
	out.AllowedTransitions = make([]string, 0, len(s.AllowedTransitions))
	for _, st := range s.AllowedTransitions {
		out.AllowedTransitions = append(out.AllowedTransitions, string(st))
	}
	return out
}

func caseToProto(c *repository.Case) *rpc.Case {
	out := &rpc.Case{
		CaseID:      c.CaseID,
		CaseType:    c.CaseType,
		Product:     c.Product,
		Region:      c.Region,
		ReferredBy:  c.ReferredBy,
		Description: c.Description,
		CaseDate:    c.CaseDate.Format(time.DateOnly),
		Status:      string(c.Status),
		Version:     c.Version,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   timestamppb.New(c.CreatedAt),
		UpdatedAt:   timestamppb.New(c.UpdatedAt),
		Customer:    customerToProto(c.Customer),
	}
	if c.LAN != nil {
		out.LAN = *c.LAN
	}
	for _, stage := range []workflow.Stage{workflow.StageReview, workflow.StageApproval, workflow.StageLegalReview, workflow.StageClosure} {
		if st := c.StampFor(stage); st != nil {
			out.Stages = append(out.Stages, &rpc.StageStamp{
				Stage: string(stage),
				Actor: st.Actor,
				At:    timestamppb.New(st.At),
			})
		}
	}
	return out
}

func customerToProto(c repository.Customer) *rpc.Customer {
	out := &rpc.Customer{
		Name:           deref(c.Name),
		PAN:            deref(c.PAN),
		Mobile:         deref(c.Mobile),
		Email:          deref(c.Email),
		BranchLocation: deref(c.BranchLocation),
		LoanAmount:     c.LoanAmount,
	}
	if c.DisbursementDate != nil {
		out.DisbursementDate = c.DisbursementDate.Format(time.DateOnly)
	}
	if *out == (rpc.Customer{}) {
		return nil
	}
	return out
}

func commentToProto(c *repository.Comment) *rpc.Comment {
	return &rpc.Comment{
		ID:          c.ID,
		CaseID:      c.CaseID,
		Text:        c.Text,
		CommentType: c.Type,
		CreatedBy:   c.Author,
		CreatedAt:   timestamppb.New(c.CreatedAt),
	}
}

func documentToProto(d *repository.Document) *rpc.Document {
	return &rpc.Document{
		ID:         d.ID,
		CaseID:     d.CaseID,
		Filename:   d.Filename,
		SizeBytes:  d.SizeBytes,
		UploadedBy: d.UploadedBy,
		UploadedAt: timestamppb.New(d.UploadedAt),
	}
}

func auditToProto(e *repository.AuditEntry) *rpc.AuditEntry {
	return &rpc.AuditEntry{
		ID:          e.ID,
		CaseID:      deref(e.CaseID),
		Action:      e.Action,
		Detail:      e.Detail,
		PerformedBy: e.PerformedBy,
		PerformedAt: timestamppb.New(e.PerformedAt),
	}
}

func investigationToProto(inv *service.Investigation) *rpc.Investigation {
	return &rpc.Investigation{
		CaseID:       inv.CaseID,
		Checklist:    inv.Checklist,
		Investigator: inv.Investigator,
		UpdatedAt:    timestamppb.New(inv.UpdatedAt),
		StatusHint:   string(inv.Hint),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// mapErrorToGRPC maps application error codes to gRPC status codes. A
// transition that does not exist and one the caller may not take both map
// to FailedPrecondition; the code in the message and the attached ErrorInfo
// reason tell them apart. ErrorInfo metadata carries the error details, such
// as current_status and allowed_transitions.
func mapErrorToGRPC(err error) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		return status.Error(codes.Internal, "internal error")
	}

	var code codes.Code
	switch appErr.Code {
	case errors.ErrCodeNotFound:
		code = codes.NotFound
	case errors.ErrCodeDuplicateCaseID:
		code = codes.AlreadyExists
	case errors.ErrCodeMissingRequiredField, errors.ErrCodeInvalidInput:
		code = codes.InvalidArgument
	case errors.ErrCodeUnauthenticated:
		code = codes.Unauthenticated
	case errors.ErrCodeForbidden:
		code = codes.PermissionDenied
	case errors.ErrCodeInvalidTransition, errors.ErrCodeUnauthorized:
		code = codes.FailedPrecondition
	case errors.ErrCodeConflict:
		code = codes.Aborted
	case errors.ErrCodeStorageUnavailable:
		code = codes.Unavailable
	default:
		return status.Error(codes.Internal, "internal error")
	}

	st := status.New(code, string(appErr.Code)+": "+appErr.Message)
	withInfo, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(appErr.Code),
		Domain:   rpc.ServiceName,
		Metadata: errorMetadata(appErr),
	})
	if err != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// errorMetadata flattens an AppError's field and details into ErrorInfo
// metadata. Status lists are comma-joined.
func errorMetadata(appErr *errors.AppError) map[string]string {
	md := make(map[string]string, len(appErr.Details)+1)
	if appErr.Field != "" {
		md["field"] = appErr.Field
	}
	for k, v := range appErr.Details {
		switch v := v.(type) {
		case []workflow.Status:
			names := make([]string, len(v))
			for i, s := range v {
				names[i] = string(s)
			}
			md[k] = strings.Join(names, ",")
		default:
			md[k] = fmt.Sprint(v)
		}
	}
	return md
}
