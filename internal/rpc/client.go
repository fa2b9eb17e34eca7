package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// CaseServiceClient is the client API for CaseService.
type CaseServiceClient interface {
	CreateCase(ctx context.Context, in *CreateCaseRequest, opts ...grpc.CallOption) (*Case, error)
	GetCase(ctx context.Context, in *GetCaseRequest, opts ...grpc.CallOption) (*Case, error)
	ListCases(ctx context.Context, in *ListCasesRequest, opts ...grpc.CallOption) (*ListCasesResponse, error)
	TransitionCase(ctx context.Context, in *TransitionCaseRequest, opts ...grpc.CallOption) (*Case, error)
	GetStatistics(ctx context.Context, in *GetStatisticsRequest, opts ...grpc.CallOption) (*Statistics, error)
	AddComment(ctx context.Context, in *AddCommentRequest, opts ...grpc.CallOption) (*Comment, error)
	ListComments(ctx context.Context, in *ListCommentsRequest, opts ...grpc.CallOption) (*ListCommentsResponse, error)
	RecordDocument(ctx context.Context, in *RecordDocumentRequest, opts ...grpc.CallOption) (*Document, error)
	ListDocuments(ctx context.Context, in *ListDocumentsRequest, opts ...grpc.CallOption) (*ListDocumentsResponse, error)
	GetAuditTrail(ctx context.Context, in *AuditTrailRequest, opts ...grpc.CallOption) (*AuditTrailResponse, error)
	UpsertInvestigation(ctx context.Context, in *UpsertInvestigationRequest, opts ...grpc.CallOption) (*Investigation, error)
	GetInvestigation(ctx context.Context, in *GetInvestigationRequest, opts ...grpc.CallOption) (*Investigation, error)
	ImportUsers(ctx context.Context, in *ImportUsersRequest, opts ...grpc.CallOption) (*ImportUsersResponse, error)
}

type caseServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCaseServiceClient creates a client that always uses the JSON codec.
func NewCaseServiceClient(cc grpc.ClientConnInterface) CaseServiceClient {
	return &caseServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *caseServiceClient) CreateCase(ctx context.Context, in *CreateCaseRequest, opts ...grpc.CallOption) (*Case, error) {
	return invoke[Case](ctx, c.cc, "CreateCase", in, opts)
}

func (c *caseServiceClient) GetCase(ctx context.Context, in *GetCaseRequest, opts ...grpc.CallOption) (*Case, error) {
	return invoke[Case](ctx, c.cc, "GetCase", in, opts)
}

func (c *caseServiceClient) ListCases(ctx context.Context, in *ListCasesRequest, opts ...grpc.CallOption) (*ListCasesResponse, error) {
	return invoke[ListCasesResponse](ctx, c.cc, "ListCases", in, opts)
}

func (c *caseServiceClient) TransitionCase(ctx context.Context, in *TransitionCaseRequest, opts ...grpc.CallOption) (*Case, error) {
	return invoke[Case](ctx, c.cc, "TransitionCase", in, opts)
}

func (c *caseServiceClient) GetStatistics(ctx context.Context, in *GetStatisticsRequest, opts ...grpc.CallOption) (*Statistics, error) {
	return invoke[Statistics](ctx, c.cc, "GetStatistics", in, opts)
}

func (c *caseServiceClient) AddComment(ctx context.Context, in *AddCommentRequest, opts ...grpc.CallOption) (*Comment, error) {
	return invoke[Comment](ctx, c.cc, "AddComment", in, opts)
}

func (c *caseServiceClient) ListComments(ctx context.Context, in *ListCommentsRequest, opts ...grpc.CallOption) (*ListCommentsResponse, error) {
	return invoke[ListCommentsResponse](ctx, c.cc, "ListComments", in, opts)
}

func (c *caseServiceClient) RecordDocument(ctx context.Context, in *RecordDocumentRequest, opts ...grpc.CallOption) (*Document, error) {
	return invoke[Document](ctx, c.cc, "RecordDocument", in, opts)
}

func (c *caseServiceClient) ListDocuments(ctx context.Context, in *ListDocumentsRequest, opts ...grpc.CallOption) (*ListDocumentsResponse, error) {
	return invoke[ListDocumentsResponse](ctx, c.cc, "ListDocuments", in, opts)
}

func (c *caseServiceClient) GetAuditTrail(ctx context.Context, in *AuditTrailRequest, opts ...grpc.CallOption) (*AuditTrailResponse, error) {
	return invoke[AuditTrailResponse](ctx, c.cc, "GetAuditTrail", in, opts)
}

func (c *caseServiceClient) UpsertInvestigation(ctx context.Context, in *UpsertInvestigationRequest, opts ...grpc.CallOption) (*Investigation, error) {
	return invoke[Investigation](ctx, c.cc, "UpsertInvestigation", in, opts)
}

func (c *caseServiceClient) GetInvestigation(ctx context.Context, in *GetInvestigationRequest, opts ...grpc.CallOption) (*Investigation, error) {
	return invoke[Investigation](ctx, c.cc, "GetInvestigation", in, opts)
}

func (c *caseServiceClient) ImportUsers(ctx context.Context, in *ImportUsersRequest, opts ...grpc.CallOption) (*ImportUsersResponse, error) {
	return invoke[ImportUsersResponse](ctx, c.cc, "ImportUsers", in, opts)
}
