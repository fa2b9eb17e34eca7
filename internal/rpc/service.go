package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "fraud.cases.v1.CaseService"

// FullMethod returns "/<service>/<method>".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// CaseServiceServer is the server API for CaseService.
type CaseServiceServer interface {
	CreateCase(context.Context, *CreateCaseRequest) (*Case, error)
	GetCase(context.Context, *GetCaseRequest) (*Case, error)
	ListCases(context.Context, *ListCasesRequest) (*ListCasesResponse, error)
	TransitionCase(context.Context, *TransitionCaseRequest) (*Case, error)
	GetStatistics(context.Context, *GetStatisticsRequest) (*Statistics, error)
	AddComment(context.Context, *AddCommentRequest) (*Comment, error)
	ListComments(context.Context, *ListCommentsRequest) (*ListCommentsResponse, error)
	RecordDocument(context.Context, *RecordDocumentRequest) (*Document, error)
	ListDocuments(context.Context, *ListDocumentsRequest) (*ListDocumentsResponse, error)
	GetAuditTrail(context.Context, *AuditTrailRequest) (*AuditTrailResponse, error)
	UpsertInvestigation(context.Context, *UpsertInvestigationRequest) (*Investigation, error)
	GetInvestigation(context.Context, *GetInvestigationRequest) (*Investigation, error)
	ImportUsers(context.Context, *ImportUsersRequest) (*ImportUsersResponse, error)
}

// UnimplementedCaseServiceServer can be embedded for forward compatibility.
type UnimplementedCaseServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedCaseServiceServer) CreateCase(context.Context, *CreateCaseRequest) (*Case, error) {
	return nil, unimplemented("CreateCase")
}
func (UnimplementedCaseServiceServer) GetCase(context.Context, *GetCaseRequest) (*Case, error) {
	return nil, unimplemented("GetCase")
}
func (UnimplementedCaseServiceServer) ListCases(context.Context, *ListCasesRequest) (*ListCasesResponse, error) {
	return nil, unimplemented("ListCases")
}
func (UnimplementedCaseServiceServer) TransitionCase(context.Context, *TransitionCaseRequest) (*Case, error) {
	return nil, unimplemented("TransitionCase")
}
func (UnimplementedCaseServiceServer) GetStatistics(context.Context, *GetStatisticsRequest) (*Statistics, error) {
	return nil, unimplemented("GetStatistics")
}
func (UnimplementedCaseServiceServer) AddComment(context.Context, *AddCommentRequest) (*Comment, error) {
	return nil, unimplemented("AddComment")
}
func (UnimplementedCaseServiceServer) ListComments(context.Context, *ListCommentsRequest) (*ListCommentsResponse, error) {
	return nil, unimplemented("ListComments")
}
func (UnimplementedCaseServiceServer) RecordDocument(context.Context, *RecordDocumentRequest) (*Document, error) {
	return nil, unimplemented("RecordDocument")
}
func (UnimplementedCaseServiceServer) ListDocuments(context.Context, *ListDocumentsRequest) (*ListDocumentsResponse, error) {
	return nil, unimplemented("ListDocuments")
}
func (UnimplementedCaseServiceServer) GetAuditTrail(context.Context, *AuditTrailRequest) (*AuditTrailResponse, error) {
	return nil, unimplemented("GetAuditTrail")
}
func (UnimplementedCaseServiceServer) UpsertInvestigation(context.Context, *UpsertInvestigationRequest) (*Investigation, error) {
	return nil, unimplemented("UpsertInvestigation")
}
func (UnimplementedCaseServiceServer) GetInvestigation(context.Context, *GetInvestigationRequest) (*Investigation, error) {
	return nil, unimplemented("GetInvestigation")
}
func (UnimplementedCaseServiceServer) ImportUsers(context.Context, *ImportUsersRequest) (*ImportUsersResponse, error) {
	return nil, unimplemented("ImportUsers")
}

// RegisterCaseServiceServer registers srv on s.
func RegisterCaseServiceServer(s grpc.ServiceRegistrar, srv CaseServiceServer) {
	s.RegisterService(&CaseServiceDesc, srv)
}

// CaseServiceDesc describes CaseService for grpc.Server.
var CaseServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CaseServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateCase", CaseServiceServer.CreateCase),
		unary("GetCase", CaseServiceServer.GetCase),
		unary("ListCases", CaseServiceServer.ListCases),
		unary("TransitionCase", CaseServiceServer.TransitionCase),
		unary("GetStatistics", CaseServiceServer.GetStatistics),
		unary("AddComment", CaseServiceServer.AddComment),
		unary("ListComments", CaseServiceServer.ListComments),
		unary("RecordDocument", CaseServiceServer.RecordDocument),
		unary("ListDocuments", CaseServiceServer.ListDocuments),
		unary("GetAuditTrail", CaseServiceServer.GetAuditTrail),
		unary("UpsertInvestigation", CaseServiceServer.UpsertInvestigation),
		unary("GetInvestigation", CaseServiceServer.GetInvestigation),
		unary("ImportUsers", CaseServiceServer.ImportUsers),
	},
	Streams: []grpc.StreamDesc{},
}

// unary builds the method handler for one RPC, running it through the
// server's interceptor chain.
func unary[Req, Resp any](name string, call func(CaseServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CaseServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CaseServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
