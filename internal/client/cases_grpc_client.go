package client

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/pesio-ai/be-fraud-cases/internal/rpc"
)

// CasesGRPCClient is a gRPC client for the case service
type CasesGRPCClient struct {
	rpc.CaseServiceClient
	conn *grpc.ClientConn
}

// NewCasesGRPCClient creates a new case service gRPC client. A non-empty
// token is sent as the bearer credential on every call.
func NewCasesGRPCClient(addr, token string, opts ...grpc.DialOption) (*CasesGRPCClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(forwardMetadata, bearerToken(token)),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	return &CasesGRPCClient{
		CaseServiceClient: rpc.NewCaseServiceClient(conn),
		conn:              conn,
	}, nil
}

// Close closes the gRPC connection
func (c *CasesGRPCClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
