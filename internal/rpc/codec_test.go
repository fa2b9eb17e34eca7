package rpc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

func TestCodecIsRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, CodecName, c.Name())
}

func TestCodecPlainStructs(t *testing.T) {
	var codec jsonCodec
	at := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	rationale := "needs legal opinion"

	in := &TransitionCaseRequest{CaseID: "CASE1", Status: "LegalReview", Rationale: &rationale}
	data, err := codec.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"case_id":"CASE1","status":"LegalReview","rationale":"needs legal opinion"}`, string(data))

	var out TransitionCaseRequest
	require.NoError(t, codec.Unmarshal(data, &out))
	assert.Equal(t, *in, out)

	inv := &Investigation{
		CaseID:    "CASE1",
		Checklist: workflow.Checklist{PAN: workflow.VerificationSuspicious},
		UpdatedAt: timestamppb.New(at),
	}
	data, err = codec.Marshal(inv)
	require.NoError(t, err)

	var back Investigation
	require.NoError(t, codec.Unmarshal(data, &back))
	assert.Equal(t, workflow.VerificationSuspicious, back.Checklist.PAN)
	assert.True(t, at.Equal(back.UpdatedAt.AsTime()))
}

func TestCodecProtoMessages(t *testing.T) {
	var codec jsonCodec

	data, err := codec.Marshal(wrapperspb.String("ok"))
	require.NoError(t, err)
	assert.JSONEq(t, `"ok"`, string(data))

	var out wrapperspb.StringValue
	require.NoError(t, codec.Unmarshal(data, &out))
	assert.Equal(t, "ok", out.GetValue())
}

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/fraud.cases.v1.CaseService/TransitionCase", FullMethod("TransitionCase"))
	assert.Len(t, CaseServiceDesc.Methods, 13)
}
