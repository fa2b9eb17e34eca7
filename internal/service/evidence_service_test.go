package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := "CASE20250101CMT001"
	f.caseAt(t, id, workflow.StatusSubmitted)

	c, err := f.evidence.AddComment(ctx, reviewer, AddCommentRequest{CaseID: id, Text: "  Called the branch manager  "})
	require.NoError(t, err)
	assert.Equal(t, "Called the branch manager", c.Text)
	assert.Equal(t, DefaultCommentType, c.Type)
	assert.NotZero(t, c.ID)

	_, err = f.evidence.AddComment(ctx, investigator, AddCommentRequest{CaseID: id, Text: "Summary drafted", CommentType: "AI Summary"})
	require.NoError(t, err)

	comments, err := f.evidence.Comments(ctx, reviewer, id, 0)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "AI Summary", comments[0].Type, "newest first")
	assert.Equal(t, "inv1", comments[0].Author)

	audit, err := f.store.ListAudit(ctx, &id, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionCommentAdded, audit[0].Action)
	assert.Equal(t, "AI Summary comment added", audit[0].Detail)

	_, err = f.evidence.AddComment(ctx, reviewer, AddCommentRequest{CaseID: id, Text: " "})
	requireCode(t, err, errors.ErrCodeMissingRequiredField)

	_, err = f.evidence.AddComment(ctx, reviewer, AddCommentRequest{CaseID: "CASE20250101NOPE00", Text: "hello"})
	requireCode(t, err, errors.ErrCodeNotFound)
}

func TestRecordDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := "CASE20250101DOC001"
	f.caseAt(t, id, workflow.StatusDraft)

	doc, err := f.evidence.RecordDocument(ctx, initiator, RecordDocumentRequest{CaseID: id, Filename: "bank_statement.pdf", SizeBytes: 48213})
	require.NoError(t, err)
	assert.Equal(t, "init1", doc.UploadedBy)

	docs, err := f.evidence.Documents(ctx, reviewer, id)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "bank_statement.pdf", docs[0].Filename)
	assert.Equal(t, int64(48213), docs[0].SizeBytes)

	audit, err := f.store.ListAudit(ctx, &id, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionDocumentAdded, audit[0].Action)
	assert.Equal(t, "Document: bank_statement.pdf", audit[0].Detail)

	_, err = f.evidence.RecordDocument(ctx, initiator, RecordDocumentRequest{CaseID: id, Filename: ""})
	requireCode(t, err, errors.ErrCodeMissingRequiredField)

	_, err = f.evidence.RecordDocument(ctx, initiator, RecordDocumentRequest{CaseID: id, Filename: "a.pdf", SizeBytes: -1})
	requireCode(t, err, errors.ErrCodeInvalidInput)

	_, err = f.evidence.Documents(ctx, reviewer, "CASE20250101NOPE00")
	requireCode(t, err, errors.ErrCodeNotFound)
}

func TestCommentAuditFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := "CASE20250101CMT002"
	f.caseAt(t, id, workflow.StatusDraft)

	broken := newFixtureWithStore(&failingStore{Store: f.store, failOn: "audit"})
	_, err := broken.evidence.AddComment(ctx, initiator, AddCommentRequest{CaseID: id, Text: "lost"})
	requireCode(t, err, errors.ErrCodeStorageUnavailable)

	comments, err := f.store.ListComments(ctx, id, 0)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
