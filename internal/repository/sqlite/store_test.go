package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var t0 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func sampleCase(id string) *repository.Case {
	pan := "ABCDE1234F"
	return &repository.Case{
		CaseID:      id,
		CaseType:    "Lending",
		Product:     "PL",
		Region:      "West",
		ReferredBy:  "Sales Unit",
		Description: "Mismatched KYC photographs",
		CaseDate:    t0.Truncate(24 * time.Hour),
		Status:      workflow.StatusDraft,
		Version:     1,
		Customer:    repository.Customer{PAN: &pan},
		CreatedBy:   "init1",
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
}

func insert(t *testing.T, s *Store, c *repository.Case) {
	t.Helper()
	err := s.InTransaction(context.Background(), func(tx repository.Tx) error {
		return tx.InsertCase(context.Background(), c)
	})
	require.NoError(t, err)
}

func TestInsertAndGetCase(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insert(t, s, sampleCase("CASE20250101AAAAAA"))

	got, err := s.GetCase(ctx, "CASE20250101AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusDraft, got.Status)
	assert.Equal(t, "ABCDE1234F", *got.Customer.PAN)
	assert.Nil(t, got.Customer.Email)
	assert.True(t, got.CreatedAt.Equal(t0))

	_, err = s.GetCase(ctx, "CASE20250101ZZZZZZ")
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))

	err = s.InTransaction(ctx, func(tx repository.Tx) error {
		return tx.InsertCase(ctx, sampleCase("CASE20250101AAAAAA"))
	})
	assert.Equal(t, errors.ErrCodeDuplicateCaseID, errors.CodeOf(err))
}

func TestUpdateStatusCompareAndSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insert(t, s, sampleCase("CASE20250101BBBBBB"))

	change := repository.StatusChange{
		CaseID:          "CASE20250101BBBBBB",
		From:            workflow.StatusDraft,
		To:              workflow.StatusSubmitted,
		ExpectedVersion: 1,
		Actor:           "init1",
		At:              t0.Add(time.Minute),
	}
	require.NoError(t, s.InTransaction(ctx, func(tx repository.Tx) error {
		return tx.UpdateStatus(ctx, change)
	}))

	// Replaying the same change finds a newer version.
	err := s.InTransaction(ctx, func(tx repository.Tx) error {
		return tx.UpdateStatus(ctx, change)
	})
	assert.Equal(t, errors.ErrCodeConflict, errors.CodeOf(err))

	review := repository.StatusChange{
		CaseID:          "CASE20250101BBBBBB",
		From:            workflow.StatusSubmitted,
		To:              workflow.StatusUnderReview,
		ExpectedVersion: 2,
		Stage:           workflow.StageReview,
		Actor:           "rev1",
		At:              t0.Add(2 * time.Minute),
	}
	require.NoError(t, s.InTransaction(ctx, func(tx repository.Tx) error {
		return tx.UpdateStatus(ctx, review)
	}))

	got, err := s.GetCase(ctx, "CASE20250101BBBBBB")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusUnderReview, got.Status)
	assert.Equal(t, int64(3), got.Version)
	require.NotNil(t, got.Review)
	assert.Equal(t, "rev1", got.Review.Actor)
	assert.True(t, got.Review.At.Equal(review.At))
	assert.Nil(t, got.Approval)
}

func TestTransactionRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insert(t, s, sampleCase("CASE20250101CCCCCC"))

	boom := errors.New(errors.ErrCodeInternal, "boom")
	err := s.InTransaction(ctx, func(tx repository.Tx) error {
		if err := tx.UpdateStatus(ctx, repository.StatusChange{
			CaseID: "CASE20250101CCCCCC", From: workflow.StatusDraft, To: workflow.StatusSubmitted,
			ExpectedVersion: 1, Actor: "init1", At: t0,
		}); err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, &repository.AuditEntry{
			CaseID: ptr("CASE20250101CCCCCC"), Action: "Status Update", Detail: "x", PerformedBy: "init1", PerformedAt: t0,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.Same(t, boom, err)

	got, err := s.GetCase(ctx, "CASE20250101CCCCCC")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusDraft, got.Status)

	audit, err := s.ListAudit(ctx, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, audit)
}

func ptr(s string) *string { return &s }

func TestAuditOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insert(t, s, sampleCase("CASE20250101DDDDDD"))

	entries := []*repository.AuditEntry{
		{CaseID: ptr("CASE20250101DDDDDD"), Action: "Case Created", Detail: "a", PerformedBy: "init1", PerformedAt: t0},
		{CaseID: ptr("CASE20250101DDDDDD"), Action: "Status Update", Detail: "b", PerformedBy: "init1", PerformedAt: t0.Add(time.Second)},
		{CaseID: ptr("CASE20250101DDDDDD"), Action: "Comment Added", Detail: "c", PerformedBy: "rev1", PerformedAt: t0.Add(time.Second)},
		{Action: "Bulk User Import", Detail: "Imported 3 users", PerformedBy: "admin", PerformedAt: t0.Add(2 * time.Second)},
	}
	require.NoError(t, s.InTransaction(ctx, func(tx repository.Tx) error {
		for _, e := range entries {
			if err := tx.AppendAudit(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}))
	assert.Less(t, entries[1].ID, entries[2].ID)

	byCase, err := s.ListAudit(ctx, ptr("CASE20250101DDDDDD"), 0)
	require.NoError(t, err)
	require.Len(t, byCase, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{byCase[0].Detail, byCase[1].Detail, byCase[2].Detail},
		"equal timestamps fall back to the sequence id")

	all, err := s.ListAudit(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Nil(t, all[0].CaseID)
	assert.Equal(t, "Bulk User Import", all[0].Action)
}

func TestCommentsAndDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insert(t, s, sampleCase("CASE20250101EEEEEE"))

	require.NoError(t, s.InTransaction(ctx, func(tx repository.Tx) error {
		for i, text := range []string{"first", "second"} {
			if err := tx.AppendComment(ctx, &repository.Comment{
				CaseID: "CASE20250101EEEEEE", Text: text, Type: "General", Author: "rev1",
				CreatedAt: t0.Add(time.Duration(i) * time.Minute),
			}); err != nil {
				return err
			}
		}
		return tx.InsertDocument(ctx, &repository.Document{
			CaseID: "CASE20250101EEEEEE", Filename: "kyc.png", SizeBytes: 1024, UploadedBy: "init1", UploadedAt: t0,
		})
	}))

	comments, err := s.ListComments(ctx, "CASE20250101EEEEEE", 1)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "second", comments[0].Text)

	docs, err := s.ListDocuments(ctx, "CASE20250101EEEEEE")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "kyc.png", docs[0].Filename)
}

func TestInvestigationLatestWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insert(t, s, sampleCase("CASE20250101FFFFFF"))

	upsert := func(c workflow.Checklist, at time.Time) {
		c.Normalize()
		require.NoError(t, s.InTransaction(ctx, func(tx repository.Tx) error {
			return tx.UpsertInvestigation(ctx, &repository.InvestigationDetail{
				CaseID: "CASE20250101FFFFFF", Checklist: c, Investigator: "inv1", UpdatedAt: at,
			})
		}))
	}
	upsert(workflow.Checklist{PAN: workflow.VerificationFailed, Comments: "old"}, t0)
	upsert(workflow.Checklist{PAN: workflow.VerificationVerified}, t0.Add(time.Hour))

	got, err := s.GetInvestigation(ctx, "CASE20250101FFFFFF")
	require.NoError(t, err)
	assert.Equal(t, workflow.VerificationVerified, got.PAN)
	assert.Equal(t, workflow.VerificationPending, got.Aadhaar)
	assert.Empty(t, got.Comments)
	assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Hour)))

	_, err = s.GetInvestigation(ctx, "CASE20250101DDDDDD")
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestListAndStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, region := range []string{"West", "West", "East"} {
		c := sampleCase("CASE2025010100000" + string(rune('1'+i)))
		c.Region = region
		c.CreatedAt = t0.Add(time.Duration(i) * time.Hour)
		insert(t, s, c)
	}

	east := "East"
	cases, total, err := s.ListCases(ctx, repository.CaseFilter{Region: &east, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "CASE20250101000003", cases[0].CaseID)

	from := t0.Add(30 * time.Minute)
	cases, total, err = s.ListCases(ctx, repository.CaseFilter{From: &from, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "CASE20250101000003", cases[0].CaseID)

	q := "kyc"
	_, total, err = s.ListCases(ctx, repository.CaseFilter{Query: &q, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	stats, err := s.CaseStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, map[string]int64{"West": 2, "East": 1}, stats.ByRegion)
	assert.Equal(t, map[string]int64{"Draft": 3}, stats.ByStatus)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	admin, err := s.GetUser(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, workflow.RoleAdmin, admin.Role)

	require.NoError(t, s.InTransaction(ctx, func(tx repository.Tx) error {
		return tx.UpsertUser(ctx, &repository.User{UserID: "rev1", Role: workflow.RoleReviewer, Active: true})
	}))
	require.NoError(t, s.InTransaction(ctx, func(tx repository.Tx) error {
		return tx.UpsertUser(ctx, &repository.User{UserID: "rev1", Role: workflow.RoleApprover, AllRoles: true, Active: false})
	}))

	u, err := s.GetUser(ctx, "rev1")
	require.NoError(t, err)
	assert.Equal(t, workflow.RoleApprover, u.Role)
	assert.True(t, u.AllRoles)
	assert.False(t, u.Active)

	_, err = s.GetUser(ctx, "ghost")
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.db")
	s, err := Open(path)
	require.NoError(t, err)
	insert(t, s, sampleCase("CASE20250101GGGGGG"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(context.Background()))
	_, err = s.GetCase(context.Background(), "CASE20250101GGGGGG")
	require.NoError(t, err)
}
