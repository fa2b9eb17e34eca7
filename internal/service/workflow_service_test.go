package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-fraud-cases/internal/auth"
	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/logger"
	"github.com/pesio-ai/be-fraud-cases/internal/repository/sqlite"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

func ptr[T any](v T) *T { return &v }

func TestSubmitDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, initiator, "CASE20250101AB123C")

	snap := f.move(t, initiator, "CASE20250101AB123C", workflow.StatusSubmitted)
	assert.Equal(t, workflow.StatusSubmitted, snap.Case.Status)
	assert.Equal(t, int64(2), snap.Case.Version)

	stored, err := f.store.GetCase(ctx, "CASE20250101AB123C")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSubmitted, stored.Status)

	f.create(t, initiator, "CASE20250101FRESH1")
	_, err = f.workflow.AttemptTransition(ctx, initiator, TransitionRequest{CaseID: "CASE20250101FRESH1", To: workflow.StatusApproved})
	requireCode(t, err, errors.ErrCodeInvalidTransition)

	stored, err = f.store.GetCase(ctx, "CASE20250101FRESH1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusDraft, stored.Status)
}

func TestSubmitDraftRequiresCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, initiator, "CASE20250101OWNED1")

	_, err := f.workflow.AttemptTransition(ctx, initiator2, TransitionRequest{CaseID: "CASE20250101OWNED1", To: workflow.StatusSubmitted})
	requireCode(t, err, errors.ErrCodeUnauthorized)

	f.move(t, admin, "CASE20250101OWNED1", workflow.StatusSubmitted)
}

func TestUndefinedEdgeRejectedForEveryRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.caseAt(t, "CASE20250101UR0001", workflow.StatusUnderReview)

	for _, actor := range []auth.Actor{reviewer, actioner, admin, floater} {
		_, err := f.workflow.AttemptTransition(ctx, actor, TransitionRequest{CaseID: "CASE20250101UR0001", To: workflow.StatusClosed})
		requireCode(t, err, errors.ErrCodeInvalidTransition)
	}
}

func TestCloseRequiresApproverOrActioner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.caseAt(t, "CASE20250101AP0001", workflow.StatusApproved)

	_, err := f.workflow.AttemptTransition(ctx, reviewer, TransitionRequest{CaseID: "CASE20250101AP0001", To: workflow.StatusClosed})
	requireCode(t, err, errors.ErrCodeUnauthorized)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, []workflow.Status{}, appErr.Details["allowed_transitions"])
	assert.Equal(t, workflow.StatusApproved, appErr.Details["current_status"])

	snap := f.move(t, admin, "CASE20250101AP0001", workflow.StatusClosed)
	assert.Equal(t, workflow.StatusClosed, snap.Case.Status)
	require.NotNil(t, snap.Case.Closure)
	assert.Equal(t, "admin", snap.Case.Closure.Actor)
	assert.Empty(t, snap.AllowedTransitions)
	assert.Equal(t, SLACompleted, snap.SLA.Status)
}

func TestRationaleWritesComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.caseAt(t, "CASE20250101SB0001", workflow.StatusSubmitted)

	before, err := f.store.ListAudit(ctx, ptr("CASE20250101SB0001"), 0)
	require.NoError(t, err)

	_, err = f.workflow.AttemptTransition(ctx, reviewer, TransitionRequest{
		CaseID:    "CASE20250101SB0001",
		To:        workflow.StatusUnderReview,
		Rationale: ptr("initial triage"),
	})
	require.NoError(t, err)

	audit, err := f.store.ListAudit(ctx, ptr("CASE20250101SB0001"), 0)
	require.NoError(t, err)
	require.Len(t, audit, len(before)+1)
	latest := audit[0]
	assert.Equal(t, ActionStatusUpdate, latest.Action)
	assert.Equal(t, "Status changed from Submitted to UnderReview", latest.Detail)
	assert.Equal(t, "rev1", latest.PerformedBy)
	assert.Equal(t, "CASE20250101SB0001", *latest.CaseID)

	comments, err := f.store.ListComments(ctx, "CASE20250101SB0001", 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "initial triage", comments[0].Text)
	assert.Equal(t, "Status Change to UnderReview", comments[0].Type)
	assert.Equal(t, "rev1", comments[0].Author)
	assert.Equal(t, "CASE20250101SB0001", comments[0].CaseID)
}

func TestBlankRationaleIsAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.caseAt(t, "CASE20250101SB0002", workflow.StatusSubmitted)

	_, err := f.workflow.AttemptTransition(ctx, reviewer, TransitionRequest{
		CaseID:    "CASE20250101SB0002",
		To:        workflow.StatusUnderReview,
		Rationale: ptr("   "),
	})
	require.NoError(t, err)

	comments, err := f.store.ListComments(ctx, "CASE20250101SB0002", 0)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestConcurrentDecisionsCommitOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.caseAt(t, "CASE20250101RACE01", workflow.StatusUnderReview)

	targets := []workflow.Status{workflow.StatusApproved, workflow.StatusRejected}
	errs := make([]error, len(targets))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, to := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = f.workflow.AttemptTransition(ctx, reviewer, TransitionRequest{CaseID: "CASE20250101RACE01", To: to})
		}()
	}
	close(start)
	wg.Wait()

	winners := 0
	loser := -1
	for i, err := range errs {
		if err == nil {
			winners++
			continue
		}
		loser = i
		assert.Contains(t,
			[]errors.ErrorCode{errors.ErrCodeConflict, errors.ErrCodeInvalidTransition},
			errors.CodeOf(err))
	}
	require.Equal(t, 1, winners)
	require.NotEqual(t, -1, loser)

	_, err := f.workflow.AttemptTransition(ctx, reviewer, TransitionRequest{CaseID: "CASE20250101RACE01", To: targets[loser]})
	requireCode(t, err, errors.ErrCodeInvalidTransition)

	stored, err := f.store.GetCase(ctx, "CASE20250101RACE01")
	require.NoError(t, err)
	assert.Equal(t, targets[1-loser], stored.Status)

	audit, err := f.store.ListAudit(ctx, ptr("CASE20250101RACE01"), 0)
	require.NoError(t, err)
	decisions := 0
	for _, e := range audit {
		if e.Detail == "Status changed from UnderReview to Approved" || e.Detail == "Status changed from UnderReview to Rejected" {
			decisions++
		}
	}
	assert.Equal(t, 1, decisions)
}

func TestLostRaceIsConflict(t *testing.T) {
	base, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = base.Close() })
	ctx := context.Background()

	newFixtureWithStore(base).caseAt(t, "CASE20250101STALE1", workflow.StatusUnderReview)
	stale := newFixtureWithStore(&staleStore{Store: base})

	_, err = stale.workflow.AttemptTransition(ctx, reviewer, TransitionRequest{
		CaseID:    "CASE20250101STALE1",
		To:        workflow.StatusApproved,
		Rationale: ptr("looks fine"),
	})
	requireCode(t, err, errors.ErrCodeConflict)

	stored, err := base.GetCase(ctx, "CASE20250101STALE1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusUnderReview, stored.Status)
	comments, err := base.ListComments(ctx, "CASE20250101STALE1", 0)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Empty(t, stale.events.recorded())
}

func TestFailedTransitionWritesNothing(t *testing.T) {
	for _, failOn := range []string{"audit", "comment"} {
		t.Run(failOn, func(t *testing.T) {
			base, err := sqlite.Open(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = base.Close() })
			ctx := context.Background()

			newFixtureWithStore(base).caseAt(t, "CASE20250101ATOM01", workflow.StatusSubmitted)
			before, err := base.ListAudit(ctx, ptr("CASE20250101ATOM01"), 0)
			require.NoError(t, err)

			broken := newFixtureWithStore(&failingStore{Store: base, failOn: failOn})
			_, err = broken.workflow.AttemptTransition(ctx, reviewer, TransitionRequest{
				CaseID:    "CASE20250101ATOM01",
				To:        workflow.StatusUnderReview,
				Rationale: ptr("starting review"),
			})
			requireCode(t, err, errors.ErrCodeStorageUnavailable)

			stored, err := base.GetCase(ctx, "CASE20250101ATOM01")
			require.NoError(t, err)
			assert.Equal(t, workflow.StatusSubmitted, stored.Status)
			assert.Nil(t, stored.Review)
			assert.Equal(t, int64(2), stored.Version)

			after, err := base.ListAudit(ctx, ptr("CASE20250101ATOM01"), 0)
			require.NoError(t, err)
			assert.Len(t, after, len(before))

			comments, err := base.ListComments(ctx, "CASE20250101ATOM01", 0)
			require.NoError(t, err)
			assert.Empty(t, comments)
			assert.Empty(t, broken.events.recorded())
		})
	}
}

func TestAuthorizationCompleteness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, edge := range workflow.Edges() {
		for _, role := range workflow.AllRoles {
			actor := auth.Actor{UserID: "user-" + string(role), Role: role, Active: true}
			if role == workflow.RoleInitiator {
				actor.UserID = initiator.UserID
			}
			caseID := fmt.Sprintf("CASE20250101E%02d%s", i, role)
			f.caseAt(t, caseID, edge.From)

			_, err := f.workflow.AttemptTransition(ctx, actor, TransitionRequest{CaseID: caseID, To: edge.To})

			want := role == workflow.RoleAdmin ||
				(edge.Permits(role) && (!edge.CreatorOnly || actor.UserID == initiator.UserID))
			if want {
				assert.NoError(t, err, "%s should take %s -> %s", role, edge.From, edge.To)
			} else {
				assert.Equal(t, errors.ErrCodeUnauthorized, errors.CodeOf(err), "%s must not take %s -> %s", role, edge.From, edge.To)
			}
		}
	}
}

func TestAllRolesFlag(t *testing.T) {
	f := newFixture(t)
	f.caseAt(t, "CASE20250101FLT001", workflow.StatusApproved)

	snap := f.move(t, floater, "CASE20250101FLT001", workflow.StatusClosed)
	assert.Equal(t, "flt1", snap.Case.Closure.Actor)
}

func TestInactiveActorRejected(t *testing.T) {
	f := newFixture(t)
	f.caseAt(t, "CASE20250101INACT1", workflow.StatusSubmitted)

	gone := reviewer
	gone.Active = false
	_, err := f.workflow.AttemptTransition(context.Background(), gone, TransitionRequest{CaseID: "CASE20250101INACT1", To: workflow.StatusUnderReview})
	requireCode(t, err, errors.ErrCodeForbidden)

	_, err = f.workflow.AttemptTransition(context.Background(), gone, TransitionRequest{CaseID: "CASE20250101NOPE00", To: workflow.StatusUnderReview})
	requireCode(t, err, errors.ErrCodeForbidden)
}

func TestUnknownCase(t *testing.T) {
	f := newFixture(t)
	_, err := f.workflow.AttemptTransition(context.Background(), admin, TransitionRequest{CaseID: "CASE20250101NOPE00", To: workflow.StatusSubmitted})
	requireCode(t, err, errors.ErrCodeNotFound)
}

func TestStageStampsFollowVisits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := "CASE20250101STAMP1"
	f.caseAt(t, id, workflow.StatusSubmitted)

	f.move(t, reviewer, id, workflow.StatusUnderReview)
	f.move(t, reviewer, id, workflow.StatusApproved)
	f.move(t, approver, id, workflow.StatusUnderReview)

	c, err := f.store.GetCase(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, c.Review)
	require.NotNil(t, c.Approval)
	assert.Equal(t, "apr1", c.Review.Actor, "re-entering review overwrites the stamp")
	assert.Equal(t, "rev1", c.Approval.Actor, "leaving a stage keeps its stamp")
	assert.Nil(t, c.LegalReview)
	assert.Nil(t, c.Closure)

	f.move(t, reviewer, id, workflow.StatusLegalReview)
	f.move(t, legal, id, workflow.StatusClosed)

	c, err = f.store.GetCase(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, c.LegalReview)
	require.NotNil(t, c.Closure)
	assert.Equal(t, "rev1", c.LegalReview.Actor, "the stamp belongs to whoever moved the case into the stage")
	assert.Equal(t, "leg1", c.Closure.Actor)
	assert.Equal(t, "rev1", c.Approval.Actor)
	assert.True(t, c.Status.Terminal())
}

func TestAuditTimestampsNeverDecrease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := "CASE20250101AUDIT1"
	f.caseAt(t, id, workflow.StatusApproved)
	f.move(t, approver, id, workflow.StatusUnderReview)
	f.move(t, reviewer, id, workflow.StatusApproved)
	f.move(t, actioner, id, workflow.StatusClosed)

	audit, err := f.store.ListAudit(ctx, &id, 0)
	require.NoError(t, err)
	require.Len(t, audit, 7)
	for i := 1; i < len(audit); i++ {
		assert.True(t, audit[i-1].PerformedAt.After(audit[i].PerformedAt),
			"entry %d (%s) should be newer than entry %d (%s)", i-1, audit[i-1].PerformedAt, i, audit[i].PerformedAt)
	}
	assert.Equal(t, ActionCaseCreated, audit[len(audit)-1].Action)
}

func TestTransitionPublishesAfterCommit(t *testing.T) {
	f := newFixture(t)
	f.caseAt(t, "CASE20250101EVT001", workflow.StatusSubmitted)

	_, err := f.workflow.AttemptTransition(context.Background(), approver, TransitionRequest{CaseID: "CASE20250101EVT001", To: workflow.StatusUnderReview})
	requireCode(t, err, errors.ErrCodeUnauthorized)

	events := f.events.recorded()
	assert.Equal(t, []string{
		EventCaseCreated + ":CASE20250101EVT001",
		EventCaseStatusChanged + ":CASE20250101EVT001",
	}, events)
}

func TestAllowedTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.caseAt(t, "CASE20250101ALLOW1", workflow.StatusSubmitted)

	got, err := f.workflow.AllowedTransitions(ctx, reviewer, "CASE20250101ALLOW1")
	require.NoError(t, err)
	assert.Equal(t, []workflow.Status{workflow.StatusUnderReview}, got)

	got, err = f.workflow.AllowedTransitions(ctx, admin, "CASE20250101ALLOW1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []workflow.Status{workflow.StatusUnderReview, workflow.StatusUnderInvestigation}, got)

	got, err = f.workflow.AllowedTransitions(ctx, approver, "CASE20250101ALLOW1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCaseWritesLockBeforeStamping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := "CASE20250101LOCK01"
	f.caseAt(t, id, workflow.StatusSubmitted)

	tr := &tracer{}
	store := &tracingStore{Store: f.store, tr: tr}
	clock := &tracingClock{Clock: NewMonotonicClock(), tr: tr}
	log := logger.Nop()
	wf := NewWorkflowService(store, nil, clock, DefaultSLAPolicy, log)
	ev := NewEvidenceService(store, nil, clock, log)
	inv := NewInvestigationService(store, nil, clock, log)

	writes := map[string]func() error{
		"transition": func() error {
			_, err := wf.AttemptTransition(ctx, admin, TransitionRequest{CaseID: id, To: workflow.StatusUnderInvestigation})
			return err
		},
		"comment": func() error {
			_, err := ev.AddComment(ctx, admin, AddCommentRequest{CaseID: id, Text: "called the branch"})
			return err
		},
		"document": func() error {
			_, err := ev.RecordDocument(ctx, admin, RecordDocumentRequest{CaseID: id, Filename: "kyc.pdf", SizeBytes: 2048})
			return err
		},
		"investigation": func() error {
			_, err := inv.Upsert(ctx, admin, id, workflow.Checklist{})
			return err
		},
	}
	for _, name := range []string{"transition", "comment", "document", "investigation"} {
		t.Run(name, func(t *testing.T) {
			tr.take()
			require.NoError(t, writes[name]())
			steps := tr.take()
			require.GreaterOrEqual(t, len(steps), 3, "steps: %v", steps)
			assert.Equal(t, []string{"lock", "clock", "audit"}, steps[:3])
		})
	}
}
