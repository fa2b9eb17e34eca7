package service

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-fraud-cases/internal/auth"
	"github.com/pesio-ai/be-fraud-cases/internal/authz"
	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/logger"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/repository/sqlite"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

var (
	initiator    = auth.Actor{UserID: "init1", Role: workflow.RoleInitiator, Active: true}
	initiator2   = auth.Actor{UserID: "init2", Role: workflow.RoleInitiator, Active: true}
	reviewer     = auth.Actor{UserID: "rev1", Role: workflow.RoleReviewer, Active: true}
	approver     = auth.Actor{UserID: "apr1", Role: workflow.RoleApprover, Active: true}
	actioner     = auth.Actor{UserID: "act1", Role: workflow.RoleActioner, Active: true}
	legal        = auth.Actor{UserID: "leg1", Role: workflow.RoleLegalReviewer, Active: true}
	investigator = auth.Actor{UserID: "inv1", Role: workflow.RoleInvestigator, Active: true}
	admin        = auth.Actor{UserID: "admin", Role: workflow.RoleAdmin, Active: true}
	floater      = auth.Actor{UserID: "flt1", Role: workflow.RoleReviewer, Capabilities: authz.Capabilities{AllRoles: true}, Active: true}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishCaseEvent(_ context.Context, eventType, caseID, _ string, _ map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType+":"+caseID)
}

func (p *recordingPublisher) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type fixture struct {
	store         repository.Store
	events        *recordingPublisher
	cases         *CaseService
	workflow      *WorkflowService
	evidence      *EvidenceService
	investigation *InvestigationService
	directory     *DirectoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return newFixtureWithStore(store)
}

func newFixtureWithStore(store repository.Store) *fixture {
	events := &recordingPublisher{}
	clock := NewMonotonicClock()
	log := logger.Nop()
	return &fixture{
		store:         store,
		events:        events,
		cases:         NewCaseService(store, events, clock, DefaultSLAPolicy, log),
		workflow:      NewWorkflowService(store, events, clock, DefaultSLAPolicy, log),
		evidence:      NewEvidenceService(store, events, clock, log),
		investigation: NewInvestigationService(store, events, clock, log),
		directory:     NewDirectoryService(store, clock, log),
	}
}

func validRequest(caseID string) *CreateCaseRequest {
	return &CreateCaseRequest{
		CaseID:      caseID,
		CaseType:    "Lending",
		Product:     "PL",
		Region:      "North",
		ReferredBy:  "Audit Team",
		Description: "Income documents appear altered",
	}
}

func (f *fixture) create(t *testing.T, actor auth.Actor, caseID string) *repository.Case {
	t.Helper()
	snap, err := f.cases.CreateCase(context.Background(), actor, validRequest(caseID))
	require.NoError(t, err)
	return snap.Case
}

func (f *fixture) move(t *testing.T, actor auth.Actor, caseID string, to workflow.Status) *CaseSnapshot {
	t.Helper()
	snap, err := f.workflow.AttemptTransition(context.Background(), actor, TransitionRequest{CaseID: caseID, To: to})
	require.NoError(t, err)
	return snap
}

// pathTo lists the admin-driven statuses that bring a Draft case to status.
var pathTo = map[workflow.Status][]workflow.Status{
	workflow.StatusDraft:              nil,
	workflow.StatusSubmitted:          {workflow.StatusSubmitted},
	workflow.StatusUnderReview:        {workflow.StatusSubmitted, workflow.StatusUnderReview},
	workflow.StatusApproved:           {workflow.StatusSubmitted, workflow.StatusUnderReview, workflow.StatusApproved},
	workflow.StatusLegalReview:        {workflow.StatusSubmitted, workflow.StatusUnderReview, workflow.StatusLegalReview},
	workflow.StatusUnderInvestigation: {workflow.StatusSubmitted, workflow.StatusUnderInvestigation},
}

// caseAt creates a case owned by init1 and walks it to status as Admin.
func (f *fixture) caseAt(t *testing.T, caseID string, status workflow.Status) {
	t.Helper()
	path, ok := pathTo[status]
	require.True(t, ok, "no path to %s", status)
	f.create(t, initiator, caseID)
	for _, to := range path {
		f.move(t, admin, caseID, to)
	}
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, errors.CodeOf(err), "error: %v", err)
}

// failingStore injects a storage failure into one Tx operation.
type failingStore struct {
	repository.Store
	failOn string
}

func (s *failingStore) InTransaction(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.Store.InTransaction(ctx, func(tx repository.Tx) error {
		return fn(&failingTx{Tx: tx, failOn: s.failOn})
	})
}

type failingTx struct {
	repository.Tx
	failOn string
}

var errDiskFull = stderrors.New("disk full")

func (t *failingTx) AppendAudit(ctx context.Context, e *repository.AuditEntry) error {
	if t.failOn == "audit" {
		return errors.Unavailable(errDiskFull, "failed to append audit entry")
	}
	return t.Tx.AppendAudit(ctx, e)
}

func (t *failingTx) AppendComment(ctx context.Context, c *repository.Comment) error {
	if t.failOn == "comment" {
		return errors.Unavailable(errDiskFull, "failed to append comment")
	}
	return t.Tx.AppendComment(ctx, c)
}

// staleStore hands the transaction an out-of-date copy of the case, as if a
// concurrent writer committed between read and update.
type staleStore struct {
	repository.Store
}

func (s *staleStore) InTransaction(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.Store.InTransaction(ctx, func(tx repository.Tx) error {
		return fn(&staleTx{Tx: tx})
	})
}

type staleTx struct {
	repository.Tx
}

func (t *staleTx) GetCaseForUpdate(ctx context.Context, caseID string) (*repository.Case, error) {
	c, err := t.Tx.GetCaseForUpdate(ctx, caseID)
	if err != nil {
		return nil, err
	}
	c.Version--
	return c, nil
}

// tracer records the order of case locks, clock reads and appends across the
// services' transactions.
type tracer struct {
	mu    sync.Mutex
	steps []string
}

func (tr *tracer) add(step string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.steps = append(tr.steps, step)
}

func (tr *tracer) take() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := tr.steps
	tr.steps = nil
	return out
}

type tracingClock struct {
	Clock
	tr *tracer
}

func (c *tracingClock) Now() time.Time {
	c.tr.add("clock")
	return c.Clock.Now()
}

type tracingStore struct {
	repository.Store
	tr *tracer
}

func (s *tracingStore) InTransaction(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.Store.InTransaction(ctx, func(tx repository.Tx) error {
		return fn(&tracingTx{Tx: tx, tr: s.tr})
	})
}

type tracingTx struct {
	repository.Tx
	tr *tracer
}

func (t *tracingTx) GetCaseForUpdate(ctx context.Context, caseID string) (*repository.Case, error) {
	t.tr.add("lock")
	return t.Tx.GetCaseForUpdate(ctx, caseID)
}

func (t *tracingTx) AppendAudit(ctx context.Context, e *repository.AuditEntry) error {
	t.tr.add("audit")
	return t.Tx.AppendAudit(ctx, e)
}
