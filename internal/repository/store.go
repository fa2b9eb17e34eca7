package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-fraud-cases/internal/database"
)

// Default and maximum row limits for history queries.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// ClampLimit bounds a caller-supplied history limit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// CaseReader serves the read paths. Reads take no locks.
type CaseReader interface {
	GetCase(ctx context.Context, caseID string) (*Case, error)
	ListCases(ctx context.Context, filter CaseFilter) ([]*Case, int64, error)
	CaseStatistics(ctx context.Context) (*CaseStatistics, error)
	ListAudit(ctx context.Context, caseID *string, limit int) ([]*AuditEntry, error)
	ListComments(ctx context.Context, caseID string, limit int) ([]*Comment, error)
	ListDocuments(ctx context.Context, caseID string) ([]*Document, error)
	GetInvestigation(ctx context.Context, caseID string) (*InvestigationDetail, error)
	GetUser(ctx context.Context, userID string) (*User, error)
}

// Tx is the write surface inside one transaction. History rows can only be
// appended; there is no update or delete for audit entries or comments.
//
// GetCaseForUpdate locks the case row until the transaction ends. Every
// case-scoped write takes it first and stamps its clock reading afterwards,
// so writers on one case commit in timestamp order.
type Tx interface {
	GetCaseForUpdate(ctx context.Context, caseID string) (*Case, error)
	InsertCase(ctx context.Context, c *Case) error
	UpdateStatus(ctx context.Context, change StatusChange) error
	AppendAudit(ctx context.Context, entry *AuditEntry) error
	AppendComment(ctx context.Context, comment *Comment) error
	InsertDocument(ctx context.Context, doc *Document) error
	UpsertInvestigation(ctx context.Context, detail *InvestigationDetail) error
	UpsertUser(ctx context.Context, user *User) error
}

// Store is the case store. Every write happens inside InTransaction: all rows
// written by fn commit together or not at all.
type Store interface {
	CaseReader
	InTransaction(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

// PostgresStore is the authoritative PostgreSQL-backed Store.
type PostgresStore struct {
	db *database.DB
	repos
}

// NewPostgresStore creates a Store over an open pool.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db, repos: newRepos(db)}
}

// repos bundles the per-table repositories bound to one Querier.
type repos struct {
	cases          *CaseRepository
	audit          *AuditRepository
	comments       *CommentRepository
	documents      *DocumentRepository
	investigations *InvestigationRepository
	users          *UserRepository
}

func newRepos(q database.Querier) repos {
	return repos{
		cases:          NewCaseRepository(q),
		audit:          NewAuditRepository(q),
		comments:       NewCommentRepository(q),
		documents:      NewDocumentRepository(q),
		investigations: NewInvestigationRepository(q),
		users:          NewUserRepository(q),
	}
}

func (s *PostgresStore) GetCase(ctx context.Context, caseID string) (*Case, error) {
	return s.cases.GetByID(ctx, caseID)
}

func (s *PostgresStore) ListCases(ctx context.Context, filter CaseFilter) ([]*Case, int64, error) {
	return s.cases.List(ctx, filter)
}

func (s *PostgresStore) CaseStatistics(ctx context.Context) (*CaseStatistics, error) {
	return s.cases.Statistics(ctx)
}

func (s *PostgresStore) ListAudit(ctx context.Context, caseID *string, limit int) ([]*AuditEntry, error) {
	return s.audit.List(ctx, caseID, limit)
}

func (s *PostgresStore) ListComments(ctx context.Context, caseID string, limit int) ([]*Comment, error) {
	return s.comments.ListByCase(ctx, caseID, limit)
}

func (s *PostgresStore) ListDocuments(ctx context.Context, caseID string) ([]*Document, error) {
	return s.documents.ListByCase(ctx, caseID)
}

func (s *PostgresStore) GetInvestigation(ctx context.Context, caseID string) (*InvestigationDetail, error) {
	return s.investigations.GetByCaseID(ctx, caseID)
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// InTransaction runs fn against repositories bound to a single pgx
// transaction.
func (s *PostgresStore) InTransaction(ctx context.Context, fn func(tx Tx) error) error {
	err := s.db.InTransaction(ctx, func(tx pgx.Tx) error {
		return fn(&pgTx{repos: newRepos(tx)})
	})
	return database.Classify(err, "transaction failed")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return database.Classify(s.db.Ping(ctx), "database ping failed")
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// pgTx adapts the transaction-bound repositories to Tx.
type pgTx struct {
	repos
}

func (t *pgTx) GetCaseForUpdate(ctx context.Context, caseID string) (*Case, error) {
	return t.cases.GetByIDForUpdate(ctx, caseID)
}

func (t *pgTx) InsertCase(ctx context.Context, c *Case) error {
	return t.cases.Insert(ctx, c)
}

func (t *pgTx) UpdateStatus(ctx context.Context, change StatusChange) error {
	return t.cases.UpdateStatus(ctx, change)
}

func (t *pgTx) AppendAudit(ctx context.Context, entry *AuditEntry) error {
	return t.audit.Append(ctx, entry)
}

func (t *pgTx) AppendComment(ctx context.Context, comment *Comment) error {
	return t.comments.Append(ctx, comment)
}

func (t *pgTx) InsertDocument(ctx context.Context, doc *Document) error {
	return t.documents.Insert(ctx, doc)
}

func (t *pgTx) UpsertInvestigation(ctx context.Context, detail *InvestigationDetail) error {
	return t.investigations.Upsert(ctx, detail)
}

func (t *pgTx) UpsertUser(ctx context.Context, user *User) error {
	return t.users.Upsert(ctx, user)
}
