// Package sqlite is the embedded, single-node case store. It implements the
// same Store contract as the PostgreSQL repositories on gorm and a pure-Go
// SQLite driver.
package sqlite

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// Store is a repository.Store on SQLite.
type Store struct {
	db *gorm.DB
}

var _ repository.Store = (*Store)(nil)

// Open opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases shared across calls.
	sqlDB.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(
		&userRow{}, &caseRow{}, &auditRow{}, &commentRow{}, &documentRow{}, &investigationRow{},
	); err != nil {
		return fmt.Errorf("migrate sqlite schema: %w", err)
	}
	admin := userRow{UserID: "admin", DisplayName: "Administrator", Role: string(workflow.RoleAdmin), Active: true}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&admin).Error
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Unavailable(err, "sqlite handle unavailable")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Unavailable(err, "sqlite ping failed")
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InTransaction runs fn in one SQLite transaction.
func (s *Store) InTransaction(ctx context.Context, fn func(tx repository.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&sqliteTx{db: gtx})
	})
	return classify(err, "transaction failed")
}

// ── reads ────────────────────────────────────────────────────────────────────

func (s *Store) GetCase(ctx context.Context, caseID string) (*repository.Case, error) {
	return getCase(s.db.WithContext(ctx), caseID)
}

func getCase(db *gorm.DB, caseID string) (*repository.Case, error) {
	var row caseRow
	err := db.Where("case_id = ?", caseID).Take(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("case", caseID)
	}
	if err != nil {
		return nil, classify(err, "failed to get case")
	}
	return row.toCase(), nil
}

func (s *Store) ListCases(ctx context.Context, f repository.CaseFilter) ([]*repository.Case, int64, error) {
	filtered := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&caseRow{})
		if f.Status != nil {
			q = q.Where("status = ?", string(*f.Status))
		}
		if f.CaseType != nil {
			q = q.Where("case_type = ?", *f.CaseType)
		}
		if f.Product != nil {
			q = q.Where("product = ?", *f.Product)
		}
		if f.Region != nil {
			q = q.Where("region = ?", *f.Region)
		}
		if f.CreatedBy != nil {
			q = q.Where("created_by = ?", *f.CreatedBy)
		}
		if f.From != nil {
			q = q.Where("created_at >= ?", f.From.UTC())
		}
		if f.To != nil {
			q = q.Where("created_at < ?", f.To.UTC())
		}
		if f.Query != nil && *f.Query != "" {
			like := "%" + strings.ToLower(*f.Query) + "%"
			q = q.Where("(LOWER(case_id) LIKE ? OR LOWER(COALESCE(lan, '')) LIKE ? OR LOWER(description) LIKE ?)", like, like, like)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, classify(err, "failed to count cases")
	}

	var rows []caseRow
	err := filtered().
		Order("created_at DESC").Order("case_id DESC").
		Limit(f.PageSize).Offset(f.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, classify(err, "failed to list cases")
	}

	cases := make([]*repository.Case, 0, len(rows))
	for i := range rows {
		cases = append(cases, rows[i].toCase())
	}
	return cases, total, nil
}

func (s *Store) CaseStatistics(ctx context.Context) (*repository.CaseStatistics, error) {
	stats := &repository.CaseStatistics{}
	var err error
	db := s.db.WithContext(ctx)
	if stats.ByStatus, err = countBy(db, "status"); err != nil {
		return nil, err
	}
	if stats.ByRegion, err = countBy(db, "region"); err != nil {
		return nil, err
	}
	if stats.ByProduct, err = countBy(db, "product"); err != nil {
		return nil, err
	}
	for _, n := range stats.ByStatus {
		stats.Total += n
	}
	return stats, nil
}

func countBy(db *gorm.DB, column string) (map[string]int64, error) {
	var rows []struct {
		Value string
		Total int64
	}
	err := db.Model(&caseRow{}).
		Select(column + " AS value, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, classify(err, "failed to aggregate cases")
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Value] = r.Total
	}
	return out, nil
}

func (s *Store) ListAudit(ctx context.Context, caseID *string, limit int) ([]*repository.AuditEntry, error) {
	q := s.db.WithContext(ctx).Model(&auditRow{})
	if caseID != nil {
		q = q.Where("case_id = ?", *caseID)
	}
	var rows []auditRow
	err := q.Order("performed_at DESC").Order("id DESC").
		Limit(repository.ClampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, classify(err, "failed to get audit log")
	}
	out := make([]*repository.AuditEntry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntry())
	}
	return out, nil
}

func (s *Store) ListComments(ctx context.Context, caseID string, limit int) ([]*repository.Comment, error) {
	var rows []commentRow
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at DESC").Order("id DESC").
		Limit(repository.ClampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, classify(err, "failed to get comments")
	}
	out := make([]*repository.Comment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toComment())
	}
	return out, nil
}

func (s *Store) ListDocuments(ctx context.Context, caseID string) ([]*repository.Document, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("uploaded_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, classify(err, "failed to get documents")
	}
	out := make([]*repository.Document, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDocument())
	}
	return out, nil
}

func (s *Store) GetInvestigation(ctx context.Context, caseID string) (*repository.InvestigationDetail, error) {
	var row investigationRow
	err := s.db.WithContext(ctx).Where("case_id = ?", caseID).Take(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("investigation detail", caseID)
	}
	if err != nil {
		return nil, classify(err, "failed to get investigation detail")
	}
	d, err := row.toDetail()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal checklist")
	}
	return d, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*repository.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("user", userID)
	}
	if err != nil {
		return nil, classify(err, "failed to get user")
	}
	return row.toUser(), nil
}

// ── transaction ──────────────────────────────────────────────────────────────

type sqliteTx struct {
	db *gorm.DB
}

// GetCaseForUpdate is a plain read: the single connection already serializes
// writers.
func (t *sqliteTx) GetCaseForUpdate(_ context.Context, caseID string) (*repository.Case, error) {
	return getCase(t.db, caseID)
}

func (t *sqliteTx) InsertCase(_ context.Context, c *repository.Case) error {
	var n int64
	if err := t.db.Model(&caseRow{}).Where("case_id = ?", c.CaseID).Count(&n).Error; err != nil {
		return classify(err, "failed to check case id")
	}
	if n > 0 {
		return errors.New(errors.ErrCodeDuplicateCaseID, fmt.Sprintf("case id already assigned: %s", c.CaseID))
	}
	if err := t.db.Create(toCaseRow(c)).Error; err != nil {
		if isUniqueViolation(err) {
			return errors.New(errors.ErrCodeDuplicateCaseID, fmt.Sprintf("case id already assigned: %s", c.CaseID))
		}
		return classify(err, "failed to insert case")
	}
	return nil
}

var stageColumns = map[workflow.Stage][2]string{
	workflow.StageReview:      {"reviewed_by", "reviewed_at"},
	workflow.StageApproval:    {"approved_by", "approved_at"},
	workflow.StageLegalReview: {"legal_reviewed_by", "legal_reviewed_at"},
	workflow.StageClosure:     {"closed_by", "closed_at"},
}

func (t *sqliteTx) UpdateStatus(_ context.Context, change repository.StatusChange) error {
	at := change.At.UTC()
	updates := map[string]any{
		"status":     string(change.To),
		"version":    gorm.Expr("version + 1"),
		"updated_at": at,
	}
	if cols, ok := stageColumns[change.Stage]; ok {
		updates[cols[0]] = change.Actor
		updates[cols[1]] = at
	}

	res := t.db.Model(&caseRow{}).
		Where("case_id = ? AND status = ? AND version = ?", change.CaseID, string(change.From), change.ExpectedVersion).
		Updates(updates)
	if res.Error != nil {
		return classify(res.Error, "failed to update case status")
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.ErrCodeConflict,
			fmt.Sprintf("case %s was modified concurrently (expected status %s, version %d)",
				change.CaseID, change.From, change.ExpectedVersion))
	}
	return nil
}

func (t *sqliteTx) AppendAudit(_ context.Context, e *repository.AuditEntry) error {
	row := auditRow{
		CaseID:      e.CaseID,
		Action:      e.Action,
		Detail:      e.Detail,
		PerformedBy: e.PerformedBy,
		PerformedAt: e.PerformedAt.UTC(),
	}
	if err := t.db.Create(&row).Error; err != nil {
		return classify(err, "failed to append audit entry")
	}
	e.ID = row.ID
	return nil
}

func (t *sqliteTx) AppendComment(_ context.Context, c *repository.Comment) error {
	row := commentRow{
		CaseID:      c.CaseID,
		CommentText: c.Text,
		CommentType: c.Type,
		CreatedBy:   c.Author,
		CreatedAt:   c.CreatedAt.UTC(),
	}
	if err := t.db.Create(&row).Error; err != nil {
		return classify(err, "failed to append comment")
	}
	c.ID = row.ID
	return nil
}

func (t *sqliteTx) InsertDocument(_ context.Context, d *repository.Document) error {
	row := documentRow{
		CaseID:     d.CaseID,
		Filename:   d.Filename,
		SizeBytes:  d.SizeBytes,
		UploadedBy: d.UploadedBy,
		UploadedAt: d.UploadedAt.UTC(),
	}
	if err := t.db.Create(&row).Error; err != nil {
		return classify(err, "failed to record document")
	}
	d.ID = row.ID
	return nil
}

func (t *sqliteTx) UpsertInvestigation(_ context.Context, d *repository.InvestigationDetail) error {
	checklist, err := json.Marshal(d.Checklist)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal checklist")
	}
	row := investigationRow{
		CaseID:       d.CaseID,
		Checklist:    checklist,
		Investigator: d.Investigator,
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	err = t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "case_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"checklist", "investigator", "updated_at"}),
	}).Create(&row).Error
	return classify(err, "failed to upsert investigation detail")
}

func (t *sqliteTx) UpsertUser(_ context.Context, u *repository.User) error {
	row := userRow{
		UserID:      u.UserID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Team:        u.Team,
		Role:        string(u.Role),
		AllRoles:    u.AllRoles,
		Active:      u.Active,
		UpdatedAt:   time.Now().UTC(),
	}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "email", "team", "role", "all_roles", "active", "updated_at"}),
	}).Create(&row).Error
	return classify(err, "failed to upsert user")
}

// ── errors ───────────────────────────────────────────────────────────────────

func isUniqueViolation(err error) bool {
	return stderrors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func classify(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") ||
		stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Unavailable(err, message)
	}
	return errors.Wrap(err, errors.ErrCodeInternal, message)
}
