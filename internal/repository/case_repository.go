package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-fraud-cases/internal/database"
	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

// CaseRepository reads and writes the cases table.
type CaseRepository struct {
	q database.Querier
}

// NewCaseRepository creates a CaseRepository over a pool or transaction.
func NewCaseRepository(q database.Querier) *CaseRepository {
	return &CaseRepository{q: q}
}

const caseColumns = `
	case_id, lan, case_type, product, region, referred_by, description,
	case_date, status, version,
	customer_name, customer_pan, customer_mobile, customer_email,
	branch_location, loan_amount, disbursement_date,
	created_by, created_at, updated_at,
	reviewed_by, reviewed_at, approved_by, approved_at,
	legal_reviewed_by, legal_reviewed_at, closed_by, closed_at`

// stageColumns maps each stamped stage to its (actor, timestamp) columns.
var stageColumns = map[workflow.Stage][2]string{
	workflow.StageReview:      {"reviewed_by", "reviewed_at"},
	workflow.StageApproval:    {"approved_by", "approved_at"},
	workflow.StageLegalReview: {"legal_reviewed_by", "legal_reviewed_at"},
	workflow.StageClosure:     {"closed_by", "closed_at"},
}

// Insert creates a case. An existing case_id yields DUPLICATE_CASE_ID.
func (r *CaseRepository) Insert(ctx context.Context, c *Case) error {
	query := `
		INSERT INTO cases (
			case_id, lan, case_type, product, region, referred_by, description,
			case_date, status, version,
			customer_name, customer_pan, customer_mobile, customer_email,
			branch_location, loan_amount, disbursement_date,
			created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20
		)
	`

	_, err := r.q.Exec(ctx, query,
		c.CaseID, c.LAN, c.CaseType, c.Product, c.Region, c.ReferredBy, c.Description,
		c.CaseDate, string(c.Status), c.Version,
		c.Customer.Name, c.Customer.PAN, c.Customer.Mobile, c.Customer.Email,
		c.Customer.BranchLocation, c.Customer.LoanAmount, c.Customer.DisbursementDate,
		c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return errors.New(errors.ErrCodeDuplicateCaseID,
				fmt.Sprintf("case id already assigned: %s", c.CaseID))
		}
		return database.Classify(err, "failed to insert case")
	}
	return nil
}

// GetByID loads one case.
func (r *CaseRepository) GetByID(ctx context.Context, caseID string) (*Case, error) {
	return r.get(ctx, `SELECT `+caseColumns+` FROM cases WHERE case_id = $1`, caseID)
}

// GetByIDForUpdate loads one case and holds its row lock until the enclosing
// transaction ends.
func (r *CaseRepository) GetByIDForUpdate(ctx context.Context, caseID string) (*Case, error) {
	return r.get(ctx, `SELECT `+caseColumns+` FROM cases WHERE case_id = $1 FOR UPDATE`, caseID)
}

func (r *CaseRepository) get(ctx context.Context, query, caseID string) (*Case, error) {
	c, err := scanCase(r.q.QueryRow(ctx, query, caseID))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("case", caseID)
	}
	if err != nil {
		return nil, database.Classify(err, "failed to get case")
	}
	return c, nil
}

// UpdateStatus applies a compare-and-set status change and stamps the entered
// stage. Zero affected rows means another writer got there first.
func (r *CaseRepository) UpdateStatus(ctx context.Context, change StatusChange) error {
	set := []string{"status = $1", "version = version + 1", "updated_at = $2"}
	args := []any{string(change.To), change.At}

	if cols, ok := stageColumns[change.Stage]; ok {
		args = append(args, change.Actor)
		set = append(set,
			fmt.Sprintf("%s = $%d", cols[0], len(args)),
			fmt.Sprintf("%s = $2", cols[1]),
		)
	}

	args = append(args, change.CaseID, string(change.From), change.ExpectedVersion)
	n := len(args)
	query := fmt.Sprintf(`UPDATE cases SET %s WHERE case_id = $%d AND status = $%d AND version = $%d`,
		strings.Join(set, ", "), n-2, n-1, n)

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return database.Classify(err, "failed to update case status")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeConflict,
			fmt.Sprintf("case %s was modified concurrently (expected status %s, version %d)",
				change.CaseID, change.From, change.ExpectedVersion))
	}
	return nil
}

// List returns one page of cases, newest first, and the total match count.
func (r *CaseRepository) List(ctx context.Context, f CaseFilter) ([]*Case, int64, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.CaseType != nil {
		add("case_type = $%d", *f.CaseType)
	}
	if f.Product != nil {
		add("product = $%d", *f.Product)
	}
	if f.Region != nil {
		add("region = $%d", *f.Region)
	}
	if f.CreatedBy != nil {
		add("created_by = $%d", *f.CreatedBy)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at < $%d", *f.To)
	}
	if f.Query != nil && *f.Query != "" {
		args = append(args, "%"+*f.Query+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(case_id ILIKE $%d OR lan ILIKE $%d OR description ILIKE $%d)", n, n, n))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM cases`+clause, args...).Scan(&total); err != nil {
		return nil, 0, database.Classify(err, "failed to count cases")
	}

	args = append(args, f.PageSize, f.Offset())
	query := fmt.Sprintf(`SELECT %s FROM cases%s ORDER BY created_at DESC, case_id DESC LIMIT $%d OFFSET $%d`,
		caseColumns, clause, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, database.Classify(err, "failed to list cases")
	}
	defer rows.Close()

	var cases []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, 0, database.Classify(err, "failed to scan case")
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, database.Classify(err, "failed to list cases")
	}
	return cases, total, nil
}

// Statistics returns counts by status, region and product.
func (r *CaseRepository) Statistics(ctx context.Context) (*CaseStatistics, error) {
	stats := &CaseStatistics{}
	var err error
	if stats.ByStatus, err = r.countBy(ctx, "status"); err != nil {
		return nil, err
	}
	if stats.ByRegion, err = r.countBy(ctx, "region"); err != nil {
		return nil, err
	}
	if stats.ByProduct, err = r.countBy(ctx, "product"); err != nil {
		return nil, err
	}
	for _, n := range stats.ByStatus {
		stats.Total += n
	}
	return stats, nil
}

// countBy groups on a fixed column name; never pass caller input here.
func (r *CaseRepository) countBy(ctx context.Context, column string) (map[string]int64, error) {
	rows, err := r.q.Query(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM cases GROUP BY %s`, column, column))
	if err != nil {
		return nil, database.Classify(err, "failed to aggregate cases")
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, database.Classify(err, "failed to scan aggregate")
		}
		out[key] = n
	}
	return out, database.Classify(rows.Err(), "failed to aggregate cases")
}

// ── scan helpers ──────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(sc rowScanner) (*Case, error) {
	c := &Case{}
	var (
		status                 string
		reviewedBy, approvedBy *string
		legalBy, closedBy      *string
		reviewedAt, approvedAt *time.Time
		legalAt, closedAt      *time.Time
	)

	err := sc.Scan(
		&c.CaseID, &c.LAN, &c.CaseType, &c.Product, &c.Region, &c.ReferredBy, &c.Description,
		&c.CaseDate, &status, &c.Version,
		&c.Customer.Name, &c.Customer.PAN, &c.Customer.Mobile, &c.Customer.Email,
		&c.Customer.BranchLocation, &c.Customer.LoanAmount, &c.Customer.DisbursementDate,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		&reviewedBy, &reviewedAt, &approvedBy, &approvedAt,
		&legalBy, &legalAt, &closedBy, &closedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = workflow.Status(status)
	c.Review = stamp(reviewedBy, reviewedAt)
	c.Approval = stamp(approvedBy, approvedAt)
	c.LegalReview = stamp(legalBy, legalAt)
	c.Closure = stamp(closedBy, closedAt)
	return c, nil
}

func stamp(actor *string, at *time.Time) *StageStamp {
	if actor == nil || at == nil {
		return nil
	}
	return &StageStamp{Actor: *actor, At: *at}
}
