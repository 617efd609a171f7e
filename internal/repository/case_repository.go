package repository

import (
	"context"
	"time"

	"github.com/spec-kit/practice-service/internal/domain"
)

const caseColumns = `id, case_number, client_id, title, description, practice_area,
        status, priority, opened_by, assigned_to, assigned_by, assigned_at,
        created_at, updated_at, closed_at`

// CaseRepository covers the case-specific operations the generic store does
// not express: assignment, status transitions, analytics.
type CaseRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	UpdateAssignment(ctx context.Context, id, assigneeID, assignedBy string, at time.Time) (*domain.Case, error)
	UpdateStatus(ctx context.Context, id string, status domain.CaseStatus, at time.Time) (*domain.Case, error)
	Analytics(ctx context.Context) (*domain.CaseAnalytics, error)
}

type caseRepository struct {
	q Querier
}

// NewCaseRepository binds the repository to a pool or transaction.
func NewCaseRepository(q Querier) CaseRepository {
	return &caseRepository{q: q}
}

func (r *caseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	const query = `SELECT ` + caseColumns + ` FROM cases WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *caseRepository) UpdateAssignment(ctx context.Context, id, assigneeID, assignedBy string, at time.Time) (*domain.Case, error) {
	const query = `
        UPDATE cases SET assigned_to=$1, assigned_by=$2, assigned_at=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING ` + caseColumns
	return r.fetchSingle(ctx, query, assigneeID, assignedBy, at, id)
}

func (r *caseRepository) UpdateStatus(ctx context.Context, id string, status domain.CaseStatus, at time.Time) (*domain.Case, error) {
	const query = `
        UPDATE cases SET status=$1,
            closed_at=CASE WHEN $1 IN ('CLOSED','ARCHIVED') THEN $2 ELSE NULL END,
            updated_at=NOW()
        WHERE id=$3
        RETURNING ` + caseColumns
	return r.fetchSingle(ctx, query, status, at, id)
}

func (r *caseRepository) Analytics(ctx context.Context) (*domain.CaseAnalytics, error) {
	const query = `SELECT status, priority, COUNT(*) FROM cases GROUP BY status, priority`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analytics := &domain.CaseAnalytics{
		ByStatus:   map[domain.CaseStatus]int64{},
		ByPriority: map[domain.CasePriority]int64{},
	}
	for rows.Next() {
		var (
			status   domain.CaseStatus
			priority domain.CasePriority
			count    int64
		)
		if err := rows.Scan(&status, &priority, &count); err != nil {
			return nil, err
		}
		analytics.Total += count
		analytics.ByStatus[status] += count
		analytics.ByPriority[priority] += count
		if status != domain.CaseStatusClosed && status != domain.CaseStatusArchived {
			analytics.Open += count
		}
	}
	return analytics, rows.Err()
}

func (r *caseRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Case, error) {
	var c domain.Case
	if err := r.q.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.CaseNumber,
		&c.ClientID,
		&c.Title,
		&c.Description,
		&c.PracticeArea,
		&c.Status,
		&c.Priority,
		&c.OpenedBy,
		&c.AssignedTo,
		&c.AssignedBy,
		&c.AssignedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
