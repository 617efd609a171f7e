package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/practice-service/internal/domain"
)

// TimelineEventRepository appends and reads case timeline entries. Entries are
// immutable; there is no update or delete.
type TimelineEventRepository interface {
	Create(ctx context.Context, event *domain.TimelineEvent) error
	ListByCase(ctx context.Context, caseID string, limit int) ([]domain.TimelineEvent, error)
}

type timelineEventRepository struct {
	q Querier
}

// NewTimelineEventRepository binds the repository to a pool or transaction.
func NewTimelineEventRepository(q Querier) TimelineEventRepository {
	return &timelineEventRepository{q: q}
}

func (r *timelineEventRepository) Create(ctx context.Context, event *domain.TimelineEvent) error {
	const query = `
        INSERT INTO timeline_events (case_id, event_type, title, description, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		event.CaseID,
		event.EventType,
		event.Title,
		event.Description,
		event.CreatedBy,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *timelineEventRepository) ListByCase(ctx context.Context, caseID string, limit int) ([]domain.TimelineEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
        SELECT id, case_id, event_type, title, description, created_by, created_at
        FROM timeline_events WHERE case_id=$1
        ORDER BY created_at DESC LIMIT $2`
	rows, err := r.q.Query(ctx, query, caseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTimelineEvents(rows)
}

func scanTimelineEvents(rows pgx.Rows) ([]domain.TimelineEvent, error) {
	var result []domain.TimelineEvent
	for rows.Next() {
		var event domain.TimelineEvent
		if err := rows.Scan(
			&event.ID,
			&event.CaseID,
			&event.EventType,
			&event.Title,
			&event.Description,
			&event.CreatedBy,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
