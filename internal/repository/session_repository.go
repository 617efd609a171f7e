package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/practice-service/internal/domain"
)

// SessionRepository tracks authenticated sessions. Ended sessions are marked
// inactive rather than removed.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Session, error)
	Touch(ctx context.Context, id string) error
	End(ctx context.Context, id string) (bool, error)
}

type sessionRepository struct {
	q Querier
}

// NewSessionRepository returns a Postgres-backed implementation.
func NewSessionRepository(q Querier) SessionRepository {
	return &sessionRepository{q: q}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	const query = `
        INSERT INTO sessions (id, user_id, ip, user_agent, active, last_activity_at, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at`
	return r.q.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.IP,
		session.UserAgent,
		session.Active,
		session.LastActivityAt,
		session.ExpiresAt,
	).Scan(&session.CreatedAt)
}

func (r *sessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `
        SELECT id, user_id, ip, user_agent, active, created_at, last_activity_at, expires_at
        FROM sessions WHERE user_id=$1
        ORDER BY created_at DESC LIMIT $2`
	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Session
	for rows.Next() {
		var session domain.Session
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.IP,
			&session.UserAgent,
			&session.Active,
			&session.CreatedAt,
			&session.LastActivityAt,
			&session.ExpiresAt,
		); err != nil {
			return nil, err
		}
		result = append(result, session)
	}
	return result, rows.Err()
}

// Touch bumps last_activity_at for a live session. Ended or expired sessions
// report pgx.ErrNoRows so callers can reject the request.
func (r *sessionRepository) Touch(ctx context.Context, id string) error {
	const query = `UPDATE sessions SET last_activity_at=NOW() WHERE id=$1 AND active AND expires_at > NOW()`
	cmd, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *sessionRepository) End(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE sessions SET active=FALSE WHERE id=$1 AND active`
	cmd, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
