package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/practice-service/internal/domain"
)

const userColumns = `id, name, email, password_hash, role, status,
        failed_login_attempts, locked_until, last_login_at, last_login_ip,
        last_login_user_agent, created_at, updated_at`

// UserRepository defines persistence access for firm accounts, including the
// login-attempt bookkeeping mutated by authentication flows.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	RecordLoginSuccess(ctx context.Context, id, ip, userAgent string, at time.Time) error
	RecordLoginFailure(ctx context.Context, id string, attempts int, lockedUntil *time.Time) error
	AppendLoginHistory(ctx context.Context, record *domain.LoginRecord) error
	ListLoginHistory(ctx context.Context, userID string, limit int) ([]domain.LoginRecord, error)
}

type userRepository struct {
	q Querier
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(q Querier) UserRepository {
	return &userRepository{q: q}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

// RecordLoginSuccess resets the attempt counter and stamps last-login fields.
// A success while a lockout window has elapsed also clears the LOCKED status.
func (r *userRepository) RecordLoginSuccess(ctx context.Context, id, ip, userAgent string, at time.Time) error {
	const query = `
        UPDATE users SET failed_login_attempts=0, locked_until=NULL,
            status=CASE WHEN status='LOCKED' THEN 'ACTIVE' ELSE status END,
            last_login_at=$1, last_login_ip=$2, last_login_user_agent=$3, updated_at=NOW()
        WHERE id=$4`
	return r.exec(ctx, query, at, ip, userAgent, id)
}

// RecordLoginFailure writes the new counter value and, when lockedUntil is
// set, flips the account to LOCKED. An already-locked account keeps its
// original window: the caller passes lockedUntil only at the threshold.
func (r *userRepository) RecordLoginFailure(ctx context.Context, id string, attempts int, lockedUntil *time.Time) error {
	if lockedUntil != nil {
		const query = `
            UPDATE users SET failed_login_attempts=$1, locked_until=$2, status='LOCKED', updated_at=NOW()
            WHERE id=$3`
		return r.exec(ctx, query, attempts, *lockedUntil, id)
	}
	const query = `
        UPDATE users SET failed_login_attempts=$1, updated_at=NOW()
        WHERE id=$2`
	return r.exec(ctx, query, attempts, id)
}

func (r *userRepository) AppendLoginHistory(ctx context.Context, record *domain.LoginRecord) error {
	const query = `
        INSERT INTO login_history (user_id, success, ip, user_agent, failure_reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		record.UserID,
		record.Success,
		record.IP,
		record.UserAgent,
		record.FailureReason,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *userRepository) ListLoginHistory(ctx context.Context, userID string, limit int) ([]domain.LoginRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `
        SELECT id, user_id, success, ip, user_agent, failure_reason, created_at
        FROM login_history WHERE user_id=$1
        ORDER BY created_at DESC LIMIT $2`
	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LoginRecord
	for rows.Next() {
		var record domain.LoginRecord
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Success,
			&record.IP,
			&record.UserAgent,
			&record.FailureReason,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (r *userRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	if err := r.q.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.FailedLoginAttempts,
		&user.LockedUntil,
		&user.LastLoginAt,
		&user.LastLoginIP,
		&user.LastLoginUserAgent,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
