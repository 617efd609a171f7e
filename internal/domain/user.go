package domain

import "time"

// UserStatus represents lifecycle states for a firm account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusLocked    UserStatus = "LOCKED"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// UserRole scopes what a firm member may do.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleAttorney  UserRole = "ATTORNEY"
	RoleParalegal UserRole = "PARALEGAL"
	RoleStaff     UserRole = "STAFF"
)

// User is the domain model for firm members who log in.
type User struct {
	ID                  string     `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Role                UserRole   `db:"role" json:"role"`
	Status              UserStatus `db:"status" json:"status"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"locked_until,omitempty"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	LastLoginIP         *string    `db:"last_login_ip" json:"-"`
	LastLoginUserAgent  *string    `db:"last_login_user_agent" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// LockedNow reports whether the account is under an unexpired lockout.
// An elapsed lockout window counts as unlocked even while status is LOCKED.
func (u *User) LockedNow(now time.Time) bool {
	return u.Status == UserStatusLocked && u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// LoginRecord captures a single login attempt, successful or not.
// Append-only; listing is capped rather than pruned in place.
type LoginRecord struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Success       bool      `db:"success" json:"success"`
	IP            string    `db:"ip" json:"ip"`
	UserAgent     string    `db:"user_agent" json:"user_agent"`
	FailureReason *string   `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
