package domain

import "time"

// Session is one authenticated device/browser for a user. Ending a session
// flips Active off by id; rows are kept for the audit trail.
type Session struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	IP             string    `db:"ip" json:"ip"`
	UserAgent      string    `db:"user_agent" json:"user_agent"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	LastActivityAt time.Time `db:"last_activity_at" json:"last_activity_at"`
	ExpiresAt      time.Time `db:"expires_at" json:"expires_at"`
}
