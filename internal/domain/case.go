package domain

import "time"

// CaseStatus enumerates lifecycle states for legal cases.
type CaseStatus string

const (
	CaseStatusOpen       CaseStatus = "OPEN"
	CaseStatusInProgress CaseStatus = "IN_PROGRESS"
	CaseStatusPending    CaseStatus = "PENDING"
	CaseStatusClosed     CaseStatus = "CLOSED"
	CaseStatusArchived   CaseStatus = "ARCHIVED"
)

// CasePriority enumerates urgency of a case.
type CasePriority string

const (
	CasePriorityLow    CasePriority = "LOW"
	CasePriorityMedium CasePriority = "MEDIUM"
	CasePriorityHigh   CasePriority = "HIGH"
	CasePriorityUrgent CasePriority = "URGENT"
)

// Case is the aggregate for legal matters across practice areas.
type Case struct {
	ID           string       `db:"id" json:"id"`
	CaseNumber   string       `db:"case_number" json:"case_number"`
	ClientID     string       `db:"client_id" json:"client_id"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	PracticeArea string       `db:"practice_area" json:"practice_area"`
	Status       CaseStatus   `db:"status" json:"status"`
	Priority     CasePriority `db:"priority" json:"priority"`
	OpenedBy     string       `db:"opened_by" json:"opened_by"`
	AssignedTo   *string      `db:"assigned_to" json:"assigned_to,omitempty"`
	AssignedBy   *string      `db:"assigned_by" json:"assigned_by,omitempty"`
	AssignedAt   *time.Time   `db:"assigned_at" json:"assigned_at,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
	ClosedAt     *time.Time   `db:"closed_at" json:"closed_at,omitempty"`
}

// CaseAnalytics aggregates counts for the dashboard endpoint.
type CaseAnalytics struct {
	Total      int64                  `json:"total"`
	Open       int64                  `json:"open"`
	ByStatus   map[CaseStatus]int64   `json:"by_status"`
	ByPriority map[CasePriority]int64 `json:"by_priority"`
}
