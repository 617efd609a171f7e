package events

import (
	"time"

	"github.com/spec-kit/practice-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseCreated       EventType = "case_created"
	EventCaseAssigned      EventType = "case_assigned"
	EventCaseStatusChanged EventType = "case_status_changed"
	EventCaseNoteAdded     EventType = "case_note_added"
	EventUserLocked        EventType = "user_locked"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CaseID    string      `json:"case_id,omitempty"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CaseCreatedPayload payload.
type CaseCreatedPayload struct {
	CaseNumber   string              `json:"case_number"`
	ClientID     string              `json:"client_id"`
	PracticeArea string              `json:"practice_area"`
	Priority     domain.CasePriority `json:"priority"`
	Title        string              `json:"title"`
}

// CaseAssignedPayload payload.
type CaseAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
	AssignedBy string `json:"assigned_by"`
	Reason     string `json:"reason,omitempty"`
}

// CaseStatusChangedPayload payload.
type CaseStatusChangedPayload struct {
	OldStatus domain.CaseStatus `json:"old_status"`
	NewStatus domain.CaseStatus `json:"new_status"`
}

// CaseNoteAddedPayload payload.
type CaseNoteAddedPayload struct {
	EventID     string `json:"event_id"`
	BodyPreview string `json:"body_preview"`
}

// UserLockedPayload payload.
type UserLockedPayload struct {
	UserID      string    `json:"user_id"`
	LockedUntil time.Time `json:"locked_until"`
}
