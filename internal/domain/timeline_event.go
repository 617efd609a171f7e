package domain

import "time"

// TimelineEventType captures what kind of case activity an entry records.
type TimelineEventType string

const (
	EventTypeAssignment   TimelineEventType = "ASSIGNMENT"
	EventTypeNote         TimelineEventType = "NOTE"
	EventTypeStatusChange TimelineEventType = "STATUS_CHANGE"
)

// TimelineEvent is an immutable audit trail entry attached to a case.
// The generic layer never updates or deletes these rows.
type TimelineEvent struct {
	ID          string            `db:"id" json:"id"`
	CaseID      string            `db:"case_id" json:"case_id"`
	EventType   TimelineEventType `db:"event_type" json:"event_type"`
	Title       string            `db:"title" json:"title"`
	Description string            `db:"description" json:"description"`
	CreatedBy   string            `db:"created_by" json:"created_by"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}
