package dto

import "github.com/spec-kit/practice-service/internal/domain"

// CreateCaseRequest payload for opening a case.
type CreateCaseRequest struct {
	ClientID     string              `json:"client_id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	PracticeArea string              `json:"practice_area"`
	Priority     domain.CasePriority `json:"priority"`
}

// AssignCaseRequest payload for PUT /cases/:id/assign.
type AssignCaseRequest struct {
	AssignedTo string `json:"assigned_to"`
	Reason     string `json:"reason"`
}

// ChangeStatusRequest payload for PUT /cases/:id/status.
type ChangeStatusRequest struct {
	Status domain.CaseStatus `json:"status"`
}

// AddNoteRequest payload for POST /cases/:id/notes.
type AddNoteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
