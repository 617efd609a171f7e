package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/practice-service/internal/domain"
	"github.com/spec-kit/practice-service/internal/events"
	"github.com/spec-kit/practice-service/internal/repository"
	apperrors "github.com/spec-kit/practice-service/pkg/util"
)

// CaseService coordinates case workflows: CRUD through the generic store plus
// the assignment/status/note operations that append timeline events.
type CaseService struct {
	store      *repository.Store[domain.Case]
	cases      repository.CaseRepository
	timeline   repository.TimelineEventRepository
	tx         repository.CaseTxRunner
	dispatcher events.Dispatcher
}

// CaseDependencies bundles repositories for the case service.
type CaseDependencies struct {
	Store      *repository.Store[domain.Case]
	CaseRepo   repository.CaseRepository
	Timeline   repository.TimelineEventRepository
	TxRunner   repository.CaseTxRunner
	Dispatcher events.Dispatcher
}

// CaseCreateInput describes case creation payload.
type CaseCreateInput struct {
	ClientID     string
	Title        string
	Description  string
	PracticeArea string
	Priority     domain.CasePriority
}

// NewCaseService constructs the service.
func NewCaseService(deps CaseDependencies) *CaseService {
	return &CaseService{
		store:      deps.Store,
		cases:      deps.CaseRepo,
		timeline:   deps.Timeline,
		tx:         deps.TxRunner,
		dispatcher: deps.Dispatcher,
	}
}

// Create opens a new case with a generated case number.
func (s *CaseService) Create(ctx context.Context, openedBy string, input CaseCreateInput) (*domain.Case, error) {
	priority := input.Priority
	if priority == "" {
		priority = domain.CasePriorityMedium
	}
	attrs := map[string]any{
		"case_number":   generateCaseNumber(),
		"client_id":     input.ClientID,
		"title":         strings.TrimSpace(input.Title),
		"description":   strings.TrimSpace(input.Description),
		"practice_area": strings.TrimSpace(input.PracticeArea),
		"status":        domain.CaseStatusOpen,
		"priority":      priority,
		"opened_by":     openedBy,
	}
	created, err := s.store.Create(ctx, attrs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseCreated,
		CaseID:  created.ID,
		ActorID: openedBy,
		Payload: events.CaseCreatedPayload{
			CaseNumber:   created.CaseNumber,
			ClientID:     created.ClientID,
			PracticeArea: created.PracticeArea,
			Priority:     created.Priority,
			Title:        created.Title,
		},
	})
	return created, nil
}

// Get fetches one case by id.
func (s *CaseService) Get(ctx context.Context, id string) (*domain.Case, error) {
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return c, nil
}

// List queries cases through the generic filter grammar.
func (s *CaseService) List(ctx context.Context, filter repository.Filter) ([]domain.Case, error) {
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// ListByStatus returns cases in any of the given statuses.
// Count reports how many cases match the filter, ignoring pagination.
func (s *CaseService) Count(ctx context.Context, filter repository.Filter) (int64, error) {
	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return total, nil
}

func (s *CaseService) ListByStatus(ctx context.Context, statuses []domain.CaseStatus, limit, offset int) ([]domain.Case, error) {
	return s.List(ctx, repository.Filter{
		Eq:       map[string]any{"status": statuses},
		SortBy:   "updated_at",
		SortDesc: true,
		Limit:    limit,
		Offset:   offset,
	})
}

// ListAssignedTo returns the caller's case load.
func (s *CaseService) ListAssignedTo(ctx context.Context, userID string, limit, offset int) ([]domain.Case, error) {
	return s.List(ctx, repository.Filter{
		Eq:       map[string]any{"assigned_to": userID},
		SortBy:   "updated_at",
		SortDesc: true,
		Limit:    limit,
		Offset:   offset,
	})
}

// Update merges attributes into an existing case.
func (s *CaseService) Update(ctx context.Context, id string, attrs map[string]any) (*domain.Case, error) {
	updated, err := s.store.Update(ctx, id, attrs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return updated, nil
}

// Delete removes a case.
func (s *CaseService) Delete(ctx context.Context, id string) error {
	existed, err := s.store.Delete(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !existed {
		return apperrors.NewNotFound("case", map[string]any{"case_id": id})
	}
	return nil
}

// Assign writes the assignment fields and appends the matching timeline event
// in one transaction, so a crash cannot leave the case updated without its
// audit entry. An absent case returns NotFound, matching Update's contract.
func (s *CaseService) Assign(ctx context.Context, caseID, assigneeID, assignedBy, reason string) (*domain.Case, error) {
	if strings.TrimSpace(assigneeID) == "" {
		return nil, apperrors.NewValidationError("assignee required", map[string]any{"assigned_to": "required"})
	}
	now := time.Now()
	var updated *domain.Case
	err := s.tx.Run(ctx, func(cases repository.CaseRepository, timeline repository.TimelineEventRepository) error {
		c, err := cases.UpdateAssignment(ctx, caseID, assigneeID, assignedBy, now)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
			}
			return err
		}
		if err := timeline.Create(ctx, &domain.TimelineEvent{
			CaseID:      c.ID,
			EventType:   domain.EventTypeAssignment,
			Title:       "Case Assigned",
			Description: assignmentDescription(assigneeID, assignedBy, reason),
			CreatedBy:   assignedBy,
		}); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseAssigned,
		CaseID:  updated.ID,
		ActorID: assignedBy,
		Payload: events.CaseAssignedPayload{
			AssigneeID: assigneeID,
			AssignedBy: assignedBy,
			Reason:     reason,
		},
	})
	return updated, nil
}

// ChangeStatus transitions the case and records the change, in one transaction.
func (s *CaseService) ChangeStatus(ctx context.Context, caseID string, status domain.CaseStatus, actorID string) (*domain.Case, error) {
	if !validCaseStatus(status) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}
	now := time.Now()
	var (
		updated   *domain.Case
		oldStatus domain.CaseStatus
		changed   bool
	)
	err := s.tx.Run(ctx, func(cases repository.CaseRepository, timeline repository.TimelineEventRepository) error {
		current, err := cases.GetByID(ctx, caseID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
			}
			return err
		}
		if current.Status == status {
			updated = current
			return nil
		}
		c, err := cases.UpdateStatus(ctx, caseID, status, now)
		if err != nil {
			return err
		}
		if err := timeline.Create(ctx, &domain.TimelineEvent{
			CaseID:      c.ID,
			EventType:   domain.EventTypeStatusChange,
			Title:       "Status Changed",
			Description: fmt.Sprintf("Status changed from %s to %s", current.Status, status),
			CreatedBy:   actorID,
		}); err != nil {
			return err
		}
		oldStatus = current.Status
		changed = true
		updated = c
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if changed {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventCaseStatusChanged,
			CaseID:  updated.ID,
			ActorID: actorID,
			Payload: events.CaseStatusChangedPayload{OldStatus: oldStatus, NewStatus: status},
		})
	}
	return updated, nil
}

// AddNote appends a NOTE timeline event to the case.
func (s *CaseService) AddNote(ctx context.Context, caseID, authorID, title, body string) (*domain.TimelineEvent, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("note body required", map[string]any{"body": "required"})
	}
	if _, err := s.Get(ctx, caseID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		title = "Note"
	}
	event := &domain.TimelineEvent{
		CaseID:      caseID,
		EventType:   domain.EventTypeNote,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(body),
		CreatedBy:   authorID,
	}
	if err := s.timeline.Create(ctx, event); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseNoteAdded,
		CaseID:  caseID,
		ActorID: authorID,
		Payload: events.CaseNoteAddedPayload{
			EventID:     event.ID,
			BodyPreview: preview(event.Description, 80),
		},
	})
	return event, nil
}

// Timeline lists the case's audit trail, newest first.
func (s *CaseService) Timeline(ctx context.Context, caseID string, limit int) ([]domain.TimelineEvent, error) {
	if _, err := s.Get(ctx, caseID); err != nil {
		return nil, err
	}
	entries, err := s.timeline.ListByCase(ctx, caseID, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Analytics aggregates case counts for the dashboard.
func (s *CaseService) Analytics(ctx context.Context) (*domain.CaseAnalytics, error) {
	analytics, err := s.cases.Analytics(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return analytics, nil
}

func (s *CaseService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func assignmentDescription(assigneeID, assignedBy, reason string) string {
	desc := fmt.Sprintf("Case assigned to %s by %s", assigneeID, assignedBy)
	if strings.TrimSpace(reason) != "" {
		desc += ": " + strings.TrimSpace(reason)
	}
	return desc
}

func validCaseStatus(status domain.CaseStatus) bool {
	switch status {
	case domain.CaseStatusOpen, domain.CaseStatusInProgress, domain.CaseStatusPending,
		domain.CaseStatusClosed, domain.CaseStatusArchived:
		return true
	}
	return false
}

func preview(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max])
}

func generateCaseNumber() string {
	return "CASE-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
