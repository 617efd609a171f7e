package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/practice-service/internal/api/dto"
	"github.com/spec-kit/practice-service/internal/auth"
	"github.com/spec-kit/practice-service/internal/domain"
	"github.com/spec-kit/practice-service/internal/service"
	apperrors "github.com/spec-kit/practice-service/pkg/util"
)

// CasesHandler manages case endpoints, including the assignment and timeline
// routes layered on top of plain CRUD.
type CasesHandler struct {
	service *service.CaseService
}

// NewCasesHandler constructs handler.
func NewCasesHandler(caseService *service.CaseService) *CasesHandler {
	return &CasesHandler{service: caseService}
}

// Create POST /cases.
func (h *CasesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	created, err := h.service.Create(c.Context(), principal.User.ID, service.CaseCreateInput{
		ClientID:     req.ClientID,
		Title:        req.Title,
		Description:  req.Description,
		PracticeArea: req.PracticeArea,
		Priority:     req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": created})
}

// List GET /cases. Supports ?status= as a comma separated list on top of the
// shared list query grammar.
func (h *CasesHandler) List(c *fiber.Ctx) error {
	filter := parseListQuery(c)
	if statusStr := c.Query("status"); statusStr != "" {
		statuses := []domain.CaseStatus{}
		for _, part := range strings.Split(statusStr, ",") {
			statuses = append(statuses, domain.CaseStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
		filter.Eq = map[string]any{"status": statuses}
	}
	cases, err := h.service.List(c.Context(), filter)
	if err != nil {
		return err
	}
	total, err := h.service.Count(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": cases, "total": total})
}

// MyCases GET /cases/my-cases.
func (h *CasesHandler) MyCases(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	cases, err := h.service.ListAssignedTo(c.Context(), principal.User.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": cases})
}

// Analytics GET /cases/analytics.
func (h *CasesHandler) Analytics(c *fiber.Ctx) error {
	analytics, err := h.service.Analytics(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": analytics})
}

// Get GET /cases/:id.
func (h *CasesHandler) Get(c *fiber.Ctx) error {
	found, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": found})
}

// Update PUT /cases/:id.
func (h *CasesHandler) Update(c *fiber.Ctx) error {
	var attrs map[string]any
	if err := json.Unmarshal(c.Body(), &attrs); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.Update(c.Context(), c.Params("id"), attrs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": updated})
}

// Delete DELETE /cases/:id.
func (h *CasesHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Assign PUT /cases/:id/assign.
func (h *CasesHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.Assign(c.Context(), c.Params("id"), req.AssignedTo, principal.User.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": updated})
}

// ChangeStatus PUT /cases/:id/status.
func (h *CasesHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.ChangeStatus(c.Context(), c.Params("id"), req.Status, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": updated})
}

// AddNote POST /cases/:id/notes.
func (h *CasesHandler) AddNote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	note, err := h.service.AddNote(c.Context(), c.Params("id"), principal.User.ID, req.Title, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": note})
}

// Timeline GET /cases/:id/timeline.
func (h *CasesHandler) Timeline(c *fiber.Ctx) error {
	entries, err := h.service.Timeline(c.Context(), c.Params("id"), parseInt(c.Query("limit"), 100))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}
