package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/practice-service/internal/service"
	apperrors "github.com/spec-kit/practice-service/pkg/util"
)

// ResourceHandler serves the uniform CRUD surface for one entity type. One
// instance per resource replaces the per-practice-area controller clones.
type ResourceHandler[T any] struct {
	service *service.ResourceService[T]
}

// NewResourceHandler constructs handler.
func NewResourceHandler[T any](svc *service.ResourceService[T]) *ResourceHandler[T] {
	return &ResourceHandler[T]{service: svc}
}

// Register wires the five CRUD routes under the given path.
func (h *ResourceHandler[T]) Register(router fiber.Router, path string) {
	group := router.Group(path)
	group.Get("/", h.List)
	group.Post("/", h.Create)
	group.Get("/:id", h.Get)
	group.Put("/:id", h.Update)
	group.Delete("/:id", h.Delete)
}

// Create POST /{resource}.
func (h *ResourceHandler[T]) Create(c *fiber.Ctx) error {
	attrs, err := parseAttrs(c)
	if err != nil {
		return err
	}
	item, err := h.service.Create(c.Context(), attrs)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": item})
}

// List GET /{resource}.
func (h *ResourceHandler[T]) List(c *fiber.Ctx) error {
	filter := parseListQuery(c)
	items, err := h.service.List(c.Context(), filter)
	if err != nil {
		return err
	}
	total, err := h.service.Count(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": items, "total": total})
}

// Get GET /{resource}/:id.
func (h *ResourceHandler[T]) Get(c *fiber.Ctx) error {
	item, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": item})
}

// Update PUT /{resource}/:id.
func (h *ResourceHandler[T]) Update(c *fiber.Ctx) error {
	attrs, err := parseAttrs(c)
	if err != nil {
		return err
	}
	item, err := h.service.Update(c.Context(), c.Params("id"), attrs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": item})
}

// Delete DELETE /{resource}/:id.
func (h *ResourceHandler[T]) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseAttrs(c *fiber.Ctx) (map[string]any, error) {
	var attrs map[string]any
	if err := json.Unmarshal(c.Body(), &attrs); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	return attrs, nil
}
