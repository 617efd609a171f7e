package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/practice-service/internal/api/dto"
	"github.com/spec-kit/practice-service/internal/auth"
	"github.com/spec-kit/practice-service/internal/service"
	apperrors "github.com/spec-kit/practice-service/pkg/util"
)

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.Register(c.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"user": user}})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.auth.Login(c.Context(), req.Email, req.Password, service.LoginContext{
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": result.User,
			"auth": dto.AuthResponse{
				Token:     result.Token,
				ExpiresAt: result.ExpiresAt,
				SessionID: result.SessionID,
			},
		},
	})
}

// Logout handles POST /auth/logout by ending the current session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.SessionID == "" {
		return apperrors.NewUnauthorized("session required")
	}
	if err := h.auth.EndSession(c.Context(), principal.SessionID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListSessions handles GET /auth/sessions.
func (h *AuthHandler) ListSessions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	sessions, err := h.auth.ListSessions(c.Context(), principal.User.ID, parseInt(c.Query("limit"), 20))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessions})
}

// LoginHistory handles GET /auth/login-history.
func (h *AuthHandler) LoginHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	records, err := h.auth.ListLoginHistory(c.Context(), principal.User.ID, parseInt(c.Query("limit"), 50))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": records})
}
