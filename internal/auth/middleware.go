package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/practice-service/internal/domain"
	"github.com/spec-kit/practice-service/internal/repository"
	apperrors "github.com/spec-kit/practice-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User      *domain.User
	SessionID string
}

// AuthMiddleware validates bearer tokens and loads the user principal.
type AuthMiddleware struct {
	tokens   *TokenManager
	users    repository.UserRepository
	sessions repository.SessionRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, sessions repository.SessionRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, sessions: sessions}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}
	if user.Status == domain.UserStatusSuspended {
		return apperrors.NewForbidden("account suspended")
	}

	if claims.SessionID != "" {
		// Touching the session bumps its activity stamp and rejects
		// tokens whose session was ended or expired server-side.
		if err := m.sessions.Touch(c.Context(), claims.SessionID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("session ended")
			}
			return apperrors.MapError(err)
		}
	}

	c.Locals(principalKey, &Principal{User: user, SessionID: claims.SessionID})
	return c.Next()
}

// RequireRole restricts a route to the given roles.
func RequireRole(roles ...domain.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		for _, role := range roles {
			if principal.User.Role == role {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient role")
	}
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
