package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/practice-service/internal/auth"
	"github.com/spec-kit/practice-service/internal/config"
	"github.com/spec-kit/practice-service/internal/domain"
	"github.com/spec-kit/practice-service/internal/events"
	"github.com/spec-kit/practice-service/internal/ratelimit"
	"github.com/spec-kit/practice-service/internal/repository"
	apperrors "github.com/spec-kit/practice-service/pkg/util"
)

// LoginContext carries request metadata into the auth bookkeeping.
type LoginContext struct {
	IP        string
	UserAgent string
}

// LoginResult is everything a successful login produces.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
	SessionID string
}

// AuthService coordinates registration, login, lockout and session
// bookkeeping.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	tokenMgr   *auth.TokenManager
	limiter    *ratelimit.LoginLimiter
	dispatcher events.Dispatcher
	logger     *zap.Logger

	bcryptCost       int
	lockoutThreshold int
	lockoutWindow    time.Duration
	sessionTTL       time.Duration

	now func() time.Time
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Limiter     *ratelimit.LoginLimiter
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service from injected configuration.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:            deps.UserRepo,
		sessions:         deps.SessionRepo,
		tokenMgr:         auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		limiter:          deps.Limiter,
		dispatcher:       deps.Dispatcher,
		logger:           deps.Logger,
		bcryptCost:       cfg.Auth.BcryptCost,
		lockoutThreshold: cfg.Auth.LockoutThreshold,
		lockoutWindow:    cfg.Auth.LockoutWindow(),
		sessionTTL:       cfg.Auth.SessionTTL(),
		now:              time.Now,
	}
}

// Register creates a new firm account.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.UserRole) (*domain.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("name, email, password required", nil)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if role == "" {
		role = domain.RoleStaff
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates a user, maintaining the attempt counter, lockout state,
// login history and session list on both outcomes.
func (s *AuthService) Login(ctx context.Context, email, password string, lc LoginContext) (*LoginResult, error) {
	allowed, err := s.limiter.Allow(ctx, email, lc.IP)
	if err != nil && s.logger != nil {
		s.logger.Warn("login rate limiter unavailable", zap.Error(err))
	}
	if !allowed {
		return nil, apperrors.NewDomainError("RATE_LIMITED", "too many login attempts", 429, nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	if user.LockedNow(now) {
		return nil, apperrors.NewLocked(*user.LockedUntil, now)
	}
	if user.Status == domain.UserStatusSuspended {
		return nil, apperrors.NewForbidden("account suspended")
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if err := s.RecordLoginAttempt(ctx, user, false, lc.IP, lc.UserAgent, "invalid credentials"); err != nil {
			return nil, apperrors.MapError(err)
		}
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	if err := s.RecordLoginAttempt(ctx, user, true, lc.IP, lc.UserAgent, ""); err != nil {
		return nil, apperrors.MapError(err)
	}

	session, err := s.CreateSession(ctx, user.ID, lc)
	if err != nil {
		return nil, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role, session.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: exp, SessionID: session.ID}, nil
}

// RecordLoginAttempt maintains the attempt counter: success resets it and
// stamps last-login fields; failure increments it and, exactly at
// the threshold, locks the account for the configured window. Failures while
// already locked never extend the window. Both outcomes append to the
// login history.
func (s *AuthService) RecordLoginAttempt(ctx context.Context, user *domain.User, success bool, ip, userAgent, failureReason string) error {
	now := s.now()
	record := &domain.LoginRecord{
		UserID:    user.ID,
		Success:   success,
		IP:        ip,
		UserAgent: userAgent,
	}

	if success {
		if err := s.users.RecordLoginSuccess(ctx, user.ID, ip, userAgent, now); err != nil {
			return err
		}
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
		if user.Status == domain.UserStatusLocked {
			user.Status = domain.UserStatusActive
		}
		user.LastLoginAt = &now
		return s.users.AppendLoginHistory(ctx, record)
	}

	if failureReason != "" {
		record.FailureReason = &failureReason
	}

	attempts := user.FailedLoginAttempts + 1
	var lockedUntil *time.Time
	if attempts >= s.lockoutThreshold && !user.LockedNow(now) {
		until := now.Add(s.lockoutWindow)
		lockedUntil = &until
	}
	if err := s.users.RecordLoginFailure(ctx, user.ID, attempts, lockedUntil); err != nil {
		return err
	}
	user.FailedLoginAttempts = attempts
	if lockedUntil != nil {
		user.Status = domain.UserStatusLocked
		user.LockedUntil = lockedUntil
		s.publishLocked(ctx, user.ID, *lockedUntil)
	}
	return s.users.AppendLoginHistory(ctx, record)
}

// CreateSession appends a new active session with an opaque identifier.
func (s *AuthService) CreateSession(ctx context.Context, userID string, lc LoginContext) (*domain.Session, error) {
	now := s.now()
	session := &domain.Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		IP:             lc.IP,
		UserAgent:      lc.UserAgent,
		Active:         true,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperrors.MapError(err)
	}
	return session, nil
}

// EndSession marks the session inactive by identifier; the row is kept.
func (s *AuthService) EndSession(ctx context.Context, sessionID string) error {
	ended, err := s.sessions.End(ctx, sessionID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !ended {
		return apperrors.NewNotFound("session", map[string]any{"session_id": sessionID})
	}
	return nil
}

// ListSessions returns the user's sessions, newest first.
func (s *AuthService) ListSessions(ctx context.Context, userID string, limit int) ([]domain.Session, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return sessions, nil
}

// ListLoginHistory returns the user's recent login attempts.
func (s *AuthService) ListLoginHistory(ctx context.Context, userID string, limit int) ([]domain.LoginRecord, error) {
	records, err := s.users.ListLoginHistory(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publishLocked(ctx context.Context, userID string, until time.Time) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserLocked,
		ActorID:   userID,
		Timestamp: s.now(),
		Payload:   events.UserLockedPayload{UserID: userID, LockedUntil: until},
	})
}
