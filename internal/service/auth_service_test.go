package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/practice-service/internal/auth"
	"github.com/spec-kit/practice-service/internal/config"
	"github.com/spec-kit/practice-service/internal/domain"
	"github.com/spec-kit/practice-service/internal/events"
	apperrors "github.com/spec-kit/practice-service/pkg/util"
)

type fakeUserRepo struct {
	users   map[string]*domain.User
	history []domain.LoginRecord
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*domain.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = "user-" + strconv.Itoa(len(r.users)+1)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) RecordLoginSuccess(_ context.Context, id, ip, userAgent string, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	if u.Status == domain.UserStatusLocked {
		u.Status = domain.UserStatusActive
	}
	u.LastLoginAt = &at
	u.LastLoginIP = &ip
	u.LastLoginUserAgent = &userAgent
	return nil
}

func (r *fakeUserRepo) RecordLoginFailure(_ context.Context, id string, attempts int, lockedUntil *time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.FailedLoginAttempts = attempts
	if lockedUntil != nil {
		u.Status = domain.UserStatusLocked
		u.LockedUntil = lockedUntil
	}
	return nil
}

func (r *fakeUserRepo) AppendLoginHistory(_ context.Context, record *domain.LoginRecord) error {
	record.ID = "rec-" + strconv.Itoa(len(r.history)+1)
	record.CreatedAt = time.Now()
	r.history = append(r.history, *record)
	return nil
}

func (r *fakeUserRepo) ListLoginHistory(_ context.Context, userID string, limit int) ([]domain.LoginRecord, error) {
	var result []domain.LoginRecord
	for i := len(r.history) - 1; i >= 0 && len(result) < limit; i-- {
		if r.history[i].UserID == userID {
			result = append(result, r.history[i])
		}
	}
	return result, nil
}

type fakeSessionRepo struct {
	sessions map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*domain.Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *domain.Session) error {
	session.CreatedAt = time.Now()
	stored := *session
	r.sessions[session.ID] = &stored
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) ListByUser(_ context.Context, userID string, _ int) ([]domain.Session, error) {
	var result []domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (r *fakeSessionRepo) Touch(_ context.Context, id string) error {
	s, ok := r.sessions[id]
	if !ok || !s.Active {
		return pgx.ErrNoRows
	}
	s.LastActivityAt = time.Now()
	return nil
}

func (r *fakeSessionRepo) End(_ context.Context, id string) (bool, error) {
	s, ok := r.sessions[id]
	if !ok || !s.Active {
		return false, nil
	}
	s.Active = false
	return true, nil
}

type authFixture struct {
	svc        *AuthService
	users      *fakeUserRepo
	sessions   *fakeSessionRepo
	dispatcher *recordingDispatcher
	now        *time.Time
}

func newAuthFixture(t *testing.T, users ...*domain.User) *authFixture {
	t.Helper()
	repo := newFakeUserRepo(users...)
	sessions := newFakeSessionRepo()
	dispatcher := &recordingDispatcher{}

	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		SessionTTLHours:       12,
		BcryptCost:            bcrypt.MinCost,
		LockoutThreshold:      5,
		LockoutMinutes:        30,
	}}
	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:    repo,
		SessionRepo: sessions,
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	now := &base
	svc.now = func() time.Time { return *now }

	return &authFixture{svc: svc, users: repo, sessions: sessions, dispatcher: dispatcher, now: now}
}

func (f *authFixture) advance(d time.Duration) {
	*f.now = f.now.Add(d)
}

func activeUser(t *testing.T, id, email, password string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           id,
		Name:         "Test Attorney",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAttorney,
		Status:       domain.UserStatusActive,
	}
}

func loginCtx() LoginContext {
	return LoginContext{IP: "10.0.0.5", UserAgent: "go-test"}
}

func assertCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	assert.Equal(t, code, de.Code)
	return de
}

func TestLogin_Success(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t, "user-1", "a@firm.test", "correct-horse"))

	result, err := fx.svc.Login(context.Background(), "a@firm.test", "correct-horse", loginCtx())
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, "user-1", result.User.ID)

	stored := fx.users.users["user-1"]
	assert.Zero(t, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, *fx.now, *stored.LastLoginAt)

	session, err := fx.sessions.GetByID(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.True(t, session.Active)
	assert.Equal(t, fx.now.Add(12*time.Hour), session.ExpiresAt)

	require.Len(t, fx.users.history, 1)
	assert.True(t, fx.users.history[0].Success)
}

func TestLogin_WrongPasswordIncrementsCounter(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t, "user-1", "a@firm.test", "correct-horse"))

	_, err := fx.svc.Login(context.Background(), "a@firm.test", "wrong", loginCtx())
	assertCode(t, err, "UNAUTHORIZED")

	stored := fx.users.users["user-1"]
	assert.Equal(t, 1, stored.FailedLoginAttempts)
	assert.Equal(t, domain.UserStatusActive, stored.Status)
	assert.Empty(t, fx.sessions.sessions)

	require.Len(t, fx.users.history, 1)
	assert.False(t, fx.users.history[0].Success)
	require.NotNil(t, fx.users.history[0].FailureReason)
}

func TestLogin_UnknownEmail(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.svc.Login(context.Background(), "nobody@firm.test", "whatever", loginCtx())
	assertCode(t, err, "UNAUTHORIZED")
}

func TestLogin_SuspendedAccount(t *testing.T) {
	user := activeUser(t, "user-1", "a@firm.test", "correct-horse")
	user.Status = domain.UserStatusSuspended
	fx := newAuthFixture(t, user)

	_, err := fx.svc.Login(context.Background(), "a@firm.test", "correct-horse", loginCtx())
	assertCode(t, err, "FORBIDDEN")
}

func TestLockout_FifthFailureLocksForWindow(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t, "user-1", "a@firm.test", "correct-horse"))

	for i := 0; i < 5; i++ {
		_, err := fx.svc.Login(context.Background(), "a@firm.test", "wrong", loginCtx())
		assertCode(t, err, "UNAUTHORIZED")
	}

	stored := fx.users.users["user-1"]
	assert.Equal(t, 5, stored.FailedLoginAttempts)
	assert.Equal(t, domain.UserStatusLocked, stored.Status)
	require.NotNil(t, stored.LockedUntil)
	assert.Equal(t, fx.now.Add(30*time.Minute), *stored.LockedUntil)

	require.Len(t, fx.dispatcher.published, 1)
	assert.Equal(t, events.EventUserLocked, fx.dispatcher.published[0].Type)
}

func TestLockout_LoginWhileLockedReportsRetryAfter(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t, "user-1", "a@firm.test", "correct-horse"))

	for i := 0; i < 5; i++ {
		_, _ = fx.svc.Login(context.Background(), "a@firm.test", "wrong", loginCtx())
	}
	fx.advance(10 * time.Minute)

	_, err := fx.svc.Login(context.Background(), "a@firm.test", "correct-horse", loginCtx())
	de := assertCode(t, err, "ACCOUNT_LOCKED")
	assert.Equal(t, int64(20*60), de.Details["retry_after_seconds"])
}

func TestLockout_RepeatFailureKeepsOriginalWindow(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t, "user-1", "a@firm.test", "correct-horse"))

	for i := 0; i < 5; i++ {
		_, _ = fx.svc.Login(context.Background(), "a@firm.test", "wrong", loginCtx())
	}
	lockedUntil := *fx.users.users["user-1"].LockedUntil

	fx.advance(5 * time.Minute)
	_, err := fx.svc.Login(context.Background(), "a@firm.test", "wrong", loginCtx())
	assertCode(t, err, "ACCOUNT_LOCKED")

	assert.Equal(t, lockedUntil, *fx.users.users["user-1"].LockedUntil,
		"a failure during an active lockout must not extend the window")
	assert.Len(t, fx.dispatcher.published, 1)
}

func TestLockout_ExpiredWindowAllowsLogin(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t, "user-1", "a@firm.test", "correct-horse"))

	for i := 0; i < 5; i++ {
		_, _ = fx.svc.Login(context.Background(), "a@firm.test", "wrong", loginCtx())
	}
	fx.advance(31 * time.Minute)

	result, err := fx.svc.Login(context.Background(), "a@firm.test", "correct-horse", loginCtx())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	stored := fx.users.users["user-1"]
	assert.Equal(t, domain.UserStatusActive, stored.Status)
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)
}

func TestLockout_ExpiredWindowFailureRelocks(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t, "user-1", "a@firm.test", "correct-horse"))

	for i := 0; i < 5; i++ {
		_, _ = fx.svc.Login(context.Background(), "a@firm.test", "wrong", loginCtx())
	}
	fx.advance(31 * time.Minute)

	_, err := fx.svc.Login(context.Background(), "a@firm.test", "wrong", loginCtx())
	assertCode(t, err, "UNAUTHORIZED")

	stored := fx.users.users["user-1"]
	assert.Equal(t, 6, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockedUntil)
	assert.Equal(t, fx.now.Add(30*time.Minute), *stored.LockedUntil)
}

func TestRegister_DefaultsRole(t *testing.T) {
	fx := newAuthFixture(t)

	user, err := fx.svc.Register(context.Background(), "New Hire", "n@firm.test", "s3cret", "")
	require.NoError(t, err)

	assert.Equal(t, domain.RoleStaff, user.Role)
	assert.Equal(t, domain.UserStatusActive, user.Status)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t, "user-1", "a@firm.test", "pw"))

	_, err := fx.svc.Register(context.Background(), "Other", "a@firm.test", "pw2", domain.RoleStaff)
	assertCode(t, err, "CONFLICT")
}

func TestRegister_RequiresFields(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.svc.Register(context.Background(), "", "a@firm.test", "pw", "")
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestEndSession_MarksInactiveKeepsRow(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t, "user-1", "a@firm.test", "correct-horse"))

	result, err := fx.svc.Login(context.Background(), "a@firm.test", "correct-horse", loginCtx())
	require.NoError(t, err)

	require.NoError(t, fx.svc.EndSession(context.Background(), result.SessionID))

	session, err := fx.sessions.GetByID(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.False(t, session.Active)
}

func TestEndSession_UnknownID(t *testing.T) {
	fx := newAuthFixture(t)

	err := fx.svc.EndSession(context.Background(), "missing-session")
	assertCode(t, err, "NOT_FOUND")
}
