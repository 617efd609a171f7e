package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThrough(t *testing.T) {
	orig := NewNotFound("case", map[string]any{"case_id": "c1"})

	mapped := ToDomainError(fmt.Errorf("service: %w", orig))
	assert.Equal(t, "NOT_FOUND", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
	assert.Equal(t, "c1", mapped.Details["case_id"])
}

func TestToDomainError_NoRowsBecomesNotFound(t *testing.T) {
	mapped := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", mapped.Code)
}

func TestToDomainError_UnknownBecomesInternal(t *testing.T) {
	cause := errors.New("connection refused")
	mapped := ToDomainError(cause)

	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
	assert.ErrorIs(t, mapped, cause)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestNewLocked_RetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	until := now.Add(25 * time.Minute)

	err := NewLocked(until, now)
	var de *DomainError
	require.True(t, errors.As(err, &de))

	assert.Equal(t, "ACCOUNT_LOCKED", de.Code)
	assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
	assert.Equal(t, int64(25*60), de.Details["retry_after_seconds"])
	assert.Equal(t, until, de.Details["locked_until"])
}

func TestNewLocked_ElapsedWindowClampsToZero(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	err := NewLocked(now.Add(-time.Minute), now)
	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, int64(0), de.Details["retry_after_seconds"])
}
