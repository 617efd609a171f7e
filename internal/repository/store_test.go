package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/practice-service/internal/domain"
	apperrors "github.com/spec-kit/practice-service/pkg/util"
)

var caseSpec = TableSpec{
	Name:     "cases",
	Resource: "case",
	Columns: []string{"id", "case_number", "client_id", "title", "description",
		"practice_area", "status", "priority", "opened_by", "assigned_to",
		"assigned_by", "assigned_at", "created_at", "updated_at", "closed_at"},
	Required:   []string{"case_number", "client_id", "title", "opened_by"},
	SearchCols: []string{"title", "description", "case_number"},
	SortCols:   []string{"created_at", "updated_at", "priority", "status"},
}

func domainErr(t *testing.T, err error) *apperrors.DomainError {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	return de
}

func TestValidateAttrs_MissingRequired(t *testing.T) {
	store := NewStore[domain.Case](nil, caseSpec)

	err := store.validateAttrs(map[string]any{"title": "Estate dispute"}, true)
	de := domainErr(t, err)

	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Contains(t, de.Details, "case_number")
	assert.Contains(t, de.Details, "client_id")
	assert.Contains(t, de.Details, "opened_by")
	assert.NotContains(t, de.Details, "title")
}

func TestValidateAttrs_BlankRequired(t *testing.T) {
	store := NewStore[domain.Case](nil, caseSpec)

	err := store.validateAttrs(map[string]any{
		"case_number": "CASE-1",
		"client_id":   "c1",
		"title":       "   ",
		"opened_by":   "u1",
	}, true)
	de := domainErr(t, err)

	assert.Equal(t, map[string]any{"title": "required"}, de.Details)
}

func TestValidateAttrs_StoreManagedAndUnknown(t *testing.T) {
	store := NewStore[domain.Case](nil, caseSpec)

	err := store.validateAttrs(map[string]any{
		"id":         "forced",
		"created_at": time.Now(),
		"priority":   "HIGH",
		"budget":     100,
	}, false)
	de := domainErr(t, err)

	assert.Equal(t, "store-managed attribute", de.Details["id"])
	assert.Equal(t, "store-managed attribute", de.Details["created_at"])
	assert.Equal(t, "unknown attribute", de.Details["budget"])
	assert.NotContains(t, de.Details, "priority")
}

func TestValidateAttrs_UpdateSkipsRequiredCheck(t *testing.T) {
	store := NewStore[domain.Case](nil, caseSpec)

	require.NoError(t, store.validateAttrs(map[string]any{"priority": "LOW"}, false))
}

func TestList_RejectsUnknownSortColumn(t *testing.T) {
	store := NewStore[domain.Case](nil, caseSpec)

	_, err := store.List(context.Background(), Filter{SortBy: "password_hash"})
	de := domainErr(t, err)

	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, "password_hash", de.Details["sort_by"])
}

func TestList_RejectsUnknownFilterColumn(t *testing.T) {
	store := NewStore[domain.Case](nil, caseSpec)

	_, err := store.List(context.Background(), Filter{Eq: map[string]any{"secret": "x"}})
	de := domainErr(t, err)

	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, "secret", de.Details["column"])
}

func TestApplyFilter_BuildsSearchAndRangeSQL(t *testing.T) {
	store := NewStore[domain.Case](nil, caseSpec)
	term := "fraud"
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	builder := psql.Select("*").From(caseSpec.Name)
	builder, err := store.applyFilter(builder, Filter{
		Eq:          map[string]any{"status": []string{"OPEN", "IN_PROGRESS"}},
		Search:      &term,
		CreatedFrom: &from,
		CreatedTo:   &to,
	})
	require.NoError(t, err)

	query, args, err := builder.ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "status IN ($1,$2)")
	assert.Contains(t, query, "title ILIKE $3", "search must OR over configured columns")
	assert.Contains(t, query, "description ILIKE $4")
	assert.Contains(t, query, "case_number ILIKE $5")
	assert.Contains(t, query, "created_at >= $6")
	assert.Contains(t, query, "created_at <= $7")
	assert.Contains(t, args, "%fraud%")
	assert.Contains(t, args, from)
	assert.Contains(t, args, to)
}

func TestApplyFilter_BlankSearchIgnored(t *testing.T) {
	store := NewStore[domain.Case](nil, caseSpec)
	term := "   "

	builder := psql.Select("*").From(caseSpec.Name)
	builder, err := store.applyFilter(builder, Filter{Search: &term})
	require.NoError(t, err)

	query, _, err := builder.ToSql()
	require.NoError(t, err)
	assert.NotContains(t, query, "ILIKE")
}

func TestUpdate_RejectsEmptyAttrs(t *testing.T) {
	store := NewStore[domain.Case](nil, caseSpec)

	_, err := store.Update(context.Background(), "some-id", map[string]any{})
	de := domainErr(t, err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
}

func TestUpdateSQL_BumpsUpdatedAt(t *testing.T) {
	query, _, err := psql.Update(caseSpec.Name).
		SetMap(map[string]any{"priority": "HIGH"}).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": "abc"}).
		Suffix("RETURNING *").
		ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "updated_at = NOW()")
	assert.Contains(t, query, "RETURNING *")
}

func TestIsBlank(t *testing.T) {
	assert.True(t, isBlank(nil))
	assert.True(t, isBlank(""))
	assert.True(t, isBlank("  \t"))
	assert.False(t, isBlank("x"))
	assert.False(t, isBlank(0))
	assert.False(t, isBlank(false))
}
