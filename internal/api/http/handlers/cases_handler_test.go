package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/practice-service/internal/domain"
	"github.com/spec-kit/practice-service/internal/repository"
	"github.com/spec-kit/practice-service/internal/repository/repositorytest"
	"github.com/spec-kit/practice-service/internal/service"
)

var caseColumns = []string{"id", "case_number", "client_id", "title", "description",
	"practice_area", "status", "priority", "opened_by", "assigned_to",
	"assigned_by", "assigned_at", "created_at", "updated_at", "closed_at"}

func caseListRows(cases ...domain.Case) *repositorytest.Rows {
	data := make([][]any, len(cases))
	for i, c := range cases {
		data[i] = []any{c.ID, c.CaseNumber, c.ClientID, c.Title, c.Description,
			c.PracticeArea, c.Status, c.Priority, c.OpenedBy, c.AssignedTo,
			c.AssignedBy, c.AssignedAt, c.CreatedAt, c.UpdatedAt, c.ClosedAt}
	}
	return repositorytest.NewRows(caseColumns, data...)
}

func caseListApp(q *repositorytest.Querier) *fiber.App {
	store := repository.NewStore[domain.Case](q, repository.TableSpec{
		Name:       "cases",
		Resource:   "case",
		Columns:    caseColumns,
		Required:   []string{"case_number", "client_id", "title", "opened_by"},
		SearchCols: []string{"title", "description", "case_number"},
		SortCols:   []string{"created_at", "updated_at", "priority", "status"},
	})
	handler := NewCasesHandler(service.NewCaseService(service.CaseDependencies{Store: store}))

	app := fiber.New()
	app.Get("/cases", handler.List)
	return app
}

func TestCasesList_ResponseCarriesTotal(t *testing.T) {
	now := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	open := domain.Case{
		ID:           "case-1",
		CaseNumber:   "CASE-9F8E7D6C",
		ClientID:     "client-1",
		Title:        "Contract breach",
		PracticeArea: "CORPORATE",
		Status:       domain.CaseStatusOpen,
		Priority:     domain.CasePriorityHigh,
		OpenedBy:     "user-1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	q := &repositorytest.Querier{}
	q.EnqueueRows(caseListRows(open))
	q.EnqueueRow(int64(12))
	app := caseListApp(q)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/cases?page_size=1", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload struct {
		Data  []domain.Case `json:"data"`
		Total int64         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "case-1", payload.Data[0].ID)
	assert.Equal(t, int64(12), payload.Total)

	// The count query reuses the list filter without its pagination.
	require.Len(t, q.Statements, 2)
	assert.Contains(t, q.Statements[1].SQL, "SELECT COUNT(*) FROM cases")
	assert.NotContains(t, q.Statements[1].SQL, "LIMIT")
}

func TestCasesList_StatusFilterReachesBothQueries(t *testing.T) {
	q := &repositorytest.Querier{}
	q.EnqueueRows(caseListRows())
	q.EnqueueRow(int64(0))
	app := caseListApp(q)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/cases?status=open,closed", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, q.Statements, 2)
	for _, stmt := range q.Statements {
		assert.Contains(t, stmt.SQL, "status IN (")
		assert.Contains(t, stmt.Args, domain.CaseStatusOpen)
		assert.Contains(t, stmt.Args, domain.CaseStatusClosed)
	}
}
