package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/practice-service/internal/repository"
)

// parseListQuery maps the shared query parameters onto the generic filter
// grammar: search, sort_by, sort_dir, created_from/created_to, page,
// page_size.
func parseListQuery(c *fiber.Ctx) repository.Filter {
	filter := repository.Filter{}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = &search
	}
	filter.SortBy = c.Query("sort_by")
	filter.SortDesc = strings.EqualFold(c.Query("sort_dir"), "desc")
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
