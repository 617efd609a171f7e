package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/spec-kit/practice-service/pkg/util"
)

// psql builds statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// TableSpec describes one entity table for the generic store.
type TableSpec struct {
	Name       string
	Resource   string
	Columns    []string
	Required   []string
	SearchCols []string
	SortCols   []string
}

func (t TableSpec) hasColumn(name string) bool {
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}

func (t TableSpec) sortable(name string) bool {
	for _, col := range t.SortCols {
		if col == name {
			return true
		}
	}
	return false
}

// Filter is the shared query grammar for List and Count.
type Filter struct {
	Eq          map[string]any
	Search      *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SortBy      string
	SortDesc    bool
	Limit       int
	Offset      int
}

// Store provides create/read/list/update/delete/count over a single entity
// table. One instance per entity type is built at startup; per-entity code is
// limited to the TableSpec.
type Store[T any] struct {
	q    Querier
	spec TableSpec
}

// NewStore binds a store to its table.
func NewStore[T any](q Querier, spec TableSpec) *Store[T] {
	return &Store[T]{q: q, spec: spec}
}

// Create inserts a row from named attributes. The id and both timestamps are
// assigned by the store, never by the caller.
func (s *Store[T]) Create(ctx context.Context, attrs map[string]any) (*T, error) {
	if err := s.validateAttrs(attrs, true); err != nil {
		return nil, err
	}
	query, args, err := psql.Insert(s.spec.Name).
		SetMap(attrs).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return nil, err
	}
	return s.fetchOne(ctx, query, args)
}

// GetByID returns the row or pgx.ErrNoRows when the id does not resolve.
func (s *Store[T]) GetByID(ctx context.Context, id string) (*T, error) {
	query, args, err := psql.Select("*").From(s.spec.Name).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return s.fetchOne(ctx, query, args)
}

// List re-queries on every call; no cursor state is retained. A filter that
// matches nothing yields an empty slice.
func (s *Store[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	builder := psql.Select("*").From(s.spec.Name)
	builder, err := s.applyFilter(builder, filter)
	if err != nil {
		return nil, err
	}

	sortBy := "created_at"
	if filter.SortBy != "" {
		if !s.spec.sortable(filter.SortBy) {
			return nil, apperrors.NewValidationError("unsupported sort column", map[string]any{"sort_by": filter.SortBy})
		}
		sortBy = filter.SortBy
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	builder = builder.OrderBy(fmt.Sprintf("%s %s", sortBy, direction))

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder = builder.Limit(uint64(limit)).Offset(uint64(offset))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Update merges the given attributes into the row and bumps updated_at.
// Returns pgx.ErrNoRows when the id does not exist.
func (s *Store[T]) Update(ctx context.Context, id string, attrs map[string]any) (*T, error) {
	if len(attrs) == 0 {
		return nil, apperrors.NewValidationError("no attributes to update", nil)
	}
	if err := s.validateAttrs(attrs, false); err != nil {
		return nil, err
	}
	query, args, err := psql.Update(s.spec.Name).
		SetMap(attrs).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return nil, err
	}
	return s.fetchOne(ctx, query, args)
}

// Delete removes the row, reporting whether one existed.
func (s *Store[T]) Delete(ctx context.Context, id string) (bool, error) {
	query, args, err := psql.Delete(s.spec.Name).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, err
	}
	cmd, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// Count applies the same filter grammar as List.
func (s *Store[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	builder := psql.Select("COUNT(*)").From(s.spec.Name)
	builder, err := s.applyFilter(builder, filter)
	if err != nil {
		return 0, err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store[T]) fetchOne(ctx context.Context, query string, args []any) (*T, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store[T]) applyFilter(builder sq.SelectBuilder, filter Filter) (sq.SelectBuilder, error) {
	for col, val := range filter.Eq {
		if !s.spec.hasColumn(col) {
			return builder, apperrors.NewValidationError("unknown filter column", map[string]any{"column": col})
		}
		builder = builder.Where(sq.Eq{col: val})
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" && len(s.spec.SearchCols) > 0 {
		term := "%" + strings.TrimSpace(*filter.Search) + "%"
		or := sq.Or{}
		for _, col := range s.spec.SearchCols {
			or = append(or, sq.ILike{col: term})
		}
		builder = builder.Where(or)
	}
	if filter.CreatedFrom != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		builder = builder.Where(sq.LtOrEq{"created_at": *filter.CreatedTo})
	}
	return builder, nil
}

func (s *Store[T]) validateAttrs(attrs map[string]any, creating bool) error {
	details := map[string]any{}
	for col := range attrs {
		switch col {
		case "id", "created_at", "updated_at":
			details[col] = "store-managed attribute"
		default:
			if !s.spec.hasColumn(col) {
				details[col] = "unknown attribute"
			}
		}
	}
	if creating {
		for _, col := range s.spec.Required {
			val, ok := attrs[col]
			if !ok || isBlank(val) {
				details[col] = "required"
			}
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError(fmt.Sprintf("invalid %s attributes", s.spec.Resource), details)
	}
	return nil
}

func isBlank(val any) bool {
	if val == nil {
		return true
	}
	if s, ok := val.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
