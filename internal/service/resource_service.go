package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/practice-service/internal/repository"
	apperrors "github.com/spec-kit/practice-service/pkg/util"
)

// ResourceService exposes the generic store operations for one entity type,
// translating the store's not-found sentinel into the domain error taxonomy.
// Every plain (non-case, non-user) resource endpoint runs on an instance of
// this service; there is no per-entity service code.
type ResourceService[T any] struct {
	store    *repository.Store[T]
	resource string
}

// NewResourceService binds the service to a store.
func NewResourceService[T any](store *repository.Store[T], resource string) *ResourceService[T] {
	return &ResourceService[T]{store: store, resource: resource}
}

// Create inserts a new entity from named attributes.
func (s *ResourceService[T]) Create(ctx context.Context, attrs map[string]any) (*T, error) {
	item, err := s.store.Create(ctx, attrs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

// Get fetches one entity by id.
func (s *ResourceService[T]) Get(ctx context.Context, id string) (*T, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound(s.resource, map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

// List returns entities matching the filter; no match yields an empty slice.
func (s *ResourceService[T]) List(ctx context.Context, filter repository.Filter) ([]T, error) {
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// Update merges attributes into an existing entity.
func (s *ResourceService[T]) Update(ctx context.Context, id string, attrs map[string]any) (*T, error) {
	item, err := s.store.Update(ctx, id, attrs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound(s.resource, map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

// Delete removes the entity, reporting NotFound when no row existed.
func (s *ResourceService[T]) Delete(ctx context.Context, id string) error {
	existed, err := s.store.Delete(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !existed {
		return apperrors.NewNotFound(s.resource, map[string]any{"id": id})
	}
	return nil
}

// Count applies the List filter grammar to a count query.
func (s *ResourceService[T]) Count(ctx context.Context, filter repository.Filter) (int64, error) {
	count, err := s.store.Count(ctx, filter)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}
