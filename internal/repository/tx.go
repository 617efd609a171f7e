package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CaseTxRunner executes a callback with case and timeline repositories bound
// to a single transaction, so an assignment update and its timeline entry
// commit or roll back together.
type CaseTxRunner interface {
	Run(ctx context.Context, fn func(cases CaseRepository, timeline TimelineEventRepository) error) error
}

type caseTxRunner struct {
	pool *pgxpool.Pool
}

// NewCaseTxRunner builds the runner over the pool.
func NewCaseTxRunner(pool *pgxpool.Pool) CaseTxRunner {
	return &caseTxRunner{pool: pool}
}

func (r *caseTxRunner) Run(ctx context.Context, fn func(cases CaseRepository, timeline TimelineEventRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewCaseRepository(tx), NewTimelineEventRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
