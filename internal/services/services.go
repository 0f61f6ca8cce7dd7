package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/desertthunder/edbx/internal/chain"
	"github.com/desertthunder/edbx/internal/metrics"
	"github.com/desertthunder/edbx/internal/shared"
)

// Library is the handle services run against. [store.Store] implements it.
type Library interface {
	// View runs fn against the open database for reads.
	View(ctx context.Context, fn func(q shared.Querier) error) error
	// WithTx runs fn in a transaction committed only when fn returns nil.
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// apply writes the collection's pending changes through w.
func apply(ctx context.Context, table string, c *chain.Collection, w chain.Writer) error {
	plan := c.Plan()
	if plan.Empty() {
		return nil
	}
	if err := plan.Apply(ctx, w); err != nil {
		return err
	}
	metrics.ObserveChainWrites(table, len(plan.Detach), len(plan.Delete), len(plan.Insert), len(plan.Link))
	return nil
}

// observe records the outcome of op. Call it deferred with a pointer to the named error result.
func observe(op string, start time.Time, err *error) {
	metrics.ObserveOperation(op, start, *err)
}
