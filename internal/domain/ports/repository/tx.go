package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager provides a thin abstraction to execute a function within a
// database transaction, passing the underlying transaction handle via `tx`.
//
// Repositories accept `tx Tx` and MUST gracefully accept nil (non-transactional
// path). The concrete type of the handle is infra-defined (pgx.Tx for Postgres).
//
// The request path does not use it: job transitions are single-row
// conditional writes, and a comparison's two jobs are deliberately created
// without a cross-job transaction (a failed second create is handled by the
// compensating failure, not a rollback). It exists for multi-statement
// maintenance and backfill flows.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
