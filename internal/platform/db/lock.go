package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// AdvisoryLock serializes writers on an arbitrary key for the lifetime of the
// transaction. Used to guard the delete-then-insert window during payroll
// recalculation; the lock releases automatically on commit or rollback.
func AdvisoryLock(ctx context.Context, tx pgx.Tx, key string) error {
	_, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key)
	return err
}
