package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// migrationLockKey namespaces the postgres advisory lock held while migrating.
const migrationLockKey int64 = 0x62757363_6169 // "buscai"

var ErrMigrationLocked = errors.New("migration_in_progress")

// withAdvisoryLock runs fn while holding a session advisory lock. The lock is
// taken on a pinned connection so that unlock reaches the session that owns it.
func withAdvisoryLock(ctx context.Context, db *sql.DB, fn func() error) error {
	if db == nil {
		return errors.New("advisory lock requires database handle")
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("reserve lock connection: %w", err)
	}
	defer conn.Close()

	var locked bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", migrationLockKey).Scan(&locked); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !locked {
		return ErrMigrationLocked
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockKey)
	}()

	return fn()
}
