package persistence

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Migration is a named, idempotent SQL script.
type Migration struct {
	Name string
	SQL  string
}

// RunMigrations applies the migrations in name order.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger, migrations []Migration) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}

	ordered := append([]Migration(nil), migrations...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	for _, m := range ordered {
		logger.Info("applying migration", zap.String("name", m.Name))
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
	}

	logger.Info("migrations applied", zap.Int("count", len(ordered)))
	return nil
}
