package repository

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/shelfdesk/shelfdesk/migrations"
)

// Migration directions.
const (
	MigrateUp   = "up"
	MigrateDown = "down"
)

// MigrationFiles lists the embedded migration files for a direction in the
// order they must be applied: ascending for up, descending for down.
func MigrationFiles(direction string) ([]string, error) {
	if direction != MigrateUp && direction != MigrateDown {
		return nil, fmt.Errorf("unknown migration direction %q", direction)
	}

	names, err := fs.Glob(migrations.FS, "*."+direction+".sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	slices.Sort(names)
	if direction == MigrateDown {
		slices.Reverse(names)
	}

	return names, nil
}

// Migrate applies every embedded migration for direction and returns the
// names of the files that ran. Each file runs in its own transaction.
func (r *Repository) Migrate(ctx context.Context, direction string) ([]string, error) {
	names, err := MigrationFiles(direction)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(names))
	for _, name := range names {
		sql, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return applied, fmt.Errorf("read %s: %w", name, err)
		}

		if strings.TrimSpace(string(sql)) == "" {
			continue
		}

		err = r.InTx(ctx, func(tx *Repository) error {
			_, err := tx.db.Exec(ctx, string(sql))
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("apply %s: %w", name, err)
		}

		applied = append(applied, name)
	}

	return applied, nil
}
