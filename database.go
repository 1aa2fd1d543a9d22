package identity

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// OpenDB opens a SQLite-backed bun handle. Use ":memory:" (with cache
// sharing) for tests, or a file path for a standalone deployment; larger
// installs hand NewRepositoryManager their own *bun.DB instead.
func OpenDB(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	return db, nil
}

// CreateSchema creates the users and roles tables when they do not exist
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*Role)(nil),
		(*User)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

// SeedRoles writes the fixed role set and returns a registry over it
func SeedRoles(ctx context.Context, repo RepositoryManager, opts ...RegistryOption) (*Registry, error) {
	seed := DefaultRoles()
	if err := repo.Roles().Seed(ctx, seed); err != nil {
		return nil, err
	}

	roles, err := repo.Roles().All(ctx)
	if err != nil {
		return nil, err
	}

	return NewRegistry(roles, opts...), nil
}
