package identity

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Roles is the persistence boundary for reference role rows. The table is
// string-keyed reference data, so it sits on bun directly rather than the
// uuid-keyed generic repository. Seeding is an external setup step: the
// identity core only ever reads.
type Roles interface {
	Get(ctx context.Context, id string) (*Role, error)
	All(ctx context.Context) ([]*Role, error)
	Seed(ctx context.Context, roles []*Role) error
}

type roles struct {
	db *bun.DB
}

var _ Roles = (*roles)(nil)

// NewRolesRepository builds the bun-backed roles repository
func NewRolesRepository(db *bun.DB) Roles {
	return &roles{db: db}
}

func (r *roles) Get(ctx context.Context, id string) (*Role, error) {
	record := &Role{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id})
		}
		return nil, err
	}

	return record, nil
}

// All returns every seeded role ordered by id
func (r *roles) All(ctx context.Context) ([]*Role, error) {
	var records []*Role
	err := r.db.NewSelect().
		Model(&records).
		Order("id ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

// Seed inserts the fixed role set, skipping rows that already exist. Run it
// once before any user is created; it is safe to run again.
func (r *roles) Seed(ctx context.Context, seed []*Role) error {
	if len(seed) == 0 {
		return nil
	}

	_, err := r.db.NewInsert().
		Model(&seed).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)

	return err
}
