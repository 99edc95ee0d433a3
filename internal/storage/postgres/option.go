package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-wholesale/internal/domain/settings"
	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
)

const (
	getOptionsSQL = `SELECT key, value FROM options WHERE key = ANY($1)`

	setOptionSQL = `INSERT INTO options (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	listRolesSQL = `SELECT key, name FROM roles ORDER BY key`

	upsertRoleSQL = `INSERT INTO roles (key, name) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET name = EXCLUDED.name`
)

var (
	_ settings.Repository     = (*OptionRepository)(nil)
	_ settings.RoleRepository = (*RoleRepository)(nil)
)

// OptionRepository stores scalar options in the options table.
type OptionRepository struct {
	pool *pgxpool.Pool
}

// NewOptionRepository returns an OptionRepository that uses the given pool.
func NewOptionRepository(pool *pgxpool.Pool) *OptionRepository {
	return &OptionRepository{pool: pool}
}

// GetOptions returns stored values for keys. Missing keys are absent.
func (r *OptionRepository) GetOptions(ctx context.Context, keys ...string) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, getOptionsSQL, keys)
	if err != nil {
		return nil, errors.Wrap(err, "get options")
	}

	out := make(map[string]string, len(keys))
	var key, value string
	if _, err := pgx.ForEachRow(rows, []any{&key, &value}, func() error {
		out[key] = value
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "scan options")
	}
	return out, nil
}

// SetOptions upserts all values in a single transaction.
func (r *OptionRepository) SetOptions(ctx context.Context, values map[string]string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for k, v := range values {
			batch.Queue(setOptionSQL, k, v)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "set options")
		}
		return nil
	})
}

// RoleRepository lists registered user roles.
type RoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository returns a RoleRepository that uses the given pool.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// ListRoles returns all roles ordered by key.
func (r *RoleRepository) ListRoles(ctx context.Context) ([]settings.RoleInfo, error) {
	rows, err := r.pool.Query(ctx, listRolesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list roles")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (settings.RoleInfo, error) {
		var (
			info settings.RoleInfo
			key  string
		)
		err := row.Scan(&key, &info.Name)
		info.Key = wholesale.Role(key)
		return info, err
	})
}

// Upsert registers a role or renames an existing one.
func (r *RoleRepository) Upsert(ctx context.Context, info settings.RoleInfo) error {
	if _, err := r.pool.Exec(ctx, upsertRoleSQL, string(info.Key), info.Name); err != nil {
		return errors.Wrapf(err, "upsert role %q", info.Key)
	}
	return nil
}
