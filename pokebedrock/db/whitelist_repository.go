package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// WhitelistRepository stores the allow set. A row in the whitelist table means
// the identity is allowed.
type WhitelistRepository struct {
	db *pgxpool.Pool
}

// NewWhitelistRepository ...
func NewWhitelistRepository(db *pgxpool.Pool) *WhitelistRepository {
	return &WhitelistRepository{db: db}
}

// AllowStatus reports whether id is whitelisted.
func (r *WhitelistRepository) AllowStatus(ctx context.Context, id whitelist.Identity) (bool, error) {
	var allowed bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM whitelist WHERE xuid = $1)`, id.String(),
	).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("querying whitelist status of %s: %w", id, err)
	}
	return allowed, nil
}

// SetAllowStatus adds or removes id. The statement runs in its own implicit
// transaction, so the change is committed when it returns without error.
func (r *WhitelistRepository) SetAllowStatus(ctx context.Context, id whitelist.Identity, allowed bool) error {
	query := `DELETE FROM whitelist WHERE xuid = $1`
	if allowed {
		query = `INSERT INTO whitelist (xuid) VALUES ($1) ON CONFLICT (xuid) DO NOTHING`
	}
	if _, err := r.db.Exec(ctx, query, id.String()); err != nil {
		return fmt.Errorf("setting whitelist status of %s to %t: %w", id, allowed, err)
	}
	return nil
}

// ListAllowed returns every whitelisted identity, oldest first.
func (r *WhitelistRepository) ListAllowed(ctx context.Context) ([]whitelist.Identity, error) {
	rows, err := r.db.Query(ctx, `SELECT xuid FROM whitelist ORDER BY added_at, xuid`)
	if err != nil {
		return nil, fmt.Errorf("listing whitelist: %w", err)
	}

	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (whitelist.Identity, error) {
		var xuid string
		err := row.Scan(&xuid)
		return whitelist.Identity(xuid), err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning whitelist: %w", err)
	}
	return ids, nil
}
