package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Player is a player that connected to the server at least once.
type Player struct {
	XUID     string
	Name     string
	LastSeen time.Time
}

// PlayerRepository keeps the last known gamertag of every XUID.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository ...
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Upsert records that xuid connected under name.
func (r *PlayerRepository) Upsert(ctx context.Context, xuid, name string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO players (xuid, name, name_lower, last_seen)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (xuid) DO UPDATE
		 SET name = EXCLUDED.name, name_lower = EXCLUDED.name_lower, last_seen = EXCLUDED.last_seen`,
		xuid, name, strings.ToLower(name), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upserting player %s: %w", xuid, err)
	}
	return nil
}

// ByXUID returns the player with the given XUID.
// Returns nil, nil if the player was never seen.
func (r *PlayerRepository) ByXUID(ctx context.Context, xuid string) (*Player, error) {
	return r.one(ctx,
		`SELECT xuid, name, last_seen FROM players WHERE xuid = $1`, xuid)
}

// ByName returns the player most recently seen with the given gamertag,
// compared case-insensitively. Returns nil, nil if there is none.
func (r *PlayerRepository) ByName(ctx context.Context, name string) (*Player, error) {
	return r.one(ctx,
		`SELECT xuid, name, last_seen FROM players WHERE name_lower = $1
		 ORDER BY last_seen DESC LIMIT 1`, strings.ToLower(name))
}

// one ...
func (r *PlayerRepository) one(ctx context.Context, query string, arg string) (*Player, error) {
	var p Player
	err := r.db.QueryRow(ctx, query, arg).Scan(&p.XUID, &p.Name, &p.LastSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying player %q: %w", arg, err)
	}
	return &p, nil
}
