package persist

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PlayerRow is one known id/name pair.
type PlayerRow struct {
	ID   uuid.UUID
	Name string
}

// PlayerRepo stores identities resolved by the identity cache so they
// survive restarts.
type PlayerRepo struct {
	db *DB
}

func NewPlayerRepo(db *DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

func (r *PlayerRepo) LoadAll(ctx context.Context) ([]PlayerRow, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name FROM known_players`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerRow
	for rows.Next() {
		var p PlayerRow
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveAll upserts every row in one batch.
func (r *PlayerRepo) SaveAll(ctx context.Context, players []PlayerRow) error {
	if len(players) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range players {
		batch.Queue(
			`INSERT INTO known_players (id, name) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()`,
			p.ID, p.Name)
	}
	return r.db.Pool.SendBatch(ctx, batch).Close()
}
