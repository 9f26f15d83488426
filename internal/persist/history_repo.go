package persist

import (
	"context"
	"fmt"
)

// HistoryEntry is one line of the world audit log.
type HistoryEntry struct {
	Kind   string // "import", "unimport", "status"
	World  string
	Detail string
}

type HistoryRepo struct {
	db *DB
}

func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Write atomically appends a batch of entries in a single transaction.
func (r *HistoryRepo) Write(ctx context.Context, entries []HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("history begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO world_history (kind, world, detail) VALUES ($1, $2, $3)`,
			e.Kind, e.World, e.Detail,
		); err != nil {
			return fmt.Errorf("history insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Recent returns the newest entries for one world, newest first.
func (r *HistoryRepo) Recent(ctx context.Context, world string, limit int) ([]HistoryEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT kind, world, detail FROM world_history
		 WHERE world = $1 ORDER BY id DESC LIMIT $2`, world, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Kind, &e.World, &e.Detail); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
