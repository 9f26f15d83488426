package persist

import (
	"context"
	"errors"
	"time"

	"github.com/buildsystem/server/internal/world"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// WorldRow represents a row from the worlds table.
type WorldRow struct {
	Name        string
	Status      int16
	BuilderID   pgtype.UUID
	BuilderName string
	Permission  string
	Private     bool
	Generator   string
	CreatedAt   time.Time
}

// WorldRepo handles build world rows.
type WorldRepo struct {
	db *DB
}

func NewWorldRepo(db *DB) *WorldRepo {
	return &WorldRepo{db: db}
}

// LoadAll loads every stored world in creation order. Called at server startup.
func (r *WorldRepo) LoadAll(ctx context.Context) ([]world.Record, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, status, builder_id, builder_name, permission, private, generator, created_at
		 FROM worlds ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []world.Record
	for rows.Next() {
		var row WorldRow
		if err := rows.Scan(
			&row.Name, &row.Status, &row.BuilderID, &row.BuilderName,
			&row.Permission, &row.Private, &row.Generator, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, row.Record())
	}
	return out, rows.Err()
}

// Load returns one world, or nil if no row exists.
func (r *WorldRepo) Load(ctx context.Context, name string) (*world.Record, error) {
	var row WorldRow
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name, status, builder_id, builder_name, permission, private, generator, created_at
		 FROM worlds WHERE name = $1`, name,
	).Scan(
		&row.Name, &row.Status, &row.BuilderID, &row.BuilderName,
		&row.Permission, &row.Private, &row.Generator, &row.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := row.Record()
	return &rec, nil
}

const upsertWorldSQL = `INSERT INTO worlds (name, status, builder_id, builder_name, permission, private, generator, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (name) DO UPDATE SET
	    status = EXCLUDED.status,
	    builder_id = EXCLUDED.builder_id,
	    builder_name = EXCLUDED.builder_name,
	    permission = EXCLUDED.permission,
	    private = EXCLUDED.private,
	    generator = EXCLUDED.generator,
	    created_at = EXCLUDED.created_at,
	    updated_at = NOW()`

// Save upserts a world. Every column is overwritten, so a world imported
// again under an old name replaces the previous row.
func (r *WorldRepo) Save(ctx context.Context, rec world.Record) error {
	row := NewWorldRow(rec)
	_, err := r.db.Pool.Exec(ctx, upsertWorldSQL,
		row.Name, row.Status, row.BuilderID, row.BuilderName,
		row.Permission, row.Private, row.Generator, row.CreatedAt,
	)
	return err
}

// Delete removes a world row. Deleting a missing row is not an error.
func (r *WorldRepo) Delete(ctx context.Context, name string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM worlds WHERE name = $1`, name)
	return err
}

// NewWorldRow converts a registry record to its stored form. Loaded is
// runtime state and is not stored.
func NewWorldRow(rec world.Record) WorldRow {
	return WorldRow{
		Name:        rec.Name,
		Status:      int16(rec.Status),
		BuilderID:   pgtype.UUID{Bytes: rec.Builder.ID, Valid: rec.Builder.Known()},
		BuilderName: rec.Builder.Name,
		Permission:  rec.Permission,
		Private:     rec.Private,
		Generator:   string(rec.Generator),
		CreatedAt:   rec.CreatedAt,
	}
}

// Record converts a stored row back to a registry record. Unknown
// generator tokens fall back to the default generator.
func (row WorldRow) Record() world.Record {
	gen, err := world.ParseGenerator(row.Generator)
	if err != nil {
		gen = world.DefaultGenerator
	}
	builder := world.Builder{Name: row.BuilderName}
	if row.BuilderID.Valid {
		builder.ID = uuid.UUID(row.BuilderID.Bytes)
	}
	return world.Record{
		Name:       row.Name,
		Status:     world.Status(row.Status),
		Builder:    builder,
		Permission: row.Permission,
		Private:    row.Private,
		Generator:  gen,
		CreatedAt:  row.CreatedAt,
	}
}
