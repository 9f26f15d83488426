package persist

import (
	"testing"
	"time"

	"github.com/buildsystem/server/internal/world"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWorldRow_RoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()

	tests := []struct {
		name string
		rec  world.Record
	}{
		{"known builder", world.Record{
			Name: "spawn", Status: world.StatusFinished,
			Builder:    world.Builder{ID: id, Name: "Alice"},
			Permission: "build.spawn", Private: true,
			Generator: world.GeneratorFlat, CreatedAt: created,
		}},
		{"unknown builder", world.Record{
			Name: "lobby", Status: world.StatusNotStarted,
			Builder:    world.UnknownBuilder(),
			Permission: world.NoPermission,
			Generator:  world.GeneratorVoid, CreatedAt: created,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := NewWorldRow(tt.rec)
			assert.Equal(t, tt.rec.Builder.Known(), row.BuilderID.Valid)
			assert.Equal(t, tt.rec, row.Record())
		})
	}
}

func TestWorldRow_LoadedIsNotStored(t *testing.T) {
	rec := world.Record{Name: "w", Status: world.StatusInProgress, Loaded: true, Generator: world.GeneratorNormal}
	assert.False(t, NewWorldRow(rec).Record().Loaded)
}

func TestWorldRow_UnknownGeneratorFallsBack(t *testing.T) {
	row := WorldRow{Name: "w", Status: 2, Generator: "AMPLIFIED"}
	rec := row.Record()
	assert.Equal(t, world.DefaultGenerator, rec.Generator)
	assert.Equal(t, world.StatusInProgress, rec.Status)
}

func TestUpsertWorldSQL_OverwritesEveryColumn(t *testing.T) {
	for _, col := range []string{"status", "builder_id", "builder_name", "permission", "private", "generator", "created_at"} {
		assert.Contains(t, upsertWorldSQL, col+" = EXCLUDED."+col)
	}
}
