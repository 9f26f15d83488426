package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/buildsystem/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMessageTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
prefix: "[BS] "
messages:
  hello: "Hello %player%, welcome to %world%."
  plain: "nothing to replace"
`), 0o644))

	tbl, err := LoadMessageTable(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Count())
	assert.Equal(t, "Hello Alice, welcome to spawn.", tbl.Get("hello", "%player%", "Alice", "%world%", "spawn"))
	assert.Equal(t, "[BS] nothing to replace", tbl.Prefixed("plain"))
	assert.Equal(t, "missing_key", tbl.Get("missing_key"))
	assert.Equal(t, "Hello %player%, welcome to spawn.", tbl.Get("hello", "%world%", "spawn", "%player%"), "odd trailing arg is ignored")
}

func TestLoadMessageTable_Errors(t *testing.T) {
	_, err := LoadMessageTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "messages: read")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("messages: [unclosed"), 0o644))
	_, err = LoadMessageTable(path)
	assert.ErrorContains(t, err, "messages: parse")
}

func TestShippedMessages(t *testing.T) {
	tbl, err := LoadMessageTable(filepath.Join("..", "..", "data", "yaml", "messages.yaml"))
	require.NoError(t, err)

	for _, s := range world.AllStatuses() {
		assert.True(t, tbl.Has(s.NameKey()), s.NameKey())
	}
	for _, key := range []string{
		"worlds_importall_already_started",
		"worlds_importall_no_worlds",
		"worlds_importall_player_not_found",
		"worlds_unimport_unknown_world",
		"worlds_unimport_finished",
	} {
		assert.True(t, tbl.Has(key), key)
	}
}

func TestLoadLegacyWorlds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worlds.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
worlds:
  zeta:
    status: FINISHED
    creator: Alice
    creator-id: 069a79f4-44e9-4726-a5be-fca90e38aaf5
    permission: "-"
    private: false
    chunk-generator: FLAT
    date: 1000
  alpha:
    status: NOT_STARTED
    creator: "-"
    private: true
    chunk-generator: VOID
    date: 1000
  early:
    status: ARCHIVE
    date: 10
`), 0o644))

	got, err := LoadLegacyWorlds(path)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"early", "alpha", "zeta"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.Equal(t, "Alice", got[2].Creator)
	assert.Equal(t, "069a79f4-44e9-4726-a5be-fca90e38aaf5", got[2].CreatorID)
	assert.Equal(t, "FLAT", got[2].Generator)
	assert.True(t, got[1].Private)

	zeta := got[2].Record()
	assert.Equal(t, world.StatusFinished, zeta.Status)
	assert.Equal(t, world.GeneratorFlat, zeta.Generator)
	assert.True(t, zeta.Builder.Known())
	assert.Equal(t, int64(1000), zeta.CreatedAt.UnixMilli())

	early := got[0].Record()
	assert.Equal(t, world.StatusArchive, early.Status)
	assert.Equal(t, world.DefaultGenerator, early.Generator)
	assert.Equal(t, world.UnknownBuilderName, early.Builder.Name)
	assert.False(t, early.Builder.Known())
	assert.Equal(t, world.NoPermission, early.Permission)
}
