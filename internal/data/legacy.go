package data

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/buildsystem/server/internal/world"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// LegacyWorld is one entry of a worlds.yml file written by the older
// flat-file world store.
type LegacyWorld struct {
	Name        string `yaml:"-"`
	Status      string `yaml:"status"`
	Creator     string `yaml:"creator"`
	CreatorID   string `yaml:"creator-id"`
	Permission  string `yaml:"permission"`
	Private     bool   `yaml:"private"`
	Generator   string `yaml:"chunk-generator"`
	CreatedDate int64  `yaml:"date"` // unix millis
}

type legacyFile struct {
	Worlds map[string]LegacyWorld `yaml:"worlds"`
}

// LoadLegacyWorlds loads worlds.yml and returns its entries sorted by
// creation date, then name.
func LoadLegacyWorlds(path string) ([]LegacyWorld, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("legacy worlds: read %s: %w", path, err)
	}
	var f legacyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("legacy worlds: parse %s: %w", path, err)
	}
	out := make([]LegacyWorld, 0, len(f.Worlds))
	for name, w := range f.Worlds {
		w.Name = name
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedDate != out[j].CreatedDate {
			return out[i].CreatedDate < out[j].CreatedDate
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Record converts the entry to a registry record. Unknown statuses become
// NOT_STARTED, unknown generators the default generator, and a malformed
// creator id leaves the builder unknown by id.
func (w LegacyWorld) Record() world.Record {
	status, err := world.ParseStatus(w.Status)
	if err != nil {
		status = world.StatusNotStarted
	}
	gen, err := world.ParseGenerator(w.Generator)
	if err != nil {
		gen = world.DefaultGenerator
	}
	builder := world.Builder{Name: w.Creator}
	if id, err := uuid.Parse(w.CreatorID); err == nil {
		builder.ID = id
	}
	if builder.Name == "" {
		builder.Name = world.UnknownBuilderName
	}
	perm := w.Permission
	if perm == "" {
		perm = world.NoPermission
	}
	created := time.Now()
	if w.CreatedDate > 0 {
		created = time.UnixMilli(w.CreatedDate)
	}
	return world.Record{
		Name:       w.Name,
		Status:     status,
		Builder:    builder,
		Permission: perm,
		Private:    w.Private,
		Generator:  gen,
		CreatedAt:  created,
	}
}
