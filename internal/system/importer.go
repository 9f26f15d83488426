package system

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/buildsystem/server/internal/core/event"
	"github.com/buildsystem/server/internal/host"
	"github.com/buildsystem/server/internal/identity"
	"github.com/buildsystem/server/internal/world"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdentityResolver maps a player name to its unique id. ok is false when the
// name could not be resolved for any reason.
type IdentityResolver interface {
	ResolveID(ctx context.Context, name string) (id uuid.UUID, ok bool)
}

// ImportOptions are the user-supplied import flags.
type ImportOptions struct {
	Generator string // generator token, empty for the default
	Creator   string // builder name, empty for the unknown builder
}

// ImportFailure is one world that could not be imported.
type ImportFailure struct {
	Name string
	Err  error
}

// BulkResult summarizes an import-all run.
type BulkResult struct {
	Candidates int // folders that passed the scan
	Imported   []string
	Failed     []ImportFailure // scan rejections first, then import failures
	Elapsed    time.Duration
}

func (r *BulkResult) fail(name string, err error) {
	r.Failed = append(r.Failed, ImportFailure{Name: name, Err: err})
}

// FailedNames returns the names of all failed entries.
func (r *BulkResult) FailedNames() []string {
	out := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.Name)
	}
	return out
}

// Importer registers existing world folders as build worlds.
type Importer struct {
	registry         *world.Registry
	host             host.Provider
	identity         IdentityResolver
	bus              *event.Bus
	log              *zap.Logger
	defaultGenerator world.Generator

	bulkRunning atomic.Bool
}

func NewImporter(reg *world.Registry, hp host.Provider, ids IdentityResolver, bus *event.Bus, defaultGenerator world.Generator, log *zap.Logger) *Importer {
	if defaultGenerator == "" {
		defaultGenerator = world.DefaultGenerator
	}
	return &Importer{
		registry:         reg,
		host:             hp,
		identity:         ids,
		bus:              bus,
		log:              log,
		defaultGenerator: defaultGenerator,
	}
}

// Running reports whether an import-all is in flight.
func (im *Importer) Running() bool {
	return im.bulkRunning.Load()
}

// ImportOne imports a single world folder.
func (im *Importer) ImportOne(ctx context.Context, name string, opts ImportOptions) (*world.BuildWorld, error) {
	if im.registry.Contains(name) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyImported, name)
	}
	if err := im.validate(name); err != nil {
		return nil, err
	}
	builder, err := im.resolveBuilder(ctx, opts.Creator)
	if err != nil {
		return nil, err
	}
	return im.register(name, im.resolveGenerator(opts.Generator), builder)
}

// Scan lists the container once and splits it into importable folders and
// rejected ones. Nothing is mutated.
func (im *Importer) Scan() (candidates []string, rejected []ImportFailure, err error) {
	entries, err := im.host.ListWorldContainerEntries()
	if err != nil {
		return nil, nil, err
	}
	for _, name := range entries {
		if im.registry.Contains(name) {
			rejected = append(rejected, ImportFailure{Name: name, Err: fmt.Errorf("%w: %s", ErrAlreadyImported, name)})
			continue
		}
		if err := im.validate(name); err != nil {
			rejected = append(rejected, ImportFailure{Name: name, Err: err})
			continue
		}
		candidates = append(candidates, name)
	}
	return candidates, rejected, nil
}

// ImportAll imports every unregistered world folder found by one scan of the
// container. Only one run may be in flight; a concurrent call fails with
// ErrBulkImportRunning without doing any work. Individual failures are
// collected in the result and never stop the batch.
func (im *Importer) ImportAll(ctx context.Context, opts ImportOptions) (*BulkResult, error) {
	if !im.bulkRunning.CompareAndSwap(false, true) {
		return nil, ErrBulkImportRunning
	}
	defer im.bulkRunning.Store(false)

	start := time.Now()
	candidates, rejected, err := im.Scan()
	if err != nil {
		return nil, fmt.Errorf("scan world container: %w", err)
	}

	res := &BulkResult{Candidates: len(candidates), Failed: rejected}
	gen := im.resolveGenerator(opts.Generator)

	// The creator is the same for every candidate: resolve it once and reuse
	// the outcome, failing each candidate on its own if it did not resolve.
	var (
		builder    world.Builder
		builderErr error
		resolved   bool
	)
	for _, name := range candidates {
		if !resolved {
			builder, builderErr = im.resolveBuilder(ctx, opts.Creator)
			resolved = true
		}
		if builderErr != nil {
			res.fail(name, builderErr)
			continue
		}
		// The folder may have gone since the scan.
		if err := im.validate(name); err != nil {
			res.fail(name, err)
			continue
		}
		if _, err := im.register(name, gen, builder); err != nil {
			res.fail(name, err)
			continue
		}
		res.Imported = append(res.Imported, name)
	}
	res.Elapsed = time.Since(start)

	im.log.Info("import all finished",
		zap.Int("candidates", res.Candidates),
		zap.Int("imported", len(res.Imported)),
		zap.Int("failed", len(res.Failed)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func (im *Importer) validate(name string) error {
	if !host.ValidName(name) || !im.host.WorldFolderExists(name) {
		return fmt.Errorf("%w: %s: no such folder", ErrNotAWorld, name)
	}
	if !im.host.HasWorldMarker(name) {
		return fmt.Errorf("%w: %s: missing world data", ErrNotAWorld, name)
	}
	return nil
}

func (im *Importer) resolveGenerator(token string) world.Generator {
	if strings.TrimSpace(token) == "" {
		return im.defaultGenerator
	}
	g, err := world.ParseGenerator(token)
	if err != nil {
		im.log.Warn("unknown generator, using default",
			zap.String("generator", token),
			zap.String("default", string(im.defaultGenerator)))
		return im.defaultGenerator
	}
	return g
}

func (im *Importer) resolveBuilder(ctx context.Context, creator string) (world.Builder, error) {
	if creator == "" {
		return world.UnknownBuilder(), nil
	}
	id, ok := im.identity.ResolveID(ctx, creator)
	if !ok {
		return world.Builder{}, fmt.Errorf("%w: %s", identity.ErrIdentityNotFound, creator)
	}
	return world.Builder{ID: id, Name: creator}, nil
}

func (im *Importer) register(name string, gen world.Generator, builder world.Builder) (*world.BuildWorld, error) {
	w := world.New(name, gen, builder)
	w.SetLoaded(im.host.IsWorldResident(name))
	if err := im.registry.Register(w); err != nil {
		if errors.Is(err, world.ErrDuplicateName) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyImported, name)
		}
		return nil, err
	}
	im.log.Info("world imported",
		zap.String("world", name),
		zap.String("generator", string(gen)),
		zap.String("builder", builder.Name))
	event.Emit(im.bus, event.WorldImported{Name: name, Generator: gen, Builder: builder})
	return w, nil
}
