package world

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// NoPermission is the permission value meaning "no restriction".
	NoPermission = "-"
	// UnknownBuilderName is shown for worlds without an attributed builder.
	UnknownBuilderName = "-"
)

// Builder identifies the creator of a world. A nil ID is the unknown/system
// builder.
type Builder struct {
	ID   uuid.UUID
	Name string
}

// UnknownBuilder returns the builder used when none was given.
func UnknownBuilder() Builder {
	return Builder{ID: uuid.Nil, Name: UnknownBuilderName}
}

// Known reports whether the builder has a unique id.
func (b Builder) Known() bool { return b.ID != uuid.Nil }

// Record is a point-in-time copy of a BuildWorld. Readers (menus,
// persistence) work on records so they never hold the world lock.
type Record struct {
	Name       string
	Status     Status
	Builder    Builder
	Permission string
	Private    bool
	Loaded     bool
	Generator  Generator
	CreatedAt  time.Time
}

// BuildWorld is the in-memory state of one registered world. Name, Generator
// and CreatedAt never change; everything else is guarded by mu.
type BuildWorld struct {
	name      string
	generator Generator
	createdAt time.Time

	mu         sync.RWMutex
	status     Status
	builder    Builder
	permission string
	private    bool
	loaded     bool

	// dirty is set on every change and cleared by PersistenceSystem after a
	// successful save.
	dirty bool
}

// New creates a world in the NOT_STARTED state with no permission
// requirement. The world is dirty until first saved.
func New(name string, generator Generator, builder Builder) *BuildWorld {
	if builder.Name == "" {
		builder.Name = UnknownBuilderName
	}
	return &BuildWorld{
		name:       name,
		generator:  generator,
		createdAt:  time.Now(),
		status:     StatusNotStarted,
		builder:    builder,
		permission: NoPermission,
		dirty:      true,
	}
}

// FromRecord rebuilds a world loaded from the store. The result is clean.
func FromRecord(r Record) *BuildWorld {
	if r.Permission == "" {
		r.Permission = NoPermission
	}
	if r.Builder.Name == "" {
		r.Builder.Name = UnknownBuilderName
	}
	if !r.Status.Valid() {
		r.Status = StatusNotStarted
	}
	return &BuildWorld{
		name:       r.Name,
		generator:  r.Generator,
		createdAt:  r.CreatedAt,
		status:     r.Status,
		builder:    r.Builder,
		permission: r.Permission,
		private:    r.Private,
		loaded:     r.Loaded,
	}
}

func (w *BuildWorld) Name() string         { return w.name }
func (w *BuildWorld) Generator() Generator { return w.generator }
func (w *BuildWorld) CreatedAt() time.Time { return w.createdAt }

func (w *BuildWorld) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// SetStatus stores s and returns the previous status.
func (w *BuildWorld) SetStatus(s Status) Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	old := w.status
	if old != s {
		w.status = s
		w.dirty = true
	}
	return old
}

// CompareAndSetStatus moves the world from old to s only if it is still in
// old. Used for the automatic NOT_STARTED → IN_PROGRESS transition.
func (w *BuildWorld) CompareAndSetStatus(old, s Status) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status != old {
		return false
	}
	w.status = s
	w.dirty = true
	return true
}

func (w *BuildWorld) Builder() Builder {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.builder
}

func (w *BuildWorld) SetBuilder(b Builder) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.builder = b
	w.dirty = true
}

func (w *BuildWorld) Permission() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.permission
}

// SetPermission assigns a permission requirement. An empty string resets it
// to NoPermission.
func (w *BuildWorld) SetPermission(perm string) {
	if perm == "" {
		perm = NoPermission
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.permission = perm
	w.dirty = true
}

func (w *BuildWorld) Private() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.private
}

func (w *BuildWorld) SetPrivate(private bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.private = private
	w.dirty = true
}

func (w *BuildWorld) Loaded() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loaded
}

// SetLoaded mirrors host residency. It does not mark the world dirty:
// residency is derived state and is refreshed from the host on boot.
func (w *BuildWorld) SetLoaded(loaded bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loaded = loaded
}

// Snapshot returns a consistent copy of all fields.
func (w *BuildWorld) Snapshot() Record {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Record{
		Name:       w.name,
		Status:     w.status,
		Builder:    w.builder,
		Permission: w.permission,
		Private:    w.private,
		Loaded:     w.loaded,
		Generator:  w.generator,
		CreatedAt:  w.createdAt,
	}
}

// TakeDirty returns a snapshot and clears the dirty flag if the world changed
// since the last call. ok is false for clean worlds.
func (w *BuildWorld) TakeDirty() (rec Record, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty {
		return Record{}, false
	}
	w.dirty = false
	return Record{
		Name:       w.name,
		Status:     w.status,
		Builder:    w.builder,
		Permission: w.permission,
		Private:    w.private,
		Loaded:     w.loaded,
		Generator:  w.generator,
		CreatedAt:  w.createdAt,
	}, true
}

// MarkDirty flags the world for the next save, e.g. after a failed write.
func (w *BuildWorld) MarkDirty() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty = true
}
