package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
)

var (
	// ErrIdentityNotFound means the service has no player by that name or id.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityService covers transport failures, timeouts and malformed
	// responses.
	ErrIdentityService = errors.New("identity service error")
)

// DefaultTimeout bounds a single service round trip.
const DefaultTimeout = 5 * time.Second

// Service is the external name ↔ id resolver.
type Service interface {
	LookupID(ctx context.Context, name string) (uuid.UUID, error)
	// LookupNameHistory returns every name the id has used, current last.
	LookupNameHistory(ctx context.Context, id uuid.UUID) ([]string, error)
}

// Cache resolves builder identities, asking Service only on a miss. Entries
// never expire: a renamed player keeps resolving to the cached name until the
// process restarts.
//
// Lookups block the caller for up to the configured timeout and must not be
// made from latency-sensitive paths.
type Cache struct {
	svc     Service
	timeout time.Duration
	log     *zap.Logger

	mu     sync.RWMutex
	byName map[string]uuid.UUID // folded name → id
	byID   map[uuid.UUID]string // id → display name

	group singleflight.Group
}

func NewCache(svc Service, timeout time.Duration, log *zap.Logger) *Cache {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Cache{
		svc:     svc,
		timeout: timeout,
		log:     log,
		byName:  make(map[string]uuid.UUID),
		byID:    make(map[uuid.UUID]string),
	}
}

// fold normalizes a name for case-insensitive lookup. cases.Caser keeps state,
// so one is created per call.
func fold(name string) string {
	return cases.Fold().String(name)
}

// ResolveID returns the id for a player name. ok is false when the service
// does not know the name or could not be reached.
func (c *Cache) ResolveID(ctx context.Context, name string) (uuid.UUID, bool) {
	key := fold(name)
	c.mu.RLock()
	id, ok := c.byName[key]
	c.mu.RUnlock()
	if ok {
		return id, true
	}

	v, err := c.do(ctx, "name:"+key, func(callCtx context.Context) (any, error) {
		id, err := c.svc.LookupID(callCtx, name)
		if err != nil {
			return uuid.Nil, err
		}
		c.CacheUser(id, name)
		return id, nil
	})
	if err != nil {
		c.logFailure("resolve id", name, err)
		return uuid.Nil, false
	}
	return v.(uuid.UUID), true
}

// ResolveName returns the current display name for id.
func (c *Cache) ResolveName(ctx context.Context, id uuid.UUID) (string, bool) {
	c.mu.RLock()
	name, ok := c.byID[id]
	c.mu.RUnlock()
	if ok {
		return name, true
	}

	v, err := c.do(ctx, "id:"+id.String(), func(callCtx context.Context) (any, error) {
		history, err := c.svc.LookupNameHistory(callCtx, id)
		if err != nil {
			return "", err
		}
		if len(history) == 0 || history[len(history)-1] == "" {
			return "", ErrIdentityService
		}
		current := history[len(history)-1]
		c.CacheUser(id, current)
		return current, nil
	})
	if err != nil {
		c.logFailure("resolve name", id.String(), err)
		return "", false
	}
	return v.(string), true
}

// do runs one shared service call per key. The call is detached from the
// caller's cancellation and bounded by the cache timeout; a caller whose ctx
// ends stops waiting without failing the others.
func (c *Cache) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return fn(callCtx)
	})
	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, errors.Join(ErrIdentityService, ctx.Err())
	}
}

// CacheUser records a known pairing without a service call.
func (c *Cache) CacheUser(id uuid.UUID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[fold(name)] = id
	c.byID[id] = name
}

// Entry is one cached id/name pair.
type Entry struct {
	ID   uuid.UUID
	Name string
}

// Entries returns a copy of every cached pairing, for persisting across
// restarts.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(c.byID))
	for id, name := range c.byID {
		out = append(out, Entry{ID: id, Name: name})
	}
	return out
}

// Len returns the number of cached ids.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

func (c *Cache) logFailure(op, key string, err error) {
	if errors.Is(err, ErrIdentityNotFound) {
		c.log.Debug("identity not found", zap.String("op", op), zap.String("key", key))
		return
	}
	c.log.Warn("identity lookup failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
}
