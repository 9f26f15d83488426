package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeService answers from fixed tables and counts calls.
type fakeService struct {
	ids       map[string]uuid.UUID // lower-case name → id
	histories map[uuid.UUID][]string
	err       error
	delay     time.Duration

	idCalls   atomic.Int32
	nameCalls atomic.Int32
}

func (f *fakeService) LookupID(ctx context.Context, name string) (uuid.UUID, error) {
	f.idCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return uuid.Nil, err
	}
	if f.err != nil {
		return uuid.Nil, f.err
	}
	id, ok := f.ids[strings.ToLower(name)]
	if !ok {
		return uuid.Nil, ErrIdentityNotFound
	}
	return id, nil
}

func (f *fakeService) LookupNameHistory(ctx context.Context, id uuid.UUID) ([]string, error) {
	f.nameCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	h, ok := f.histories[id]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return h, nil
}

func (f *fakeService) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return errors.Join(ErrIdentityService, ctx.Err())
	}
}

func TestCache_ResolveID_CaseInsensitiveSingleCall(t *testing.T) {
	aliceID := uuid.New()
	svc := &fakeService{ids: map[string]uuid.UUID{"alice": aliceID}}
	c := NewCache(svc, time.Second, zap.NewNop())
	ctx := context.Background()

	id, ok := c.ResolveID(ctx, "Alice")
	require.True(t, ok)
	assert.Equal(t, aliceID, id)

	id, ok = c.ResolveID(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, aliceID, id)

	assert.EqualValues(t, 1, svc.idCalls.Load())

	name, ok := c.ResolveName(ctx, aliceID)
	require.True(t, ok)
	assert.Equal(t, "Alice", name, "reverse direction is filled by the same round trip")
	assert.EqualValues(t, 0, svc.nameCalls.Load())
}

func TestCache_CacheUserRoundTripWithoutNetwork(t *testing.T) {
	svc := &fakeService{}
	c := NewCache(svc, time.Second, zap.NewNop())
	ctx := context.Background()
	bobID := uuid.New()

	c.CacheUser(bobID, "Bob")

	name, ok := c.ResolveName(ctx, bobID)
	require.True(t, ok)
	assert.Equal(t, "Bob", name)

	id, ok := c.ResolveID(ctx, "Bob")
	require.True(t, ok)
	assert.Equal(t, bobID, id)

	assert.EqualValues(t, 0, svc.idCalls.Load())
	assert.EqualValues(t, 0, svc.nameCalls.Load())
	assert.Equal(t, []Entry{{ID: bobID, Name: "Bob"}}, c.Entries())
}

func TestCache_ResolveName_UsesMostRecentName(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{histories: map[uuid.UUID][]string{id: {"OldName", "NewName"}}}
	c := NewCache(svc, time.Second, zap.NewNop())
	ctx := context.Background()

	name, ok := c.ResolveName(ctx, id)
	require.True(t, ok)
	assert.Equal(t, "NewName", name)

	got, ok := c.ResolveID(ctx, "newname")
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.EqualValues(t, 0, svc.idCalls.Load())
}

func TestCache_FailuresBecomeUnresolved(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		svc := &fakeService{ids: map[string]uuid.UUID{}}
		c := NewCache(svc, time.Second, zap.NewNop())
		_, ok := c.ResolveID(ctx, "nobody")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("service error is not cached", func(t *testing.T) {
		svc := &fakeService{err: ErrIdentityService}
		c := NewCache(svc, time.Second, zap.NewNop())
		_, ok := c.ResolveID(ctx, "alice")
		assert.False(t, ok)
		_, ok = c.ResolveID(ctx, "alice")
		assert.False(t, ok)
		assert.EqualValues(t, 2, svc.idCalls.Load())
	})

	t.Run("empty history", func(t *testing.T) {
		id := uuid.New()
		svc := &fakeService{histories: map[uuid.UUID][]string{id: {}}}
		c := NewCache(svc, time.Second, zap.NewNop())
		_, ok := c.ResolveName(ctx, id)
		assert.False(t, ok)
	})

	t.Run("timeout", func(t *testing.T) {
		svc := &fakeService{ids: map[string]uuid.UUID{"slow": uuid.New()}, delay: time.Second}
		c := NewCache(svc, 20*time.Millisecond, zap.NewNop())
		start := time.Now()
		_, ok := c.ResolveID(ctx, "slow")
		assert.False(t, ok)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})
}

func TestCache_ConcurrentMissesCollapse(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{ids: map[string]uuid.UUID{"carol": id}, delay: 50 * time.Millisecond}
	c := NewCache(svc, time.Second, zap.NewNop())

	var wg sync.WaitGroup
	for n := 0; n < 10; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, ok := c.ResolveID(context.Background(), "Carol")
			assert.True(t, ok)
			assert.Equal(t, id, got)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, svc.idCalls.Load())
}

func TestCache_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{ids: map[string]uuid.UUID{"dave": id}, delay: 100 * time.Millisecond}
	c := NewCache(svc, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan bool, 1)
	go func() {
		_, ok := c.ResolveID(ctx, "Dave")
		first <- ok
	}()
	require.Eventually(t, func() bool { return svc.idCalls.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan bool, 1)
	go func() {
		got, ok := c.ResolveID(context.Background(), "dave")
		second <- ok && got == id
	}()
	cancel()

	assert.False(t, <-first, "the cancelled caller stops waiting")
	assert.True(t, <-second, "the other caller still gets the answer")
	assert.EqualValues(t, 1, svc.idCalls.Load())
}
