package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/core/offline"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/crowelm/crowelm/pkg/utils"
	"github.com/panjf2000/ants/v2"
)

const DefaultFetchTimeout = 30 * time.Second

type Options struct {
	Store repo.KVStore
	// Pool runs background revalidations. Nil falls back to a goroutine per
	// revalidation.
	Pool         *ants.Pool
	FetchTimeout time.Duration
	Now          func() time.Time
	// OnUpdate sees every state change of every key.
	OnUpdate func(key string, status offline.Status)
}

// Cache is a stale-while-revalidate cache over a KVStore. Concurrent reads of
// one key share a single fetch.
type Cache[T any] struct {
	store        repo.KVStore
	pool         *ants.Pool
	fetchTimeout time.Duration
	now          func() time.Time
	onUpdate     func(key string, status offline.Status)
	keys         *haxmap.Map[string, *keyMeta[T]]
}

type keyMeta[T any] struct {
	mu      sync.Mutex
	fetcher offline.Fetcher[T]
	ttl     time.Duration
	gen     uint64
	flight  *flight[T]
	subs    map[uint64]func(offline.State[T])
	nextSub uint64
}

type flight[T any] struct {
	gen   uint64
	done  chan struct{}
	once  sync.Once
	state offline.State[T]
}

func New[T any](opts Options) *Cache[T] {
	c := &Cache[T]{
		store:        opts.Store,
		pool:         opts.Pool,
		fetchTimeout: opts.FetchTimeout,
		now:          opts.Now,
		onUpdate:     opts.OnUpdate,
		keys:         haxmap.New[string, *keyMeta[T]](),
	}
	if c.fetchTimeout <= 0 {
		c.fetchTimeout = DefaultFetchTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

func (c *Cache[T]) meta(key string) *keyMeta[T] {
	m, _ := c.keys.GetOrCompute(key, func() *keyMeta[T] {
		return &keyMeta[T]{subs: map[uint64]func(offline.State[T]){}}
	})
	return m
}

// Read returns a fresh entry as is. A stale entry is returned immediately,
// flagged stale and loading, while a revalidation runs in the background.
// Without any entry the caller waits for the fetch.
func (c *Cache[T]) Read(ctx context.Context, key string, fetcher offline.Fetcher[T], ttl time.Duration) offline.State[T] {
	m := c.meta(key)
	m.mu.Lock()
	m.fetcher, m.ttl = fetcher, ttl
	m.mu.Unlock()

	entry, data, ok := c.load(ctx, key)
	if ok && entry.Fresh(c.now()) {
		recordRead(ctx, readFresh)
		return offline.State[T]{
			Data:      data,
			HasData:   true,
			Status:    offline.StatusFresh,
			UpdatedAt: entry.Timestamp,
		}
	}

	f := c.revalidate(ctx, key, m)
	if ok {
		recordRead(ctx, readStale)
		return offline.State[T]{
			Data:      data,
			HasData:   true,
			IsStale:   true,
			IsLoading: true,
			Status:    offline.StatusLoading,
			UpdatedAt: entry.Timestamp,
		}
	}
	recordRead(ctx, readMiss)
	return c.wait(ctx, f)
}

// Refresh revalidates key regardless of freshness, using the fetcher from the
// last Read of key.
func (c *Cache[T]) Refresh(ctx context.Context, key string) offline.State[T] {
	m, ok := c.keys.Get(key)
	if ok {
		m.mu.Lock()
		ok = m.fetcher != nil
		m.mu.Unlock()
	}
	if !ok {
		return offline.State[T]{
			Status: offline.StatusEmpty,
			Err:    code.NotFoundErr.WithMsgf("no fetcher registered for %s", key),
		}
	}
	return c.wait(ctx, c.revalidate(ctx, key, m))
}

// Clear deletes the persisted entry and forgets the key. A revalidation
// already in flight completes for its waiters but is not persisted.
func (c *Cache[T]) Clear(ctx context.Context, key string) error {
	m := c.meta(key)
	m.mu.Lock()
	m.gen++
	m.fetcher = nil
	m.flight = nil
	m.mu.Unlock()

	if err := c.store.Delete(ctx, utils.CacheEntryName(key)); err != nil {
		return err
	}
	c.notify(key, m, offline.State[T]{Status: offline.StatusEmpty, UpdatedAt: c.now()})
	return nil
}

// Subscribe registers fn for every state change of key until the returned
// func is called.
func (c *Cache[T]) Subscribe(key string, fn func(offline.State[T])) (unsubscribe func()) {
	m := c.meta(key)
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

func (c *Cache[T]) wait(ctx context.Context, f *flight[T]) offline.State[T] {
	select {
	case <-f.done:
		return f.state
	case <-ctx.Done():
		return offline.State[T]{IsLoading: true, Status: offline.StatusLoading, Err: ctx.Err()}
	}
}

// revalidate joins the in-flight fetch for key or starts one.
func (c *Cache[T]) revalidate(ctx context.Context, key string, m *keyMeta[T]) *flight[T] {
	m.mu.Lock()
	if m.flight != nil {
		f := m.flight
		m.mu.Unlock()
		return f
	}
	f := &flight[T]{gen: m.gen, done: make(chan struct{})}
	m.flight = f
	fetcher, ttl := m.fetcher, m.ttl
	m.mu.Unlock()

	c.notify(key, m, c.loadingState(ctx, key))

	bg := context.WithoutCancel(ctx)
	task := func() {
		if err := utils.SafelyRun(func() { c.runFlight(bg, key, m, f, fetcher, ttl) }); err != nil {
			logger.Errorf(bg, "cache revalidate %s panic: %+v", key, err)
			c.finish(key, m, f, c.failedState(bg, key, code.UnknownErr.WithErr(err)), nil)
		}
	}
	if c.pool == nil || c.pool.Submit(task) != nil {
		go task()
	}
	return f
}

func (c *Cache[T]) runFlight(ctx context.Context, key string, m *keyMeta[T], f *flight[T], fetcher offline.Fetcher[T], ttl time.Duration) {
	fctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	start := time.Now()
	data, err := c.fetch(fctx, fetcher)
	recordFetch(ctx, time.Since(start).Seconds(), err)
	if err != nil {
		if errors.Is(fctx.Err(), context.DeadlineExceeded) {
			err = code.NetworkErr.WithMsgf("fetch %s timed out after %s", key, c.fetchTimeout).WithErr(err)
		} else if ec := (*code.ErrCode)(nil); !errors.As(err, &ec) {
			err = code.NetworkErr.WithErr(err)
		}
		logger.Warnf(ctx, "cache fetch %s fail err: %+v", key, err)
		c.finish(key, m, f, c.failedState(ctx, key, err), nil)
		return
	}

	now := c.now()
	state := offline.State[T]{Data: data, HasData: true, Status: offline.StatusFresh, UpdatedAt: now}
	raw, err := json.Marshal(data)
	if err != nil {
		state.Err = code.StorageErr.WithMsgf("encode %s", key).WithErr(err)
		c.finish(key, m, f, state, nil)
		return
	}
	c.finish(key, m, f, state, &offline.Entry{Data: raw, Timestamp: now, TTL: ttl})
}

type fetched[T any] struct {
	data T
	err  error
}

// fetch runs fetcher and gives up when ctx ends, even if fetcher ignores ctx.
func (c *Cache[T]) fetch(ctx context.Context, fetcher offline.Fetcher[T]) (T, error) {
	done := make(chan fetched[T], 1)
	utils.SafelyGo(func() {
		data, err := fetcher(ctx)
		done <- fetched[T]{data: data, err: err}
	}, func(err error) {
		done <- fetched[T]{err: code.UnknownErr.WithErr(err)}
	})

	select {
	case res := <-done:
		return res.data, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// loadingState announces a revalidation, carrying any persisted data.
func (c *Cache[T]) loadingState(ctx context.Context, key string) offline.State[T] {
	entry, data, ok := c.load(ctx, key)
	if !ok {
		return offline.State[T]{IsLoading: true, Status: offline.StatusLoading, UpdatedAt: c.now()}
	}
	return offline.State[T]{
		Data:      data,
		HasData:   true,
		IsStale:   !entry.Fresh(c.now()),
		IsLoading: true,
		Status:    offline.StatusLoading,
		UpdatedAt: entry.Timestamp,
	}
}

// failedState keeps any persisted data next to the fetch error.
func (c *Cache[T]) failedState(ctx context.Context, key string, err error) offline.State[T] {
	entry, data, ok := c.load(ctx, key)
	if !ok {
		return offline.State[T]{
			Status:    offline.StatusError,
			Err:       code.NotFoundErr.WithMsgf("no cached data for %s", key).WithErr(err),
			UpdatedAt: c.now(),
		}
	}
	state := offline.State[T]{
		Data:      data,
		HasData:   true,
		IsStale:   !entry.Fresh(c.now()),
		Err:       err,
		Status:    offline.StatusFresh,
		UpdatedAt: entry.Timestamp,
	}
	if state.IsStale {
		state.Status = offline.StatusStale
	}
	return state
}

// finish persists entry when the key was not cleared meanwhile, publishes the
// state and releases the waiters.
func (c *Cache[T]) finish(key string, m *keyMeta[T], f *flight[T], state offline.State[T], entry *offline.Entry) {
	f.once.Do(func() {
		m.mu.Lock()
		current := m.gen == f.gen
		if m.flight == f {
			m.flight = nil
		}
		if current && entry != nil {
			if err := c.save(context.Background(), key, entry); err != nil {
				state.Err = err
			}
		}
		m.mu.Unlock()

		f.state = state
		if current {
			c.notify(key, m, state)
		}
		close(f.done)
	})
}

func (c *Cache[T]) notify(key string, m *keyMeta[T], state offline.State[T]) {
	m.mu.Lock()
	subs := make([]func(offline.State[T]), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		if err := utils.SafelyRun(func() { fn(state) }); err != nil {
			logger.Errorf(context.Background(), "cache subscriber %s panic: %+v", key, err)
		}
	}
	if c.onUpdate != nil {
		c.onUpdate(key, state.Status)
	}
}

// load reads the persisted entry. Storage and decode failures count as a
// miss.
func (c *Cache[T]) load(ctx context.Context, key string) (*offline.Entry, T, bool) {
	var zero T
	raw, err := c.store.Get(ctx, utils.CacheEntryName(key))
	if err != nil {
		if !errors.Is(err, code.NotFoundErr) {
			logger.Warnf(ctx, "cache load %s fail err: %+v", key, err)
		}
		return nil, zero, false
	}

	entry := &offline.Entry{}
	if err := json.Unmarshal(raw, entry); err != nil {
		logger.Warnf(ctx, "cache decode entry %s fail err: %+v", key, err)
		return nil, zero, false
	}
	var data T
	if err := json.Unmarshal(entry.Data, &data); err != nil {
		logger.Warnf(ctx, "cache decode data %s fail err: %+v", key, err)
		return nil, zero, false
	}
	return entry, data, true
}

func (c *Cache[T]) save(ctx context.Context, key string, entry *offline.Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return code.StorageErr.WithErr(err)
	}
	if err := c.store.Set(ctx, utils.CacheEntryName(key), raw); err != nil {
		logger.Errorf(ctx, "cache save %s fail err: %+v", key, err)
		return code.StorageErr.WithErr(err)
	}
	return nil
}
