package fsprobe

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
	"git.home.luguber.info/inful/commentlink/internal/foundation"
	"git.home.luguber.info/inful/commentlink/internal/metrics"
)

// Cache memoizes existence and line counts of another FileSystem, keyed by
// normalized path. Errors are never cached. Concurrent misses for the same
// path share one underlying call, which runs detached from any single
// caller's cancellation and is bounded by SharedCallTimeout instead.
//
// A Cache is meant to live for one scan batch; watchers call Invalidate for
// changed paths and batch starts call InvalidateAll.
type Cache struct {
	next     commentlink.FileSystem
	recorder metrics.Recorder

	mu      sync.RWMutex
	entries map[string]entry
	gen     uint64 // bumped by every invalidation, guarded by mu
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	exists foundation.Option[bool]
	lines  foundation.Option[int]
}

// CacheStats is a point-in-time view of cache effectiveness.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// SharedCallTimeout bounds one coalesced call to the wrapped FileSystem.
const SharedCallTimeout = commentlink.DefaultFSTimeout

var _ commentlink.FileSystem = (*Cache)(nil)

// NewCache wraps next. A nil recorder disables metrics.
func NewCache(next commentlink.FileSystem, recorder metrics.Recorder) *Cache {
	return &Cache{
		next:     next,
		recorder: metrics.OrNoop(recorder),
		entries:  make(map[string]entry),
	}
}

func (c *Cache) FileExists(ctx context.Context, path string) (bool, error) {
	key := commentlink.NormalizePath(path)
	e, gen, ok := c.lookup(key)
	if v, found := e.exists.Get(); ok && found {
		c.hit()
		return v, nil
	}
	c.miss()

	v, err := c.shared(ctx, "exists", key, gen, func(ctx context.Context) (any, error) {
		return c.next.FileExists(ctx, key)
	})
	if err != nil {
		return false, err
	}
	exists := v.(bool)
	c.store(key, gen, func(e *entry) { e.exists = foundation.Some(exists) })
	return exists, nil
}

func (c *Cache) LineCount(ctx context.Context, path string) (int, error) {
	key := commentlink.NormalizePath(path)
	e, gen, ok := c.lookup(key)
	if v, found := e.lines.Get(); ok && found {
		c.hit()
		return v, nil
	}
	c.miss()

	v, err := c.shared(ctx, "lines", key, gen, func(ctx context.Context) (any, error) {
		return c.next.LineCount(ctx, key)
	})
	if err != nil {
		return 0, err
	}
	lines := v.(int)
	c.store(key, gen, func(e *entry) { e.lines = foundation.Some(lines) })
	return lines, nil
}

// shared runs fn once per kind, key and generation. Callers joining after an
// invalidation start a fresh call. Each caller stops waiting when its own ctx
// is done; the call itself keeps running for the others.
func (c *Cache) shared(ctx context.Context, kind, key string, gen uint64, fn func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(strconv.FormatUint(gen, 10)+"\x00"+kind+"\x00"+key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SharedCallTimeout)
		defer cancel()
		return fn(callCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// Invalidate drops path and, for directories, everything below it.
func (c *Cache) Invalidate(path string) {
	key := commentlink.NormalizePath(path)
	prefix := strings.TrimSuffix(key, "/") + "/"

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	delete(c.entries, key)
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// InvalidateAll empties the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[string]entry)
}

func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{Entries: n, Hits: c.hits.Load(), Misses: c.misses.Load()}
}

func (c *Cache) lookup(key string) (entry, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, c.gen, ok
}

// store applies update unless an invalidation happened since gen was read,
// in which case the answer may predate the change and is dropped.
func (c *Cache) store(key string, gen uint64, update func(*entry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	e := c.entries[key]
	update(&e)
	c.entries[key] = e
}

func (c *Cache) hit() {
	c.hits.Add(1)
	c.recorder.IncCacheLookup(true)
}

func (c *Cache) miss() {
	c.misses.Add(1)
	c.recorder.IncCacheLookup(false)
}
