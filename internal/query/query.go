// Package query is the per-browser read cache. Identical reads in flight
// share one request, results live for a TTL and mutations invalidate
// them by key prefix.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"finspark-backoffice/internal/observability/metrics"

	"golang.org/x/sync/singleflight"
)

// ErrDisabled is returned by a read whose enabled condition is false
var ErrDisabled = errors.New("query disabled")

// Key identifies a cached read, e.g. {"customers", "0", "5"}
type Key []string

// K builds a key from arbitrary parts
func K(parts ...interface{}) Key {
	key := make(Key, len(parts))
	for i, p := range parts {
		key[i] = fmt.Sprint(p)
	}
	return key
}

// String joins the parts with "/"
func (k Key) String() string {
	return strings.Join(k, "/")
}

// Resource returns the first part of the key
func (k Key) Resource() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// HasPrefix reports whether k starts with every part of prefix
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Stats are the cache counters of one client
type Stats struct {
	Hits          int64
	Misses        int64
	Shared        int64
	Discarded     int64
	Invalidations int64
	Entries       int
}

type entry struct {
	key       Key
	value     interface{}
	expiresAt time.Time
}

// Client is the read cache of one browser
type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	gen     uint64
	group   singleflight.Group
	ttl     time.Duration
	now     func() time.Time

	hits, misses, shared, discarded, invalidations atomic.Int64
}

// NewClient creates a cache whose entries live for ttl by default
func NewClient(ttl time.Duration) *Client {
	return &Client{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Option tweaks a single Fetch
type Option func(*options)

type options struct {
	ttl     time.Duration
	ttlSet  bool
	enabled bool
}

// WithTTL overrides the retention of this read. Zero keeps nothing.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		o.ttl = d
		o.ttlSet = true
	}
}

// Disabled turns the read off
func Disabled() Option {
	return EnabledIf(false)
}

// EnabledIf turns the read off when cond is false
func EnabledIf(cond bool) Option {
	return func(o *options) {
		o.enabled = o.enabled && cond
	}
}

type result struct {
	value interface{}
	gen   uint64
}

// Fetch returns the cached value for key or loads it with fn.
//
// Concurrent calls for the same key share one fn call. fn runs detached
// from the caller's cancellation; a caller whose ctx ends first gets
// ctx.Err() and never the late value. A value loaded across an
// Invalidate of its key is returned but not retained.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var zero T

	o := options{ttl: c.ttl, enabled: true}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.enabled {
		metrics.ObserveQuery(key.Resource(), "disabled")
		return zero, ErrDisabled
	}

	id := key.String()

	c.mu.Lock()
	if e, ok := c.entries[id]; ok {
		if c.now().Before(e.expiresAt) {
			c.mu.Unlock()
			if v, ok := e.value.(T); ok {
				c.hits.Add(1)
				metrics.ObserveQuery(key.Resource(), "hit")
				return v, nil
			}
		} else {
			delete(c.entries, id)
			c.mu.Unlock()
		}
	} else {
		c.mu.Unlock()
	}

	started := c.generation()
	flight := fmt.Sprintf("%s#%d", id, started)
	detached := context.WithoutCancel(ctx)

	ch := c.group.DoChan(flight, func() (interface{}, error) {
		v, err := fn(detached)
		if err != nil {
			return nil, err
		}
		c.store(key, v, started, o.ttl)
		return result{value: v, gen: started}, nil
	})

	select {
	case <-ctx.Done():
		c.discarded.Add(1)
		metrics.ObserveQuery(key.Resource(), "discarded")
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.shared.Add(1)
			metrics.ObserveQuery(key.Resource(), "shared")
		} else {
			c.misses.Add(1)
			metrics.ObserveQuery(key.Resource(), "miss")
		}
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(result).value.(T)
		if !ok {
			return zero, fmt.Errorf("query %s: cached value has unexpected type %T", id, res.Val.(result).value)
		}
		return v, nil
	}
}

// Invalidate discards every entry whose key starts with prefix and
// keeps loads already in flight from being retained. It returns the
// number of entries removed.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	c.gen++
	removed := 0
	for id, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			delete(c.entries, id)
			removed++
		}
	}
	c.mu.Unlock()

	c.invalidations.Add(1)
	metrics.ObserveInvalidation(prefix.Resource())
	return removed
}

// Clear drops every entry
func (c *Client) Clear() {
	c.mu.Lock()
	c.gen++
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Sweep evicts expired entries and returns how many were removed
func (c *Client) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of the counters
func (c *Client) Stats() Stats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Shared:        c.shared.Load(),
		Discarded:     c.discarded.Load(),
		Invalidations: c.invalidations.Load(),
		Entries:       entries,
	}
}

func (c *Client) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *Client) store(key Key, value interface{}, started uint64, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// invalidated while loading
	if c.gen != started {
		return
	}
	c.entries[key.String()] = &entry{
		key:       key,
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}
