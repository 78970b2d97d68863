// Package workspace binds the per-browser state together: the session,
// the notification channel and the read cache of one browser id.
package workspace

import (
	"fmt"
	"log"
	"sync"
	"time"

	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/notify"
	"finspark-backoffice/internal/observability/metrics"
	"finspark-backoffice/internal/query"
	"finspark-backoffice/internal/session"

	"golang.org/x/sync/singleflight"
)

// Workspace is everything one browser owns in this process
type Workspace struct {
	ID      string
	Session *session.Store
	Notify  *notify.Channel
	Queries *query.Client

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns the last time the browser made a request
func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

// Config holds registry settings
type Config struct {
	SessionMaxAge time.Duration
	QueryTTL      time.Duration
}

// Registry creates workspaces lazily and restores their sessions from storage
type Registry struct {
	mu        sync.Mutex
	items     map[string]*Workspace
	restoring singleflight.Group
	storage   session.Storage
	center    *notify.Center
	cfg       Config
	now       func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(storage session.Storage, center *notify.Center, cfg Config) *Registry {
	return &Registry{
		items:   make(map[string]*Workspace),
		storage: storage,
		center:  center,
		cfg:     cfg,
		now:     time.Now,
	}
}

// For returns the workspace of browser id, restoring it when needed.
// Restores run outside the registry lock; concurrent requests of one
// browser share a single restore.
func (r *Registry) For(id string) (*Workspace, error) {
	if id == "" {
		return nil, fmt.Errorf("workspace: %w", domain.ErrNoSession)
	}
	if ws := r.lookup(id); ws != nil {
		return ws, nil
	}

	v, err, _ := r.restoring.Do(id, func() (interface{}, error) {
		if ws := r.lookup(id); ws != nil {
			return ws, nil
		}
		ws, err := r.restore(id)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.items[id] = ws
		metrics.SetActiveWorkspaces(len(r.items))
		r.mu.Unlock()
		return ws, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Workspace), nil
}

// lookup returns a live workspace and marks it as seen
func (r *Registry) lookup(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.items[id]
	if !ok {
		return nil
	}
	ws.touch(r.now())
	return ws
}

// restore rebuilds the workspace of id from storage
func (r *Registry) restore(id string) (*Workspace, error) {
	store, err := session.NewStore(id, r.storage, r.cfg.SessionMaxAge)
	if err != nil {
		return nil, err
	}

	queries := query.NewClient(r.cfg.QueryTTL)
	// a changed identity must never read the previous one's cache
	store.Subscribe(func(domain.Session) { queries.Clear() })

	return &Workspace{
		ID:       id,
		Session:  store,
		Notify:   r.center.Channel(id),
		Queries:  queries,
		lastSeen: r.now(),
	}, nil
}

// Prune drops workspaces idle for longer than idle. Their sessions stay
// in durable storage and are restored on the next request.
func (r *Registry) Prune(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, ws := range r.items {
		if ws.LastSeen().Before(cutoff) {
			delete(r.items, id)
			r.center.Forget(id)
			removed++
		}
	}
	metrics.SetActiveWorkspaces(len(r.items))
	if removed > 0 {
		log.Printf("🧹 Pruned %d idle workspaces", removed)
	}
	return removed
}

// Each calls fn for every live workspace
func (r *Registry) Each(fn func(*Workspace)) {
	r.mu.Lock()
	items := make([]*Workspace, 0, len(r.items))
	for _, ws := range r.items {
		items = append(items, ws)
	}
	r.mu.Unlock()

	for _, ws := range items {
		fn(ws)
	}
}

// Len returns the number of live workspaces
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
