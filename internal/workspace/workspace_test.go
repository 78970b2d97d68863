package workspace

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"finspark-backoffice/internal/notify"
	"finspark-backoffice/internal/query"
	"finspark-backoffice/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(storage session.Storage) *Registry {
	return NewRegistry(storage, notify.NewCenter(), Config{SessionMaxAge: time.Hour, QueryTTL: time.Minute})
}

func TestRegistry_ForReusesWorkspace(t *testing.T) {
	r := newRegistry(session.NewMemoryStorage())

	a, err := r.For("browser-1")
	require.NoError(t, err)
	b, err := r.For("browser-1")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, "browser-1", a.Notify.Audience())

	_, err = r.For("")
	assert.Error(t, err)
}

func TestRegistry_PruneKeepsDurableSession(t *testing.T) {
	storage := session.NewMemoryStorage()
	r := newRegistry(storage)
	now := time.Now()
	r.now = func() time.Time { return now }

	ws, err := r.For("browser-1")
	require.NoError(t, err)
	require.NoError(t, ws.Session.SetAuth("alice", "a@example.com", "tok", "ADMIN"))

	now = now.Add(time.Hour)
	assert.Equal(t, 1, r.Prune(30*time.Minute))
	assert.Zero(t, r.Len())

	restored, err := r.For("browser-1")
	require.NoError(t, err)
	assert.NotSame(t, ws, restored)
	assert.Equal(t, "alice", restored.Session.Current().User)
}

func TestRegistry_SessionChangeClearsQueries(t *testing.T) {
	r := newRegistry(session.NewMemoryStorage())
	ws, err := r.For("browser-1")
	require.NoError(t, err)

	_, err = query.Fetch(context.Background(), ws.Queries, query.K("customers", 0, 5), func(ctx context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, ws.Queries.Stats().Entries)

	require.NoError(t, ws.Session.Logout())
	assert.Zero(t, ws.Queries.Stats().Entries)
}

// slowStorage blocks reads of one browser until release is closed
type slowStorage struct {
	*session.MemoryStorage
	prefix  string
	release chan struct{}
	reads   atomic.Int32
}

func (s *slowStorage) Get(key string) ([]byte, error) {
	if strings.HasPrefix(key, s.prefix) {
		s.reads.Add(1)
		<-s.release
	}
	return s.MemoryStorage.Get(key)
}

func TestRegistry_SlowRestoreDoesNotBlockOthers(t *testing.T) {
	storage := &slowStorage{MemoryStorage: session.NewMemoryStorage(), prefix: "slow:", release: make(chan struct{})}
	r := newRegistry(storage)

	var wg sync.WaitGroup
	results := make([]*Workspace, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ws, err := r.For("slow")
			assert.NoError(t, err)
			results[i] = ws
		}(i)
	}

	done := make(chan struct{})
	go func() {
		_, err := r.For("fast")
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("restore of one browser blocked another")
	}

	close(storage.release)
	wg.Wait()

	assert.Same(t, results[0], results[1])
	assert.Equal(t, 2, r.Len())
	assert.LessOrEqual(t, storage.reads.Load(), int32(4))
}
