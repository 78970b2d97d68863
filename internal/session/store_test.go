package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"finspark-backoffice/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStorage is a plain Storage without batch support
type mockStorage struct {
	mu      sync.Mutex
	values  map[string][]byte
	SetFunc func(key string, val []byte) error
}

func newMockStorage() *mockStorage {
	return &mockStorage{values: make(map[string][]byte)}
}

func (m *mockStorage) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *mockStorage) Set(key string, val []byte, _ time.Duration) error {
	if m.SetFunc != nil {
		if err := m.SetFunc(key, val); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = val
	return nil
}

func (m *mockStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *mockStorage) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

func TestStore_StartsAnonymous(t *testing.T) {
	s, err := NewStore("b1", NewMemoryStorage(), time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "b1", s.ID())
	assert.False(t, s.Authenticated())
	assert.True(t, s.Current().IsZero())
	assert.Empty(t, s.Token())
}

func TestStore_SetAuthAndRestore(t *testing.T) {
	storage := NewMemoryStorage()
	s, err := NewStore("b1", storage, time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.SetAuth("admin", "admin@finspark.io", "tok", "ADMIN"))
	assert.True(t, s.Authenticated())
	assert.Equal(t, domain.Session{User: "admin", Email: "admin@finspark.io", Token: "tok", Role: "ADMIN"}, s.Current())

	restored, err := NewStore("b1", storage, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, s.Current(), restored.Current())

	other, err := NewStore("b2", storage, time.Hour)
	require.NoError(t, err)
	assert.False(t, other.Authenticated())
}

func TestStore_SetAuthRequiresUserAndToken(t *testing.T) {
	s, err := NewStore("b1", NewMemoryStorage(), time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetAuth("", "e", "tok", "USER"), ErrIncomplete)
	assert.ErrorIs(t, s.SetAuth("u", "e", "", "USER"), ErrIncomplete)
	assert.False(t, s.Authenticated())
}

func TestStore_LogoutClearsStorage(t *testing.T) {
	storage := newMockStorage()
	s, err := NewStore("b1", storage, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.SetAuth("admin", "admin@finspark.io", "tok", "ADMIN"))
	assert.Equal(t, len(Keys), storage.len())

	require.NoError(t, s.Logout())
	assert.False(t, s.Authenticated())
	assert.Zero(t, storage.len())
}

func TestStore_PartialRecordRestoresAnonymous(t *testing.T) {
	storage := newMockStorage()
	require.NoError(t, storage.Set("b1:"+KeyUser, []byte("admin"), 0))

	s, err := NewStore("b1", storage, time.Hour)
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
	assert.Zero(t, storage.len(), "leftover keys are removed")
}

func TestStore_FailedWriteKeepsPreviousSession(t *testing.T) {
	storage := newMockStorage()
	s, err := NewStore("b1", storage, time.Hour)
	require.NoError(t, err)

	storage.SetFunc = func(key string, _ []byte) error {
		if key == "b1:"+KeyRole {
			return errors.New("disk full")
		}
		return nil
	}

	err = s.SetAuth("admin", "admin@finspark.io", "tok", "ADMIN")
	require.Error(t, err)
	assert.False(t, s.Authenticated())
	assert.Zero(t, storage.len())
}

func TestStore_FailedWriteRestoresPreviousRecord(t *testing.T) {
	storage := newMockStorage()
	s, err := NewStore("b1", storage, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.SetAuth("admin", "admin@finspark.io", "tok-1", "ADMIN"))

	storage.SetFunc = func(key string, val []byte) error {
		if key == "b1:"+KeyRole && string(val) == "VIEWER" {
			return errors.New("disk full")
		}
		return nil
	}

	err = s.SetAuth("bob", "bob@finspark.io", "tok-2", "VIEWER")
	require.Error(t, err)
	assert.Equal(t, "admin", s.Current().User)

	restored, err := NewStore("b1", storage, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, domain.Session{User: "admin", Email: "admin@finspark.io", Token: "tok-1", Role: "ADMIN"}, restored.Current())
}

func TestStore_SubscribersSeeEveryChange(t *testing.T) {
	s, err := NewStore("b1", NewMemoryStorage(), time.Hour)
	require.NoError(t, err)

	var seen []domain.Session
	cancel := s.Subscribe(func(cur domain.Session) { seen = append(seen, cur) })

	require.NoError(t, s.SetAuth("admin", "", "tok", "ADMIN"))
	require.NoError(t, s.Logout())
	cancel()
	require.NoError(t, s.SetAuth("admin", "", "tok", "ADMIN"))

	require.Len(t, seen, 2)
	assert.Equal(t, "tok", seen[0].Token)
	assert.True(t, seen[1].IsZero())
}

func TestMemoryStorage_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStorage()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set("k", []byte("v"), time.Minute))
	require.NoError(t, m.Set("forever", []byte("v"), 0))

	now = now.Add(2 * time.Minute)
	val, err := m.Get("k")
	require.NoError(t, err)
	assert.Nil(t, val)

	val, err = m.Get("forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}
