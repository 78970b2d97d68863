// Package session holds the signed-in identity of each browser and
// mirrors it to durable storage so it survives restarts.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/observability/metrics"
)

// Durable keys, namespaced per browser
const (
	KeyUser  = "user"
	KeyEmail = "email"
	KeyToken = "token"
	KeyRole  = "role"
)

// Keys lists every durable key of a session
var Keys = []string{KeyUser, KeyEmail, KeyToken, KeyRole}

// ErrIncomplete is returned when SetAuth lacks a user or token
var ErrIncomplete = errors.New("session requires a user and a token")

// Store is the session of one browser
type Store struct {
	mu      sync.RWMutex
	id      string
	storage Storage
	maxAge  time.Duration
	current domain.Session

	subMu   sync.Mutex
	subs    map[int]func(domain.Session)
	nextSub int
}

// NewStore restores the session of browser id from storage.
// A partial durable record restores as anonymous.
func NewStore(id string, storage Storage, maxAge time.Duration) (*Store, error) {
	s := &Store{
		id:      id,
		storage: storage,
		maxAge:  maxAge,
		subs:    make(map[int]func(domain.Session)),
	}

	restored, err := s.load()
	if err != nil {
		return nil, err
	}
	s.current = restored
	return s, nil
}

// ID returns the browser id
func (s *Store) ID() string {
	return s.id
}

// Current returns a snapshot of the session
func (s *Store) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the bearer token, empty when anonymous
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// Authenticated reports whether a token is present
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// SetAuth writes all four fields to storage and memory. Readers observe
// either the previous session or the new one, never a mix.
func (s *Store) SetAuth(user, email, token, role string) error {
	if user == "" || token == "" {
		return ErrIncomplete
	}
	next := domain.Session{User: user, Email: email, Token: token, Role: role}

	s.mu.Lock()
	if err := s.persist(s.current, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = next
	s.mu.Unlock()

	metrics.ObserveSessionTransition("login")
	s.broadcast(next)
	return nil
}

// Logout removes all four fields from storage and memory
func (s *Store) Logout() error {
	s.mu.Lock()
	err := s.erase()
	s.current = domain.Session{}
	s.mu.Unlock()

	metrics.ObserveSessionTransition("logout")
	s.broadcast(domain.Session{})
	return err
}

// Subscribe registers fn for every session change
func (s *Store) Subscribe(fn func(domain.Session)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) broadcast(current domain.Session) {
	s.subMu.Lock()
	subs := make([]func(domain.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(current)
	}
}

func (s *Store) key(name string) string {
	return s.id + ":" + name
}

func (s *Store) load() (domain.Session, error) {
	values := make(map[string]string, len(Keys))
	for _, name := range Keys {
		raw, err := s.storage.Get(s.key(name))
		if err != nil {
			return domain.Session{}, fmt.Errorf("restore session %s: %w", name, err)
		}
		values[name] = string(raw)
	}

	restored := domain.Session{
		User:  values[KeyUser],
		Email: values[KeyEmail],
		Token: values[KeyToken],
		Role:  values[KeyRole],
	}
	if restored.User == "" || restored.Token == "" {
		if restored != (domain.Session{}) {
			// Leftover from an interrupted write
			_ = s.erase()
		}
		return domain.Session{}, nil
	}
	return restored, nil
}

func (s *Store) values(sess domain.Session) map[string][]byte {
	return map[string][]byte{
		s.key(KeyUser):  []byte(sess.User),
		s.key(KeyEmail): []byte(sess.Email),
		s.key(KeyToken): []byte(sess.Token),
		s.key(KeyRole):  []byte(sess.Role),
	}
}

// persist writes next over prev. Without batch support a failed write
// puts prev back so storage never holds a mix.
func (s *Store) persist(prev, next domain.Session) error {
	if batch, ok := s.storage.(Batch); ok {
		if err := batch.SetMany(s.values(next), s.maxAge); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
		return nil
	}

	if err := s.setEach(next); err != nil {
		if prev.IsZero() {
			_ = s.erase()
		} else {
			_ = s.setEach(prev)
		}
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *Store) setEach(sess domain.Session) error {
	for key, val := range s.values(sess) {
		if err := s.storage.Set(key, val, s.maxAge); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) erase() error {
	keys := make([]string, 0, len(Keys))
	for _, name := range Keys {
		keys = append(keys, s.key(name))
	}

	if batch, ok := s.storage.(Batch); ok {
		return batch.DeleteMany(keys...)
	}

	var errs []error
	for _, key := range keys {
		if err := s.storage.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

