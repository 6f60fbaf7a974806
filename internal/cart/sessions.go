package cart

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// StoreFactory builds the snapshot store for a session's cart.
type StoreFactory func(sessionID uuid.UUID) Store

type session struct {
	mu   sync.Mutex
	cart *Cart
}

// Sessions hands out one cart per browsing session. Carts themselves are
// unsynchronized; the registry serializes access per session so
// concurrent requests from the same client cannot interleave mutations.
type Sessions struct {
	mu      sync.RWMutex
	active  map[uuid.UUID]*session
	factory StoreFactory
	logger  apt.Logger
}

func NewSessions(factory StoreFactory, logger apt.Logger) *Sessions {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if factory == nil {
		factory = func(uuid.UUID) Store { return NewMemoryStore() }
	}
	return &Sessions{
		active:  make(map[uuid.UUID]*session),
		factory: factory,
		logger:  logger,
	}
}

// With runs fn against the session's cart under the session lock,
// creating and rehydrating the cart on first use.
func (s *Sessions) With(ctx context.Context, id uuid.UUID, fn func(cart *Cart) error) error {
	sess := s.ensure(ctx, id)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.cart)
}

// Drop forgets a session's in-memory cart. The persisted snapshot, if
// any, survives and rehydrates on next use.
func (s *Sessions) Drop(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

func (s *Sessions) ensure(ctx context.Context, id uuid.UUID) *session {
	s.mu.RLock()
	sess, ok := s.active[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.active[id]; ok {
		return sess
	}
	sess = &session{
		cart: New(ctx, s.factory(id), s.logger.With("session_id", id.String())),
	}
	s.active[id] = sess
	return sess
}
