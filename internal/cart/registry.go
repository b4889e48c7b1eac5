package cart

import (
	"context"
	"sync"
)

type session struct {
	mu      sync.Mutex
	cart    *Cart
	evicted bool
}

// Registry holds one cart per session id in memory and serializes access to
// each cart. A cart left empty by a callback is evicted before its lock is
// released, so only carts with lines occupy memory.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*session{}}
}

// WithCart runs fn with exclusive access to the cart of id, starting an empty
// cart if there is none.
func (r *Registry) WithCart(ctx context.Context, id string, fn func(*Cart) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := r.session(id, true)
		s.mu.Lock()
		if s.evicted {
			// emptied while we waited; start over on a fresh session
			s.mu.Unlock()
			continue
		}
		err := fn(s.cart)
		r.evictIfEmpty(id, s)
		s.mu.Unlock()
		return err
	}
}

// WithExistingCart runs fn with exclusive access to the cart of id if it has
// lines. It never creates a session and reports whether the cart was found.
func (r *Registry) WithExistingCart(ctx context.Context, id string, fn func(*Cart) error) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s := r.session(id, false)
	if s == nil {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return false, nil
	}
	err := fn(s.cart)
	r.evictIfEmpty(id, s)
	return true, err
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// evictIfEmpty must be called with s.mu held.
func (r *Registry) evictIfEmpty(id string, s *session) {
	if s.cart.Len() > 0 {
		return
	}
	r.mu.Lock()
	if r.sessions[id] == s {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	s.evicted = true
}

func (r *Registry) session(id string, create bool) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok && create {
		s = &session{cart: New()}
		r.sessions[id] = s
	}
	return s
}
