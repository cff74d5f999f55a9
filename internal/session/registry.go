package session

import (
	"errors"
	"sync"
	"time"

	"gedquiz/internal/quiz"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionForbidden = errors.New("session belongs to another user")
)

type entry struct {
	engine  *quiz.Engine
	owner   string
	touched time.Time
}

// Registry holds the live sessions of this process. A session started by a
// signed-in user can only be driven by that user; anonymous sessions by
// anyone holding the id.
type Registry struct {
	mu       sync.Mutex
	items    map[string]*entry
	now      func() time.Time
	onChange func(n int)
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*entry), now: time.Now}
}

// OnChange registers a callback receiving the session count after every
// add or removal.
func (r *Registry) OnChange(fn func(n int)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Registry) Add(e *quiz.Engine) {
	r.mu.Lock()
	r.items[e.ID()] = &entry{engine: e, owner: e.UserID(), touched: r.now()}
	n, fn := len(r.items), r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id, userID string) (*quiz.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if it.owner != "" && it.owner != userID {
		return nil, ErrSessionForbidden
	}
	it.touched = r.now()
	return it.engine, nil
}

// Remove ends a session. Unconfirmed answers are discarded.
func (r *Registry) Remove(id, userID string) error {
	r.mu.Lock()
	it, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	if it.owner != "" && it.owner != userID {
		r.mu.Unlock()
		return ErrSessionForbidden
	}
	delete(r.items, id)
	n, fn := len(r.items), r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(n)
	}
	return nil
}

// Sweep drops sessions untouched for longer than idle and returns how many
// were removed.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	removed := 0
	for id, it := range r.items {
		if it.touched.Before(cutoff) {
			delete(r.items, id)
			removed++
		}
	}
	n, fn := len(r.items), r.onChange
	r.mu.Unlock()
	if fn != nil && removed > 0 {
		fn(n)
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
