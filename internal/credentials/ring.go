// Package credentials provides the rotating pool of interchangeable upstream
// credentials used by the generation providers.
package credentials

import (
	"sync"

	"reelgen/internal/services"
)

// Ring is a fixed-size ring of credentials with a cursor. Current and Advance
// are safe for concurrent use. Rotation is not fair: concurrent failures may
// advance the cursor more than once between reads.
type Ring[T any] struct {
	mu      sync.Mutex
	entries []T
	cursor  int
}

// New returns a ring over entries, starting at the first entry.
func New[T any](entries []T) *Ring[T] {
	return &Ring[T]{entries: append([]T(nil), entries...)}
}

// Current returns the entry under the cursor.
func (r *Ring[T]) Current() (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if len(r.entries) == 0 {
		return zero, services.Wrap(services.ErrNoCredentials, "", "credential ring", "no credentials configured", nil)
	}
	return r.entries[r.cursor], nil
}

// Advance moves the cursor to the next entry, wrapping at the end, and
// returns the new current entry.
func (r *Ring[T]) Advance() (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if len(r.entries) == 0 {
		return zero, services.Wrap(services.ErrNoCredentials, "", "credential ring", "no credentials configured", nil)
	}
	r.cursor = (r.cursor + 1) % len(r.entries)
	return r.entries[r.cursor], nil
}

// Index returns the cursor position.
func (r *Ring[T]) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// Len returns the number of entries.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Mask shortens a secret for logs, keeping the last four characters.
func Mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
