package partition

import (
	"fmt"
	"sync"
)

// Placeholder symbols live above the ASCII range so they never collide with
// a state code, a gap or the missing symbol.
const (
	firstPlaceholder = 0x80
	lastPlaceholder  = 0xFF
)

// IsPlaceholder reports whether c belongs to the placeholder symbol space.
func IsPlaceholder(c byte) bool {
	return c >= firstPlaceholder
}

// Registry assigns reusable single-byte placeholders to bracketed
// polymorphic state lists such as "[01]". It is created once per run.
type Registry struct {
	mu       sync.Mutex
	bySymbol map[byte]string
	byStates map[string]byte
	next     int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bySymbol: make(map[byte]string),
		byStates: make(map[string]byte),
		next:     firstPlaceholder,
	}
}

// Register returns the placeholder for states, allocating one on first use.
func (r *Registry) Register(states string) (byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sym, ok := r.byStates[states]; ok {
		return sym, nil
	}
	if r.next > lastPlaceholder {
		return 0, fmt.Errorf("%w: cannot register %s", ErrRegistryFull, states)
	}
	sym := byte(r.next)
	r.next++
	r.byStates[states] = sym
	r.bySymbol[sym] = states
	return sym, nil
}

// Expand returns the bracketed state list behind a placeholder.
func (r *Registry) Expand(sym byte) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.bySymbol[sym]
	return s, ok
}

// Len returns the number of registered combinations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bySymbol)
}
