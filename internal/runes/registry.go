package runes

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
)

// DefaultMaxAttempts bounds how many designs Assign generates per identity.
const DefaultMaxAttempts = 64

// Generator produces a candidate design.
type Generator func(rng *rand.Rand) (Design, error)

// RandomGenerator returns a Generator that draws between lo and hi random
// lines on domain and consolidates them. Empty designs are never produced.
func RandomGenerator(domain Domain, lo, hi int) Generator {
	if lo < 1 {
		lo = 1
	}
	return func(rng *rand.Rand) (Design, error) {
		return NewBuilder(domain).AddRandomLines(rng, lo, hi).Consolidate().Make()
	}
}

// Registry assigns every identity a design no other identity holds.
type Registry struct {
	mu          sync.RWMutex
	generate    Generator
	rng         *rand.Rand
	maxAttempts int
	designs     map[string]Design // identity -> design
	owners      map[string]string // design key -> identity
}

// NewRegistry creates a Registry. maxAttempts <= 0 selects
// DefaultMaxAttempts.
func NewRegistry(gen Generator, rng *rand.Rand, maxAttempts int) *Registry {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Registry{
		generate:    gen,
		rng:         rng,
		maxAttempts: maxAttempts,
		designs:     make(map[string]Design),
		owners:      make(map[string]string),
	}
}

// Assign returns the design of identity, generating a unique one on first
// use. Generation is retried until an unused design appears; after
// maxAttempts failures it returns ErrExhausted.
func (r *Registry) Assign(identity string) (Design, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.designs[identity]; ok {
		return d, nil
	}

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		d, err := r.generate(r.rng)
		if err != nil {
			return Design{}, fmt.Errorf("generating design for %q: %w", identity, err)
		}
		if _, taken := r.owners[d.Key()]; taken {
			continue
		}
		r.designs[identity] = d
		r.owners[d.Key()] = identity
		return d, nil
	}
	return Design{}, fmt.Errorf("%w: %q after %d attempts", ErrExhausted, identity, r.maxAttempts)
}

// Get returns the design of identity, if assigned.
func (r *Registry) Get(identity string) (Design, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.designs[identity]
	return d, ok
}

// Owner returns the identity holding design.
func (r *Registry) Owner(d Design) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.owners[d.Key()]
	return id, ok
}

// Release frees the design of identity so it may be reassigned.
func (r *Registry) Release(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.designs[identity]
	if !ok {
		return false
	}
	delete(r.designs, identity)
	delete(r.owners, d.Key())
	return true
}

// Identities returns the sorted identities that hold a design.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.designs))
	for id := range r.designs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
