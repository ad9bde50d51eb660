package persona

import (
	"fmt"
	"math/rand"
	"sync"

	"marry-fun-bot/internal/model"
)

// Registry is a thread-safe persona catalog that also picks personas for
// new sessions.
type Registry struct {
	personas map[model.CharacterType]*Persona
	order    []model.CharacterType
	intn     func(n int) int
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry using the global random source.
func NewRegistry() *Registry {
	return &Registry{
		personas: make(map[model.CharacterType]*Persona),
		intn:     rand.Intn,
	}
}

// NewDefaultRegistry returns a registry loaded with Defaults.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range Defaults() {
		// Defaults are known valid.
		_ = r.Register(p)
	}
	return r
}

// WithRand replaces the random source. intn must return a value in [0, n).
func (r *Registry) WithRand(intn func(n int) int) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intn = intn
	return r
}

// Register adds a persona. Re-registering a type replaces it in place.
func (r *Registry) Register(p *Persona) error {
	if p == nil {
		return fmt.Errorf("cannot register nil persona")
	}
	if !p.Type.Valid() {
		return fmt.Errorf("unknown character type %q", p.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.personas[p.Type]; !ok {
		r.order = append(r.order, p.Type)
	}
	r.personas[p.Type] = p
	return nil
}

// Get retrieves a persona by type.
func (r *Registry) Get(t model.CharacterType) (*Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.personas[t]
	return p, ok
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []model.CharacterType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.CharacterType(nil), r.order...)
}

// Count returns the number of registered personas.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Pick returns a uniformly random registered type.
func (r *Registry) Pick() (model.CharacterType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return "", fmt.Errorf("no personas registered")
	}
	return r.order[r.intn(len(r.order))], nil
}
