package order

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownOrder is returned when an order key has no registered strategy.
var ErrUnknownOrder = errors.New("unknown order")

// Registry maps order keys to strategies. It is built once and read-only
// afterwards.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry returns a registry holding the given strategies.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[s.Name()] = s
	}
	return r
}

// DefaultRegistry returns a registry with every built-in strategy.
func DefaultRegistry() *Registry {
	return NewRegistry(newNatural(), newPopular(), newShuffle())
}

// Get resolves an order key.
func (r *Registry) Get(key string) (Strategy, error) {
	s, ok := r.strategies[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownOrder, key, r.Keys())
	}
	return s, nil
}

// Keys returns the registered order keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.strategies))
	for k := range r.strategies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
