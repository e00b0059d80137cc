package algorithm

import (
	"fmt"
	"sort"
	"sync"
)

// Kind identifies a registered backend variant.
type Kind string

// Constructor creates a backend instance with default hyperparameters.
type Constructor func() Algorithm

var (
	registryMu sync.RWMutex
	registry   = map[Kind]Constructor{}
)

// Register registers a backend constructor for a kind.
//
// Backend packages should typically call this from an init() function.
func Register(kind Kind, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = ctor
}

// New constructs a backend for the given kind.
func New(kind Kind) (Algorithm, error) {
	registryMu.RLock()
	ctor, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("algorithm: unknown kind %q", kind)
	}
	return ctor(), nil
}

// Kinds returns all registered kinds in sorted order.
func Kinds() []Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
