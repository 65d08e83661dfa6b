package tarantism

import (
	"fmt"
	"sync"
)

// DefaultAlias is the store alias models use unless their declaration says
// otherwise.
const DefaultAlias = "default"

var (
	registryMu sync.Mutex
	registry   = make(map[string]Store)
)

// Register binds a store to an alias, replacing any previous binding.
// Models resolve their store through this registry at operation time, so
// rebinding an alias redirects every model using it.
func Register(alias string, st Store) {
	if alias == "" {
		alias = DefaultAlias
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[alias] = st
}

// StoreFor returns the store bound to alias.
func StoreFor(alias string) (Store, error) {
	if alias == "" {
		alias = DefaultAlias
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	st := registry[alias]
	if st == nil {
		return nil, fmt.Errorf("no store registered under alias %q", alias)
	}
	return st, nil
}

// Disconnect closes and unbinds the store registered under alias. A never-
// registered alias is a no-op.
func Disconnect(alias string) error {
	if alias == "" {
		alias = DefaultAlias
	}
	registryMu.Lock()
	st := registry[alias]
	delete(registry, alias)
	registryMu.Unlock()
	if st == nil {
		return nil
	}
	return st.Close()
}