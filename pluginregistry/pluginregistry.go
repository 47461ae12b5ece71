// Package pluginregistry is the process-wide, named-plugin registry
// referenced by spec §9 ("Global plugin registry"). It is initialised
// at startup and torn down at shutdown; concurrent registration is
// forbidden by the same single-loop discipline the dispatcher itself
// follows, so a simple mutex-guarded map -- not a lock-free structure --
// is the right amount of machinery here.
package pluginregistry

import (
	"fmt"
	"sync"
)

var (
	mu      sync.Mutex
	plugins = map[string]interface{}{}
)

// Register adds a plugin under name, replacing any previous plugin
// registered under the same name. Callers (the reservation Manager, a
// future object-manager plugin, etc.) look it up later by name instead
// of through a dynamic/runtime-typed invocation (spec §9).
func Register(name string, plugin interface{}) {
	mu.Lock()
	defer mu.Unlock()
	plugins[name] = plugin
}

// Unregister removes the plugin registered under name, if any.
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(plugins, name)
}

// Lookup returns the plugin registered under name, and whether one was
// found.
func Lookup(name string) (interface{}, bool) {
	mu.Lock()
	defer mu.Unlock()
	p, have := plugins[name]
	return p, have
}

// Get is a type-checked convenience wrapper over Lookup: it returns an
// error naming name if nothing is registered under it, or if the
// registered plugin is not assignable to T.
func Get[T any](name string) (T, error) {
	var zero T
	p, have := Lookup(name)
	if !have {
		return zero, fmt.Errorf("pluginregistry: no plugin named %q", name)
	}
	t, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("pluginregistry: plugin %q is not a %T", name, zero)
	}
	return t, nil
}

// Reset clears the registry. Intended for shutdown and for tests that
// need a clean registry between cases.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	plugins = map[string]interface{}{}
}
