package container

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNotBound is returned by Make when no binding exists for a key.
	ErrNotBound = errors.New("container: not bound")

	// ErrType is returned by Resolve when the bound value has another type.
	ErrType = errors.New("container: unexpected type")
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory builds a service from the container. A factory may resolve other
// services through c.
type Factory func(c *Container) (any, error)

type binding struct {
	factory   Factory
	singleton bool
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container holds the application's services: the loaded config, the
// logger, the rule registry, the form schema holder, metrics and the router.
type Container struct {
	mu sync.RWMutex

	bindings  map[string]*binding
	instances map[string]any
	aliases   map[string]string
}

// New creates an empty container bound to itself under "container".
func New() *Container {
	c := &Container{
		bindings:  make(map[string]*binding),
		instances: make(map[string]any),
		aliases:   make(map[string]string),
	}
	c.Instance("container", c)
	return c
}

// Bind registers a factory that runs on every Make.
func (c *Container) Bind(key string, factory Factory) {
	c.bind(key, factory, false)
}

// Singleton registers a factory whose first successful result is cached.
func (c *Container) Singleton(key string, factory Factory) {
	c.bind(key, factory, true)
}

// Instance registers an already built value.
func (c *Container) Instance(key string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.aliases, key)
	delete(c.bindings, key)
	c.instances[key] = instance
}

func (c *Container) bind(key string, factory Factory, singleton bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.aliases, key)
	delete(c.instances, key)
	c.bindings[key] = &binding{factory: factory, singleton: singleton}
}

// Alias makes alias resolve to key.
func (c *Container) Alias(key, alias string) {
	if key == alias {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = key
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves key. Factories run outside the lock, so a singleton may be
// built twice under contention; the first stored value wins.
func (c *Container) Make(key string) (any, error) {
	c.mu.RLock()
	canonical := c.canonical(key)
	if inst, ok := c.instances[canonical]; ok {
		c.mu.RUnlock()
		return inst, nil
	}
	b, ok := c.bindings[canonical]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotBound, key)
	}

	v, err := b.factory(c)
	if err != nil {
		return nil, fmt.Errorf("container: build %q: %w", canonical, err)
	}

	if b.singleton {
		c.mu.Lock()
		// another goroutine may have won the race
		if inst, ok := c.instances[canonical]; ok {
			v = inst
		} else {
			c.instances[canonical] = v
		}
		c.mu.Unlock()
	}
	return v, nil
}

// canonical follows aliases. Callers hold c.mu.
func (c *Container) canonical(key string) string {
	seen := map[string]bool{}
	for {
		target, ok := c.aliases[key]
		if !ok || seen[key] {
			return key
		}
		seen[key] = true
		key = target
	}
}

// Bound reports whether key has a binding, an instance or an alias.
func (c *Container) Bound(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k := c.canonical(key)
	_, b := c.bindings[k]
	_, i := c.instances[k]
	return b || i
}

// Resolved reports whether key has a cached instance.
func (c *Container) Resolved(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.instances[c.canonical(key)]
	return ok
}

// Bindings returns every registered key, sorted.
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]bool, len(c.bindings)+len(c.instances))
	for k := range c.bindings {
		seen[k] = true
	}
	for k := range c.instances {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ── Generic helpers ───────────────────────────────────────────────────────────

// Resolve resolves key and asserts its type.
//
//	reg, err := container.Resolve[*form.Registry](c, "rules")
func Resolve[T any](c *Container, key string) (T, error) {
	var zero T
	v, err := c.Make(key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, want %T", ErrType, key, v, zero)
	}
	return t, nil
}

// MustResolve is like Resolve but panics on error. Use it only where a
// missing service is a programming error.
func MustResolve[T any](c *Container, key string) T {
	t, err := Resolve[T](c, key)
	if err != nil {
		panic(err)
	}
	return t
}
