package container

import "fmt"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider binds one concern of the application into the container.
//
// Register runs as soon as the provider is added and must only bind.
// Boot runs once every provider is registered, so it may resolve anything.
//
//	type RulesServiceProvider struct{ container.BaseProvider }
//
//	func (p *RulesServiceProvider) Register(app *container.Container) {
//	    app.Singleton("rules", func(*container.Container) (any, error) {
//	        return rules.NewRegistry(), nil
//	    })
//	}
type ServiceProvider interface {
	Register(app *Container)
	Boot(app *Container) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider gives providers a no-op Boot.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }

// ── ProviderRegistry ─────────────────────────────────────────────────────────

// ProviderRegistry registers providers against a container and boots them in
// registration order.
type ProviderRegistry struct {
	app       *Container
	providers []ServiceProvider
	next      int // index of the first provider not yet booted
	booted    bool
}

// NewProviderRegistry creates a registry for app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{app: app}
}

// Register calls provider.Register immediately. A provider added after Boot
// is booted on the spot.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	provider.Register(r.app)
	r.providers = append(r.providers, provider)
	if !r.booted {
		return nil
	}
	r.next++
	return r.boot(provider)
}

// Boot boots every provider once. It stops at the first failing provider;
// a later call retries from there.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	for ; r.next < len(r.providers); r.next++ {
		if err := r.boot(r.providers[r.next]); err != nil {
			return err
		}
	}
	r.booted = true
	return nil
}

func (r *ProviderRegistry) boot(p ServiceProvider) error {
	if err := p.Boot(r.app); err != nil {
		return fmt.Errorf("boot %T: %w", p, err)
	}
	return nil
}

// Booted reports whether Boot has completed.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the registered providers in order.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	return append([]ServiceProvider(nil), r.providers...)
}
