// Package container is the application's service container.
//
// Services are bound by key with a factory and resolved on demand:
//
//	c := container.New()
//	c.Instance("config", cfg)
//	c.Singleton("rules", func(*container.Container) (any, error) {
//	    return rules.NewRegistry(), nil
//	})
//
//	reg, err := container.Resolve[*form.Registry](c, "rules")
//
// Factories return an error instead of panicking; Make wraps it with the
// key being built. MustResolve is the panicking variant for code paths where
// a missing service is a bug.
//
// # Service providers
//
// A ServiceProvider groups the bindings of one concern. The kernel adds
// providers to a ProviderRegistry, which calls Register immediately and Boot
// once every provider is registered:
//
//	reg := container.NewProviderRegistry(c)
//	_ = reg.Register(&providers.ConfigServiceProvider{})
//	_ = reg.Register(&providers.RulesServiceProvider{})
//	if err := reg.Boot(); err != nil { ... }
package container
