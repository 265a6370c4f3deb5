package providers

import (
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/km-arc/go-iform/framework/config"
	"github.com/km-arc/go-iform/framework/container"
	"github.com/km-arc/go-iform/framework/form"
	"github.com/km-arc/go-iform/framework/form/rules"
	"github.com/km-arc/go-iform/framework/form/schemafile"
	gohttp "github.com/km-arc/go-iform/framework/http"
	"github.com/km-arc/go-iform/framework/logging"
	"github.com/km-arc/go-iform/framework/routing"
)

// Keys under which the providers bind their services.
const (
	KeyConfig  = "config"
	KeyLogger  = "logger"
	KeyRules   = "rules"
	KeyMetrics = "metrics"
	KeyForms   = "forms"
	KeyRouter  = "router"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the configuration from the .env files and the
// environment.
//
// Bound keys:
//   - "config" → *config.Config
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) {
	envFiles := p.EnvFiles
	app.Singleton(KeyConfig, func(*container.Container) (any, error) {
		return config.Load(envFiles...)
	})
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider builds the root logger from the "log" config.
//
// Bound keys:
//   - "logger" → zerolog.Logger
type LoggingServiceProvider struct {
	container.BaseProvider
	Writer io.Writer // stderr when nil
}

func (p *LoggingServiceProvider) Register(app *container.Container) {
	w := p.Writer
	app.Singleton(KeyLogger, func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Config](c, KeyConfig)
		if err != nil {
			return nil, err
		}
		return logging.New(cfg.Log, w).With().Str("app", cfg.App.Name).Logger(), nil
	})
}

// ── RulesServiceProvider ──────────────────────────────────────────────────────

// RulesServiceProvider builds the rule registry every schema compiles
// against. Extra rule sources are derived after the builtins, so their
// rules win on name clashes.
//
// Bound keys:
//   - "rules" → *form.Registry
type RulesServiceProvider struct {
	container.BaseProvider
	Extra []any
}

func (p *RulesServiceProvider) Register(app *container.Container) {
	extra := p.Extra
	app.Singleton(KeyRules, func(*container.Container) (any, error) {
		return rules.NewRegistry(extra...), nil
	})
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider registers the form collectors and serves them on
// /metrics. When METRICS_ENABLED is false the binding is a nil *Metrics,
// which records nothing.
//
// Bound keys:
//   - "metrics" → *gohttp.Metrics
type MetricsServiceProvider struct {
	container.BaseProvider
	// Registry defaults to prometheus.DefaultRegisterer / DefaultGatherer.
	Registry interface {
		prometheus.Registerer
		prometheus.Gatherer
	}
}

func (p *MetricsServiceProvider) Register(app *container.Container) {
	app.Singleton(KeyMetrics, func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Config](c, KeyConfig)
		if err != nil {
			return nil, err
		}
		if !cfg.Metrics.Enabled {
			return (*gohttp.Metrics)(nil), nil
		}
		return gohttp.NewMetrics(p.registerer()), nil
	})
}

func (p *MetricsServiceProvider) Boot(app *container.Container) error {
	m, err := container.Resolve[*gohttp.Metrics](app, KeyMetrics)
	if err != nil || m == nil {
		return err
	}
	router, err := container.Resolve[*routing.Router](app, KeyRouter)
	if err != nil {
		return err
	}
	router.Handle("/metrics", promhttp.HandlerFor(p.gatherer(), promhttp.HandlerOpts{}))
	return nil
}

func (p *MetricsServiceProvider) registerer() prometheus.Registerer {
	if p.Registry != nil {
		return p.Registry
	}
	return prometheus.DefaultRegisterer
}

func (p *MetricsServiceProvider) gatherer() prometheus.Gatherer {
	if p.Registry != nil {
		return p.Registry
	}
	return prometheus.DefaultGatherer
}

// ── FormsServiceProvider ──────────────────────────────────────────────────────

// FormsServiceProvider loads the named form schemas from FORM_SCHEMA_PATH
// and serves them on POST /forms/{name}. Without a path the binding is a
// nil *schemafile.Holder and no route is added.
//
// With FORM_WATCH set, the file is reloaded on change and on SIGHUP.
//
// Bound keys:
//   - "forms" → *schemafile.Holder
type FormsServiceProvider struct {
	container.BaseProvider
}

func (p *FormsServiceProvider) Register(app *container.Container) {
	app.Singleton(KeyForms, func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Config](c, KeyConfig)
		if err != nil {
			return nil, err
		}
		if cfg.Form.SchemaPath == "" {
			return (*schemafile.Holder)(nil), nil
		}
		reg, err := container.Resolve[*form.Registry](c, KeyRules)
		if err != nil {
			return nil, err
		}
		logger, err := container.Resolve[zerolog.Logger](c, KeyLogger)
		if err != nil {
			return nil, err
		}
		return schemafile.NewHolder(cfg.Form.SchemaPath, reg, logger.With().Str("component", "schemas").Logger())
	})
}

func (p *FormsServiceProvider) Boot(app *container.Container) error {
	holder, err := container.Resolve[*schemafile.Holder](app, KeyForms)
	if err != nil || holder == nil {
		return err
	}
	cfg, err := container.Resolve[*config.Config](app, KeyConfig)
	if err != nil {
		return err
	}
	metrics, err := container.Resolve[*gohttp.Metrics](app, KeyMetrics)
	if err != nil {
		return err
	}
	router, err := container.Resolve[*routing.Router](app, KeyRouter)
	if err != nil {
		return err
	}

	holder.OnChange(func(*schemafile.Set) { metrics.Reloaded() })
	if cfg.Form.Watch {
		if err := holder.WatchFile(); err != nil {
			return err
		}
		holder.WatchSignals()
	}

	router.With(gohttp.Validate(gohttp.Named(holder, "name"), gohttp.FormOptions{
		NameParam: "name",
		Metrics:   metrics,
	})).Post("/forms/{name}", func(w http.ResponseWriter, r *http.Request) {
		gohttp.NewResponse(w).Result(gohttp.FormResult(r))
	})
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router and its /health route.
//
// Bound keys:
//   - "router" → *routing.Router
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) {
	app.Singleton(KeyRouter, func(c *container.Container) (any, error) {
		logger, err := container.Resolve[zerolog.Logger](c, KeyLogger)
		if err != nil {
			return nil, err
		}
		return routing.New(logger), nil
	})
}

func (p *RoutingServiceProvider) Boot(app *container.Container) error {
	router, err := container.Resolve[*routing.Router](app, KeyRouter)
	if err != nil {
		return err
	}
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).Success(map[string]string{"status": "ok"})
	})
	return nil
}

// Defaults returns the providers every application registers, in boot
// order.
func Defaults(envFiles ...string) []container.ServiceProvider {
	return []container.ServiceProvider{
		&ConfigServiceProvider{EnvFiles: envFiles},
		&LoggingServiceProvider{},
		&RulesServiceProvider{},
		&RoutingServiceProvider{},
		&MetricsServiceProvider{},
		&FormsServiceProvider{},
	}
}
