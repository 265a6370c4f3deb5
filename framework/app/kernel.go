package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/km-arc/go-iform/framework/config"
	"github.com/km-arc/go-iform/framework/container"
	"github.com/km-arc/go-iform/framework/form"
	"github.com/km-arc/go-iform/framework/form/schemafile"
	gohttp "github.com/km-arc/go-iform/framework/http"
	"github.com/km-arc/go-iform/framework/providers"
	"github.com/km-arc/go-iform/framework/routing"
)

// Version is reported by the start log and the example welcome route.
const Version = "0.1.0"

// ShutdownTimeout bounds how long Serve waits for in-flight requests.
var ShutdownTimeout = 15 * time.Second

// Application is the top-level application container. It embeds the
// service container so user code can bind and resolve services directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry
}

// New creates the application with the default providers.
func New(envFiles ...string) (*Application, error) {
	return NewWithProviders(providers.Defaults(envFiles...)...)
}

// NewWithProviders creates the application with exactly the given
// providers, registered in order.
func NewWithProviders(ps ...container.ServiceProvider) (*Application, error) {
	c := container.New()
	app := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
	}
	for _, p := range ps {
		if err := app.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config {
	return container.MustResolve[*config.Config](a.Container, providers.KeyConfig)
}

// Logger resolves the root logger.
func (a *Application) Logger() zerolog.Logger {
	return container.MustResolve[zerolog.Logger](a.Container, providers.KeyLogger)
}

// Rules resolves the rule registry schemas compile against.
func (a *Application) Rules() *form.Registry {
	return container.MustResolve[*form.Registry](a.Container, providers.KeyRules)
}

// Forms resolves the named schema holder; nil without FORM_SCHEMA_PATH.
func (a *Application) Forms() *schemafile.Holder {
	return container.MustResolve[*schemafile.Holder](a.Container, providers.KeyForms)
}

// Metrics resolves the form metrics; nil when disabled.
func (a *Application) Metrics() *gohttp.Metrics {
	return container.MustResolve[*gohttp.Metrics](a.Container, providers.KeyMetrics)
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.MustResolve[*routing.Router](a.Container, providers.KeyRouter)
}

// Compile compiles a schema against the application's rule registry.
func (a *Application) Compile(defs ...form.Definition) (*form.Schema, error) {
	return form.Compile(a.Rules(), defs...)
}

// Run boots the application and serves HTTP on the configured port until
// SIGINT or SIGTERM.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Boot(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", a.Config().Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve boots the application if needed and serves on ln until ctx is done,
// then shuts down gracefully.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.Boot(); err != nil {
		return err
	}
	cfg := a.Config()
	logger := a.Logger()

	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.New(logger.With().Str("component", "http").Logger(), "", 0),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", ln.Addr().String()).
			Str("env", cfg.App.Env).
			Str("version", a.Version()).
			Bool("debug", a.IsDebug()).
			Msg("starting http server")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}

	return a.shutdown(srv)
}

func (a *Application) shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if h := a.Forms(); h != nil {
		h.Stop()
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Config().IsProduction() }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
func (a *Application) Version() string     { return Version }
