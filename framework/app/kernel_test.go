package app_test

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-iform/framework/app"
	"github.com/km-arc/go-iform/framework/container"
	"github.com/km-arc/go-iform/framework/form"
	"github.com/km-arc/go-iform/framework/providers"
)

func newApp(t *testing.T) *app.Application {
	t.Helper()
	for _, k := range []string{
		"APP_NAME", "APP_ENV", "APP_DEBUG", "APP_PORT", "LOG_LEVEL", "LOG_FORMAT",
		"FORM_SCHEMA_PATH", "FORM_WATCH", "METRICS_ENABLED",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv("APP_ENV", "testing")

	application, err := app.NewWithProviders(
		&providers.ConfigServiceProvider{EnvFiles: []string{filepath.Join(t.TempDir(), "none.env")}},
		&providers.LoggingServiceProvider{Writer: io.Discard},
		&providers.RulesServiceProvider{},
		&providers.RoutingServiceProvider{},
		&providers.MetricsServiceProvider{Registry: prometheus.NewRegistry()},
		&providers.FormsServiceProvider{},
	)
	require.NoError(t, err)
	return application
}

func TestApplication_Accessors(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.Boot())

	assert.True(t, a.IsTesting())
	assert.False(t, a.IsProduction())
	assert.False(t, a.IsLocal())
	assert.NotNil(t, a.Rules())
	assert.NotNil(t, a.Router())
	assert.NotNil(t, a.Metrics())
	assert.Nil(t, a.Forms())
	assert.Len(t, a.Providers.Providers(), 6)
	assert.True(t, a.IsDebug())
	assert.Equal(t, app.Version, a.Version())
}

func TestApplication_Compile(t *testing.T) {
	a := newApp(t)

	s, err := a.Compile(form.Define("age", "int"))
	require.NoError(t, err)
	res, err := s.Process(form.Values{"age": "42"})
	require.NoError(t, err)
	assert.Equal(t, 42, res.Data["age"])
}

func TestApplication_CustomBinding(t *testing.T) {
	a := newApp(t)
	a.Instance("greeting", "hi")

	assert.Equal(t, "hi", container.MustResolve[string](a.Container, "greeting"))
}

func TestApplication_Serve(t *testing.T) {
	a := newApp(t)
	var logs bytes.Buffer
	a.Instance(providers.KeyLogger, zerolog.New(&logs))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	assert.Contains(t, logs.String(), `"version":"`+app.Version+`"`)
	assert.Contains(t, logs.String(), `"debug":true`)
}

func TestApplication_BootError(t *testing.T) {
	a := newApp(t)
	t.Setenv("LOG_LEVEL", "loud")

	assert.Error(t, a.Boot())
}
