package providers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-iform/framework/config"
	"github.com/km-arc/go-iform/framework/container"
	"github.com/km-arc/go-iform/framework/form"
	"github.com/km-arc/go-iform/framework/form/schemafile"
	gohttp "github.com/km-arc/go-iform/framework/http"
	"github.com/km-arc/go-iform/framework/providers"
	"github.com/km-arc/go-iform/framework/routing"
)

const formsYAML = `
forms:
  signup:
    username:
      required: true
      len: [3, 10]
    age: int
`

// ── helpers ──────────────────────────────────────────────────────────────────

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for _, k := range []string{
		"APP_NAME", "APP_ENV", "APP_DEBUG", "APP_PORT", "LOG_LEVEL", "LOG_FORMAT",
		"FORM_SCHEMA_PATH", "FORM_WATCH", "METRICS_ENABLED",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func writeForms(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(formsYAML), 0o644))
	return path
}

// boot registers the default providers with a private metrics registry.
func boot(t *testing.T, logs io.Writer) (*container.Container, error) {
	t.Helper()
	c := container.New()
	reg := container.NewProviderRegistry(c)
	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{EnvFiles: []string{filepath.Join(t.TempDir(), "none.env")}},
		&providers.LoggingServiceProvider{Writer: logs},
		&providers.RulesServiceProvider{},
		&providers.RoutingServiceProvider{},
		&providers.MetricsServiceProvider{Registry: prometheus.NewRegistry()},
		&providers.FormsServiceProvider{},
	} {
		require.NoError(t, reg.Register(p))
	}
	return c, reg.Boot()
}

func serve(t *testing.T, c *container.Container, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := container.MustResolve[*routing.Router](c, providers.KeyRouter)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestProviders_Bindings(t *testing.T) {
	setEnv(t, map[string]string{"APP_NAME": "Forms"})

	var logs bytes.Buffer
	c, err := boot(t, &logs)
	require.NoError(t, err)

	cfg := container.MustResolve[*config.Config](c, providers.KeyConfig)
	assert.Equal(t, "Forms", cfg.App.Name)

	reg := container.MustResolve[*form.Registry](c, providers.KeyRules)
	v, _ := reg.Resolve("email")
	assert.NotNil(t, v)

	logger := container.MustResolve[zerolog.Logger](c, providers.KeyLogger)
	logger.Info().Msg("hello")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry))
	assert.Equal(t, "Forms", entry["app"])

	assert.Nil(t, container.MustResolve[*schemafile.Holder](c, providers.KeyForms))
	assert.NotNil(t, container.MustResolve[*gohttp.Metrics](c, providers.KeyMetrics))
}

func TestProviders_Health(t *testing.T) {
	setEnv(t, nil)
	c, err := boot(t, io.Discard)
	require.NoError(t, err)

	rr := serve(t, c, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"status":"ok"}}`, rr.Body.String())
}

func TestProviders_NamedForms(t *testing.T) {
	setEnv(t, map[string]string{"FORM_SCHEMA_PATH": writeForms(t)})
	c, err := boot(t, io.Discard)
	require.NoError(t, err)

	holder := container.MustResolve[*schemafile.Holder](c, providers.KeyForms)
	require.NotNil(t, holder)
	t.Cleanup(holder.Stop)
	assert.Equal(t, []string{"signup"}, holder.Get().Names())

	tests := []struct {
		name, path, body string
		want             int
	}{
		{"valid", "/forms/signup", `{"username":"alice","age":"30"}`, http.StatusOK},
		{"invalid", "/forms/signup", `{"username":"al"}`, http.StatusUnprocessableEntity},
		{"unknown", "/forms/nope", `{}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, c, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}

	rr := serve(t, c, http.MethodPost, "/forms/signup", `{"username":"alice","age":"30"}`)
	assert.JSONEq(t, `{"data":{"username":"alice","age":30}}`, rr.Body.String())
}

func TestProviders_MetricsEndpoint(t *testing.T) {
	setEnv(t, map[string]string{"FORM_SCHEMA_PATH": writeForms(t)})
	c, err := boot(t, io.Discard)
	require.NoError(t, err)
	t.Cleanup(container.MustResolve[*schemafile.Holder](c, providers.KeyForms).Stop)

	serve(t, c, http.MethodPost, "/forms/signup", `{"username":"al"}`)
	require.NoError(t, container.MustResolve[*schemafile.Holder](c, providers.KeyForms).Reload())

	rr := serve(t, c, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `iform_validations_total{form="signup",outcome="invalid"} 1`)
	assert.Contains(t, body, `iform_field_errors_total{field="username",form="signup"} 1`)
	assert.Contains(t, body, "iform_schema_reloads_total 1")
}

func TestProviders_MetricsDisabled(t *testing.T) {
	setEnv(t, map[string]string{"METRICS_ENABLED": "false"})
	c, err := boot(t, io.Discard)
	require.NoError(t, err)

	assert.Nil(t, container.MustResolve[*gohttp.Metrics](c, providers.KeyMetrics))
	assert.Equal(t, http.StatusNotFound, serve(t, c, http.MethodGet, "/metrics", "").Code)
}

func TestProviders_BootErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"invalid config", map[string]string{"LOG_FORMAT": "xml"}},
		{"missing schema file", map[string]string{"FORM_SCHEMA_PATH": "/nonexistent/forms.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := boot(t, io.Discard)
			assert.Error(t, err)
		})
	}
}
