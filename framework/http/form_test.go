package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-iform/framework/form"
	"github.com/km-arc/go-iform/framework/form/rules"
	"github.com/km-arc/go-iform/framework/form/schemafile"
	gohttp "github.com/km-arc/go-iform/framework/http"
)

func signupSchema() *form.Schema {
	return form.MustCompile(rules.NewRegistry(),
		form.Define("username", form.Rules{"required": true, "len": []int{3, 10}}),
		form.Define("avatar", form.Rules{
			"defaultValue": func(ctx form.RequestContext) string {
				return "/avatar/" + ctx.Input("username") + ".png"
			},
		}),
		form.Define("age", "int"),
	)
}

// resultHandler captures the stored result and answers with it.
func resultHandler(got **form.Result) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*got = gohttp.FormResult(r)
		gohttp.NewResponse(w).Result(*got)
	}
}

func TestValidate_StoresResult(t *testing.T) {
	var got *form.Result
	h := gohttp.Validate(gohttp.Static(signupSchema()), gohttp.FormOptions{Name: "signup"})(resultHandler(&got))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, jsonRequest(`{"username":"bob","avatar":"","age":"7"}`))

	require.NotNil(t, got)
	assert.True(t, got.Valid())
	assert.Equal(t, "/avatar/bob.png", got.Data["avatar"])
	assert.Equal(t, 7, got.Data["age"])
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestValidate_InvalidStillCallsNext(t *testing.T) {
	var got *form.Result
	h := gohttp.Validate(gohttp.Static(signupSchema()), gohttp.FormOptions{})(resultHandler(&got))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, formRequest("/", url.Values{"username": {"al"}}))

	require.NotNil(t, got)
	assert.Equal(t, "length must be between 3 and 10", got.Error("username"))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestValidate_Fields(t *testing.T) {
	var got *form.Result
	h := gohttp.Validate(gohttp.Static(signupSchema()), gohttp.FormOptions{Fields: []string{"age"}})(resultHandler(&got))

	h.ServeHTTP(httptest.NewRecorder(), formRequest("/", url.Values{"age": {"5"}}))

	require.NotNil(t, got)
	assert.True(t, got.Valid(), "username is out of scope")
	assert.Equal(t, map[string]any{"age": 5}, got.Data)
}

func TestValidate_Failures(t *testing.T) {
	badArgs := form.MustCompile(rules.NewRegistry(), form.Define("x", form.Rules{"len": "lots"}))

	tests := []struct {
		name   string
		source gohttp.SchemaFunc
		req    *http.Request
		status int
	}{
		{"source error", func(*http.Request) (*form.Schema, error) { return nil, errors.New("down") }, jsonRequest("{}"), http.StatusInternalServerError},
		{"nil schema", gohttp.Static(nil), jsonRequest("{}"), http.StatusInternalServerError},
		{"unknown form", func(*http.Request) (*form.Schema, error) { return nil, schemafile.ErrUnknownForm }, jsonRequest("{}"), http.StatusNotFound},
		{"bad body", gohttp.Static(signupSchema()), jsonRequest("{"), http.StatusBadRequest},
		{"config error", gohttp.Static(badArgs), jsonRequest(`{"x":"abc"}`), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

			rr := httptest.NewRecorder()
			gohttp.Validate(tt.source, gohttp.FormOptions{})(next).ServeHTTP(rr, tt.req)

			assert.False(t, called)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestValidate_Named(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
forms:
  contact:
    email:
      required: true
      type: email
`), 0o644))

	holder, err := schemafile.NewHolder(path, rules.NewRegistry(), zerolog.Nop())
	require.NoError(t, err)
	defer holder.Stop()

	reg := prometheus.NewRegistry()
	metrics := gohttp.NewMetrics(reg)

	var got *form.Result
	r := chi.NewRouter()
	r.With(gohttp.Validate(gohttp.Named(holder, "name"), gohttp.FormOptions{NameParam: "name", Metrics: metrics})).
		Post("/forms/{name}", resultHandler(&got))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/forms/contact?email=x", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.NotNil(t, got)
	assert.Equal(t, "must be a valid email address", got.Error("email"))

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/forms/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.Equal(t, 1.0, counterValue(t, reg, "iform_validations_total", map[string]string{"form": "contact", "outcome": "invalid"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "iform_field_errors_total", map[string]string{"form": "contact", "field": "email"}))
}
