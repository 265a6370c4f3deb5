package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/km-arc/go-iform/framework/form"
	"github.com/km-arc/go-iform/framework/form/schemafile"
)

// SchemaFunc picks the schema for a request.
type SchemaFunc func(r *http.Request) (*form.Schema, error)

// Static returns a SchemaFunc that always yields s.
func Static(s *form.Schema) SchemaFunc {
	return func(*http.Request) (*form.Schema, error) { return s, nil }
}

// Named returns a SchemaFunc that looks the form up by the URL parameter
// param, e.g. "name" for "/forms/{name}".
func Named(h *schemafile.Holder, param string) SchemaFunc {
	return func(r *http.Request) (*form.Schema, error) {
		return h.Schema(chi.URLParam(r, param))
	}
}

// FormOptions tunes Validate.
type FormOptions struct {
	// Name labels logs and metrics. When NameParam is set, the URL parameter
	// of that name is used instead.
	Name      string
	NameParam string
	// Fields limits processing to these fields, in order.
	Fields  []string
	Metrics *Metrics
}

type resultKey struct{}

// Validate parses the request body, processes it against the schema and
// stores the Result on the request context for next. Field errors do not
// stop the chain; handlers read FormResult and decide.
//
//	r.With(gohttp.Validate(gohttp.Static(signup), gohttp.FormOptions{Name: "signup"})).
//	    Post("/", handler)
//
// Unknown named forms answer 404, unreadable bodies 400 and schema
// configuration errors 500.
func Validate(source SchemaFunc, opts FormOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := hlog.FromRequest(r)
			res := NewResponse(w)
			name := opts.label(r)

			schema, err := source(r)
			switch {
			case errors.Is(err, schemafile.ErrUnknownForm):
				res.NotFound("Unknown form.")
				return
			case err != nil:
				logger.Error().Err(err).Str("form", name).Msg("form schema unavailable")
				res.ServerError()
				return
			case schema == nil:
				logger.Error().Str("form", name).Msg("no form schema")
				res.ServerError()
				return
			}

			req := NewRequest(r)
			values, err := req.Values()
			if err != nil {
				logger.Debug().Err(err).Str("form", name).Msg("unreadable form body")
				res.Error(http.StatusBadRequest, "Malformed request body.")
				return
			}

			popts := []form.Option{form.WithContext(req)}
			if len(opts.Fields) > 0 {
				popts = append(popts, form.WithFields(opts.Fields...))
			}
			result, err := schema.Process(values, popts...)
			opts.Metrics.Observe(name, result, err, time.Since(start))
			if err != nil {
				logger.Error().Err(err).Str("form", name).Msg("form configuration error")
				res.ServerError()
				return
			}

			if !result.Valid() {
				logger.Debug().
					Str("form", name).
					Strs("fields", result.ErrorFields()).
					Msg("form validation failed")
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), resultKey{}, result)))
		})
	}
}

// FormResult returns the Result stored by Validate, or nil.
func FormResult(r *http.Request) *form.Result {
	res, _ := r.Context().Value(resultKey{}).(*form.Result)
	return res
}

func (o FormOptions) label(r *http.Request) string {
	if o.NameParam != "" {
		if v := chi.URLParam(r, o.NameParam); v != "" {
			return v
		}
	}
	if o.Name != "" {
		return o.Name
	}
	return "default"
}
