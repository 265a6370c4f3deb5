package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-iform/framework/form"
)

const maxMemory = 32 << 20 // 32 MB

// ErrBody is returned when the request body cannot be parsed into input
// values.
var ErrBody = errors.New("http: unreadable request body")

// Request wraps *http.Request and parses its body into form input values.
// It satisfies form.RequestContext, so computed default values can read
// other inputs through it.
type Request struct {
	raw    *http.Request
	values form.Values
	err    error
	parsed bool
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Body parsing ─────────────────────────────────────────────────────────────

// Values returns the parsed request input. The body is read once.
//
// JSON bodies must be an object; its members become the values as decoded.
// Form and multipart bodies are merged over the query string, keeping the
// first value of each key.
func (req *Request) Values() (form.Values, error) {
	if !req.parsed {
		req.values, req.err = req.parse()
		req.parsed = true
	}
	return req.values, req.err
}

func (req *Request) parse() (form.Values, error) {
	ct := req.ContentType()

	switch {
	case strings.Contains(ct, "application/json"):
		return req.parseJSON()
	case strings.Contains(ct, "multipart/form-data"):
		if err := req.raw.ParseMultipartForm(maxMemory); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBody, err)
		}
		out := firstValues(req.raw.URL.Query())
		for k, v := range firstValues(req.raw.MultipartForm.Value) {
			out[k] = v
		}
		return out, nil
	default:
		if err := req.raw.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBody, err)
		}
		return firstValues(req.raw.Form), nil
	}
}

func (req *Request) parseJSON() (form.Values, error) {
	if req.raw.Body == nil {
		return form.Values{}, nil
	}
	defer req.raw.Body.Close()

	body, err := io.ReadAll(req.raw.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBody, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return form.Values{}, nil
	}

	var out form.Values
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBody, err)
	}
	if out == nil {
		out = form.Values{}
	}
	return out, nil
}

func firstValues(values url.Values) form.Values {
	out := make(form.Values, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// ── Input helpers ────────────────────────────────────────────────────────────

// Input returns a single input value as a string.
func (req *Request) Input(key string, fallback ...string) string {
	values, _ := req.Values()
	return values.Input(key, fallback...)
}

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// Has returns true if the key is present and non-empty.
func (req *Request) Has(key string) bool {
	return req.Input(key) != ""
}

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Header returns a request header value.
func (req *Request) Header(key string) string {
	return req.raw.Header.Get(key)
}

// ContentType returns the Content-Type header value.
func (req *Request) ContentType() string {
	return req.raw.Header.Get("Content-Type")
}

// IsJSON returns true when the request expects a JSON response.
func (req *Request) IsJSON() bool {
	return strings.Contains(req.raw.Header.Get("Accept"), "application/json") ||
		strings.Contains(req.ContentType(), "application/json")
}
