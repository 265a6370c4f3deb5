package form

import "sort"

// Result is the per-request output: converted data plus at most one error
// message per field. Errors is nil when every field passed.
type Result struct {
	Data   map[string]any    `json:"data"`
	Errors map[string]string `json:"errors,omitempty"`
}

func newResult() *Result {
	return &Result{Data: make(map[string]any)}
}

// Valid reports whether no field produced an error.
func (r *Result) Valid() bool { return len(r.Errors) == 0 }

// Error returns the message recorded for field, or "".
func (r *Result) Error(field string) string { return r.Errors[field] }

// Has reports whether field produced an error.
func (r *Result) Has(field string) bool {
	_, ok := r.Errors[field]
	return ok
}

// ErrorFields returns the names of failing fields, sorted.
func (r *Result) ErrorFields() []string {
	out := make([]string, 0, len(r.Errors))
	for k := range r.Errors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Result) setError(field, msg string) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[field] = msg
}
