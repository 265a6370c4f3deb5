package rules

import (
	"github.com/km-arc/go-iform/framework/form"
)

// NewRegistry returns a registry derived from Validators, Filters and any
// extra sources, with the Number and Date markers wired up.
//
// Extra sources usually embed Validators or Filters to add methods:
//
//	type AppRules struct{ rules.Validators }
//	func (AppRules) IsSlug(c *form.Check) { ... }
//
//	reg := rules.NewRegistry(AppRules{})
func NewRegistry(extra ...any) *form.Registry {
	reg := form.NewRegistry()
	reg.Derive(append([]any{Validators{}, Filters{}}, extra...)...)
	Markers(reg)
	return reg
}

// Markers registers the built-in Number and Date markers from entries the
// registry already holds.
func Markers(reg *form.Registry) {
	decimal, _ := reg.ResolveType("decimal")
	_, float := reg.ResolveType("float")
	reg.RegisterType(string(form.Number), decimal, float)

	date, toDate := reg.ResolveType("date")
	reg.RegisterType(string(form.Date), date, toDate)
}
