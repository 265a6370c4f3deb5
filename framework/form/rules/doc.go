// Package rules holds the built-in capability sources for form.Registry.
//
// Validators methods take a *form.Check and report failures through it;
// IsX methods double as type checks ("email", "int", "float", "date", ...).
// Filters methods take a *form.Conversion and rewrite the value; ToX methods
// double as type converters ("int", "float", "date", "boolean").
//
// Rule arguments from the schema fill the remaining parameters:
//
//	"len":  []int{3, 10}      → Len(c, 3, 10)
//	"isIn": []string{"a","b"} → IsIn(c, "a", "b")
//	"trim": "/"               → Trim(c, "/")
package rules
