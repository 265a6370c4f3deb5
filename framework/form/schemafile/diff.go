package schemafile

import "slices"

// FieldChange lists the fields a form gained or lost between two sets.
type FieldChange struct {
	Form    string
	Added   []string
	Removed []string
}

// Changes describes what a reload changed.
type Changes struct {
	Added   []string // forms only in the new set
	Removed []string // forms only in the old set
	Fields  []FieldChange
}

// Empty reports whether the two sets declare the same forms and fields.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Fields) == 0
}

// Diff compares the form and field names of prev and next. Rule changes
// inside a field are not reported. A nil prev counts as empty.
func Diff(prev, next *Set) Changes {
	if prev == nil {
		prev = &Set{}
	}
	if next == nil {
		next = &Set{}
	}

	var c Changes
	for _, name := range next.Names() {
		old, err := prev.Get(name)
		if err != nil {
			c.Added = append(c.Added, name)
			continue
		}
		cur, _ := next.Get(name)
		added, removed := compare(old.FieldNames(), cur.FieldNames())
		if len(added) > 0 || len(removed) > 0 {
			c.Fields = append(c.Fields, FieldChange{Form: name, Added: added, Removed: removed})
		}
	}
	for _, name := range prev.Names() {
		if _, err := next.Get(name); err != nil {
			c.Removed = append(c.Removed, name)
		}
	}
	return c
}

func compare(old, cur []string) (added, removed []string) {
	for _, f := range cur {
		if !slices.Contains(old, f) {
			added = append(added, f)
		}
	}
	for _, f := range old {
		if !slices.Contains(cur, f) {
			removed = append(removed, f)
		}
	}
	return added, removed
}
