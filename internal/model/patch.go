package model

import (
	"strings"

	"github.com/samber/lo"
)

// FilterEdit is a single typed mutation of a FilterSet. Edits report whether they
// changed anything so callers can ignore no-op input.
type FilterEdit interface {
	apply(f *FilterSet) bool
}

type editFunc func(f *FilterSet) bool

func (fn editFunc) apply(f *FilterSet) bool { return fn(f) }

// Apply runs edits in order and reports whether any of them changed the set.
func (f *FilterSet) Apply(edits ...FilterEdit) bool {
	changed := false
	for _, e := range edits {
		if e != nil && e.apply(f) {
			changed = true
		}
	}
	return changed
}

// SetValue replaces key with value. Moving between absent, nil and an empty list is not
// a change, since all three mean no constraint.
func SetValue(key string, value any) FilterEdit {
	return editFunc(func(f *FilterSet) bool {
		v := normalizeValue(value)
		if !f.Has(key) {
			if unconstrained(v) {
				return false
			}
		} else if cur := f.values[key]; valuesEqual(cur, v) || (unconstrained(cur) && unconstrained(v)) {
			return false
		}
		f.Set(key, v)
		return true
	})
}

func unconstrained(v any) bool {
	if v == nil {
		return true
	}
	list, ok := v.([]string)
	return ok && len(list) == 0
}

// ClearValue sets key to nil.
func ClearValue(key string) FilterEdit {
	return SetValue(key, nil)
}

// Search sets the free-text search. Surrounding whitespace is trimmed.
func Search(text string) FilterEdit {
	return SetValue(FilterSearch, strings.TrimSpace(text))
}

// StartDate sets the inclusive lower date bound (YYYY-MM-DD). Empty clears it.
func StartDate(date string) FilterEdit {
	return dateEdit(FilterStartDate, date)
}

// EndDate sets the inclusive upper date bound (YYYY-MM-DD). Empty clears it.
func EndDate(date string) FilterEdit {
	return dateEdit(FilterEndDate, date)
}

func dateEdit(key, date string) FilterEdit {
	date = strings.TrimSpace(date)
	if date == "" {
		return ClearValue(key)
	}
	return SetValue(key, date)
}

// SelectType behaves like a radio group that can be unchecked: choosing the currently
// selected type clears the selection, anything else selects only that type.
func SelectType(code string) FilterEdit {
	return editFunc(func(f *FilterSet) bool {
		current := f.Strings(FilterType)
		next := []string{code}
		if len(current) > 0 && current[0] == code {
			next = []string{}
		}
		return SetValue(FilterType, next).apply(f)
	})
}

// ToggleProject adds code to the project selection, or removes it when present.
func ToggleProject(code string) FilterEdit {
	return editFunc(func(f *FilterSet) bool {
		current := f.Strings(FilterProjects)
		var next []string
		if lo.Contains(current, code) {
			next = lo.Without(current, code)
		} else {
			next = append(current, code)
		}
		return SetValue(FilterProjects, next).apply(f)
	})
}

// Projects replaces the project selection.
func Projects(codes ...string) FilterEdit {
	return SetValue(FilterProjects, lo.Uniq(codes))
}

// Authors replaces the author selection.
func Authors(names ...string) FilterEdit {
	return SetValue(FilterAuthors, lo.Uniq(names))
}

// HideProjects sets the flag that hides project selection and labels.
func HideProjects(hide bool) FilterEdit {
	return SetValue(FilterHideProjects, hide)
}
