// Package model defines the publication catalog types shared by the gateway,
// the query controller and the renderers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// Well-known filter keys understood by the publications API.
const (
	FilterSearch       = "search"
	FilterStartDate    = "start_date"
	FilterEndDate      = "end_date"
	FilterType         = "type"
	FilterProjects     = "projects"
	FilterAuthors      = "authors"
	FilterHideProjects = "hide_projects"
)

// ArrayFilterKeys lists the keys whose values are always sequences.
//
//nolint:gochecknoglobals // Read-only lookup table.
var ArrayFilterKeys = []string{FilterType, FilterProjects, FilterAuthors}

// IsArrayKey reports whether key always carries a sequence value.
func IsArrayKey(key string) bool {
	return slices.Contains(ArrayFilterKeys, key)
}

// FilterSet is an ordered mapping from filter name to a scalar, a []string, or nil.
//
// A nil value, a missing key and an empty slice all mean "no constraint". Keys keep
// their insertion order so that serialized queries are reproducible.
type FilterSet struct {
	keys   []string
	values map[string]any
}

// NewFilterSet returns an empty FilterSet.
func NewFilterSet() FilterSet {
	return FilterSet{values: map[string]any{}}
}

// Len returns the number of keys, including keys holding nil.
func (f FilterSet) Len() int {
	return len(f.keys)
}

// Keys returns the keys in insertion order.
func (f FilterSet) Keys() []string {
	return slices.Clone(f.keys)
}

// Has reports whether key is present (its value may be nil).
func (f FilterSet) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Get returns the value for key and whether it was present.
func (f FilterSet) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Set stores value under key. New keys are appended; existing keys keep their position.
func (f *FilterSet) Set(key string, value any) {
	if f.values == nil {
		f.values = map[string]any{}
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = normalizeValue(value)
}

// Delete removes key.
func (f *FilterSet) Delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	f.keys = slices.DeleteFunc(f.keys, func(k string) bool { return k == key })
}

// String returns the scalar value of key as a string, or "" when absent or nil.
func (f FilterSet) String(key string) string {
	v, ok := f.values[key]
	if !ok || v == nil {
		return ""
	}
	if list, isList := v.([]string); isList {
		if len(list) == 0 {
			return ""
		}
		return list[0]
	}
	return FormatScalar(v)
}

// Strings returns the value of key as a slice. Scalars become a one-element slice.
func (f FilterSet) Strings(key string) []string {
	v, ok := f.values[key]
	if !ok || v == nil {
		return nil
	}
	if list, isList := v.([]string); isList {
		return slices.Clone(list)
	}
	return []string{FormatScalar(v)}
}

// Bool returns the value of key interpreted as a boolean flag.
func (f FilterSet) Bool(key string) bool {
	switch v := f.values[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Clone returns a deep copy.
func (f FilterSet) Clone() FilterSet {
	out := FilterSet{
		keys:   slices.Clone(f.keys),
		values: make(map[string]any, len(f.values)),
	}
	for k, v := range f.values {
		if list, ok := v.([]string); ok {
			v = slices.Clone(list)
		}
		out.values[k] = v
	}
	return out
}

// Merge returns f overlaid with overrides. Override values win; override keys not
// already in f are appended in their own order.
func (f FilterSet) Merge(overrides FilterSet) FilterSet {
	out := f.Clone()
	for _, k := range overrides.keys {
		out.Set(k, overrides.values[k])
	}
	return out
}

// Equal reports whether both sets hold the same keys, order and values.
func (f FilterSet) Equal(other FilterSet) bool {
	if !slices.Equal(f.keys, other.keys) {
		return false
	}
	for _, k := range f.keys {
		if !valuesEqual(f.values[k], other.values[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a JSON object in key order.
func (f FilterSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, fmt.Errorf("encoding filter %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving member order.
func (f *FilterSet) UnmarshalJSON(data []byte) error {
	*f = NewFilterSet()
	return decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		v, err := decodeValue(raw)
		if err != nil {
			return fmt.Errorf("filter %q: %w", key, err)
		}
		f.Set(key, v)
		return nil
	})
}

// FormatScalar renders a scalar filter value the way it appears in a query string.
func FormatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// normalizeValue folds the accepted value shapes onto nil, scalars and []string.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case []string:
		return slices.Clone(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, FormatScalar(e))
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	// Nested objects are not a valid filter shape; keep them as opaque text.
	if _, ok := v.(map[string]any); ok {
		return string(raw), nil
	}
	return normalizeValue(v), nil
}

func valuesEqual(a, b any) bool {
	la, aList := a.([]string)
	lb, bList := b.([]string)
	if aList || bList {
		return aList && bList && slices.Equal(la, lb)
	}
	return a == b
}
