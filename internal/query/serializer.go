// Package query converts filter sets to and from the query-string form used by the
// publications API.
//
// Each key contributes one key=value pair per element when its value is a sequence,
// one pair for a scalar, and nothing when the value is nil. Keys appear in the
// insertion order of the FilterSet so that identical filters always produce
// identical request URLs.
package query

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/rshade/pubscope/internal/model"
)

// Request parameters appended to list queries.
const (
	ParamPage  = "page"
	ParamLimit = "limit"
)

// Encode serializes f. Values are percent-encoded component-wise, so reserved
// characters such as '&', '=', '+' and spaces never leak into the structure.
func Encode(f model.FilterSet) string {
	var pairs []string
	for _, key := range f.Keys() {
		v, _ := f.Get(key)
		if v == nil {
			continue
		}
		ek := EscapeComponent(key)
		if list, ok := v.([]string); ok {
			for _, item := range list {
				pairs = append(pairs, ek+"="+EscapeComponent(item))
			}
			continue
		}
		s := model.FormatScalar(v)
		if key == model.FilterSearch {
			s = NormalizeText(s)
		}
		pairs = append(pairs, ek+"="+EscapeComponent(s))
	}
	return strings.Join(pairs, "&")
}

// EncodeParams serializes f followed by the zero-based page and the page size.
func EncodeParams(f model.FilterSet, page, limit int) string {
	params := f.Clone()
	params.Set(ParamPage, page)
	params.Set(ParamLimit, limit)
	return Encode(params)
}

// Decode parses a query string produced by Encode. Repeated keys become sequences, and
// keys that are always sequences (type, projects, authors) decode as sequences even
// when they occur once.
func Decode(raw string) (model.FilterSet, error) {
	f := model.NewFilterSet()
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return f, nil
	}

	seen := map[string][]string{}
	var order []string
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return model.FilterSet{}, fmt.Errorf("decoding key %q: %w", k, err)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return model.FilterSet{}, fmt.Errorf("decoding value for %q: %w", key, err)
		}
		if _, ok := seen[key]; !ok {
			order = append(order, key)
		}
		seen[key] = append(seen[key], value)
	}

	for _, key := range order {
		values := seen[key]
		if len(values) == 1 && !model.IsArrayKey(key) {
			f.Set(key, values[0])
			continue
		}
		f.Set(key, values)
	}
	return f, nil
}

// NormalizeText trims s and folds it to Unicode NFC so that visually identical
// searches produce identical requests.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// EscapeComponent percent-encodes s, leaving only A-Z a-z 0-9 and - _ . ! ~ * ' ( )
// unescaped.
func EscapeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
