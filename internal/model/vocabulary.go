package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Vocabulary is an ordered, immutable code → label mapping (publication types, projects).
type Vocabulary struct {
	codes  []string
	labels map[string]string
}

// VocabularyEntry is one code/label pair.
type VocabularyEntry struct {
	Code  string `json:"code"  yaml:"code"`
	Label string `json:"label" yaml:"label"`
}

// NewVocabulary builds a Vocabulary from entries, keeping their order. Later duplicates
// replace the label but not the position of earlier ones.
func NewVocabulary(entries ...VocabularyEntry) Vocabulary {
	v := Vocabulary{labels: make(map[string]string, len(entries))}
	for _, e := range entries {
		if _, ok := v.labels[e.Code]; !ok {
			v.codes = append(v.codes, e.Code)
		}
		v.labels[e.Code] = e.Label
	}
	return v
}

// Len returns the number of codes.
func (v Vocabulary) Len() int { return len(v.codes) }

// Codes returns the codes in server order.
func (v Vocabulary) Codes() []string { return slices.Clone(v.codes) }

// Entries returns the pairs in server order.
func (v Vocabulary) Entries() []VocabularyEntry {
	out := make([]VocabularyEntry, 0, len(v.codes))
	for _, c := range v.codes {
		out = append(out, VocabularyEntry{Code: c, Label: v.labels[c]})
	}
	return out
}

// Label returns the label for code, falling back to the code itself.
func (v Vocabulary) Label(code string) string {
	if l, ok := v.labels[code]; ok {
		return l
	}
	return code
}

// Contains reports whether code is known.
func (v Vocabulary) Contains(code string) bool {
	_, ok := v.labels[code]
	return ok
}

// MarshalJSON encodes the vocabulary as an object in server order.
func (v Vocabulary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range v.codes {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(c)
		l, _ := json.Marshal(v.labels[c])
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(l)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes {"code": "label", ...} preserving member order.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var entries []VocabularyEntry
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var label string
		if err := json.Unmarshal(raw, &label); err != nil {
			return fmt.Errorf("label for %q: %w", key, err)
		}
		entries = append(entries, VocabularyEntry{Code: key, Label: label})
		return nil
	})
	if err != nil {
		return err
	}
	*v = NewVocabulary(entries...)
	return nil
}
