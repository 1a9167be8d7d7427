package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// errNotObject is returned when an ordered decode is attempted on a non-object value.
var errNotObject = errors.New("expected a JSON object")

// decodeOrderedObject walks the top-level members of a JSON object in document order.
func decodeOrderedObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w, got %v", errNotObject, tok)
	}

	for dec.More() {
		keyTok, keyErr := dec.Token()
		if keyErr != nil {
			return keyErr
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", keyTok)
		}
		var raw json.RawMessage
		if err = dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding %q: %w", key, err)
		}
		if err = fn(key, raw); err != nil {
			return err
		}
	}

	if _, err = dec.Token(); err != nil {
		return err
	}
	return nil
}
