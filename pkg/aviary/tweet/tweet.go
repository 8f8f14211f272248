// Package tweet provides typed access to raw, externally-sourced tweet
// objects decoded from line-by-line JSON. Field lookups never fail on
// absence: absent keys read as explicit nulls, and only a field present
// with an unexpected type is an error.
package tweet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Raw is one decoded tweet object.
type Raw map[string]any

// ErrNotObject reports a line that decoded as valid JSON but whose
// top-level value is not an object.
var ErrNotObject = errors.New("not a JSON object")

// Decode parses one line of input into a Raw tweet. Numbers keep their
// exact decimal text; 64-bit ids do not survive float64 round-tripping.
func Decode(line []byte) (Raw, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, v)
	}
	return Raw(obj), nil
}

// ShapeError reports a field that is present but not of the expected type.
type ShapeError struct {
	Path string
	Want string
	Got  any
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("field %q: want %s, got %T", e.Path, e.Want, e.Got)
}

// Value returns the raw value stored under key, nil when absent.
func (t Raw) Value(key string) any {
	return t[key]
}

// Str returns the string stored under key; ok is false when the key is
// absent, null, or not a string.
func (t Raw) Str(key string) (string, bool) {
	s, ok := t[key].(string)
	return s, ok
}

// Bool returns true only when the key holds a JSON true.
func (t Raw) Bool(key string) bool {
	b, _ := t[key].(bool)
	return b
}

// Child returns the object stored under key. Absent keys and JSON nulls
// yield (nil, nil); any other non-object value is a ShapeError.
func (t Raw) Child(key string) (Raw, error) {
	v, ok := t[key]
	if !ok || v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ShapeError{Path: key, Want: "object", Got: v}
	}
	return Raw(obj), nil
}

// List returns the array of objects stored under key. Absent keys and
// JSON nulls yield (nil, nil).
func (t Raw) List(key string) ([]Raw, error) {
	v, ok := t[key]
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, &ShapeError{Path: key, Want: "array", Got: v}
	}
	out := make([]Raw, 0, len(arr))
	for i, el := range arr {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, &ShapeError{Path: fmt.Sprintf("%s[%d]", key, i), Want: "object", Got: el}
		}
		out = append(out, Raw(obj))
	}
	return out, nil
}

// Truncated reports whether the primary text field holds a clipped form
// of the tweet's content.
func (t Raw) Truncated() bool {
	return t.Bool("truncated")
}

// Extended returns the extended_tweet container holding the authoritative
// text and entities of a truncated tweet, nil when absent.
func (t Raw) Extended() (Raw, error) {
	return t.Child("extended_tweet")
}

// FullText returns the effective text of the tweet: the extended full
// text when the tweet is truncated and the container is present, the
// primary text otherwise. A tweet without text yields "".
func (t Raw) FullText() (string, error) {
	if t.Truncated() {
		ext, err := t.Extended()
		if err != nil {
			return "", err
		}
		if ext != nil {
			s, _ := ext.Str("full_text")
			return s, nil
		}
	}
	s, _ := t.Str("text")
	return s, nil
}
