package patch

import (
	"bytes"
	"encoding/json"
)

type state uint8

const (
	stateUnset state = iota
	stateNull
	stateValue
)

// Field is a three-state value: unset, explicitly null, or set to a value.
// The zero Field is unset.
type Field[V any] struct {
	state state
	value V
}

func Unset[V any]() Field[V] { return Field[V]{} }

func Null[V any]() Field[V] { return Field[V]{state: stateNull} }

func Value[V any](v V) Field[V] { return Field[V]{state: stateValue, value: v} }

// IsSet reports whether the caller supplied the field at all, null included.
func (f Field[V]) IsSet() bool { return f.state != stateUnset }

func (f Field[V]) IsNull() bool { return f.state == stateNull }

// Get returns the value and true only when a non-null value was supplied.
func (f Field[V]) Get() (V, bool) {
	return f.value, f.state == stateValue
}

func (f *Field[V]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		var zero V
		f.state, f.value = stateNull, zero
		return nil
	}
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.state, f.value = stateValue, v
	return nil
}

// MarshalJSON renders unset and null alike; callers that care use IsSet.
func (f Field[V]) MarshalJSON() ([]byte, error) {
	if f.state != stateValue {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
