package events

import (
	"bytes"
	"encoding/json"
)

// Nullable is a patch field that tells an absent key from an explicit null.
// Set is true whenever the key was present; Value is nil for null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Null returns a field that clears the stored value.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// Some returns a field that replaces the stored value with v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// apply returns the patched value of current.
func (n Nullable[T]) apply(current *T) *T {
	if !n.Set {
		return current
	}
	return n.Value
}
