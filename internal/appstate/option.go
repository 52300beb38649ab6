// Package appstate holds explicit per-session working state and its bbolt
// persistence. There is no ambient global session: handlers receive a
// *State and optional values are expressed with Option[T].
package appstate

import "encoding/json"

// Option is an explicit optional value. The zero Option is None. A present
// zero value is NOT none: Some("") is a set empty string.
type Option[T any] struct {
	value T
	set   bool
}

// None returns the unset Option.
func None[T any]() Option[T] { return Option[T]{} }

// Some wraps a present value.
func Some[T any](v T) Option[T] { return Option[T]{value: v, set: true} }

// IsNone reports whether the value is the unset sentinel.
func (o Option[T]) IsNone() bool { return !o.set }

// IsSome reports whether a value is present.
func (o Option[T]) IsSome() bool { return o.set }

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) { return o.value, o.set }

// GetOr returns the value or def when unset.
func (o Option[T]) GetOr(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// MarshalJSON encodes None as null and Some(v) as v.
func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as None and any other value as Some.
func (o *Option[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = Option[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
