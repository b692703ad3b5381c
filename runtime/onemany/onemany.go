// Package onemany is the runtime collaborator a generated package's
// custom UnmarshalJSON/MarshalJSON methods call for any field whose
// schema collapsed a JSON Schema "anyOf": [T, array-of-T] into a plain
// Go slice (the OneOrMany idiom): Decode accepts either a bare value or
// an array and always normalizes to a slice; Encode always emits a
// JSON array, regardless of length, so a one-element array on the wire
// is never silently reshaped into a bare value on the next round trip.
//
// This is the generic form of pkgspec.StringOrStrings, which hand-wrote
// the same accept-one-or-array decode for exactly one element type.
package onemany

import (
	"encoding/json"
	"fmt"
)

// Decode unmarshals data as either a bare T or a JSON array of T.
func Decode[T any](data []byte) ([]T, error) {
	var single T
	if err := json.Unmarshal(data, &single); err == nil {
		return []T{single}, nil
	}
	var many []T
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, fmt.Errorf("onemany: expected a value or an array of values: %w", err)
	}
	return many, nil
}

// Encode always marshals values as a JSON array, per the runtime helper
// contract's serializer (§6): the array shape is never collapsed back
// to a bare value, even for a single element.
func Encode[T any](values []T) ([]byte, error) {
	return json.Marshal(values)
}
