/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package jsonrpcpatch accumulates a handler's successive result values
// into a stream of JSON-Patch operations against an initially-null value
// (spec.md §4.H). Diffing uses gomodules.xyz/jsonpatch/v2 (the same library
// GoogleContainerTools/skaffold vendors for Kubernetes admission-webhook
// patches); applying the resulting ops back onto the accumulated value uses
// github.com/evanphx/json-patch, exercising both halves of "describe a
// sequence of edits to a JSON document, then apply them."
package jsonrpcpatch

import (
	"encoding/json"
	"fmt"

	jsonpatch2 "github.com/evanphx/json-patch"
	jsonpatch "gomodules.xyz/jsonpatch/v2"
)

// Op is one JSON-Patch operation, as sent in a $/partialResult notification.
type Op = jsonpatch.JsonPatchOperation

// Accumulator tracks a streamed result value, starting at JSON null
// (spec.md §4.H: "an initially-null result value").
type Accumulator struct {
	current []byte
}

// NewAccumulator creates an Accumulator whose current value is null.
func NewAccumulator() *Accumulator {
	return &Accumulator{current: []byte("null")}
}

// Advance diffs the accumulator's current value against next, applies the
// resulting patch to produce the new current value, and returns the ops
// describing the change (nil if next is identical to the current value).
func (a *Accumulator) Advance(next any) ([]Op, error) {
	nextBytes, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("jsonrpcpatch: marshaling next value: %w", err)
	}

	ops, err := jsonpatch.CreatePatch(a.current, nextBytes)
	if err != nil {
		return nil, fmt.Errorf("jsonrpcpatch: diffing: %w", err)
	}
	if len(ops) == 0 {
		return nil, nil
	}

	opsBytes, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("jsonrpcpatch: marshaling ops: %w", err)
	}
	patch, err := jsonpatch2.DecodePatch(opsBytes)
	if err != nil {
		return nil, fmt.Errorf("jsonrpcpatch: decoding patch: %w", err)
	}
	applied, err := patch.Apply(a.current)
	if err != nil {
		return nil, fmt.Errorf("jsonrpcpatch: applying patch: %w", err)
	}
	a.current = applied
	return ops, nil
}

// Value returns the accumulator's current JSON value.
func (a *Accumulator) Value() json.RawMessage {
	return json.RawMessage(a.current)
}
