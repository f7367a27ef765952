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
package jsonrpcpatch_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tsls.dev/server/internal/jsonrpcpatch"
)

func TestAccumulatorStartsNull(t *testing.T) {
	a := jsonrpcpatch.NewAccumulator()
	assert.JSONEq(t, "null", string(a.Value()))
}

func TestAccumulatorAdvanceBuildsFinalValue(t *testing.T) {
	a := jsonrpcpatch.NewAccumulator()

	ops, err := a.Advance(map[string]any{"items": []string{"a"}})
	require.NoError(t, err)
	assert.NotEmpty(t, ops)

	ops, err = a.Advance(map[string]any{"items": []string{"a", "b"}})
	require.NoError(t, err)
	assert.NotEmpty(t, ops)

	var final struct {
		Items []string `json:"items"`
	}
	require.NoError(t, json.Unmarshal(a.Value(), &final))
	assert.Equal(t, []string{"a", "b"}, final.Items)
}

func TestAccumulatorNoOpProducesNoPatch(t *testing.T) {
	a := jsonrpcpatch.NewAccumulator()
	_, err := a.Advance(map[string]any{"x": 1})
	require.NoError(t, err)

	ops, err := a.Advance(map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Empty(t, ops)
}
