// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffIdentical(t *testing.T) {
	lines := Diff([]string{"a", "b"}, []string{"a", "b"})
	assert.Equal(t, []DiffLine{{EQUAL, "a"}, {EQUAL, "b"}}, lines)
	//
	removed, added := DiffStats(lines)
	assert.Zero(t, removed)
	assert.Zero(t, added)
}

func TestDiffEmpty(t *testing.T) {
	assert.Empty(t, Diff(nil, nil))
	assert.Equal(t, []DiffLine{{ADDED, "x"}}, Diff(nil, []string{"x"}))
	assert.Equal(t, []DiffLine{{REMOVED, "x"}}, Diff([]string{"x"}, nil))
}

func TestDiffRelocation(t *testing.T) {
	before := []string{"brfalse next", "ldloc.s 0", "stsfld hovered", "ldc.i4.1", "stsfld nearLeft", "next:"}
	after := []string{"brfalse next", "ldc.i4.1", "stsfld nearLeft", "ldloc.s 0", "stsfld hovered", "next:"}
	//
	lines := Diff(before, after)
	removed, added := DiffStats(lines)
	// Moving two lines costs two removals and two additions
	assert.Equal(t, uint(2), removed)
	assert.Equal(t, uint(2), added)
	assert.Equal(t, DiffLine{EQUAL, "brfalse next"}, lines[0])
	assert.Equal(t, DiffLine{EQUAL, "next:"}, lines[len(lines)-1])
}

func TestDiffReplacement(t *testing.T) {
	lines := Diff([]string{"a", "old", "c"}, []string{"a", "new1", "new2", "c"})
	//
	assert.Equal(t, []DiffLine{
		{EQUAL, "a"}, {REMOVED, "old"}, {ADDED, "new1"}, {ADDED, "new2"}, {EQUAL, "c"},
	}, lines)
	assert.Equal(t, "- old", lines[1].String())
	assert.Equal(t, "  a", lines[0].String())
}
