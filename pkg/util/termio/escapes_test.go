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
package termio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnsiEscape(t *testing.T) {
	assert.Equal(t, "\033[0m", ResetAnsiEscape().Build())
	assert.Equal(t, "\033[31m", NewAnsiEscape().FgColour(TERM_RED).Build())
	assert.Equal(t, "\033[1;32m", NewAnsiEscape().Bold().FgColour(TERM_GREEN).Build())
	assert.Equal(t, "\033[36mx\033[0m", NewAnsiEscape().FgColour(TERM_CYAN).Wrap("x"))
}

func TestAnsiEscapeImmutable(t *testing.T) {
	base := NewAnsiEscape().Bold()
	red := base.FgColour(TERM_RED)
	green := base.FgColour(TERM_GREEN)
	//
	assert.Equal(t, "\033[1m", base.Build())
	assert.Equal(t, "\033[1;31m", red.Build())
	assert.Equal(t, "\033[1;32m", green.Build())
}
