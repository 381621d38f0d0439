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
package rewrite

import (
	"slices"

	"github.com/consensys/go-transpile/pkg/il"
	log "github.com/sirupsen/logrus"
)

// Relocation is a capture/replay rule.  Whenever its span pattern matches, the
// matched window is captured (and not emitted).  When an instruction matching
// its marker is subsequently emitted, the pending capture is emitted
// immediately after that instruction.  The net effect is to move a span from
// its original position to just after a later marker.
//
// The following situations are not errors, but are logged:
//
//   - A marker emitted with nothing pending is skipped.
//   - A second capture before a replay overwrites (and drops) the first.
//   - A capture still pending at the end of the stream is dropped, hence the
//     output is shorter than the input by the width of the span.
//
// Labels are instructions like any other, so a span whose slots accept them
// (e.g. Any or Not) can capture a branch target and move it.  Spans which
// must not do so should exclude il.LABEL explicitly.
type Relocation struct {
	name   string
	span   Pattern
	marker Predicate
}

// Relocate constructs a capture/replay rule.
func Relocate(span Pattern, marker Predicate) *Relocation {
	return &Relocation{"relocate " + span.String(), span, marker}
}

// Named returns a copy of this rule with the given name.
func (r *Relocation) Named(name string) *Relocation {
	return &Relocation{name, r.span, r.marker}
}

// Name implementation for Rule interface.
func (r *Relocation) Name() string {
	return r.name
}

// Apply implementation for Rule interface.
func (r *Relocation) Apply(pass *Pass, pc uint) uint {
	if !r.span.MatchesAt(pass.code, pc) {
		return 0
	}
	//
	width := r.span.Width()
	//
	if _, ok := pass.captures[r]; ok {
		log.Warnf("%s: %s captured again at %d before replay, dropping earlier capture", pass.name, r.name, pc)
		//
		pass.dropped++
	}
	//
	log.Debugf("%s: %s captured %d instruction(s) at %d", pass.name, r.name, width, pc)
	//
	pass.captures[r] = slices.Clone(pass.code[pc : pc+width])
	//
	return width
}

// Emitted implementation for Trigger interface.
func (r *Relocation) Emitted(pass *Pass, insn il.Instruction) {
	if !r.marker(insn) {
		return
	}
	//
	captured, ok := pass.captures[r]
	//
	if !ok {
		log.Warnf("%s: %s marker \"%s\" emitted at %d with nothing captured, skipping", pass.name, r.name, insn,
			len(pass.out)-1)
		//
		pass.skipped++
		//
		return
	}
	//
	log.Debugf("%s: %s replayed %d instruction(s) at %d", pass.name, r.name, len(captured), len(pass.out))
	//
	delete(pass.captures, r)
	pass.out = append(pass.out, captured...)
	pass.replayed++
}
