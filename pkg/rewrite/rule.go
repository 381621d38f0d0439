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
	"fmt"
	"slices"

	"github.com/consensys/go-transpile/pkg/il"
	"github.com/consensys/go-transpile/pkg/symbol"
	log "github.com/sirupsen/logrus"
)

// Rule is a rewrite rule applied during a single forward pass over an
// instruction stream.  Rules themselves are immutable and can be shared
// between streams; any state needed whilst rewriting a given stream is held in
// the Pass.
type Rule interface {
	// Name identifies this rule in diagnostics.
	Name() string
	// Apply attempts to apply this rule at a given position in the original
	// stream, emitting any output into the pass.  This returns the number of
	// original instructions consumed, or zero if the rule did not match (in
	// which case nothing must have been emitted).
	Apply(pass *Pass, pc uint) uint
}

// Trigger is a rule which additionally reacts to each instruction as it is
// emitted into the output stream.
type Trigger interface {
	Rule
	// Emitted is called after each instruction emitted into the output
	// stream (other than those emitted by triggers themselves).
	Emitted(pass *Pass, insn il.Instruction)
}

// EditRule pairs a pattern with zero or more edits.  When the pattern matches
// at some position, the matched window is consumed and the splice resulting
// from applying each edit in turn is emitted.
type EditRule struct {
	name    string
	pattern Pattern
	edits   []Edit
}

// When constructs a rule which applies to each occurrence of the given
// pattern.  Without any edits, the rule re-emits each match unchanged.
func When(pattern Pattern) *EditRule {
	return &EditRule{pattern.String(), pattern, nil}
}

// Then returns a copy of this rule with the given edits appended.
func (r *EditRule) Then(edits ...Edit) *EditRule {
	return &EditRule{r.name, r.pattern, append(slices.Clone(r.edits), edits...)}
}

// Named returns a copy of this rule with the given name.
func (r *EditRule) Named(name string) *EditRule {
	return &EditRule{name, r.pattern, r.edits}
}

// Name implementation for Rule interface.
func (r *EditRule) Name() string {
	return r.name
}

// Apply implementation for Rule interface.
func (r *EditRule) Apply(pass *Pass, pc uint) uint {
	if !r.pattern.MatchesAt(pass.code, pc) {
		return 0
	}
	//
	var (
		width  = r.pattern.Width()
		splice = Splice{Body: slices.Clone(pass.code[pc : pc+width])}
	)
	//
	for _, edit := range r.edits {
		edit(&splice)
	}
	//
	log.Debugf("%s: %s matched at %d (%d => %d instruction(s))", pass.name, r.name, pc, width,
		len(splice.Before)+len(splice.Body)+len(splice.After))
	//
	pass.Emit(splice.Before...)
	pass.Emit(splice.Body...)
	pass.Emit(splice.After...)
	//
	return width
}

// Redirect constructs a rule which replaces the target of every call to from
// with to, keeping the call opcode.  Unlike ReplaceCalls, no signature check is
// performed: the caller is responsible for the stack effect of the result.
func Redirect(from *symbol.Routine, to *symbol.Routine) *EditRule {
	pattern := Match(Calls(from)).Describe(describe("call " + from.String()))
	//
	return When(pattern).
		Named(fmt.Sprintf("redirect %s => %s", from, to)).
		Then(SetOperand(0, to))
}
