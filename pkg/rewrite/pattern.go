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
	"strings"

	"github.com/consensys/go-transpile/pkg/il"
	"github.com/consensys/go-transpile/pkg/symbol"
)

// Predicate is a test over a single instruction.
type Predicate func(il.Instruction) bool

// Pattern is a predicate over a fixed-size window of consecutive instructions.
// A pattern of width one is simply a predicate over a single instruction.
type Pattern struct {
	slots []Predicate
	// Human readable description, used for logging.
	description string
}

// Match constructs a pattern from a sequence of predicates, one per
// consecutive instruction.
func Match(slots ...Predicate) Pattern {
	if len(slots) == 0 {
		panic("empty pattern")
	}
	//
	return Pattern{slots, fmt.Sprintf("<%d slot(s)>", len(slots))}
}

// Describe attaches a description to this pattern for use in diagnostics.
func (p Pattern) Describe(description string) Pattern {
	p.description = description
	return p
}

// Width returns the number of consecutive instructions this pattern examines.
func (p Pattern) Width() uint {
	return uint(len(p.slots))
}

// MatchesAt checks whether this pattern matches the window of code starting at
// a given position.  A window which extends past the end never matches, and
// neither does an empty pattern.
func (p Pattern) MatchesAt(code []il.Instruction, pc uint) bool {
	if p.Width() == 0 || pc+p.Width() > uint(len(code)) {
		return false
	}
	//
	for i, slot := range p.slots {
		if !slot(code[pc+uint(i)]) {
			return false
		}
	}
	//
	return true
}

func (p Pattern) String() string {
	return p.description
}

// Any matches every instruction.
func Any() Predicate {
	return func(il.Instruction) bool { return true }
}

// Opcode matches instructions with any of the given opcodes, regardless of
// their operand.
func Opcode(ops ...il.Opcode) Predicate {
	return func(insn il.Instruction) bool {
		return insn.Is(ops...)
	}
}

// Exactly matches instructions equal to the given instruction.
func Exactly(expected il.Instruction) Predicate {
	return func(insn il.Instruction) bool {
		return insn == expected
	}
}

// Calls matches direct and virtual calls of the given routine.
func Calls(routine *symbol.Routine) Predicate {
	return func(insn il.Instruction) bool {
		return insn.Calls(routine)
	}
}

// StoresField matches stores into the given field.
func StoresField(field *symbol.Field) Predicate {
	return func(insn il.Instruction) bool {
		return insn.StoresField(field)
	}
}

// LoadsField matches loads of the given field (or its address).
func LoadsField(field *symbol.Field) Predicate {
	return func(insn il.Instruction) bool {
		return insn.LoadsField(field)
	}
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(insn il.Instruction) bool {
		return !p(insn)
	}
}

// And matches when all of the given predicates match.
func And(ps ...Predicate) Predicate {
	return func(insn il.Instruction) bool {
		for _, p := range ps {
			if !p(insn) {
				return false
			}
		}
		//
		return true
	}
}

// Or matches when any of the given predicates match.
func Or(ps ...Predicate) Predicate {
	return func(insn il.Instruction) bool {
		for _, p := range ps {
			if p(insn) {
				return true
			}
		}
		//
		return false
	}
}

// Describe a sequence of instructions as a pattern description.
func describe(parts ...string) string {
	return "[" + strings.Join(parts, "; ") + "]"
}
