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
package patch

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/consensys/go-transpile/pkg/il"
	"github.com/consensys/go-transpile/pkg/il/assembler"
	"github.com/consensys/go-transpile/pkg/rewrite"
	"github.com/consensys/go-transpile/pkg/symbol"
)

// GETTER prefixes a property reference "Owner::Property", which is resolved
// to the getter routine "Owner::get_Property".
const GETTER = "getter"

// slot is a compiled instruction pattern.  When the pattern determines the
// opcode of the instruction it matches, this is recorded so that operands
// given for that slot can be interpreted.
type slot struct {
	text      string
	predicate rewrite.Predicate
	opcode    il.Opcode
	known     bool
}

// ParsePattern compiles the textual form of an instruction pattern.  This is
// either "*" (matching anything), a bare mnemonic (matching any instruction
// with that opcode), a complete instruction, or one of these prefixed with "!"
// which inverts the match.  Alternatives are separated by "|".  A pattern for
// "call" also matches "callvirt", such that a call site is matched regardless
// of how it dispatches.  Labels are only matched by the "label" mnemonic,
// never by "*" or a negation, so that a span cannot capture a branch target
// by accident.
func ParsePattern(text string, registry *symbol.Registry) (rewrite.Predicate, error) {
	s, err := parseSlot(text, registry)
	//
	return s.predicate, err
}

func parseSlot(text string, registry *symbol.Registry) (slot, error) {
	var (
		alternatives = splitAlternatives(text)
		slots        = make([]slot, len(alternatives))
		predicates   = make([]rewrite.Predicate, len(alternatives))
	)
	//
	for i, alt := range alternatives {
		s, err := parseAlternative(alt, registry)
		if err != nil {
			return slot{}, err
		}
		//
		slots[i], predicates[i] = s, s.predicate
	}
	//
	if len(slots) == 1 {
		return slots[0], nil
	}
	// The opcode is only known when every alternative agrees on it.
	result := slot{strings.TrimSpace(text), rewrite.Or(predicates...), slots[0].opcode, true}
	//
	for _, s := range slots {
		result.known = result.known && s.known && s.opcode == result.opcode
	}
	//
	return result, nil
}

func parseAlternative(text string, registry *symbol.Registry) (slot, error) {
	var realInsn = rewrite.Not(rewrite.Opcode(il.LABEL))
	//
	text = strings.TrimSpace(text)
	//
	switch {
	case text == "":
		return slot{}, errors.New("empty instruction pattern")
	case text == "*":
		return slot{text: text, predicate: realInsn}, nil
	case strings.HasPrefix(text, "!"):
		inner, err := parseAlternative(text[1:], registry)
		if err != nil {
			return slot{}, err
		}
		//
		return slot{text: text, predicate: rewrite.And(realInsn, rewrite.Not(inner.predicate))}, nil
	}
	// Bare mnemonic?
	if op, ok := il.ParseOpcode(text); ok {
		switch op {
		case il.CALL, il.CALLVIRT:
			return slot{text, rewrite.Opcode(il.CALL, il.CALLVIRT), op, true}, nil
		default:
			return slot{text, rewrite.Opcode(op), op, true}, nil
		}
	}
	// Complete instruction
	insn, err := parseInstruction(text, registry)
	if err != nil {
		return slot{}, errors.Wrapf(err, "instruction pattern %q", text)
	}
	//
	if insn.Opcode.IsCall() {
		return slot{text, rewrite.Calls(insn.Routine()), insn.Opcode, true}, nil
	}
	//
	return slot{text, rewrite.Exactly(insn), insn.Opcode, true}, nil
}

// Split a pattern on "|", ignoring any within string literals.
func splitAlternatives(text string) []string {
	var (
		parts  []string
		start  = 0
		quoted = false
	)
	//
	for i := 0; i < len(text); i++ {
		switch {
		case quoted && text[i] == '\\':
			i++
		case text[i] == '"':
			quoted = !quoted
		case !quoted && text[i] == '|':
			parts = append(parts, text[start:i])
			start = i + 1
		}
	}
	//
	return append(parts, text[start:])
}

// ParseCode parses a sequence of instructions, such as those inserted by a
// rule.
func ParseCode(lines []string, registry *symbol.Registry) ([]il.Instruction, error) {
	code := make([]il.Instruction, len(lines))
	//
	for i, line := range lines {
		insn, err := parseInstruction(line, registry)
		if err != nil {
			return nil, err
		}
		//
		code[i] = insn
	}
	//
	return code, nil
}

// ResolveRoutine resolves a routine reference given in a patch set.  This is
// either a plain reference (e.g. "Rect::Contains(Vector2)") or a property
// reference (e.g. "getter Vector2::zero").
func ResolveRoutine(text string, registry *symbol.Registry) (*symbol.Routine, error) {
	fields := strings.Fields(text)
	//
	if len(fields) != 2 || fields[0] != GETTER {
		return registry.Routine(strings.TrimSpace(text))
	}
	//
	ref, err := symbol.ParseReference(fields[1])
	if err != nil {
		return nil, err
	} else if ref.HasParams {
		return nil, errors.Newf("malformed property reference %q (unexpected parameter list)", fields[1])
	}
	//
	return registry.Getter(ref.Owner, ref.Name)
}

// Parse a single instruction, permitting a property reference as the operand
// of a call (e.g. "call getter Rect::position").
func parseInstruction(text string, registry *symbol.Registry) (il.Instruction, error) {
	if fields := strings.Fields(text); len(fields) == 3 && fields[1] == GETTER {
		routine, err := ResolveRoutine(strings.Join(fields[1:], " "), registry)
		if err != nil {
			return il.Instruction{}, err
		}
		//
		text = fields[0] + " " + routine.Signature()
	}
	//
	return assembler.ParseInstruction(text, registry)
}
