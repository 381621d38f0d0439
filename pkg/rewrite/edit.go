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

// Splice holds the instructions emitted in place of a single match.  Body
// starts out as a copy of the matched window, whilst Before and After start
// out empty.  Edits are applied to a splice in order.
type Splice struct {
	Before []il.Instruction
	Body   []il.Instruction
	After  []il.Instruction
}

// Edit transforms the splice produced for a match.
type Edit func(*Splice)

// SetOperand replaces the operand of the instruction at a given slot of the
// matched window, keeping its opcode.  An operand of the wrong kind for that
// opcode, or a slot which no longer exists, leaves the instruction unchanged.
func SetOperand(slot uint, operand il.Operand) Edit {
	return func(s *Splice) {
		if slot >= uint(len(s.Body)) {
			log.Warnf("operand substitution for missing slot %d skipped", slot)
		} else if insn := s.Body[slot]; insn.Opcode.Operand() != il.OperandKindOf(operand) {
			log.Warnf("operand %s is not valid for %s, substitution skipped", operand, insn.Opcode)
		} else {
			s.Body[slot] = il.Instruction{Opcode: insn.Opcode, Operand: operand}
		}
	}
}

// InsertBefore emits the given instructions immediately before the matched
// window.
func InsertBefore(insns ...il.Instruction) Edit {
	insns = slices.Clone(insns)
	//
	return func(s *Splice) {
		s.Before = append(s.Before, insns...)
	}
}

// InsertAfter emits the given instructions immediately after the matched
// window.
func InsertAfter(insns ...il.Instruction) Edit {
	insns = slices.Clone(insns)
	//
	return func(s *Splice) {
		s.After = append(slices.Clone(insns), s.After...)
	}
}

// Delete drops the matched window from the output.
func Delete() Edit {
	return func(s *Splice) {
		s.Body = nil
	}
}

// Replace emits the given instructions in place of the matched window.
func Replace(insns ...il.Instruction) Edit {
	insns = slices.Clone(insns)
	//
	return func(s *Splice) {
		s.Body = slices.Clone(insns)
	}
}
