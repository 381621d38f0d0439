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
package il

import "fmt"

// VerifyError identifies a problem with an instruction stream at a given
// position.
type VerifyError struct {
	// Position of the offending instruction within the stream.
	Position uint
	// Message describing the problem.
	Message string
}

func (p *VerifyError) Error() string {
	return fmt.Sprintf("%d: %s", p.Position, p.Message)
}

// Verify checks an instruction stream for balanced stack effects and valid
// branch targets.  Specifically, every label must be declared exactly once,
// every branch must target a declared label, no instruction may consume more
// values than are on the stack, the stack depth must agree wherever control
// flow merges, the stack must be empty (except for the result) at every ret,
// and control must not fall off the end of the stream.  Unreachable code is
// ignored.
//
// Verify is a diagnostic only: the rewriter never calls it and, hence, never
// relies upon it.
func Verify(code []Instruction, returnsValue bool) error {
	if len(code) == 0 {
		return &VerifyError{0, "empty routine"}
	}
	//
	labels, err := bindLabels(code)
	if err != nil {
		return err
	}
	// Stack depth on entry to each instruction, or -1 if unvisited.
	depths := make([]int, len(code))
	for i := range depths {
		depths[i] = -1
	}
	//
	depths[0] = 0
	worklist := []uint{0}
	//
	for len(worklist) > 0 {
		var (
			pc           = worklist[len(worklist)-1]
			insn         = code[pc]
			pops, pushes = insn.StackEffect(returnsValue)
			depth        = depths[pc]
			successors   []uint
		)
		//
		worklist = worklist[:len(worklist)-1]
		//
		if depth < int(pops) {
			return &VerifyError{pc, fmt.Sprintf("stack underflow (%s requires %d value(s), found %d)", insn, pops, depth)}
		}
		//
		after := depth - int(pops) + int(pushes)
		//
		switch insn.Opcode.Flow() {
		case EXIT:
			if insn.Opcode == RET && after != 0 {
				return &VerifyError{pc, fmt.Sprintf("stack not empty on return (%d value(s) remain)", after)}
			}
		case JUMP:
			successors = []uint{labels[insn.Operand.(Label)]}
		case BRANCH:
			successors = []uint{labels[insn.Operand.(Label)], pc + 1}
		default:
			successors = []uint{pc + 1}
		}
		//
		for _, next := range successors {
			if next >= uint(len(code)) {
				return &VerifyError{pc, "control falls off end of routine"}
			} else if depths[next] == -1 {
				depths[next] = after
				worklist = append(worklist, next)
			} else if depths[next] != after {
				return &VerifyError{next, fmt.Sprintf("inconsistent stack depth (%d versus %d)", depths[next], after)}
			}
		}
	}
	//
	return nil
}

// Determine the position of each declared label, whilst checking that every
// label is declared once and that every branch targets a declared label.
func bindLabels(code []Instruction) (map[Label]uint, error) {
	labels := make(map[Label]uint)
	//
	for pc, insn := range code {
		if insn.Opcode == LABEL {
			label := insn.Operand.(Label)
			//
			if _, ok := labels[label]; ok {
				return nil, &VerifyError{uint(pc), fmt.Sprintf("duplicate label %s", label)}
			}
			//
			labels[label] = uint(pc)
		}
	}
	//
	for pc, insn := range code {
		if insn.IsBranch() {
			if _, ok := labels[insn.Operand.(Label)]; !ok {
				return nil, &VerifyError{uint(pc), fmt.Sprintf("undefined label %s", insn.Operand)}
			}
		}
	}
	//
	return labels, nil
}
