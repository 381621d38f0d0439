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

import (
	"fmt"

	"github.com/consensys/go-transpile/pkg/symbol"
)

// Instruction is a single operation within an instruction stream, consisting
// of an opcode and an (optional) operand.  Instructions are immutable values;
// an instruction stream is simply a slice of them.
type Instruction struct {
	Opcode  Opcode
	Operand Operand
}

// New constructs an instruction, checking that the operand is appropriate for
// the given opcode.
func New(op Opcode, operand Operand) Instruction {
	if kind := OperandKindOf(operand); kind != op.Operand() {
		panic(fmt.Sprintf("invalid operand %v for %s", operand, op))
	}
	//
	return Instruction{op, operand}
}

// Op constructs an instruction which has no operand.
func Op(op Opcode) Instruction {
	return New(op, nil)
}

// Call constructs an instruction which calls a given routine.
func Call(routine *symbol.Routine) Instruction {
	return Instruction{CALL, routine}
}

// LoadArg constructs an instruction loading the given argument.
func LoadArg(index uint16) Instruction {
	return Instruction{LDARG_S, Index(index)}
}

// Mark constructs the pseudo-instruction declaring a given label.
func Mark(label Label) Instruction {
	return Instruction{LABEL, label}
}

// Routine returns the routine called by this instruction, or nil if this is not
// a call.
func (p Instruction) Routine() *symbol.Routine {
	if r, ok := p.Operand.(*symbol.Routine); ok {
		return r
	}
	//
	return nil
}

// Is checks whether this instruction has any of the given opcodes.
func (p Instruction) Is(ops ...Opcode) bool {
	for _, op := range ops {
		if p.Opcode == op {
			return true
		}
	}
	//
	return false
}

// Calls checks whether this instruction calls the given routine, either
// directly or virtually.
func (p Instruction) Calls(routine *symbol.Routine) bool {
	return p.Opcode.IsCall() && p.Operand == Operand(routine)
}

// StoresField checks whether this instruction stores into the given field
// (whether static or not).
func (p Instruction) StoresField(field *symbol.Field) bool {
	return p.Is(STFLD, STSFLD) && p.Operand == Operand(field)
}

// LoadsField checks whether this instruction loads the given field (or its
// address).
func (p Instruction) LoadsField(field *symbol.Field) bool {
	return p.Is(LDFLD, LDFLDA, LDSFLD, LDSFLDA) && p.Operand == Operand(field)
}

// IsBranch checks whether this instruction may transfer control to a label.
func (p Instruction) IsBranch() bool {
	return p.Opcode.IsBranch()
}

// StackEffect returns the number of values this instruction consumes from, and
// then pushes onto, the stack.  For ret, the effect depends upon whether or not
// the enclosing routine returns a value.
func (p Instruction) StackEffect(returnsValue bool) (pops uint, pushes uint) {
	info := opcodes[p.Opcode]
	pops, pushes = uint(info.pops), uint(info.pushes)
	//
	switch {
	case p.Opcode == RET:
		pops = 0
		if returnsValue {
			pops = 1
		}
	case p.Opcode == NEWOBJ:
		pops = uint(len(p.Routine().Params))
	case p.Opcode.IsCall():
		r := p.Routine()
		pops, pushes = uint(len(r.StackParams())), 0
		//
		if r.Returns() {
			pushes = 1
		}
	}
	//
	return pops, pushes
}

func (p Instruction) String() string {
	switch {
	case p.Opcode == LABEL:
		return fmt.Sprintf("%s:", p.Operand)
	case p.Operand == nil:
		return p.Opcode.Mnemonic()
	default:
		return fmt.Sprintf("%s %s", p.Opcode.Mnemonic(), p.Operand)
	}
}
