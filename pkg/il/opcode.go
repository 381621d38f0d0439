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
	"math"
)

// Opcode identifies the kind of operation performed by an instruction.  The
// set of opcodes is closed.
type Opcode uint8

// Opcodes.  Mnemonics follow the conventional textual form of each operation
// (e.g. LDC_I4_M1 is written "ldc.i4.m1").
const (
	NOP Opcode = iota
	// LABEL is a pseudo-instruction marking a branch target.  It occupies a
	// position in the stream but has no stack effect.
	LABEL
	LDARG
	LDARG_S
	LDARGA
	LDARGA_S
	STARG
	LDLOC
	LDLOC_S
	LDLOCA
	STLOC
	STLOC_S
	LDNULL
	LDC_I4
	LDC_I4_M1
	LDC_I4_0
	LDC_I4_1
	LDC_I8
	LDC_R4
	LDC_R8
	LDSTR
	LDFLD
	LDFLDA
	STFLD
	LDSFLD
	LDSFLDA
	STSFLD
	CALL
	CALLVIRT
	NEWOBJ
	DUP
	POP
	ADD
	SUB
	MUL
	DIV
	AND
	OR
	XOR
	NEG
	NOT
	CEQ
	CGT
	CLT
	CONV_I4
	CONV_R4
	BR
	BRTRUE
	BRFALSE
	BEQ
	BNE_UN
	BLT
	BGE
	BGT
	BLE
	RET
	THROW
	// Number of opcodes
	numOpcodes
)

// OperandKind determines what (if any) operand an opcode expects.
type OperandKind uint8

const (
	// NO_OPERAND is used for opcodes which take no operand.
	NO_OPERAND OperandKind = iota
	// INDEX_OPERAND is an argument or local variable index.
	INDEX_OPERAND
	// INT32_OPERAND is a 32-bit immediate.
	INT32_OPERAND
	// INT64_OPERAND is a 64-bit immediate.
	INT64_OPERAND
	// FLOAT_OPERAND is a floating point immediate.
	FLOAT_OPERAND
	// STRING_OPERAND is a string literal.
	STRING_OPERAND
	// FIELD_OPERAND refers to a declared field.
	FIELD_OPERAND
	// ROUTINE_OPERAND refers to a declared routine.
	ROUTINE_OPERAND
	// LABEL_OPERAND refers to a branch target.
	LABEL_OPERAND
)

// Flow describes how control leaves an instruction.
type Flow uint8

const (
	// NEXT continues with the following instruction.
	NEXT Flow = iota
	// JUMP unconditionally transfers control to a label.
	JUMP
	// BRANCH either transfers control to a label or continues.
	BRANCH
	// EXIT leaves the routine.
	EXIT
)

// VARIABLE marks a stack effect which depends upon the operand (e.g. for
// calls).
const VARIABLE = math.MaxUint8

type opcodeInfo struct {
	mnemonic string
	operand  OperandKind
	pops     uint8
	pushes   uint8
	flow     Flow
}

var opcodes = [numOpcodes]opcodeInfo{
	NOP:       {"nop", NO_OPERAND, 0, 0, NEXT},
	LABEL:     {"label", LABEL_OPERAND, 0, 0, NEXT},
	LDARG:     {"ldarg", INDEX_OPERAND, 0, 1, NEXT},
	LDARG_S:   {"ldarg.s", INDEX_OPERAND, 0, 1, NEXT},
	LDARGA:    {"ldarga", INDEX_OPERAND, 0, 1, NEXT},
	LDARGA_S:  {"ldarga.s", INDEX_OPERAND, 0, 1, NEXT},
	STARG:     {"starg", INDEX_OPERAND, 1, 0, NEXT},
	LDLOC:     {"ldloc", INDEX_OPERAND, 0, 1, NEXT},
	LDLOC_S:   {"ldloc.s", INDEX_OPERAND, 0, 1, NEXT},
	LDLOCA:    {"ldloca", INDEX_OPERAND, 0, 1, NEXT},
	STLOC:     {"stloc", INDEX_OPERAND, 1, 0, NEXT},
	STLOC_S:   {"stloc.s", INDEX_OPERAND, 1, 0, NEXT},
	LDNULL:    {"ldnull", NO_OPERAND, 0, 1, NEXT},
	LDC_I4:    {"ldc.i4", INT32_OPERAND, 0, 1, NEXT},
	LDC_I4_M1: {"ldc.i4.m1", NO_OPERAND, 0, 1, NEXT},
	LDC_I4_0:  {"ldc.i4.0", NO_OPERAND, 0, 1, NEXT},
	LDC_I4_1:  {"ldc.i4.1", NO_OPERAND, 0, 1, NEXT},
	LDC_I8:    {"ldc.i8", INT64_OPERAND, 0, 1, NEXT},
	LDC_R4:    {"ldc.r4", FLOAT_OPERAND, 0, 1, NEXT},
	LDC_R8:    {"ldc.r8", FLOAT_OPERAND, 0, 1, NEXT},
	LDSTR:     {"ldstr", STRING_OPERAND, 0, 1, NEXT},
	LDFLD:     {"ldfld", FIELD_OPERAND, 1, 1, NEXT},
	LDFLDA:    {"ldflda", FIELD_OPERAND, 1, 1, NEXT},
	STFLD:     {"stfld", FIELD_OPERAND, 2, 0, NEXT},
	LDSFLD:    {"ldsfld", FIELD_OPERAND, 0, 1, NEXT},
	LDSFLDA:   {"ldsflda", FIELD_OPERAND, 0, 1, NEXT},
	STSFLD:    {"stsfld", FIELD_OPERAND, 1, 0, NEXT},
	CALL:      {"call", ROUTINE_OPERAND, VARIABLE, VARIABLE, NEXT},
	CALLVIRT:  {"callvirt", ROUTINE_OPERAND, VARIABLE, VARIABLE, NEXT},
	NEWOBJ:    {"newobj", ROUTINE_OPERAND, VARIABLE, 1, NEXT},
	DUP:       {"dup", NO_OPERAND, 1, 2, NEXT},
	POP:       {"pop", NO_OPERAND, 1, 0, NEXT},
	ADD:       {"add", NO_OPERAND, 2, 1, NEXT},
	SUB:       {"sub", NO_OPERAND, 2, 1, NEXT},
	MUL:       {"mul", NO_OPERAND, 2, 1, NEXT},
	DIV:       {"div", NO_OPERAND, 2, 1, NEXT},
	AND:       {"and", NO_OPERAND, 2, 1, NEXT},
	OR:        {"or", NO_OPERAND, 2, 1, NEXT},
	XOR:       {"xor", NO_OPERAND, 2, 1, NEXT},
	NEG:       {"neg", NO_OPERAND, 1, 1, NEXT},
	NOT:       {"not", NO_OPERAND, 1, 1, NEXT},
	CEQ:       {"ceq", NO_OPERAND, 2, 1, NEXT},
	CGT:       {"cgt", NO_OPERAND, 2, 1, NEXT},
	CLT:       {"clt", NO_OPERAND, 2, 1, NEXT},
	CONV_I4:   {"conv.i4", NO_OPERAND, 1, 1, NEXT},
	CONV_R4:   {"conv.r4", NO_OPERAND, 1, 1, NEXT},
	BR:        {"br", LABEL_OPERAND, 0, 0, JUMP},
	BRTRUE:    {"brtrue", LABEL_OPERAND, 1, 0, BRANCH},
	BRFALSE:   {"brfalse", LABEL_OPERAND, 1, 0, BRANCH},
	BEQ:       {"beq", LABEL_OPERAND, 2, 0, BRANCH},
	BNE_UN:    {"bne.un", LABEL_OPERAND, 2, 0, BRANCH},
	BLT:       {"blt", LABEL_OPERAND, 2, 0, BRANCH},
	BGE:       {"bge", LABEL_OPERAND, 2, 0, BRANCH},
	BGT:       {"bgt", LABEL_OPERAND, 2, 0, BRANCH},
	BLE:       {"ble", LABEL_OPERAND, 2, 0, BRANCH},
	RET:       {"ret", NO_OPERAND, VARIABLE, 0, EXIT},
	THROW:     {"throw", NO_OPERAND, 1, 0, EXIT},
}

var mnemonics map[string]Opcode

func init() {
	mnemonics = make(map[string]Opcode, numOpcodes)
	//
	for i, info := range opcodes {
		mnemonics[info.mnemonic] = Opcode(i)
	}
}

// ParseOpcode looks up the opcode for a given mnemonic.
func ParseOpcode(mnemonic string) (Opcode, bool) {
	op, ok := mnemonics[mnemonic]
	return op, ok
}

// Mnemonic returns the textual name of this opcode.
func (op Opcode) Mnemonic() string {
	if op < numOpcodes {
		return opcodes[op].mnemonic
	}
	//
	return fmt.Sprintf("opcode(%d)", uint8(op))
}

func (op Opcode) String() string {
	return op.Mnemonic()
}

// Operand returns the kind of operand expected by this opcode.
func (op Opcode) Operand() OperandKind {
	return opcodes[op].operand
}

// Flow returns the way control leaves an instruction with this opcode.
func (op Opcode) Flow() Flow {
	return opcodes[op].flow
}

// IsCall checks whether this opcode invokes a routine (excluding constructors).
func (op Opcode) IsCall() bool {
	return op == CALL || op == CALLVIRT
}

// IsBranch checks whether this opcode may transfer control to a label.
func (op Opcode) IsBranch() bool {
	flow := opcodes[op].flow
	return flow == JUMP || flow == BRANCH
}
