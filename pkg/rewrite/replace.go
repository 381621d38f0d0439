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

	"github.com/consensys/go-transpile/pkg/il"
	"github.com/consensys/go-transpile/pkg/symbol"
)

// ReplaceCalls constructs a rule which substitutes every call to from, anywhere
// in the stream, with a call to to.  The replacement must be stack compatible
// with the original (see symbol.Compatible), otherwise an error is returned.
// Calls to a static replacement always use "call", even where the original
// was "callvirt".
func ReplaceCalls(from *symbol.Routine, to *symbol.Routine) (*EditRule, error) {
	if err := symbol.Compatible(from, to); err != nil {
		return nil, err
	}
	//
	pattern := Match(Calls(from)).Describe(describe("call " + from.String()))
	substitute := func(s *Splice) {
		s.Body[0] = substituteCall(s.Body[0], to)
	}
	//
	return When(pattern).Named(fmt.Sprintf("replace %s => %s", from, to)).Then(substitute), nil
}

// MapCalls substitutes every call to from with a call to to, returning a new
// stream.  This is a pure one-to-one instruction map: no other instruction is
// altered and the length of the stream is unchanged.  No compatibility check
// is performed (see ReplaceCalls).
func MapCalls(code []il.Instruction, from *symbol.Routine, to *symbol.Routine) []il.Instruction {
	out := make([]il.Instruction, len(code))
	//
	for i, insn := range code {
		if insn.Calls(from) {
			out[i] = substituteCall(insn, to)
		} else {
			out[i] = insn
		}
	}
	//
	return out
}

func substituteCall(insn il.Instruction, to *symbol.Routine) il.Instruction {
	if to.Static {
		return il.Call(to)
	}
	//
	return il.Instruction{Opcode: insn.Opcode, Operand: to}
}
