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
	"strconv"
	"strings"

	"github.com/consensys/go-transpile/pkg/symbol"
)

// Operand is the (optional) immediate argument of an instruction.  Every
// operand type is comparable, hence instructions can be compared with "==".
// Field and routine operands are represented by their canonical registry
// pointers (*symbol.Field and *symbol.Routine).
type Operand interface {
	fmt.Stringer
}

// Index is an argument or local variable index.
type Index uint16

func (i Index) String() string {
	return strconv.FormatUint(uint64(i), 10)
}

// Int32 is a 32-bit integer immediate.
type Int32 int32

func (i Int32) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// Int64 is a 64-bit integer immediate.
type Int64 int64

func (i Int64) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// Float64 is a floating point immediate.
type Float64 float64

func (f Float64) String() string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 64)
	// Ensure floats remain recognisable as such
	if strings.ContainsAny(s, ".eEIN") {
		return s
	}
	//
	return s + ".0"
}

// String is a string literal.
type String string

func (s String) String() string {
	return strconv.Quote(string(s))
}

// Label names a branch target.
type Label string

func (l Label) String() string {
	return string(l)
}

// OperandKindOf determines the kind of a given operand.  A nil operand has
// kind NO_OPERAND.
func OperandKindOf(operand Operand) OperandKind {
	switch operand.(type) {
	case nil:
		return NO_OPERAND
	case Index:
		return INDEX_OPERAND
	case Int32:
		return INT32_OPERAND
	case Int64:
		return INT64_OPERAND
	case Float64:
		return FLOAT_OPERAND
	case String:
		return STRING_OPERAND
	case *symbol.Field:
		return FIELD_OPERAND
	case *symbol.Routine:
		return ROUTINE_OPERAND
	case Label:
		return LABEL_OPERAND
	default:
		panic(fmt.Sprintf("unknown operand type %T", operand))
	}
}
