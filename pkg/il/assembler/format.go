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
package assembler

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/consensys/go-transpile/pkg/il"
	"github.com/consensys/go-transpile/pkg/symbol"
)

// Format writes a listing in canonical form: first all declarations (in
// declaration order), then all bodies.  Parsing the output yields an equivalent
// listing.
func Format(w io.Writer, listing *Listing) error {
	out := bufio.NewWriter(w)
	//
	for _, s := range listing.Symbols.Symbols() {
		if _, err := fmt.Fprintln(out, FormatDeclaration(s)); err != nil {
			return err
		}
	}
	//
	for _, body := range listing.Bodies {
		if _, err := fmt.Fprintf(out, "\n.body %s\n", body.Routine.Signature()); err != nil {
			return err
		}
		//
		for _, line := range FormatCode(body.Code) {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
		}
		//
		if _, err := fmt.Fprintln(out, ".end"); err != nil {
			return err
		}
	}
	//
	return out.Flush()
}

// FormatDeclaration returns the declaration of a given symbol, which is either
// a *symbol.Routine or a *symbol.Field.
func FormatDeclaration(s any) string {
	switch s := s.(type) {
	case *symbol.Field:
		return fmt.Sprintf(".field %s %s %s", kind(s.Static), s.Type, s.QualifiedName())
	case *symbol.Routine:
		return fmt.Sprintf(".method %s %s %s(%s)", kind(s.Static), s.Result, s.QualifiedName(),
			strings.Join(s.Params, ", "))
	default:
		panic(fmt.Sprintf("unknown symbol %T", s))
	}
}

// FormatCode returns one line per instruction, with labels flush left and
// everything else indented.
func FormatCode(code []il.Instruction) []string {
	lines := make([]string, len(code))
	//
	for i, insn := range code {
		if insn.Opcode == il.LABEL {
			lines[i] = insn.String()
		} else {
			lines[i] = "  " + insn.String()
		}
	}
	//
	return lines
}

func kind(static bool) string {
	if static {
		return "static"
	}
	//
	return "instance"
}
