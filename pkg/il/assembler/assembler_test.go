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
	"bytes"
	"testing"

	"github.com/consensys/go-transpile/pkg/il"
	"github.com/consensys/go-transpile/pkg/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const newGroupListing = `;; Symbols
.field static int32 Widget::hoveredGroup
.method static Vector2 Vector2::get_zero()
.method instance bool Rect::Contains(Vector2)
.method static int32 Widget::NewGroup(Action, Rect)

.body Widget::NewGroup(Action, Rect)
  ldarga.s 1          ;; the rect
  call Vector2::get_zero()
  call Rect::Contains(Vector2)
  brfalse skip
  ldc.i4.m1
  stsfld Widget::hoveredGroup
skip:
  ldstr "group \"A\""
  pop
  ldc.r4 -0.5
  pop
  ldc.i4 0x10
  ret
.end
`

func TestLexer(t *testing.T) {
	tokens, errs := Lex(NewSourceFile("test", []byte("ldc.i4 -1 ;; comment\ncall Rect::Contains(Vector2)\nL0:")))
	require.Empty(t, errs)
	//
	kinds := make([]uint, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	//
	assert.Equal(t, []uint{
		IDENTIFIER, NUMBER, NEWLINE,
		IDENTIFIER, IDENTIFIER, LBRACE, IDENTIFIER, RBRACE, NEWLINE,
		IDENTIFIER, COLON, END_OF,
	}, kinds)
}

func TestLexerUnknownText(t *testing.T) {
	_, errs := Lex(NewSourceFile("test", []byte("nop\n  # oops\n")))
	require.Len(t, errs, 1)
	//
	line, num, col := errs[0].Line()
	assert.Equal(t, "  # oops", line)
	assert.Equal(t, 2, num)
	assert.Equal(t, 2, col)
}

func TestParseListing(t *testing.T) {
	listing, errs := Parse(NewSourceFile("newgroup.il", []byte(newGroupListing)))
	require.Empty(t, errs)
	require.Len(t, listing.Bodies, 1)
	//
	var (
		reg         = listing.Symbols
		newGroup, _ = reg.Routine("Widget::NewGroup")
		getZero, _  = reg.Routine("Vector2::get_zero")
		contains, _ = reg.Routine("Rect::Contains")
		hovered, _  = reg.Field("Widget::hoveredGroup")
	)
	//
	body, ok := listing.Body(newGroup)
	require.True(t, ok)
	assert.Equal(t, []il.Instruction{
		il.New(il.LDARGA_S, il.Index(1)),
		il.Call(getZero),
		il.Call(contains),
		il.New(il.BRFALSE, il.Label("skip")),
		il.Op(il.LDC_I4_M1),
		il.New(il.STSFLD, hovered),
		il.Mark("skip"),
		il.New(il.LDSTR, il.String(`group "A"`)),
		il.Op(il.POP),
		il.New(il.LDC_R4, il.Float64(-0.5)),
		il.Op(il.POP),
		il.New(il.LDC_I4, il.Int32(16)),
		il.Op(il.RET),
	}, body.Code)
	assert.False(t, contains.Static)
	assert.Equal(t, "int32", newGroup.Result)
}

func TestFormatRoundTrip(t *testing.T) {
	listing, errs := Parse(NewSourceFile("newgroup.il", []byte(newGroupListing)))
	require.Empty(t, errs)
	//
	var buf bytes.Buffer
	require.NoError(t, Format(&buf, listing))
	//
	reparsed, errs := Parse(NewSourceFile("formatted.il", buf.Bytes()))
	require.Empty(t, errs, buf.String())
	require.Len(t, reparsed.Bodies, 1)
	// Symbols differ by identity, so compare the canonical text instead.
	assert.Equal(t, FormatCode(listing.Bodies[0].Code), FormatCode(reparsed.Bodies[0].Code))
	assert.Equal(t, listing.Symbols.Size(), reparsed.Symbols.Size())
	//
	var again bytes.Buffer
	require.NoError(t, Format(&again, reparsed))
	assert.Equal(t, buf.String(), again.String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
	}{
		{"unknown instruction", ".method static void A::f()\n.body A::f\n  frobnicate\n.end\n", 3},
		{"unresolved routine", ".method static void A::f()\n.body A::f\n  call A::g\n.end\n", 3},
		{"unresolved field", ".method static void A::f()\n.body A::f\n  stsfld A::x\n.end\n", 3},
		{"unresolved body", ".body A::f\n.end\n", 1},
		{"missing end", ".method static void A::f()\n.body A::f\n  ret\n", 4},
		{"missing operand", ".method static void A::f()\n.body A::f\n  ldc.i4\n.end\n", 3},
		{"operand out of range", ".method static void A::f()\n.body A::f\n  ldarg 70000\n.end\n", 3},
		{"trailing text", ".method static void A::f()\n.body A::f\n  ret ret\n.end\n", 3},
		{"duplicate declaration", ".field static int32 A::x\n.field static int32 A::x\n", 2},
		{"duplicate body", ".method static void A::f()\n.body A::f\nret\n.end\n.body A::f\nret\n.end\n", 5},
		{"method without params", ".method static void A::f\n", 1},
		{"unknown directive", ".class A\n", 1},
	}
	//
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := Parse(NewSourceFile("test.il", []byte(tt.text)))
			require.Len(t, errs, 1)
			//
			_, line, _ := errs[0].Line()
			assert.Equal(t, tt.line, line, errs[0].Error())
		})
	}
}

func TestParseInstruction(t *testing.T) {
	reg := symbol.NewRegistry()
	require.NoError(t, ParseDeclaration(".method instance bool Rect::Contains(Vector2)", reg))
	require.NoError(t, ParseDeclaration(".field static bool Widget::lastInsertNearLeft", reg))
	//
	contains, err := reg.Routine("Rect::Contains")
	require.NoError(t, err)
	//
	insn, err := ParseInstruction("callvirt Rect::Contains", reg)
	require.NoError(t, err)
	assert.Equal(t, il.New(il.CALLVIRT, contains), insn)
	//
	insn, err = ParseInstruction("ldarg.s 2", reg)
	require.NoError(t, err)
	assert.Equal(t, il.LoadArg(2), insn)
	//
	_, err = ParseInstruction("stsfld Widget::hoveredGroup", reg)
	assert.Error(t, err)
	_, err = ParseInstruction("pop pop", reg)
	assert.Error(t, err)
	assert.Error(t, ParseDeclaration(".body Rect::Contains", reg))
}
