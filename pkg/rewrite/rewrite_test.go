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
	"math/rand"
	"slices"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/consensys/go-transpile/pkg/il"
	"github.com/consensys/go-transpile/pkg/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Symbols modelled on the reorderable widget.
var (
	contains       = &symbol.Routine{Owner: "Rect", Name: "Contains", Params: []string{"Vector2"}, Result: "bool"}
	containsInside = &symbol.Routine{Owner: "Fix", Name: "ContainsInside", Params: []string{"Rect&", "Vector2"},
		Result: "bool", Static: true}
	multiGroup = &symbol.Routine{Owner: "Widget", Name: "AreInMultiGroup", Params: []string{"int32", "int32"},
		Result: "bool", Static: true}
	drawLine = &symbol.Routine{Owner: "Widget", Name: "DrawLine", Params: []string{"int32", "bool"},
		Result: symbol.VOID, Static: true}
	getZero     = &symbol.Routine{Owner: "Vector2", Name: "get_zero", Result: "Vector2", Static: true}
	getPosition = &symbol.Routine{Owner: "Rect", Name: "get_position", Result: "Vector2"}
	hovered     = &symbol.Field{Owner: "Widget", Name: "hoveredGroup", Type: "int32", Static: true}
	nearLeft    = &symbol.Field{Owner: "Widget", Name: "lastInsertNearLeft", Type: "bool", Static: true}
)

// hoveredGroupSpan captures "hoveredGroup = j", but not "hoveredGroup = -1".
var hoveredGroupSpan = Match(Not(Opcode(il.LDC_I4_M1)), StoresField(hovered))

// A simplified version of the loop which determines the hovered group.
func hoveredGroupLoop() []il.Instruction {
	return []il.Instruction{
		/* 0 */ il.Op(il.LDC_I4_M1),
		/* 1 */ il.New(il.STSFLD, hovered),
		/* 2 */ il.Op(il.LDC_I4_0),
		/* 3 */ il.New(il.STLOC_S, il.Index(0)),
		/* 4 */ il.Mark("loop"),
		/* 5 */ il.New(il.LDLOCA, il.Index(1)),
		/* 6 */ il.Call(getZero),
		/* 7 */ il.Call(contains),
		/* 8 */ il.New(il.BRFALSE, il.Label("next")),
		/* 9 */ il.New(il.LDLOC_S, il.Index(0)),
		/* 10 */ il.New(il.STSFLD, hovered),
		/* 11 */ il.New(il.LDLOC_S, il.Index(0)),
		/* 12 */ il.Op(il.LDC_I4_1),
		/* 13 */ il.Call(multiGroup),
		/* 14 */ il.New(il.BRFALSE, il.Label("next")),
		/* 15 */ il.Op(il.LDC_I4_1),
		/* 16 */ il.New(il.STSFLD, nearLeft),
		/* 17 */ il.Mark("next"),
		/* 18 */ il.Op(il.RET),
	}
}

func TestRewriteNoMatchIsIdentity(t *testing.T) {
	var (
		code  = hoveredGroupLoop()
		other = &symbol.Routine{Owner: "Other", Name: "Routine", Static: true, Result: symbol.VOID}
		field = &symbol.Field{Owner: "Other", Name: "field", Type: "int32", Static: true}
	)
	//
	result := New(
		Redirect(other, contains),
		Relocate(Match(Any(), StoresField(field)), StoresField(nearLeft)),
		When(Match(Calls(drawLine))).Then(Delete()),
	).Run(code)
	//
	assert.Equal(t, hoveredGroupLoop(), result.Code)
	assert.Equal(t, []uint{0, 0, 0}, result.Hits)
	assert.Equal(t, []uint{0, 1, 2}, result.Unmatched())
	assert.Zero(t, result.Dropped)
}

func TestRewriteEmpty(t *testing.T) {
	assert.Empty(t, Rewrite(nil, Redirect(contains, containsInside)))
}

func TestRewriteEmptyPatternNeverMatches(t *testing.T) {
	code := hoveredGroupLoop()
	result := New(When(Pattern{}).Then(InsertBefore(il.Op(il.NOP)))).Run(code)
	//
	assert.Equal(t, code, result.Code)
	assert.Equal(t, []uint{0}, result.Hits)
	assert.False(t, Pattern{}.MatchesAt(code, 0))
}

func TestPredicateCombinators(t *testing.T) {
	var (
		zero  = Opcode(il.LDC_I4_0)
		one   = Opcode(il.LDC_I4_1)
		label = Opcode(il.LABEL)
	)
	//
	tests := []struct {
		name      string
		predicate Predicate
		insn      il.Instruction
		expected  bool
	}{
		{"or first", Or(zero, one), il.Op(il.LDC_I4_0), true},
		{"or second", Or(zero, one), il.Op(il.LDC_I4_1), true},
		{"or neither", Or(zero, one), il.Op(il.RET), false},
		{"or empty", Or(), il.Op(il.RET), false},
		{"and both", And(Any(), zero), il.Op(il.LDC_I4_0), true},
		{"and one", And(zero, one), il.Op(il.LDC_I4_0), false},
		{"and empty", And(), il.Op(il.RET), true},
		{"not label", And(Not(label), Not(zero)), il.Mark("next"), false},
		{"not label other", And(Not(label), Not(zero)), il.Op(il.RET), true},
	}
	//
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.predicate(test.insn))
		})
	}
}

func TestRewriteRedirectExample(t *testing.T) {
	var (
		callA = &symbol.Routine{Owner: "X", Name: "A", Result: "int32", Static: true}
		callB = &symbol.Routine{Owner: "X", Name: "B", Result: "int32", Static: true}
		field = &symbol.Field{Owner: "X", Name: "F", Type: "int32"}
		input = []il.Instruction{il.LoadArg(0), il.Call(callA), il.New(il.STFLD, field)}
	)
	//
	assert.Equal(t,
		[]il.Instruction{il.LoadArg(0), il.Call(callB), il.New(il.STFLD, field)},
		Rewrite(input, Redirect(callA, callB)))
	// Input untouched
	assert.Equal(t, il.Call(callA), input[1])
}

func TestRewriteRedirectKeepsOpcode(t *testing.T) {
	out := Rewrite([]il.Instruction{il.New(il.CALLVIRT, contains)}, Redirect(contains, containsInside))
	assert.Equal(t, []il.Instruction{il.New(il.CALLVIRT, containsInside)}, out)
}

func TestRewriteRelocate(t *testing.T) {
	code := hoveredGroupLoop()
	original := slices.Clone(code)
	//
	result := New(
		Redirect(contains, containsInside),
		Relocate(hoveredGroupSpan, StoresField(nearLeft)),
	).Run(code)
	//
	expected := slices.Concat(code[0:7], []il.Instruction{il.Call(containsInside)}, code[8:9], code[11:17],
		code[9:11], code[17:])
	//
	assert.Equal(t, expected, result.Code)
	assert.Equal(t, len(code), len(result.Code))
	assert.Equal(t, []uint{1, 1}, result.Hits)
	assert.Equal(t, uint(1), result.Replayed)
	assert.Zero(t, result.Dropped)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, original, code)
	// The rewritten loop remains well formed
	assert.NoError(t, il.Verify(result.Code, false))
}

func TestRewriteRelocateWithoutMarkerDrops(t *testing.T) {
	code := hoveredGroupLoop()
	// Remove "lastInsertNearLeft = true"
	code = slices.Delete(code, 15, 17)
	//
	result := New(Relocate(hoveredGroupSpan, StoresField(nearLeft))).Run(code)
	//
	assert.Equal(t, len(code)-2, len(result.Code))
	assert.Equal(t, slices.Concat(code[:9], code[11:]), result.Code)
	assert.Equal(t, uint(1), result.Dropped)
	assert.Zero(t, result.Replayed)
}

func TestRewriteMarkerWithoutCaptureIsSkipped(t *testing.T) {
	code := []il.Instruction{
		il.Op(il.LDC_I4_1),
		il.New(il.STSFLD, nearLeft),
		il.Op(il.LDC_I4_M1),
		il.New(il.STSFLD, hovered),
		il.Op(il.RET),
	}
	//
	result := New(Relocate(hoveredGroupSpan, StoresField(nearLeft))).Run(code)
	//
	assert.Equal(t, code, result.Code)
	assert.Equal(t, uint(1), result.Skipped)
	assert.Zero(t, result.Dropped)
}

func TestRewriteRecaptureDropsEarlier(t *testing.T) {
	code := []il.Instruction{
		il.New(il.LDLOC_S, il.Index(0)),
		il.New(il.STSFLD, hovered),
		il.New(il.LDLOC_S, il.Index(1)),
		il.New(il.STSFLD, hovered),
		il.Op(il.LDC_I4_0),
		il.New(il.STSFLD, nearLeft),
		il.Op(il.RET),
	}
	//
	result := New(Relocate(hoveredGroupSpan, StoresField(nearLeft))).Run(code)
	//
	assert.Equal(t, slices.Concat(code[4:6], code[2:4], code[6:]), result.Code)
	assert.Equal(t, uint(1), result.Dropped)
	assert.Equal(t, uint(1), result.Replayed)
}

func TestRewriteReplayHappensOnce(t *testing.T) {
	code := []il.Instruction{
		il.New(il.LDLOC_S, il.Index(0)),
		il.New(il.STSFLD, hovered),
		il.Op(il.LDC_I4_0),
		il.New(il.STSFLD, nearLeft),
		il.Op(il.LDC_I4_1),
		il.New(il.STSFLD, nearLeft),
		il.Op(il.RET),
	}
	//
	result := New(Relocate(hoveredGroupSpan, StoresField(nearLeft))).Run(code)
	//
	assert.Equal(t, slices.Concat(code[2:4], code[0:2], code[4:]), result.Code)
	assert.Equal(t, uint(1), result.Skipped)
}

func TestRewriteVerbatimReplacement(t *testing.T) {
	var (
		code = []il.Instruction{
			il.Op(il.LDC_I4_0),
			il.Op(il.LDC_I4_1),
			il.Call(drawLine),
			il.Op(il.LDC_I4_1),
			il.Op(il.LDC_I4_0),
			il.Call(drawLine),
			il.Op(il.RET),
		}
		splice = []il.Instruction{il.Op(il.POP), il.LoadArg(2)}
		rule   = When(Match(Calls(drawLine))).Then(InsertBefore(splice...))
	)
	//
	result := New(rule).Run(code)
	//
	assert.Equal(t, len(code)+2*2, len(result.Code))
	assert.Equal(t, []il.Instruction{
		il.Op(il.LDC_I4_0),
		il.Op(il.LDC_I4_1),
		il.Op(il.POP),
		il.LoadArg(2),
		il.Call(drawLine),
		il.Op(il.LDC_I4_1),
		il.Op(il.LDC_I4_0),
		il.Op(il.POP),
		il.LoadArg(2),
		il.Call(drawLine),
		il.Op(il.RET),
	}, result.Code)
	assert.Equal(t, []uint{2}, result.Hits)
	// Mutating the splice afterwards has no effect on the rule
	splice[0] = il.Op(il.NOP)
	assert.Equal(t, result.Code, Rewrite(code, rule))
}

func TestRewriteReplaceWithAccessor(t *testing.T) {
	code := []il.Instruction{il.Call(getZero), il.Op(il.POP), il.Op(il.RET)}
	rule := When(Match(Calls(getZero))).Then(Replace(il.New(il.LDARGA_S, il.Index(2)), il.Call(getPosition)))
	//
	assert.Equal(t, []il.Instruction{
		il.New(il.LDARGA_S, il.Index(2)),
		il.Call(getPosition),
		il.Op(il.POP),
		il.Op(il.RET),
	}, Rewrite(code, rule))
}

func TestRewriteEdits(t *testing.T) {
	var (
		code    = []il.Instruction{il.Op(il.LDC_I4_0), il.Op(il.POP), il.Op(il.RET)}
		pattern = Match(Opcode(il.LDC_I4_0), Opcode(il.POP))
	)
	//
	assert.Equal(t, []il.Instruction{il.Op(il.RET)}, Rewrite(code, When(pattern).Then(Delete())))
	assert.Equal(t,
		[]il.Instruction{il.Op(il.LDC_I4_0), il.Op(il.POP), il.Op(il.NOP), il.Op(il.DUP), il.Op(il.RET)},
		Rewrite(code, When(pattern).Then(InsertAfter(il.Op(il.DUP)), InsertAfter(il.Op(il.NOP)))))
	assert.Equal(t,
		[]il.Instruction{il.New(il.LDC_I4, il.Int32(7)), il.Op(il.POP), il.Op(il.RET)},
		Rewrite(code, When(Match(Opcode(il.LDC_I4_0))).Then(Replace(il.New(il.LDC_I4, il.Int32(7))))))
	// Invalid operand or slot leaves the instruction unchanged
	assert.Equal(t, code, Rewrite(code, When(pattern).Then(SetOperand(0, il.Int32(1)), SetOperand(5, nil))))
}

func TestRewritePriority(t *testing.T) {
	code := []il.Instruction{il.Call(contains), il.New(il.STSFLD, hovered), il.Op(il.RET)}
	// Redirect comes first, so the call is consumed before the span can be
	// captured.
	result := New(
		Redirect(contains, containsInside),
		Relocate(hoveredGroupSpan, StoresField(nearLeft)),
	).Run(code)
	//
	assert.Equal(t, []il.Instruction{il.Call(containsInside), il.New(il.STSFLD, hovered), il.Op(il.RET)},
		result.Code)
	assert.Equal(t, []uint{1, 0}, result.Hits)
	// Otherwise, the span is captured and never replayed.
	result = New(
		Relocate(hoveredGroupSpan, StoresField(nearLeft)),
		Redirect(contains, containsInside),
	).Run(code)
	//
	assert.Equal(t, []il.Instruction{il.Op(il.RET)}, result.Code)
	assert.Equal(t, uint(1), result.Dropped)
}

func TestRewriteTriggersSeeInsertedInstructions(t *testing.T) {
	var (
		code = []il.Instruction{
			il.New(il.LDLOC_S, il.Index(0)),
			il.New(il.STSFLD, hovered),
			il.Op(il.LDC_I4_1),
			il.Op(il.RET),
		}
		store = When(Match(Opcode(il.LDC_I4_1))).Then(InsertAfter(il.New(il.STSFLD, nearLeft)), Delete())
	)
	//
	result := New(Relocate(hoveredGroupSpan, StoresField(nearLeft)), store).Run(code)
	//
	assert.Equal(t, []il.Instruction{il.New(il.STSFLD, nearLeft), code[0], code[1], il.Op(il.RET)}, result.Code)
}

func TestReplaceCalls(t *testing.T) {
	rule, err := ReplaceCalls(contains, containsInside)
	require.NoError(t, err)
	//
	code := []il.Instruction{il.New(il.CALLVIRT, contains), il.Call(contains), il.New(il.NEWOBJ, contains)}
	assert.Equal(t,
		[]il.Instruction{il.Call(containsInside), il.Call(containsInside), il.New(il.NEWOBJ, contains)},
		Rewrite(code, rule))
	//
	_, err = ReplaceCalls(contains, multiGroup)
	assert.True(t, errors.Is(err, symbol.ErrIncompatible))
}

func TestMapCallsPreservesCounts(t *testing.T) {
	var (
		rng     = rand.New(rand.NewSource(1))
		palette = []il.Instruction{
			il.Call(contains),
			il.New(il.CALLVIRT, contains),
			il.Call(getZero),
			il.New(il.STSFLD, hovered),
			il.Op(il.LDC_I4_M1),
			il.Op(il.POP),
		}
		rule, err = ReplaceCalls(contains, containsInside)
	)
	//
	require.NoError(t, err)
	//
	for iter := 0; iter < 100; iter++ {
		code := make([]il.Instruction, rng.Intn(32))
		for i := range code {
			code[i] = palette[rng.Intn(len(palette))]
		}
		//
		mapped := MapCalls(code, contains, containsInside)
		//
		assert.Equal(t, countCalls(code, contains), countCalls(mapped, containsInside))
		assert.Zero(t, countCalls(mapped, contains))
		assert.Equal(t, mapped, Rewrite(code, rule))
		require.Len(t, mapped, len(code))
		// Nothing else altered
		for i := range code {
			if !code[i].Calls(contains) {
				assert.Equal(t, code[i], mapped[i])
			}
		}
	}
}

func countCalls(code []il.Instruction, routine *symbol.Routine) int {
	n := 0
	//
	for _, insn := range code {
		if insn.Calls(routine) {
			n++
		}
	}
	//
	return n
}
