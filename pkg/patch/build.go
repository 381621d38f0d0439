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
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/consensys/go-transpile/pkg/il"
	"github.com/consensys/go-transpile/pkg/il/assembler"
	"github.com/consensys/go-transpile/pkg/rewrite"
	"github.com/consensys/go-transpile/pkg/symbol"
	"github.com/spf13/cast"
)

// Patch is a compiled patch, consisting of a target routine and the rewriter
// applied to its body.
type Patch struct {
	Name     string
	Target   *symbol.Routine
	Rewriter *rewrite.Rewriter
}

// Set is a compiled patch set, ready to be applied to a listing.
type Set struct {
	Options Options
	Patches []Patch
}

// Build compiles a patch set against a given symbol registry.  Any additional
// symbols declared by the configuration are first added to the registry.  Every
// reference is then resolved, failing fast on the first which cannot be.
func Build(cfg *Config, registry *symbol.Registry) (*Set, error) {
	set := &Set{Options: cfg.Options}
	//
	for _, decl := range cfg.Symbols {
		if err := assembler.ParseDeclaration(decl, registry); err != nil {
			return nil, errors.Wrapf(err, "symbol %q", decl)
		}
	}
	//
	for i, pc := range cfg.Patches {
		name := pc.Name
		if name == "" {
			name = fmt.Sprintf("patch#%d", i)
		}
		//
		target, err := ResolveRoutine(pc.Target, registry)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: target", name)
		}
		//
		rules := make([]rewrite.Rule, len(pc.Rules))
		//
		for j, rc := range pc.Rules {
			if rules[j], err = buildRule(rc, registry); err != nil {
				return nil, errors.Wrapf(err, "%s: rule %d", name, j)
			}
		}
		//
		set.Patches = append(set.Patches, Patch{name, target, rewrite.New(rules...).Named(name)})
	}
	//
	return set, nil
}

func buildRule(rc RuleConfig, registry *symbol.Registry) (rewrite.Rule, error) {
	var kinds []string
	//
	if rc.Redirect != nil {
		kinds = append(kinds, "redirect")
	}
	//
	if rc.ReplaceCalls != nil {
		kinds = append(kinds, "replace-calls")
	}
	//
	if rc.Relocate != nil {
		kinds = append(kinds, "relocate")
	}
	//
	if len(rc.Match) > 0 {
		kinds = append(kinds, "match")
	}
	//
	switch {
	case len(kinds) == 0:
		return nil, errors.New("rule has no kind (expected redirect, replace-calls, relocate or match)")
	case len(kinds) > 1:
		return nil, errors.Newf("rule has conflicting kinds (%s)", strings.Join(kinds, ", "))
	case kinds[0] != "match" && rc.hasEdits():
		return nil, errors.Newf("edits are only permitted on match rules, not %s", kinds[0])
	}
	//
	switch kinds[0] {
	case "redirect":
		from, to, err := resolveCall(*rc.Redirect, registry)
		if err != nil {
			return nil, err
		}
		//
		return named(rewrite.Redirect(from, to), rc.Name), nil
	case "replace-calls":
		from, to, err := resolveCall(*rc.ReplaceCalls, registry)
		if err != nil {
			return nil, err
		}
		//
		rule, err := rewrite.ReplaceCalls(from, to)
		if err != nil {
			return nil, err
		}
		//
		return named(rule, rc.Name), nil
	case "relocate":
		return buildRelocation(rc, registry)
	default:
		return buildEditRule(rc, registry)
	}
}

func (rc *RuleConfig) hasEdits() bool {
	return rc.Operand != nil || rc.Delete || len(rc.Before) > 0 || len(rc.Replace) > 0 || len(rc.After) > 0
}

func resolveCall(cc CallConfig, registry *symbol.Registry) (*symbol.Routine, *symbol.Routine, error) {
	from, err := ResolveRoutine(cc.From, registry)
	if err != nil {
		return nil, nil, err
	}
	//
	to, err := ResolveRoutine(cc.To, registry)
	if err != nil {
		return nil, nil, err
	}
	//
	return from, to, nil
}

func buildRelocation(rc RuleConfig, registry *symbol.Registry) (rewrite.Rule, error) {
	if len(rc.Relocate.Span) == 0 {
		return nil, errors.New("relocation span is empty")
	}
	//
	span, _, err := parseWindow(rc.Relocate.Span, registry)
	if err != nil {
		return nil, errors.Wrap(err, "relocation span")
	} else if rc.Relocate.Marker == "" {
		return nil, errors.New("relocation marker is missing")
	}
	//
	marker, err := ParsePattern(rc.Relocate.Marker, registry)
	if err != nil {
		return nil, errors.Wrap(err, "relocation marker")
	}
	//
	rule := rewrite.Relocate(span, marker)
	//
	if rc.Name != "" {
		rule = rule.Named(rc.Name)
	}
	//
	return rule, nil
}

func buildEditRule(rc RuleConfig, registry *symbol.Registry) (rewrite.Rule, error) {
	var edits []rewrite.Edit
	//
	pattern, slots, err := parseWindow(rc.Match, registry)
	if err != nil {
		return nil, err
	} else if !rc.hasEdits() {
		return nil, errors.New("match rule has no edits")
	} else if rc.Delete && len(rc.Replace) > 0 {
		return nil, errors.New("match rule cannot both delete and replace")
	}
	// Operand substitution happens first, so that it applies to the matched
	// window rather than any replacement.
	if rc.Operand != nil {
		edit, err := buildOperandEdit(*rc.Operand, slots, registry)
		if err != nil {
			return nil, err
		}
		//
		edits = append(edits, edit)
	}
	//
	if len(rc.Before) > 0 {
		code, err := ParseCode(rc.Before, registry)
		if err != nil {
			return nil, errors.Wrap(err, "before")
		}
		//
		edits = append(edits, rewrite.InsertBefore(code...))
	}
	//
	if rc.Delete {
		edits = append(edits, rewrite.Delete())
	} else if len(rc.Replace) > 0 {
		code, err := ParseCode(rc.Replace, registry)
		if err != nil {
			return nil, errors.Wrap(err, "replace")
		}
		//
		edits = append(edits, rewrite.Replace(code...))
	}
	//
	if len(rc.After) > 0 {
		code, err := ParseCode(rc.After, registry)
		if err != nil {
			return nil, errors.Wrap(err, "after")
		}
		//
		edits = append(edits, rewrite.InsertAfter(code...))
	}
	//
	return named(rewrite.When(pattern).Then(edits...), rc.Name), nil
}

// Construct the operand substitution for a given slot, interpreting the
// configured value according to the opcode that slot matches.
func buildOperandEdit(oc OperandConfig, slots []slot, registry *symbol.Registry) (rewrite.Edit, error) {
	if oc.Slot >= uint(len(slots)) {
		return nil, errors.Newf("operand slot %d out of range (window has %d slots)", oc.Slot, len(slots))
	} else if s := slots[oc.Slot]; !s.known {
		return nil, errors.Newf("operand slot %d (%s) does not determine an opcode", oc.Slot, s.text)
	}
	//
	op := slots[oc.Slot].opcode
	operand, err := convertOperand(op.Operand(), oc.Value, registry)
	//
	if err != nil {
		return nil, errors.Wrapf(err, "operand for %s", op)
	}
	//
	return rewrite.SetOperand(oc.Slot, operand), nil
}

func convertOperand(kind il.OperandKind, value any, registry *symbol.Registry) (il.Operand, error) {
	switch kind {
	case il.INDEX_OPERAND:
		v, err := cast.ToUint16E(value)
		return il.Index(v), err
	case il.INT32_OPERAND:
		v, err := cast.ToInt32E(value)
		return il.Int32(v), err
	case il.INT64_OPERAND:
		v, err := cast.ToInt64E(value)
		return il.Int64(v), err
	case il.FLOAT_OPERAND:
		v, err := cast.ToFloat64E(value)
		if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
			return nil, errors.Newf("float %v is not finite", value)
		}
		//
		return il.Float64(v), err
	case il.STRING_OPERAND:
		v, err := cast.ToStringE(value)
		return il.String(v), err
	case il.LABEL_OPERAND:
		v, err := cast.ToStringE(value)
		return il.Label(v), err
	case il.FIELD_OPERAND:
		ref, err := cast.ToStringE(value)
		if err != nil {
			return nil, err
		}
		//
		return registry.Field(ref)
	case il.ROUTINE_OPERAND:
		ref, err := cast.ToStringE(value)
		if err != nil {
			return nil, err
		}
		//
		return ResolveRoutine(ref, registry)
	default:
		return nil, errors.New("opcode takes no operand")
	}
}

func parseWindow(patterns []string, registry *symbol.Registry) (rewrite.Pattern, []slot, error) {
	if len(patterns) == 0 {
		return rewrite.Pattern{}, nil, errors.New("empty instruction window")
	}
	//
	var (
		slots      = make([]slot, len(patterns))
		predicates = make([]rewrite.Predicate, len(patterns))
	)
	//
	for i, text := range patterns {
		s, err := parseSlot(text, registry)
		if err != nil {
			return rewrite.Pattern{}, nil, err
		}
		//
		slots[i], predicates[i] = s, s.predicate
	}
	//
	pattern := rewrite.Match(predicates...).Describe(fmt.Sprintf("[%s]", strings.Join(patterns, "; ")))
	//
	return pattern, slots, nil
}

func named(rule *rewrite.EditRule, name string) rewrite.Rule {
	if name != "" {
		return rule.Named(name)
	}
	//
	return rule
}
