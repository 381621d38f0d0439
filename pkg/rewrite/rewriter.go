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
	"github.com/consensys/go-transpile/pkg/il"
	log "github.com/sirupsen/logrus"
)

// Rewriter applies an ordered set of rules to instruction streams.  At each
// position of a stream, rules are tried in the order given and the first to
// match is applied.  Positions where no rule matches are copied through
// unchanged.
//
// Rewriting never fails: a rule which never matches is silently ignored, since
// the shape of a target routine may vary between host versions.  Furthermore,
// the rewriter makes no attempt to check that its output is well formed (e.g.
// has balanced stack effects and valid branch targets).  This is the
// responsibility of whoever writes the rules; il.Verify can help.
type Rewriter struct {
	name     string
	rules    []Rule
	triggers []Trigger
}

// New constructs a rewriter for a given set of rules, in priority order.
func New(rules ...Rule) *Rewriter {
	var triggers []Trigger
	//
	for _, r := range rules {
		if t, ok := r.(Trigger); ok {
			triggers = append(triggers, t)
		}
	}
	//
	return &Rewriter{"rewrite", rules, triggers}
}

// Named returns a copy of this rewriter whose diagnostics are labelled with the
// given name (e.g. that of the routine being rewritten).
func (r *Rewriter) Named(name string) *Rewriter {
	return &Rewriter{name, r.rules, r.triggers}
}

// Rules returns the rules of this rewriter in priority order.
func (r *Rewriter) Rules() []Rule {
	return r.rules
}

// Result captures the outcome of rewriting a single stream.
type Result struct {
	// Code is the rewritten stream.
	Code []il.Instruction
	// Hits records how many times each rule matched, indexed as the rules
	// were given.
	Hits []uint
	// Replayed counts captures which were replayed.
	Replayed uint
	// Dropped counts captures which were never replayed.
	Dropped uint
	// Skipped counts markers seen with nothing captured.
	Skipped uint
}

// Unmatched returns the indices of all rules which never matched.
func (r *Result) Unmatched() []uint {
	var indices []uint
	//
	for i, n := range r.Hits {
		if n == 0 {
			indices = append(indices, uint(i))
		}
	}
	//
	return indices
}

// Rewrite applies a set of rules, in priority order, to an instruction stream
// in a single forward pass.  The input is not modified.
func Rewrite(code []il.Instruction, rules ...Rule) []il.Instruction {
	return New(rules...).Run(code).Code
}

// Run rewrites a given instruction stream, returning the new stream along with
// statistics about the rules applied.  The input is not modified and the
// output never aliases it.
func (r *Rewriter) Run(code []il.Instruction) Result {
	var (
		pass = newPass(r, code)
		hits = make([]uint, len(r.rules))
	)
	//
	for pc := uint(0); pc < uint(len(code)); {
		consumed := uint(0)
		//
		for i, rule := range r.rules {
			if consumed = rule.Apply(pass, pc); consumed > 0 {
				hits[i]++
				break
			}
		}
		//
		if consumed == 0 {
			pass.Emit(code[pc])
			consumed = 1
		}
		//
		pc += consumed
	}
	// Anything still captured is lost
	for rule := range pass.captures {
		log.Warnf("%s: %s never replayed, dropping capture", r.name, rule.Name())
		//
		pass.dropped++
	}
	//
	return Result{pass.out, hits, pass.replayed, pass.dropped, pass.skipped}
}

// Pass holds the state of a single run of a rewriter over a single stream.
type Pass struct {
	name     string
	triggers []Trigger
	// Original stream (read only)
	code []il.Instruction
	// Output stream
	out []il.Instruction
	// Pending captures for relocation rules
	captures map[*Relocation][]il.Instruction
	// Statistics
	replayed, dropped, skipped uint
}

func newPass(r *Rewriter, code []il.Instruction) *Pass {
	return &Pass{
		name:     r.name,
		triggers: r.triggers,
		code:     code,
		out:      make([]il.Instruction, 0, len(code)),
		captures: make(map[*Relocation][]il.Instruction),
	}
}

// Emit appends instructions to the output stream, notifying every trigger after
// each one.
func (p *Pass) Emit(insns ...il.Instruction) {
	for _, insn := range insns {
		p.out = append(p.out, insn)
		//
		for _, t := range p.triggers {
			t.Emitted(p, insn)
		}
	}
}
