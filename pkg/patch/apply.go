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
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/consensys/go-transpile/pkg/il"
	"github.com/consensys/go-transpile/pkg/il/assembler"
	"github.com/consensys/go-transpile/pkg/rewrite"
	"github.com/consensys/go-transpile/pkg/symbol"
	log "github.com/sirupsen/logrus"
)

// Outcome records what happened when applying a single patch.
type Outcome struct {
	Patch *Patch
	// Applied indicates whether the target had a body to rewrite.
	Applied bool
	// Before and After sizes of the target body.
	Before, After uint
	// Statistics from the rewriter.
	Result rewrite.Result
	// Verification failure (if verification was enabled).
	Invalid error
}

// Report summarises the application of a patch set to a listing.
type Report struct {
	Outcomes []Outcome
	strict   bool
}

// Apply each patch in the set, in order, to the bodies of the given listing.
// Bodies are rewritten in place.  A patch whose target has no body is skipped
// (with a warning), since the host being patched may have changed shape.
func (s *Set) Apply(listing *assembler.Listing) *Report {
	report := &Report{strict: s.Options.Strict}
	//
	for i := range s.Patches {
		patch := &s.Patches[i]
		outcome := Outcome{Patch: patch}
		//
		if body, ok := listing.Body(patch.Target); !ok {
			log.Warnf("%s: no body for %s, skipping", patch.Name, patch.Target.Signature())
		} else {
			outcome.Applied = true
			outcome.Before = uint(len(body.Code))
			outcome.Result = patch.Rewriter.Run(body.Code)
			body.Code = outcome.Result.Code
			outcome.After = uint(len(body.Code))
			//
			if s.Options.Verify {
				outcome.Invalid = il.Verify(body.Code, patch.Target.Returns())
			}
			//
			log.Debugf("%s: rewrote %s (%d => %d instructions)", patch.Name, patch.Target.Signature(),
				outcome.Before, outcome.After)
		}
		//
		report.Outcomes = append(report.Outcomes, outcome)
	}
	//
	return report
}

// Problems returns the problems arising from applying the patch set.
// Verification failures are always problems.  In strict mode, so are patches
// which were skipped, rules which never matched, and captures which were never
// replayed.
func (r *Report) Problems() []error {
	var errs []error
	//
	for _, o := range r.Outcomes {
		name := o.Patch.Name
		//
		if o.Invalid != nil {
			errs = append(errs, errors.Wrapf(o.Invalid, "%s: invalid body for %s", name, o.Patch.Target.Signature()))
		}
		//
		if !r.strict {
			continue
		} else if !o.Applied {
			errs = append(errs, errors.Newf("%s: no body for %s", name, o.Patch.Target.Signature()))
			continue
		}
		//
		rules := o.Patch.Rewriter.Rules()
		//
		for _, i := range o.Result.Unmatched() {
			errs = append(errs, errors.Newf("%s: rule %q never matched", name, rules[i].Name()))
		}
		//
		if o.Result.Dropped > 0 {
			errs = append(errs, errors.Newf("%s: %d capture(s) never replayed", name, o.Result.Dropped))
		}
	}
	//
	return errs
}

// Changed returns the routines whose bodies were altered by at least one rule.
func (r *Report) Changed() []*symbol.Routine {
	var routines []*symbol.Routine
	//
	for _, o := range r.Outcomes {
		if !o.Applied || slices.Contains(routines, o.Patch.Target) {
			continue
		}
		//
		for _, n := range o.Result.Hits {
			if n > 0 {
				routines = append(routines, o.Patch.Target)
				break
			}
		}
	}
	//
	return routines
}
