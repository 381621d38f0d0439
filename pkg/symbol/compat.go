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
package symbol

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrIncompatible signals that one routine cannot stand in for another at a
// call site without changing the stack effect of that call.
var ErrIncompatible = errors.New("incompatible signature")

// Compatible checks whether calls to from can be redirected to calls to to
// without disturbing the surrounding code.  That is, both routines must consume
// the same values from the stack and leave the same result.  A static
// replacement for an instance routine must accept the receiver as its first
// parameter (either by value or by reference).
func Compatible(from *Routine, to *Routine) error {
	if from.Result != to.Result {
		return errors.Wrapf(ErrIncompatible, "%s returns %s, but %s returns %s",
			from, from.Result, to, to.Result)
	}
	//
	var (
		expected = from.StackParams()
		actual   = to.StackParams()
	)
	//
	if len(expected) != len(actual) {
		return errors.Wrapf(ErrIncompatible, "%s consumes %d argument(s), but %s consumes %d",
			from, len(expected), to, len(actual))
	}
	// Receiver may be passed by value or by reference.
	if len(expected) > 0 && !from.Static {
		expected = slices.Clone(expected)
		actual = slices.Clone(actual)
		expected[0] = strings.TrimSuffix(expected[0], "&")
		actual[0] = strings.TrimSuffix(actual[0], "&")
	}
	//
	for i := range expected {
		if expected[i] != actual[i] {
			return errors.Wrapf(ErrIncompatible, "argument %d of %s is %s, but %s expects %s",
				i, from, expected[i], to, actual[i])
		}
	}
	//
	return nil
}
