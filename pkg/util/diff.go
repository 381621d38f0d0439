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
package util

import "github.com/pmezard/go-difflib/difflib"

// EQUAL identifies a line common to both sides of a diff.
const EQUAL = '='

// REMOVED identifies a line only on the left-hand side of a diff.
const REMOVED = '-'

// ADDED identifies a line only on the right-hand side of a diff.
const ADDED = '+'

// DiffLine is a single line of a line-based diff.
type DiffLine struct {
	Kind byte
	Text string
}

func (p DiffLine) String() string {
	if p.Kind == EQUAL {
		return "  " + p.Text
	}
	//
	return string(p.Kind) + " " + p.Text
}

// Diff computes a line-based diff between two sequences of lines.  Where lines
// are replaced, the removals come before the additions.
func Diff(before []string, after []string) []DiffLine {
	var lines []DiffLine
	//
	for _, op := range difflib.NewMatcher(before, after).GetOpCodes() {
		if op.Tag == 'e' {
			lines = appendLines(lines, EQUAL, before[op.I1:op.I2])
			continue
		}
		// Replacements, deletions and insertions
		lines = appendLines(lines, REMOVED, before[op.I1:op.I2])
		lines = appendLines(lines, ADDED, after[op.J1:op.J2])
	}
	//
	return lines
}

func appendLines(lines []DiffLine, kind byte, text []string) []DiffLine {
	for _, t := range text {
		lines = append(lines, DiffLine{kind, t})
	}
	//
	return lines
}

// DiffStats returns the number of lines removed and added by a diff.
func DiffStats(lines []DiffLine) (removed uint, added uint) {
	for _, l := range lines {
		switch l.Kind {
		case REMOVED:
			removed++
		case ADDED:
			added++
		}
	}
	//
	return removed, added
}
