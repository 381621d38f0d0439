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
package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/consensys/go-transpile/pkg/il"
	"github.com/consensys/go-transpile/pkg/il/assembler"
	"github.com/consensys/go-transpile/pkg/patch"
	"github.com/consensys/go-transpile/pkg/symbol"
	"github.com/consensys/go-transpile/pkg/util"
	"github.com/consensys/go-transpile/pkg/util/termio"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug [flags] listing_file...",
	Short: "print statistics about applying a patch set.",
	Long: `Apply a patch set to one or more listings and print, for each patch,
	how often each of its rules matched along with any captures which were
	replayed, dropped or skipped.  Optionally, print a diff of each rewritten
	body.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		listing := readListings(args...)
		set := readPatchSet(cmd, listing)
		// Snapshot bodies before rewriting
		before := make(map[*symbol.Routine][]il.Instruction)
		for _, body := range listing.Bodies {
			before[body.Routine] = body.Code
		}
		//
		report := set.Apply(listing)
		//
		for _, o := range report.Outcomes {
			printOutcome(o)
		}
		//
		for _, err := range report.Problems() {
			fmt.Printf("problem: %s\n", err)
		}
		//
		if GetFlag(cmd, "diff") {
			printDiffs(listing, before, report.Changed())
		}
	},
}

func printOutcome(o patch.Outcome) {
	fmt.Printf("%s (%s):", o.Patch.Name, o.Patch.Target.Signature())
	//
	if !o.Applied {
		fmt.Println(" skipped (no body)")
		return
	}
	//
	fmt.Printf(" %d => %d instructions\n", o.Before, o.After)
	//
	for i, rule := range o.Patch.Rewriter.Rules() {
		fmt.Printf("  %-40s %d hit(s)\n", rule.Name(), o.Result.Hits[i])
	}
	//
	if o.Result.Replayed+o.Result.Dropped+o.Result.Skipped > 0 {
		fmt.Printf("  captures: %d replayed, %d dropped, %d skipped\n", o.Result.Replayed, o.Result.Dropped,
			o.Result.Skipped)
	}
	//
	if o.Invalid != nil {
		fmt.Printf("  invalid: %s\n", o.Invalid)
	}
}

func printDiffs(listing *assembler.Listing, before map[*symbol.Routine][]il.Instruction,
	changed []*symbol.Routine) {
	var (
		colour  = termio.IsTerminal(os.Stdout)
		width   = termio.Width(os.Stdout)
		removed = termio.NewAnsiEscape().FgColour(termio.TERM_RED)
		added   = termio.NewAnsiEscape().FgColour(termio.TERM_GREEN)
		header  = termio.NewAnsiEscape().Bold().FgColour(termio.TERM_CYAN)
	)
	//
	for _, body := range listing.Bodies {
		if !slices.Contains(changed, body.Routine) {
			continue
		}
		//
		lines := util.Diff(assembler.FormatCode(before[body.Routine]), assembler.FormatCode(body.Code))
		nremoved, nadded := util.DiffStats(lines)
		title := fmt.Sprintf("@@ %s (-%d +%d) @@", body.Routine.Signature(), nremoved, nadded)
		//
		if colour {
			title = header.Wrap(title)
		}
		//
		fmt.Println(title)
		//
		for _, line := range lines {
			text := truncate(line.String(), width)
			//
			switch {
			case !colour:
			case line.Kind == util.REMOVED:
				text = removed.Wrap(text)
			case line.Kind == util.ADDED:
				text = added.Wrap(text)
			}
			//
			fmt.Println(text)
		}
	}
}

// Truncate a line to fit within a given width.
func truncate(text string, width uint) string {
	if runes := []rune(text); uint(len(runes)) > width && width > 1 {
		return string(runes[:width-1]) + "…"
	}
	//
	return text
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.Flags().StringP("config", "c", "", "patch set to apply (YAML, JSON or TOML)")
	debugCmd.Flags().Bool("strict", false, "report rules which never match or captures never replayed")
	debugCmd.Flags().Bool("verify", false, "verify every rewritten body")
	debugCmd.Flags().Bool("diff", false, "print a diff of each rewritten body")
}
