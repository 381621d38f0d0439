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

	"github.com/consensys/go-transpile/pkg/util"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// patchCmd represents the patch command
var patchCmd = &cobra.Command{
	Use:   "patch [flags] listing_file...",
	Short: "apply a patch set to one or more listings.",
	Long: `Apply a patch set to the bodies of one or more listings, writing
	the rewritten listing to stdout (or a given file).  Listings share a single
	symbol space, so a later file can refer to declarations in an earlier one.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		stats := util.NewPerfStats("Reading listings")
		listing := readListings(args...)
		stats.Log()
		//
		stats = util.NewPerfStats("Applying patch set")
		set := readPatchSet(cmd, listing)
		report := set.Apply(listing)
		stats.Log()
		// Report any problems
		if problems := report.Problems(); len(problems) > 0 {
			for _, err := range problems {
				log.Error(err)
			}
			//
			os.Exit(3)
		}
		//
		writeListing(listing, GetString(cmd, "output"))
	},
}

func init() {
	rootCmd.AddCommand(patchCmd)
	patchCmd.Flags().StringP("config", "c", "", "patch set to apply (YAML, JSON or TOML)")
	patchCmd.Flags().StringP("output", "o", "", "write rewritten listing to file (default stdout)")
	patchCmd.Flags().Bool("strict", false, "fail on rules which never match or captures never replayed")
	patchCmd.Flags().Bool("verify", false, "verify every rewritten body")
}
