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

	"github.com/consensys/go-transpile/pkg/il"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [flags] listing_file...",
	Short: "check the bodies of one or more listings are well formed.",
	Long: `Parse one or more listings, and verify every body they define:
	labels must be defined exactly once, the stack must never underflow, its
	depth must agree wherever control flow meets, and it must hold exactly the
	return value (if any) at each return.`,
	Run: func(cmd *cobra.Command, args []string) {
		var errors uint
		//
		if len(args) < 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		listing := readListings(args...)
		//
		for _, body := range listing.Bodies {
			if err := il.Verify(body.Code, body.Routine.Returns()); err != nil {
				fmt.Printf("%s: %s\n", body.Routine.Signature(), err)
				errors++
			} else {
				log.Debugf("%s: ok (%d instructions)", body.Routine.Signature(), len(body.Code))
			}
		}
		//
		if errors > 0 {
			fmt.Printf("%d of %d bodies failed verification\n", errors, len(listing.Bodies))
			os.Exit(3)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
