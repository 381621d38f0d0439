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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/consensys/go-transpile/pkg/il/assembler"
	"github.com/consensys/go-transpile/pkg/patch"
	"github.com/consensys/go-transpile/pkg/symbol"
	"github.com/spf13/cobra"
)

// GetFlag gets an expected flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	return r
}

// GetString gets an expected string flag, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	return r
}

// Read one or more listing files into a single listing, such that they share
// one symbol space.  Syntax errors are printed with highlighting, after which
// this exits.
func readListings(filenames ...string) *assembler.Listing {
	listing := assembler.NewListing(symbol.NewRegistry())
	//
	for _, filename := range filenames {
		srcfile, err := assembler.ReadSourceFile(filename)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		if errs := assembler.ParseInto(srcfile, listing); len(errs) > 0 {
			for _, err := range errs {
				printSyntaxError(&err)
			}
			//
			os.Exit(2)
		}
	}
	//
	return listing
}

// Read a patch set and compile it against a given listing.  Options given on
// the command line take precedence over those from the file (or environment).
func readPatchSet(cmd *cobra.Command, listing *assembler.Listing) *patch.Set {
	filename := GetString(cmd, "config")
	//
	if filename == "" {
		fmt.Println("missing patch set (use --config)")
		os.Exit(1)
	}
	//
	cfg, err := patch.LoadConfig(filename)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	//
	if cmd.Flags().Changed("strict") {
		cfg.Options.Strict = GetFlag(cmd, "strict")
	}
	//
	if cmd.Flags().Changed("verify") {
		cfg.Options.Verify = GetFlag(cmd, "verify")
	}
	//
	set, err := patch.Build(cfg, listing.Symbols)
	if err != nil {
		fmt.Printf("%s: %v\n", filename, err)
		os.Exit(1)
	}
	//
	return set
}

// Write a listing to a given file, or to stdout when no file is given.
func writeListing(listing *assembler.Listing, filename string) {
	var out = os.Stdout
	//
	if filename != "" && filename != "-" {
		f, err := os.Create(filename)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		defer f.Close()
		//
		out = f
	}
	//
	w := bufio.NewWriter(out)
	//
	if err := assembler.Format(w, listing); err != nil {
		fmt.Println(err)
		os.Exit(1)
	} else if err := w.Flush(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Print a syntax error with appropriate highlighting.
func printSyntaxError(err *assembler.SyntaxError) {
	line, num, col := err.Line()
	span := err.Span()
	width := max(1, min(span.End()-span.Start(), len(line)-col))
	// Print error + line number
	fmt.Printf("%s:%d:%d: %s\n", err.SourceFile().Filename(), num, col+1, err.Message())
	// Print line
	fmt.Println(line)
	// Print indent (todo: account for tabs)
	fmt.Print(strings.Repeat(" ", col))
	// Print highlight
	fmt.Println(strings.Repeat("^", width))
}
