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
package assembler

// END_OF signals "end of file"
const END_OF uint = 0

// WHITESPACE signals spaces, tabs and carriage returns
const WHITESPACE uint = 1

// COMMENT signals ";; ... \n"
const COMMENT uint = 2

// NEWLINE signals "\n", which terminates each declaration and instruction.
const NEWLINE uint = 3

// LBRACE signals "("
const LBRACE uint = 4

// RBRACE signals ")"
const RBRACE uint = 5

// COMMA signals ","
const COMMA uint = 6

// COLON signals ":"
const COLON uint = 7

// NUMBER signals an integer or floating point number
const NUMBER uint = 10

// STRING signals a quoted string
const STRING uint = 11

// IDENTIFIER signals a mnemonic, label, type or symbol reference
const IDENTIFIER uint = 20

// DIRECTIVE signals ".field", ".method", ".body" or ".end"
const DIRECTIVE uint = 21

// Token associates a kind with a given range of characters in the file being
// scanned.
type Token struct {
	Kind uint
	Span Span
}

// scanner accepts some number of leading characters, returning how many (or
// zero to reject).
type scanner func(items []rune) uint

func unit(chars ...rune) scanner {
	return func(items []rune) uint {
		if len(items) < len(chars) {
			return 0
		}
		//
		for i, c := range chars {
			if items[i] != c {
				return 0
			}
		}
		//
		return uint(len(chars))
	}
}

func within(lowest rune, highest rune) scanner {
	return func(items []rune) uint {
		if len(items) > 0 && lowest <= items[0] && items[0] <= highest {
			return 1
		}
		//
		return 0
	}
}

func or(scanners ...scanner) scanner {
	return func(items []rune) uint {
		for _, s := range scanners {
			if n := s(items); n > 0 {
				return n
			}
		}
		//
		return 0
	}
}

// many accepts zero or more matches of the given scanner.  Observe that this
// can return zero and, hence, should only follow something else.
func many(s scanner) scanner {
	return func(items []rune) uint {
		n := uint(0)
		//
		for m := s(items[n:]); m > 0; m = s(items[n:]) {
			n += m
		}
		//
		return n
	}
}

// sequence accepts the given scanners one after the other, where the last may
// accept nothing.
func sequence(first scanner, rest scanner) scanner {
	return func(items []rune) uint {
		if n := first(items); n > 0 {
			return n + rest(items[n:])
		}
		//
		return 0
	}
}

func until(c rune) scanner {
	return func(items []rune) uint {
		for i, r := range items {
			if r == c {
				return uint(i)
			}
		}
		//
		return uint(len(items))
	}
}

var (
	digit           = within('0', '9')
	letter          = or(within('a', 'z'), within('A', 'Z'))
	identifierStart = or(letter, unit('_'), unit('<'), unit('`'))
	identifierRest  = many(or(letter, digit, unit('_'), unit('.'), unit('&'), unit('<'), unit('>'),
		unit('`'), unit('['), unit(']'), unit('$'), unit(':', ':')))
	identifier = sequence(identifierStart, identifierRest)
	directive  = sequence(unit('.'), sequence(letter, many(letter)))
	whitespace = sequence(or(unit(' '), unit('\t'), unit('\r')), many(or(unit(' '), unit('\t'), unit('\r'))))
	comment    = sequence(unit(';', ';'), until('\n'))
	// Numbers cover decimal and hexadecimal integers, as well as floats in
	// decimal or exponent notation.  Validity is checked when parsing.
	numberRest = many(or(digit, letter, unit('.'), unit('_'), unit('+'), unit('-', '0'), unit('-', '1'),
		unit('-', '2'), unit('-', '3'), unit('-', '4'), unit('-', '5'), unit('-', '6'), unit('-', '7'),
		unit('-', '8'), unit('-', '9')))
	number = or(sequence(digit, numberRest), sequence(unit('-'), sequence(digit, numberRest)))
)

// A quoted string, which may contain escaped quotes.
func quoted(items []rune) uint {
	if len(items) == 0 || items[0] != '"' {
		return 0
	}
	//
	for i := 1; i < len(items); i++ {
		switch items[i] {
		case '\\':
			i++
		case '"':
			return uint(i + 1)
		case '\n':
			return 0
		}
	}
	// unterminated
	return 0
}

type lexRule struct {
	scanner scanner
	kind    uint
}

var rules = []lexRule{
	{comment, COMMENT},
	{unit('\n'), NEWLINE},
	{unit('('), LBRACE},
	{unit(')'), RBRACE},
	{unit(','), COMMA},
	{unit(':'), COLON},
	{whitespace, WHITESPACE},
	{number, NUMBER},
	{quoted, STRING},
	{directive, DIRECTIVE},
	{identifier, IDENTIFIER},
}

// Lex a given source file into a sequence of zero or more tokens (terminated by
// END_OF), or a syntax error.  Whitespace and comments are dropped.
func Lex(srcfile *SourceFile) ([]Token, []SyntaxError) {
	var (
		tokens   []Token
		contents = srcfile.Contents()
		index    = 0
	)
	//
	for index < len(contents) {
		var n uint
		// Find first matching rule
		for _, r := range rules {
			if n = r.scanner(contents[index:]); n > 0 {
				if r.kind != WHITESPACE && r.kind != COMMENT {
					tokens = append(tokens, Token{r.kind, NewSpan(index, index+int(n))})
				}
				//
				break
			}
		}
		//
		if n == 0 {
			end := index + int(until('\n')(contents[index:]))
			err := SyntaxError{srcfile, NewSpan(index, end), "unknown text encountered"}
			//
			return nil, []SyntaxError{err}
		}
		//
		index += int(n)
	}
	//
	return append(tokens, Token{END_OF, NewSpan(index, index)}), nil
}
