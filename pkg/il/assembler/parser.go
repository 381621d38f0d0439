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

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/consensys/go-transpile/pkg/il"
	"github.com/consensys/go-transpile/pkg/symbol"
)

// Body associates a routine with the instruction stream making up its
// executable body.
type Body struct {
	Routine *symbol.Routine
	Code    []il.Instruction
}

// Listing is the result of parsing one or more listing files.  It consists of
// the symbols declared, and the bodies defined.
type Listing struct {
	Symbols *symbol.Registry
	Bodies  []Body
}

// NewListing constructs an empty listing over a given registry.
func NewListing(registry *symbol.Registry) *Listing {
	return &Listing{registry, nil}
}

// Body returns the body defined for a given routine (if any).
func (p *Listing) Body(routine *symbol.Routine) (*Body, bool) {
	for i := range p.Bodies {
		if p.Bodies[i].Routine == routine {
			return &p.Bodies[i], true
		}
	}
	//
	return nil, false
}

// Parse a listing file into its declarations and bodies, or one or more syntax
// errors.
func Parse(srcfile *SourceFile) (*Listing, []SyntaxError) {
	listing := NewListing(symbol.NewRegistry())
	//
	if errs := ParseInto(srcfile, listing); len(errs) > 0 {
		return nil, errs
	}
	//
	return listing, nil
}

// ParseInto parses a listing file, adding its declarations and bodies to an
// existing listing.  This allows multiple files to share one symbol space.
func ParseInto(srcfile *SourceFile, listing *Listing) []SyntaxError {
	parser, errs := newParser(srcfile, listing.Symbols)
	if len(errs) > 0 {
		return errs
	}
	//
	for parser.lookahead().Kind != END_OF {
		if parser.match(NEWLINE) {
			continue
		}
		//
		tok, errs := parser.expect(DIRECTIVE)
		if len(errs) > 0 {
			return errs
		}
		//
		switch parser.string(tok) {
		case ".field", ".method":
			errs = parser.parseDeclaration(tok)
		case ".body":
			var body Body
			//
			if body, errs = parser.parseBody(); len(errs) > 0 {
				break
			} else if _, ok := listing.Body(body.Routine); ok {
				errs = parser.syntaxErrors(tok, fmt.Sprintf("duplicate body for %s", body.Routine))
			} else {
				listing.Bodies = append(listing.Bodies, body)
			}
		default:
			errs = parser.syntaxErrors(tok, "unknown directive")
		}
		//
		if len(errs) > 0 {
			return errs
		}
	}
	//
	return nil
}

// ParseInstruction parses a single instruction (e.g. "call Rect::Contains"),
// resolving any symbol operand against the given registry.
func ParseInstruction(text string, registry *symbol.Registry) (il.Instruction, error) {
	parser, errs := newParser(NewSourceFile("<instruction>", []byte(text)), registry)
	if len(errs) > 0 {
		return il.Instruction{}, &errs[0]
	}
	//
	insn, errs := parser.parseInstruction()
	if len(errs) == 0 {
		_, errs = parser.expect(END_OF)
	}
	//
	if len(errs) > 0 {
		return insn, &errs[0]
	}
	//
	return insn, nil
}

// ParseDeclaration parses a single ".field" or ".method" declaration, adding
// the declared symbol to the given registry.
func ParseDeclaration(text string, registry *symbol.Registry) error {
	parser, errs := newParser(NewSourceFile("<declaration>", []byte(text)), registry)
	if len(errs) > 0 {
		return &errs[0]
	}
	//
	tok, errs := parser.expect(DIRECTIVE)
	if len(errs) == 0 {
		if kind := parser.string(tok); kind != ".field" && kind != ".method" {
			errs = parser.syntaxErrors(tok, "expected .field or .method")
		} else {
			errs = parser.parseDeclaration(tok)
		}
	}
	//
	if len(errs) > 0 {
		return &errs[0]
	}
	//
	return nil
}

// ============================================================================
// Parser
// ============================================================================

type parser struct {
	srcfile  *SourceFile
	tokens   []Token
	registry *symbol.Registry
	// Position within the tokens
	index int
}

func newParser(srcfile *SourceFile, registry *symbol.Registry) (*parser, []SyntaxError) {
	tokens, errs := Lex(srcfile)
	//
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return &parser{srcfile, tokens, registry, 0}, nil
}

// .field [static|instance] TYPE Owner::Name
// .method [static|instance] TYPE Owner::Name(T1, ..., Tn)
func (p *parser) parseDeclaration(directive Token) []SyntaxError {
	var static bool
	//
	if p.matchKeyword("static") {
		static = true
	} else {
		p.matchKeyword("instance")
	}
	//
	typeName, errs := p.parseIdentifier()
	if len(errs) > 0 {
		return errs
	}
	//
	start := p.lookahead()
	//
	ref, errs := p.parseReference(p.string(directive) == ".method")
	if len(errs) > 0 {
		return errs
	} else if ref.HasParams && p.string(directive) == ".field" {
		return p.syntaxErrors(start, "unexpected parameter list")
	} else if errs = p.parseEndOfLine(); len(errs) > 0 {
		return errs
	}
	//
	var err error
	//
	if p.string(directive) == ".field" {
		_, err = p.registry.DeclareField(symbol.Field{Owner: ref.Owner, Name: ref.Name, Type: typeName, Static: static})
	} else {
		_, err = p.registry.DeclareRoutine(symbol.Routine{Owner: ref.Owner, Name: ref.Name, Params: ref.Params,
			Result: typeName, Static: static})
	}
	//
	if err != nil {
		return p.syntaxErrors(start, err.Error())
	}
	//
	return nil
}

// .body Owner::Name[(T1, ..., Tn)] NEWLINE ... .end
func (p *parser) parseBody() (Body, []SyntaxError) {
	var body Body
	//
	start := p.lookahead()
	//
	ref, errs := p.parseReference(false)
	if len(errs) > 0 {
		return body, errs
	} else if errs = p.parseEndOfLine(); len(errs) > 0 {
		return body, errs
	}
	//
	routine, err := p.registry.ResolveRoutine(ref)
	if err != nil {
		return body, p.syntaxErrors(start, err.Error())
	}
	//
	body.Routine = routine
	body.Code = []il.Instruction{}
	//
	for {
		lookahead := p.lookahead()
		//
		switch {
		case lookahead.Kind == END_OF:
			return body, p.syntaxErrors(lookahead, "missing .end")
		case p.match(NEWLINE):
			continue
		case lookahead.Kind == DIRECTIVE && p.string(lookahead) == ".end":
			p.index++
			return body, p.parseEndOfLine()
		case p.follows(IDENTIFIER, COLON):
			// Label declaration
			body.Code = append(body.Code, il.Mark(il.Label(p.string(lookahead))))
			p.index += 2
		default:
			insn, errs := p.parseInstruction()
			if len(errs) > 0 {
				return body, errs
			}
			//
			body.Code = append(body.Code, insn)
		}
		//
		if errs := p.parseEndOfLine(); len(errs) > 0 {
			return body, errs
		}
	}
}

func (p *parser) parseInstruction() (il.Instruction, []SyntaxError) {
	var (
		insn    il.Instruction
		operand il.Operand
	)
	//
	tok, errs := p.expect(IDENTIFIER)
	if len(errs) > 0 {
		return insn, errs
	}
	//
	op, ok := il.ParseOpcode(p.string(tok))
	if !ok {
		return insn, p.syntaxErrors(tok, "unknown instruction")
	} else if op == il.LABEL {
		return insn, p.syntaxErrors(tok, "labels are declared as \"name:\"")
	}
	//
	if operand, errs = p.parseOperand(op.Operand()); len(errs) > 0 {
		return insn, errs
	}
	//
	return il.New(op, operand), nil
}

func (p *parser) parseOperand(kind il.OperandKind) (il.Operand, []SyntaxError) {
	lookahead := p.lookahead()
	//
	switch kind {
	case il.NO_OPERAND:
		return nil, nil
	case il.INDEX_OPERAND:
		n, errs := p.parseInteger(0, math.MaxUint16)
		return il.Index(n), errs
	case il.INT32_OPERAND:
		n, errs := p.parseInteger(math.MinInt32, math.MaxInt32)
		return il.Int32(n), errs
	case il.INT64_OPERAND:
		n, errs := p.parseInteger(math.MinInt64, math.MaxInt64)
		return il.Int64(n), errs
	case il.FLOAT_OPERAND:
		tok, errs := p.expect(NUMBER)
		if len(errs) > 0 {
			return nil, errs
		}
		//
		f, err := strconv.ParseFloat(strings.ReplaceAll(p.string(tok), "_", ""), 64)
		if err != nil {
			return nil, p.syntaxErrors(tok, "invalid float")
		}
		//
		return il.Float64(f), nil
	case il.STRING_OPERAND:
		tok, errs := p.expect(STRING)
		if len(errs) > 0 {
			return nil, errs
		}
		//
		s, err := strconv.Unquote(p.string(tok))
		if err != nil {
			return nil, p.syntaxErrors(tok, "invalid string")
		}
		//
		return il.String(s), nil
	case il.LABEL_OPERAND:
		name, errs := p.parseIdentifier()
		return il.Label(name), errs
	case il.FIELD_OPERAND:
		ref, errs := p.parseReference(false)
		if len(errs) > 0 {
			return nil, errs
		}
		//
		field, err := p.registry.Field(ref.String())
		if err != nil {
			return nil, p.syntaxErrors(lookahead, err.Error())
		}
		//
		return field, nil
	case il.ROUTINE_OPERAND:
		ref, errs := p.parseReference(false)
		if len(errs) > 0 {
			return nil, errs
		}
		//
		routine, err := p.registry.ResolveRoutine(ref)
		if err != nil {
			return nil, p.syntaxErrors(lookahead, err.Error())
		}
		//
		return routine, nil
	}
	//
	panic("unreachable")
}

func (p *parser) parseInteger(lowest int64, highest int64) (int64, []SyntaxError) {
	tok, errs := p.expect(NUMBER)
	if len(errs) > 0 {
		return 0, errs
	}
	//
	n, err := strconv.ParseInt(strings.ReplaceAll(p.string(tok), "_", ""), 0, 64)
	if err != nil {
		return 0, p.syntaxErrors(tok, "invalid integer")
	} else if n < lowest || n > highest {
		return 0, p.syntaxErrors(tok, fmt.Sprintf("integer out of range [%d, %d]", lowest, highest))
	}
	//
	return n, nil
}

// Parse a reference "Owner::Name", optionally followed by a parameter list.
// When params is set, the parameter list is required.
func (p *parser) parseReference(params bool) (symbol.Reference, []SyntaxError) {
	tok, errs := p.expect(IDENTIFIER)
	if len(errs) > 0 {
		return symbol.Reference{}, errs
	}
	//
	ref, err := symbol.ParseReference(p.string(tok))
	if err != nil {
		return ref, p.syntaxErrors(tok, err.Error())
	}
	//
	if p.lookahead().Kind != LBRACE {
		if params {
			return ref, p.syntaxErrors(p.lookahead(), "expected parameter list")
		}
		//
		return ref, nil
	}
	//
	ref.HasParams = true
	p.index++
	//
	for !p.match(RBRACE) {
		if len(ref.Params) > 0 {
			if _, errs := p.expect(COMMA); len(errs) > 0 {
				return ref, errs
			}
		}
		//
		param, errs := p.parseIdentifier()
		if len(errs) > 0 {
			return ref, errs
		}
		//
		ref.Params = append(ref.Params, param)
	}
	//
	return ref, nil
}

func (p *parser) parseIdentifier() (string, []SyntaxError) {
	tok, errs := p.expect(IDENTIFIER)
	//
	if len(errs) > 0 {
		return "", errs
	}
	//
	return p.string(tok), nil
}

// Instructions and declarations end at a newline, or at the end of the file.
func (p *parser) parseEndOfLine() []SyntaxError {
	if lookahead := p.lookahead(); lookahead.Kind == END_OF || p.match(NEWLINE) {
		return nil
	}
	//
	return p.syntaxErrors(p.lookahead(), "expected end of line")
}

func (p *parser) matchKeyword(keyword string) bool {
	if lookahead := p.lookahead(); lookahead.Kind == IDENTIFIER && p.string(lookahead) == keyword {
		p.index++
		return true
	}
	//
	return false
}

// Get the text representing the given token as a string.
func (p *parser) string(token Token) string {
	return string(p.srcfile.Contents()[token.Span.Start():token.Span.End()])
}

// Lookahead returns the next token.  This must exist because END_OF is always
// appended at the end of the token stream.
func (p *parser) lookahead() Token {
	return p.tokens[p.index]
}

// Expect returns an error if the next token is not what was expected.
func (p *parser) expect(kind uint) (Token, []SyntaxError) {
	lookahead := p.lookahead()
	//
	if lookahead.Kind != kind {
		return lookahead, p.syntaxErrors(lookahead, "unexpected token")
	}
	//
	p.index++
	//
	return lookahead, nil
}

// Match attempts to match the given token.
func (p *parser) match(kind uint) bool {
	if p.lookahead().Kind == kind {
		p.index++
		return true
	}
	//
	return false
}

// Follows checks whether the given kinds of token follow the current position.
func (p *parser) follows(kinds ...uint) bool {
	for i, kind := range kinds {
		if n := i + p.index; n >= len(p.tokens) || p.tokens[n].Kind != kind {
			return false
		}
	}
	//
	return true
}

func (p *parser) syntaxErrors(token Token, msg string) []SyntaxError {
	return []SyntaxError{{p.srcfile, token.Span, msg}}
}
