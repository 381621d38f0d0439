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
	"os"
)

// SourceFile represents a listing file (typically stored on disk).
type SourceFile struct {
	// File name for this source file.
	filename string
	// Contents of this file.
	contents []rune
}

// NewSourceFile constructs a new source file from a given byte array.
func NewSourceFile(filename string, bytes []byte) *SourceFile {
	return &SourceFile{filename, []rune(string(bytes))}
}

// ReadSourceFile reads a given source file from disk.
func ReadSourceFile(filename string) (*SourceFile, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	//
	return NewSourceFile(filename, bytes), nil
}

// Filename returns the filename associated with this source file.
func (p *SourceFile) Filename() string {
	return p.filename
}

// Contents returns the contents of this source file.
func (p *SourceFile) Contents() []rune {
	return p.contents
}

// Span represents a contiguous slice of a source file, retained as physical
// indices so that the enclosing line can be recovered.
type Span struct {
	// The first character of this span.
	start int
	// One past the final character of this span.
	end int
}

// NewSpan constructs a new span.
func NewSpan(start int, end int) Span {
	if start > end {
		panic("invalid span")
	}
	//
	return Span{start, end}
}

// Start returns the starting index of this span.
func (p Span) Start() int {
	return p.start
}

// End returns one past the last index of this span.
func (p Span) End() int {
	return p.end
}

// SyntaxError is a structured error which retains the span of the original
// text where an error occurred, along with an error message.
type SyntaxError struct {
	srcfile *SourceFile
	span    Span
	msg     string
}

// SourceFile returns the file this error was reported against.
func (p *SyntaxError) SourceFile() *SourceFile {
	return p.srcfile
}

// Span returns the span of the original text on which this error is reported.
func (p *SyntaxError) Span() Span {
	return p.span
}

// Message returns the message to be reported.
func (p *SyntaxError) Message() string {
	return p.msg
}

// Line determines the line enclosing the start of this error, returning the
// text of that line, its number (counting from 1) and the column (counting from
// 0) at which the error starts.
func (p *SyntaxError) Line() (string, int, int) {
	var (
		text  = p.srcfile.contents
		num   = 1
		start = 0
		index = min(p.span.start, len(text))
	)
	//
	for i := 0; i < index; i++ {
		if text[i] == '\n' {
			num++
			start = i + 1
		}
	}
	//
	end := start
	for end < len(text) && text[end] != '\n' {
		end++
	}
	//
	return string(text[start:end]), num, index - start
}

// Error implements the error interface.
func (p *SyntaxError) Error() string {
	_, line, col := p.Line()
	return fmt.Sprintf("%s:%d:%d: %s", p.srcfile.filename, line, col+1, p.msg)
}
