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
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// VOID is the result type of a routine which returns nothing.
const VOID = "void"

// Routine describes a callable routine within the host's symbol space.  A
// routine is identified by its owner, its name and its parameter types.  Once
// declared in a registry, routines are referred to by pointer and, hence, two
// references to the same routine compare equal.
type Routine struct {
	// Owner is the (fully qualified) name of the type declaring this routine.
	Owner string
	// Name of the routine within its owner.
	Name string
	// Params holds the declared parameter types, excluding any receiver.
	Params []string
	// Result type of this routine, or VOID.
	Result string
	// Static indicates the routine has no receiver.
	Static bool
}

// QualifiedName returns "Owner::Name" for this routine.
func (p *Routine) QualifiedName() string {
	return qualify(p.Owner, p.Name)
}

// Signature returns "Owner::Name(P1,P2,...)" which uniquely identifies this
// routine amongst its overloads.
func (p *Routine) Signature() string {
	return fmt.Sprintf("%s(%s)", p.QualifiedName(), strings.Join(p.Params, ","))
}

func (p *Routine) String() string {
	return p.Signature()
}

// Returns indicates whether or not this routine leaves a value on the stack.
func (p *Routine) Returns() bool {
	return p.Result != "" && p.Result != VOID
}

// StackParams returns the types of all values consumed from the stack by a call
// to this routine.  For instance routines, the receiver comes first.
func (p *Routine) StackParams() []string {
	if p.Static {
		return p.Params
	}
	//
	return append([]string{p.Owner + "&"}, p.Params...)
}

// Field describes a field within the host's symbol space.
type Field struct {
	// Owner is the (fully qualified) name of the type declaring this field.
	Owner string
	// Name of the field within its owner.
	Name string
	// Type of values stored in this field.
	Type string
	// Static indicates a field which is not associated with any instance.
	Static bool
}

// QualifiedName returns "Owner::Name" for this field.
func (p *Field) QualifiedName() string {
	return qualify(p.Owner, p.Name)
}

func (p *Field) String() string {
	return p.QualifiedName()
}

// Reference is an unresolved, textual reference to a routine or field.  For
// routines, the parameter list is optional and is only required to
// disambiguate overloads.
type Reference struct {
	Owner string
	Name  string
	// Params is only meaningful when HasParams holds.
	Params    []string
	HasParams bool
}

// ParseReference parses a reference of the form "Owner::Name" or
// "Owner::Name(P1,...,Pn)".
func ParseReference(text string) (Reference, error) {
	var (
		ref  Reference
		name = strings.TrimSpace(text)
	)
	// Split off parameter list (if any)
	if open := strings.IndexByte(name, '('); open >= 0 {
		if !strings.HasSuffix(name, ")") {
			return ref, errors.Newf("malformed reference %q (unterminated parameter list)", text)
		}
		//
		ref.HasParams = true
		ref.Params = splitParams(name[open+1 : len(name)-1])
		name = name[:open]
	}
	//
	split := strings.LastIndex(name, "::")
	if split <= 0 || split+2 >= len(name) {
		return ref, errors.Newf("malformed reference %q (expected Owner::Name)", text)
	}
	//
	ref.Owner, ref.Name = name[:split], name[split+2:]
	//
	return ref, nil
}

// QualifiedName returns "Owner::Name" for this reference.
func (r Reference) QualifiedName() string {
	return qualify(r.Owner, r.Name)
}

func (r Reference) String() string {
	if r.HasParams {
		return fmt.Sprintf("%s(%s)", r.QualifiedName(), strings.Join(r.Params, ","))
	}
	//
	return r.QualifiedName()
}

func splitParams(text string) []string {
	var params []string
	//
	if strings.TrimSpace(text) == "" {
		return params
	}
	//
	for _, p := range strings.Split(text, ",") {
		params = append(params, strings.TrimSpace(p))
	}
	//
	return params
}

func qualify(owner string, name string) string {
	return owner + "::" + name
}
