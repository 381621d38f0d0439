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

	"github.com/cockroachdb/errors"
)

// ErrUnresolved signals a reference which matches no declared symbol.
var ErrUnresolved = errors.New("unresolved reference")

// ErrAmbiguous signals a routine reference without a parameter list which
// matches more than one overload.
var ErrAmbiguous = errors.New("ambiguous reference")

// ErrDuplicate signals an attempt to declare the same symbol twice.
var ErrDuplicate = errors.New("duplicate declaration")

// Registry is a typed registration table of the routines and fields making up
// a host's symbol space.  A registry is populated once (e.g. whilst reading a
// listing) and subsequently used to resolve references when constructing
// rewrite rules.  Resolution fails fast, rather than deep inside pattern
// matching.
type Registry struct {
	// Overloads for each qualified routine name, in declaration order.
	routines map[string][]*Routine
	// Fields by qualified name.
	fields map[string]*Field
	// Declaration order of all symbols (either *Routine or *Field).
	order []any
}

// NewRegistry constructs an initially empty registry.
func NewRegistry() *Registry {
	return &Registry{
		routines: make(map[string][]*Routine),
		fields:   make(map[string]*Field),
	}
}

// DeclareRoutine adds a routine to this registry, returning the canonical
// pointer by which it should be referenced.  Declaring two routines with the
// same owner, name and parameters is an error.
func (p *Registry) DeclareRoutine(routine Routine) (*Routine, error) {
	name := routine.QualifiedName()
	//
	for _, r := range p.routines[name] {
		if slices.Equal(r.Params, routine.Params) {
			return nil, errors.Wrapf(ErrDuplicate, "routine %s", routine.Signature())
		}
	}
	// Copy params to avoid aliasing caller state.
	routine.Params = slices.Clone(routine.Params)
	if routine.Result == "" {
		routine.Result = VOID
	}
	//
	r := &routine
	p.routines[name] = append(p.routines[name], r)
	p.order = append(p.order, r)
	//
	return r, nil
}

// DeclareField adds a field to this registry, returning the canonical pointer
// by which it should be referenced.
func (p *Registry) DeclareField(field Field) (*Field, error) {
	name := field.QualifiedName()
	//
	if _, ok := p.fields[name]; ok {
		return nil, errors.Wrapf(ErrDuplicate, "field %s", name)
	}
	//
	f := &field
	p.fields[name] = f
	p.order = append(p.order, f)
	//
	return f, nil
}

// Routine resolves a textual routine reference, such as "Rect::Contains" or
// "Rect::Contains(Vector2)".
func (p *Registry) Routine(ref string) (*Routine, error) {
	r, err := ParseReference(ref)
	if err != nil {
		return nil, err
	}
	//
	return p.ResolveRoutine(r)
}

// ResolveRoutine resolves a parsed routine reference.  When the reference
// carries no parameter list, it must identify exactly one overload.
func (p *Registry) ResolveRoutine(ref Reference) (*Routine, error) {
	overloads := p.routines[ref.QualifiedName()]
	//
	if ref.HasParams {
		for _, r := range overloads {
			if slices.Equal(r.Params, ref.Params) {
				return r, nil
			}
		}
	} else if len(overloads) == 1 {
		return overloads[0], nil
	} else if len(overloads) > 1 {
		return nil, errors.Wrapf(ErrAmbiguous, "routine %s (%d overloads)", ref, len(overloads))
	}
	//
	return nil, errors.Wrapf(ErrUnresolved, "routine %s", ref)
}

// Getter resolves the getter of a given property, which follows the
// "get_Property" naming convention.
func (p *Registry) Getter(owner string, property string) (*Routine, error) {
	return p.ResolveRoutine(Reference{Owner: owner, Name: "get_" + property, HasParams: true})
}

// Field resolves a textual field reference, such as "Widget::hoveredGroup".
func (p *Registry) Field(ref string) (*Field, error) {
	r, err := ParseReference(ref)
	//
	if err != nil {
		return nil, err
	} else if r.HasParams {
		return nil, errors.Newf("malformed field reference %q (unexpected parameter list)", ref)
	} else if f, ok := p.fields[r.QualifiedName()]; ok {
		return f, nil
	}
	//
	return nil, errors.Wrapf(ErrUnresolved, "field %s", ref)
}

// Symbols returns every declared routine and field in declaration order.  Each
// element is either a *Routine or a *Field.
func (p *Registry) Symbols() []any {
	return slices.Clone(p.order)
}

// Size returns the number of symbols declared in this registry.
func (p *Registry) Size() uint {
	return uint(len(p.order))
}
