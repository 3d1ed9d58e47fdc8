package types

import (
	"slices"
	"strconv"
	"strings"
)

// Constructor identifies what built a Type: a *ClassDef, a *TypeParameter,
// or the synthetic constructor of intersection types
type Constructor interface {
	ConstructorName() string
	constructorID() uint64
}

// Type is an immutable type.
// Two types are structurally equal when their Key is equal
type Type interface {
	Constructor() Constructor
	Nullable() bool
	// Key is a structural identity, unlike String it does not collide for
	// distinct classes that share a name
	Key() string
	String() string

	withNullability(nullable bool) Type
}

var (
	_ Type = &ClassType{}
	_ Type = &ParamType{}
	_ Type = &IntersectionType{}

	_ Constructor = &ClassDef{}
	_ Constructor = &TypeParameter{}
	_ Constructor = intersectionConstructor{}
)

// ClassDef is a generic class declaration.
// Supertypes are expressed in terms of Params
type ClassDef struct {
	id     uint64
	Name   string
	Params []*TypeParameter
	// Final classes cannot have subtypes other than Nothing
	Final      bool
	supertypes []*ClassType
}

func (d *ClassDef) ConstructorName() string { return d.Name }
func (d *ClassDef) constructorID() uint64   { return d.id }
func (d *ClassDef) ID() uint64              { return d.id }

func (d *ClassDef) Supertypes() []*ClassType {
	return d.supertypes
}

// AddSupertype declares st as a direct supertype of d
func (d *ClassDef) AddSupertype(st *ClassType) {
	d.supertypes = append(d.supertypes, st)
}

// Type instantiates d with args, and panics if the arity does not match
func (d *ClassDef) Type(args ...Type) *ClassType {
	if len(args) != len(d.Params) {
		panic("class " + d.Name + " expects " + strconv.Itoa(len(d.Params)) + " type arguments, got " + strconv.Itoa(len(args)))
	}
	return &ClassType{Def: d, Args: args}
}

// TypeParameter is a generic placeholder, of a class or of a function.
// Its identity is its pointer
type TypeParameter struct {
	id   uint64
	Name string
	// Variance is only meaningful for parameters of classes
	Variance    Variance
	upperBounds []Type
}

func (p *TypeParameter) ConstructorName() string { return p.Name }
func (p *TypeParameter) constructorID() uint64   { return p.id }
func (p *TypeParameter) ID() uint64              { return p.id }

// UpperBounds are the declared upper bounds of p, which may mention p itself
func (p *TypeParameter) UpperBounds() []Type {
	return p.upperBounds
}

func (p *TypeParameter) SetUpperBounds(bounds ...Type) {
	p.upperBounds = bounds
}

// Type is the occurrence of p with its declared (non-null) nullability
func (p *TypeParameter) Type() *ParamType {
	return &ParamType{Param: p}
}

func (p *TypeParameter) String() string {
	return p.Name
}

type ClassType struct {
	Def        *ClassDef
	Args       []Type
	IsNullable bool
}

func (t *ClassType) Constructor() Constructor { return t.Def }
func (t *ClassType) Nullable() bool           { return t.IsNullable }
func (t *ClassType) withNullability(nullable bool) Type {
	if t.IsNullable == nullable {
		return t
	}
	copied := *t
	copied.IsNullable = nullable
	return &copied
}

func (t *ClassType) String() string {
	return showApplied(t.Def.Name, t.Args, t.IsNullable, Type.String)
}
func (t *ClassType) Key() string {
	return showApplied(t.Def.Name+"#"+strconv.FormatUint(t.Def.id, 10), t.Args, t.IsNullable, Type.Key)
}

type ParamType struct {
	Param      *TypeParameter
	IsNullable bool
}

func (t *ParamType) Constructor() Constructor { return t.Param }
func (t *ParamType) Nullable() bool           { return t.IsNullable }
func (t *ParamType) withNullability(nullable bool) Type {
	if t.IsNullable == nullable {
		return t
	}
	return &ParamType{Param: t.Param, IsNullable: nullable}
}
func (t *ParamType) String() string {
	return showApplied(t.Param.Name, nil, t.IsNullable, Type.String)
}
func (t *ParamType) Key() string {
	return showApplied("'"+t.Param.Name+"#"+strconv.FormatUint(t.Param.id, 10), nil, t.IsNullable, Type.Key)
}

// IntersectionType is only built by Checker.Intersect, which keeps Members
// flat, sorted by Key, and free of redundant members
type IntersectionType struct {
	Members    []Type
	IsNullable bool
}

type intersectionConstructor struct{}

func (intersectionConstructor) ConstructorName() string { return "&" }
func (intersectionConstructor) constructorID() uint64   { return 0 }

func (t *IntersectionType) Constructor() Constructor { return intersectionConstructor{} }
func (t *IntersectionType) Nullable() bool           { return t.IsNullable }
func (t *IntersectionType) withNullability(nullable bool) Type {
	if t.IsNullable == nullable {
		return t
	}
	return &IntersectionType{Members: t.Members, IsNullable: nullable}
}
func (t *IntersectionType) String() string {
	return showIntersection(t.Members, t.IsNullable, Type.String)
}
func (t *IntersectionType) Key() string {
	return showIntersection(t.Members, t.IsNullable, Type.Key)
}

func showApplied(name string, args []Type, nullable bool, show func(Type) string) string {
	sb := strings.Builder{}
	sb.WriteString(name)
	if len(args) > 0 {
		sb.WriteString("<")
		for i, arg := range args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(show(arg))
		}
		sb.WriteString(">")
	}
	if nullable {
		sb.WriteString("?")
	}
	return sb.String()
}

func showIntersection(members []Type, nullable bool, show func(Type) string) string {
	shown := make([]string, 0, len(members))
	for _, m := range members {
		shown = append(shown, show(m))
	}
	slices.Sort(shown)
	str := strings.Join(shown, " & ")
	if nullable {
		return "(" + str + ")?"
	}
	return str
}

// Projection is a type argument together with its use-site variance
type Projection struct {
	Kind Variance
	// Type may be nil when a substitution has no value for a parameter
	Type Type
}

func (p Projection) String() string {
	if p.Type == nil {
		return "<unconstrained>"
	}
	if p.Kind == Invariant {
		return p.Type.String()
	}
	return p.Kind.String() + " " + p.Type.String()
}

// MakeNullable returns t with the nullability bit set to nullable
func MakeNullable(t Type, nullable bool) Type {
	return t.withNullability(nullable)
}

// MakeNotNull returns the non-null version of t
func MakeNotNull(t Type) Type {
	return t.withNullability(false)
}

// SameConstructor reports whether a and b were built by the same constructor
func SameConstructor(a, b Constructor) bool {
	if a == nil || b == nil {
		return a == b
	}
	_, aIsInter := a.(intersectionConstructor)
	_, bIsInter := b.(intersectionConstructor)
	if aIsInter || bIsInter {
		return aIsInter && bIsInter
	}
	_, aIsParam := a.(*TypeParameter)
	_, bIsParam := b.(*TypeParameter)
	return aIsParam == bIsParam && a.constructorID() == b.constructorID()
}
