package types

import (
	"fmt"
	"slices"
)

// Universe owns every ClassDef and TypeParameter of one hierarchy,
// and hands out their ids.
// It is mutable and not suitable for concurrent use
type Universe struct {
	freshCount uint64
	classes    map[string]*ClassDef
	order      []*ClassDef

	// Any is the top of the hierarchy (Any? is the top of nullable types too)
	Any *ClassDef
	// Nothing is a subtype of every type
	Nothing *ClassDef
}

func NewUniverse() *Universe {
	u := &Universe{
		freshCount: 1,
		classes:    make(map[string]*ClassDef),
	}
	u.Any = u.NewClass("Any")
	u.Nothing = u.NewClass("Nothing")
	u.Nothing.Final = true
	return u
}

func (u *Universe) fresh() uint64 {
	id := u.freshCount
	u.freshCount++
	return id
}

// NewClass declares a class. Classes without declared supertypes
// extend Any implicitly
func (u *Universe) NewClass(name string, params ...*TypeParameter) *ClassDef {
	if _, ok := u.classes[name]; ok {
		panic(fmt.Sprintf("class %s is already declared", name))
	}
	def := &ClassDef{
		id:     u.fresh(),
		Name:   name,
		Params: params,
	}
	u.classes[name] = def
	u.order = append(u.order, def)
	return def
}

// NewTypeParameter declares a type parameter, of a class or of a function
func (u *Universe) NewTypeParameter(name string, variance Variance, bounds ...Type) *TypeParameter {
	return &TypeParameter{
		id:          u.fresh(),
		Name:        name,
		Variance:    variance,
		upperBounds: bounds,
	}
}

func (u *Universe) Class(name string) (*ClassDef, bool) {
	def, ok := u.classes[name]
	return def, ok
}

// Classes returns the declared classes in declaration order
func (u *Universe) Classes() []*ClassDef {
	return slices.Clone(u.order)
}

func (u *Universe) AnyType(nullable bool) Type {
	return MakeNullable(u.Any.Type(), nullable)
}

func (u *Universe) NothingType(nullable bool) Type {
	return MakeNullable(u.Nothing.Type(), nullable)
}

func (u *Universe) IsAny(t Type) bool {
	c, ok := t.(*ClassType)
	return ok && c.Def == u.Any
}

func (u *Universe) IsNothing(t Type) bool {
	c, ok := t.(*ClassType)
	return ok && c.Def == u.Nothing
}

// directSupertypes are the declared supertypes of def, or Any when
// none were declared
func (u *Universe) directSupertypes(def *ClassDef) []*ClassType {
	if def == u.Any || def == u.Nothing {
		return nil
	}
	if len(def.supertypes) == 0 {
		return []*ClassType{u.Any.Type()}
	}
	return def.supertypes
}
