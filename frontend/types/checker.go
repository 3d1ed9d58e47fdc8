package types

import (
	"github.com/cottand/tyinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "types")

const defaultDepthLimit = 250

// Hooks are the three points where the structural subtyping procedure of a
// Checker hands sub-obligations back to its caller.
//
// Plain type checking uses DefaultHooks. Constraint generation swaps in hooks
// that record the obligations instead of deciding them.
type Hooks interface {
	// AssertEqualTypes is called for type arguments at invariant positions
	AssertEqualTypes(a, b Type, c *Checker) bool
	// AssertSubtype is called for type arguments at covariant positions
	// (and with swapped arguments at contravariant ones)
	AssertSubtype(sub, sup Type, c *Checker) bool
	// NoCorrespondingSupertype is called when sub has no supertype built by
	// the constructor of sup. Returning true means the mismatch is recoverable
	NoCorrespondingSupertype(sub, sup Type) bool
}

type defaultHooks struct{}

// DefaultHooks make a Checker decide every sub-obligation itself
var DefaultHooks Hooks = defaultHooks{}

func (defaultHooks) AssertEqualTypes(a, b Type, c *Checker) bool {
	return c.CheckEqual(a, b, DefaultHooks)
}
func (defaultHooks) AssertSubtype(sub, sup Type, c *Checker) bool {
	return c.CheckSubtype(sub, sup, DefaultHooks)
}
func (defaultHooks) NoCorrespondingSupertype(_, _ Type) bool {
	return false
}

// Checker is the type oracle over the hierarchy of a Universe.
// It keeps a recursion depth counter, so it is not safe for concurrent use
type Checker struct {
	u          *Universe
	depth      int
	depthLimit int
}

func NewChecker(u *Universe) *Checker {
	return &Checker{u: u, depthLimit: defaultDepthLimit}
}

func (c *Checker) Universe() *Universe {
	return c.u
}

// Equal is structural equality
func (c *Checker) Equal(a, b Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Key() == b.Key()
}

// IsSubtype decides sub <: sup with DefaultHooks
func (c *Checker) IsSubtype(sub, sup Type) bool {
	return c.CheckSubtype(sub, sup, DefaultHooks)
}

// EquivalentTypes reports whether a <: b and b <: a
func (c *Checker) EquivalentTypes(a, b Type) bool {
	return c.Equal(a, b) || c.IsSubtype(a, b) && c.IsSubtype(b, a)
}

func (c *Checker) enter() bool {
	c.depth++
	return c.depth <= c.depthLimit
}

func (c *Checker) exit() {
	c.depth--
}

// CheckEqual decides whether a and b are equal, decomposing type arguments
// through hooks
func (c *Checker) CheckEqual(a, b Type, hooks Hooks) bool {
	if c.Equal(a, b) {
		return true
	}
	if !c.enter() {
		logger.Warn("type equality exceeded max depth limit", "a", a, "b", b)
		c.exit()
		return false
	}
	defer c.exit()

	if a.Nullable() != b.Nullable() {
		return false
	}
	_, aIsParam := a.(*ParamType)
	_, bIsParam := b.(*ParamType)
	if !SameConstructor(a.Constructor(), b.Constructor()) {
		// T? = X? holds when T = X
		if a.Nullable() && (aIsParam || bIsParam) {
			return hooks.AssertEqualTypes(MakeNotNull(a), MakeNotNull(b), c)
		}
		return false
	}
	switch a := a.(type) {
	case *ClassType:
		b := b.(*ClassType)
		for i := range a.Args {
			if !hooks.AssertEqualTypes(a.Args[i], b.Args[i], c) {
				return false
			}
		}
		return true
	case *ParamType:
		return true
	default:
		// intersections are normalised, so structural equality already decided them
		return false
	}
}

// CheckSubtype decides sub <: sup, decomposing parameterized types into
// obligations on their type arguments which are delivered through hooks
func (c *Checker) CheckSubtype(sub, sup Type, hooks Hooks) bool {
	if c.Equal(sub, sup) {
		return true
	}
	if !c.enter() {
		logger.Warn("subtype check exceeded max depth limit", "sub", sub, "sup", sup)
		c.exit()
		return false
	}
	defer c.exit()

	if c.u.IsNothing(sub) && (!sub.Nullable() || sup.Nullable()) {
		return true
	}
	if c.u.IsAny(sup) && (sup.Nullable() || !sub.Nullable()) {
		return true
	}
	if sub.Nullable() && !sup.Nullable() {
		return false
	}
	sub, sup = MakeNotNull(sub), MakeNotNull(sup)
	if c.Equal(sub, sup) {
		return true
	}

	if supInter, ok := sup.(*IntersectionType); ok {
		for _, member := range supInter.Members {
			if !c.CheckSubtype(sub, member, hooks) {
				return false
			}
		}
		return true
	}
	if subInter, ok := sub.(*IntersectionType); ok {
		for _, member := range subInter.Members {
			if c.CheckSubtype(member, sup, hooks) {
				return true
			}
		}
		return hooks.NoCorrespondingSupertype(sub, sup)
	}

	if subParam, ok := sub.(*ParamType); ok {
		// a type parameter is a subtype of whatever its bounds are subtypes of
		for _, bound := range subParam.Param.upperBounds {
			if c.isBoundOf(bound, subParam) {
				continue
			}
			if c.CheckSubtype(bound, sup, hooks) {
				return true
			}
		}
		return hooks.NoCorrespondingSupertype(sub, sup)
	}

	subClass := sub.(*ClassType)
	supClass, ok := sup.(*ClassType)
	if !ok {
		// sup is a type parameter, and only Nothing is a subtype of every parameter
		return hooks.NoCorrespondingSupertype(sub, sup)
	}
	corresponding := c.CorrespondingSupertype(subClass, supClass.Def)
	if corresponding == nil {
		return hooks.NoCorrespondingSupertype(sub, sup)
	}
	for i, param := range supClass.Def.Params {
		subArg, supArg := corresponding.Args[i], supClass.Args[i]
		var holds bool
		switch param.Variance {
		case Out:
			holds = hooks.AssertSubtype(subArg, supArg, c)
		case In:
			holds = hooks.AssertSubtype(supArg, subArg, c)
		default:
			holds = hooks.AssertEqualTypes(subArg, supArg, c)
		}
		if !holds {
			logger.Debug("type argument mismatch", "param", param.Name, "sub", subArg, "sup", supArg)
			return false
		}
	}
	return true
}

// isBoundOf catches the degenerate declaration T : T
func (c *Checker) isBoundOf(bound Type, p *ParamType) bool {
	bp, ok := bound.(*ParamType)
	return ok && bp.Param == p.Param
}

// CorrespondingSupertype finds the supertype of t built by def, with t's type
// arguments substituted into it, or nil if def is not among t's supertypes
func (c *Checker) CorrespondingSupertype(t *ClassType, def *ClassDef) *ClassType {
	visited := make(map[*ClassDef]struct{})
	var rec func(t *ClassType) *ClassType
	rec = func(t *ClassType) *ClassType {
		if t.Def == def {
			return t
		}
		if _, ok := visited[t.Def]; ok {
			return nil
		}
		visited[t.Def] = struct{}{}
		for _, st := range c.u.directSupertypes(t.Def) {
			substituted := c.substituteClassParams(st, t)
			if found := rec(substituted); found != nil {
				return found
			}
		}
		return nil
	}
	return rec(t)
}

// substituteClassParams replaces the parameters of owner's class inside st
// with owner's type arguments
func (c *Checker) substituteClassParams(st *ClassType, owner *ClassType) *ClassType {
	if len(owner.Args) == 0 {
		return st
	}
	substituted := c.Substitute(st, func(ctor Constructor) (Projection, bool) {
		param, ok := ctor.(*TypeParameter)
		if !ok {
			return Projection{}, false
		}
		for i, p := range owner.Def.Params {
			if p == param {
				return Projection{Kind: Invariant, Type: owner.Args[i]}, true
			}
		}
		return Projection{}, false
	})
	return substituted.(*ClassType)
}

// Substitute replaces every type parameter occurrence for which lookup
// returns a projection with a type. A nullable occurrence T? becomes X?
func (c *Checker) Substitute(t Type, lookup func(Constructor) (Projection, bool)) Type {
	switch t := t.(type) {
	case *ParamType:
		proj, ok := lookup(t.Param)
		if !ok || proj.Type == nil {
			return t
		}
		return MakeNullable(proj.Type, proj.Type.Nullable() || t.IsNullable)
	case *ClassType:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]Type, len(t.Args))
		changed := false
		for i, arg := range t.Args {
			args[i] = c.Substitute(arg, lookup)
			changed = changed || args[i] != arg
		}
		if !changed {
			return t
		}
		return &ClassType{Def: t.Def, Args: args, IsNullable: t.IsNullable}
	case *IntersectionType:
		members := make([]Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = c.Substitute(m, lookup)
		}
		intersected := c.Intersect(members)
		return MakeNullable(intersected, intersected.Nullable() || t.IsNullable)
	}
	return t
}

// Mentions reports whether param occurs anywhere inside t
func Mentions(t Type, param *TypeParameter) bool {
	switch t := t.(type) {
	case *ParamType:
		return t.Param == param
	case *ClassType:
		for _, arg := range t.Args {
			if Mentions(arg, param) {
				return true
			}
		}
	case *IntersectionType:
		for _, m := range t.Members {
			if Mentions(m, param) {
				return true
			}
		}
	}
	return false
}
