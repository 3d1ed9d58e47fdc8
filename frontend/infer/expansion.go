package infer

import (
	"github.com/cottand/tyinfer/frontend/types"
)

// expansion backs the structural subtyping procedure of the oracle with
// graph mutations, so the same procedure that checks types also generates
// constraints on the unknowns it meets
type expansion struct {
	cs *ConstraintSystem
}

var _ types.Hooks = &expansion{}

// AssertEqualTypes equates both sides. Whether the equality holds is only
// known once solved, so it is always accepted here
func (e *expansion) AssertEqualTypes(a, b types.Type, _ *types.Checker) bool {
	e.cs.equate(e.cs.Resolve(a), e.cs.Resolve(b))
	return true
}

// AssertSubtype records an edge when either side is unknown, and decides
// known types right away
func (e *expansion) AssertSubtype(sub, sup types.Type, c *types.Checker) bool {
	_, subUnknown := e.cs.unknownFor(sub)
	_, supUnknown := e.cs.unknownFor(sup)
	if subUnknown || supUnknown {
		e.cs.addEdge(e.cs.Resolve(sub), e.cs.Resolve(sup))
		return true
	}
	return c.CheckSubtype(sub, sup, e)
}

// NoCorrespondingSupertype is a genuine failure between known types only:
// an unknown may still resolve to something compatible
func (e *expansion) NoCorrespondingSupertype(sub, sup types.Type) bool {
	_, subUnknown := e.cs.unknownFor(sub)
	_, supUnknown := e.cs.unknownFor(sup)
	if !subUnknown && !supUnknown {
		return false
	}
	e.cs.logger.Debug("expansion: deferring unrelated constructors", "sub", sub, "sup", sup)
	e.cs.addEdge(e.cs.Resolve(sub), e.cs.Resolve(sup))
	return true
}
