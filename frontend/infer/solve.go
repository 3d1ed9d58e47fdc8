package infer

import (
	"github.com/cottand/tyinfer/frontend/ilerr"
	"github.com/cottand/tyinfer/frontend/types"
	"github.com/cottand/tyinfer/util"
	set "github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
	"slices"
)

// edge is a directed sub <: sup pair of canonical nodes
type edge struct {
	sub, sup NodeID
}

// Solve runs the solving pipeline and returns the Solution.
// It must be called exactly once
func (cs *ConstraintSystem) Solve() *Solution {
	if cs.solved {
		panic(errors.New("constraint system was already solved"))
	}
	cs.solved = true
	cs.logger.Debug("solve: begin", "nodes", len(cs.nodes), "variables", len(cs.registered))

	if err := cs.expandBounds(); err != nil {
		cs.report(err)
		cs.logger.Debug("solve: bound expansion failed", "errors", cs.errs)
		return cs.solution()
	}
	cs.seedDeclaredBounds()
	cs.closeTransitively()
	cs.verify()
	for _, param := range cs.registered {
		cs.derive(cs.unknownByParam[param])
	}

	cs.logger.Debug("solve: done", "nodes", len(cs.nodes), "errors", cs.errs)
	return cs.solution()
}

// expandBounds re-checks every known type against its known bounds, which
// decomposes structural types into constraints on their arguments.
// Known nodes created by the decomposition are expanded too
func (cs *ConstraintSystem) expandBounds() ilerr.InferError {
	checked := set.New[edge](0)
	check := func(sub, sup NodeID) ilerr.InferError {
		sub, sup = cs.find(sub), cs.find(sup)
		ns, nsup := cs.nodes[sub], cs.nodes[sup]
		if ns.kind != known || nsup.kind != known || !checked.Insert(edge{sub, sup}) {
			return nil
		}
		cs.logger.Debug("expand: checking", "sub", ns.typ, "sup", nsup.typ)
		if !cs.checker.CheckSubtype(ns.typ, nsup.typ, cs.hooks) {
			return ilerr.New(ilerr.NewTypeMismatch{Sub: ns.typ, Super: nsup.typ})
		}
		return nil
	}

	for i := 0; i < len(cs.nodes); i++ {
		id := NodeID(i)
		n := cs.nodes[id]
		if n.kind != known {
			continue
		}
		for _, ub := range n.upperBounds.Slice() {
			if err := check(id, ub); err != nil {
				return err
			}
		}
		for _, lb := range n.lowerBounds.Slice() {
			if err := check(lb, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// seedDeclaredBounds adds T <: B for every declared upper bound B of every
// registered T
func (cs *ConstraintSystem) seedDeclaredBounds() {
	for _, param := range cs.registered {
		for _, bound := range param.UpperBounds() {
			cs.AddSubtypingConstraint(param.Type(), bound)
		}
	}
}

// closeTransitively makes every upper bound reachable through unknowns a
// direct upper bound: A <: B and B <: C gives A <: C
func (cs *ConstraintSystem) closeTransitively() {
	visited := set.New[NodeID](len(cs.registered))
	for _, param := range cs.registered {
		cs.closeUpperBounds(cs.unknownByParam[param], visited)
	}
}

func (cs *ConstraintSystem) closeUpperBounds(id NodeID, visited *set.Set[NodeID]) {
	id = cs.find(id)
	if !visited.Insert(id) {
		return
	}
	for _, ub := range cs.nodes[id].upperBounds.Slice() {
		ub = cs.find(ub)
		// known bounds cannot be decomposed any further
		if cs.nodes[ub].kind == known {
			continue
		}
		cs.closeUpperBounds(ub, visited)
		for _, transitive := range cs.node(ub).upperBounds.Slice() {
			cs.addUpperBound(id, transitive)
		}
	}
}

// derive computes the value of a node: a known node's type with every
// registered parameter in it substituted, or an unknown's solution.
// It returns false when the node is unconstrained, or depends on itself
func (cs *ConstraintSystem) derive(id NodeID) (types.Type, bool) {
	id = cs.find(id)
	n := cs.nodes[id]
	if n.kind == known {
		return cs.substituteDerived(n.typ), true
	}
	if n.derived {
		return n.value, n.value != nil
	}
	if n.deriving {
		if _, ok := cs.loopReported[id]; !ok {
			cs.loopReported[id] = struct{}{}
			cs.report(ilerr.New(ilerr.NewDerivationLoop{Param: n.param.Name}))
		}
		return nil, false
	}
	n.deriving = true
	defer func() { n.deriving = false }()

	var value types.Type
	switch {
	case n.assigned != nil:
		value = cs.substituteDerived(n.assigned)
	case n.variance == types.In:
		value = cs.maximalSolution(id)
	default:
		value = cs.minimalSolution(id)
	}
	n.value, n.derived = value, true
	cs.logger.Debug("derived value", "param", n.param.Name, "value", value)
	return value, value != nil
}

// minimalSolution is the least common supertype of the known lower bounds,
// or else the intersection of the known upper bounds
func (cs *ConstraintSystem) minimalSolution(id NodeID) types.Type {
	if lowers := cs.reachableValues(id, lowerBoundsOf); len(lowers) > 0 {
		return cs.checker.CommonSupertype(lowers)
	}
	if uppers := cs.reachableValues(id, upperBoundsOf); len(uppers) > 0 {
		return cs.checker.Intersect(uppers)
	}
	return nil
}

// maximalSolution is the intersection of the known upper bounds, or else
// the least common supertype of the known lower bounds
func (cs *ConstraintSystem) maximalSolution(id NodeID) types.Type {
	if uppers := cs.reachableValues(id, upperBoundsOf); len(uppers) > 0 {
		return cs.checker.Intersect(uppers)
	}
	if lowers := cs.reachableValues(id, lowerBoundsOf); len(lowers) > 0 {
		return cs.checker.CommonSupertype(lowers)
	}
	return nil
}

func lowerBoundsOf(v *typeValue) *set.TreeSet[NodeID] { return v.lowerBounds }
func upperBoundsOf(v *typeValue) *set.TreeSet[NodeID] { return v.upperBounds }

// reachableValues walks bounds through unknown nodes, and collects the
// derived values of the known nodes (and assigned unknowns) it reaches
func (cs *ConstraintSystem) reachableValues(from NodeID, bounds func(*typeValue) *set.TreeSet[NodeID]) []types.Type {
	visited := set.New[NodeID](0)
	visited.Insert(from)
	var reached []NodeID
	stack := &util.Stack[NodeID]{}
	stack.Push(from)
	for current, ok := stack.Pop(); ok; current, ok = stack.Pop() {
		for _, b := range bounds(cs.node(current)).Slice() {
			b = cs.find(b)
			if !visited.Insert(b) {
				continue
			}
			n := cs.nodes[b]
			if n.kind == known || n.assigned != nil {
				reached = append(reached, b)
			}
			if n.kind == unknown {
				stack.Push(b)
			}
		}
	}
	slices.Sort(reached)

	values := make([]types.Type, 0, len(reached))
	for _, b := range reached {
		if v, ok := cs.derive(b); ok {
			values = append(values, v)
		}
	}
	return values
}

// substituteDerived replaces registered parameters inside t with their
// derived values. Unconstrained parameters are left in place
func (cs *ConstraintSystem) substituteDerived(t types.Type) types.Type {
	return cs.checker.Substitute(t, func(c types.Constructor) (types.Projection, bool) {
		param, ok := c.(*types.TypeParameter)
		if !ok {
			return types.Projection{}, false
		}
		id, ok := cs.unknownByParam[param]
		if !ok {
			return types.Projection{}, false
		}
		value, ok := cs.derive(id)
		if !ok {
			return types.Projection{}, true
		}
		return types.Projection{Kind: types.Invariant, Type: value}, true
	})
}

// verify checks every edge of the graph against the derived values, and
// records every violation rather than stopping at the first one
func (cs *ConstraintSystem) verify() {
	seen := set.New[edge](0)
	for i := range cs.nodes {
		id := NodeID(i)
		if cs.find(id) != id {
			continue
		}
		n := cs.nodes[id]
		for _, ub := range n.upperBounds.Slice() {
			cs.verifyEdge(id, ub, seen)
		}
		for _, lb := range n.lowerBounds.Slice() {
			cs.verifyEdge(lb, id, seen)
		}
	}
}

func (cs *ConstraintSystem) verifyEdge(sub, sup NodeID, seen *set.Set[edge]) {
	sub, sup = cs.find(sub), cs.find(sup)
	if sub == sup || !seen.Insert(edge{sub, sup}) {
		return
	}
	subValue, ok := cs.derive(sub)
	if !ok {
		return
	}
	supValue, ok := cs.derive(sup)
	if !ok {
		return
	}
	if cs.checker.IsSubtype(subValue, supValue) {
		return
	}
	cs.report(ilerr.New(ilerr.NewBoundViolation{
		Sub:     subValue,
		Super:   supValue,
		Subject: cs.describe(sub) + " <: " + cs.describe(sup),
	}))
}
