package infer

import (
	"github.com/cottand/tyinfer/frontend/ilerr"
	"github.com/cottand/tyinfer/frontend/types"
	"github.com/cottand/tyinfer/internal/log"
	"github.com/pkg/errors"
	"log/slog"
)

var logger = log.DefaultLogger.With("section", "infer")

// ConstraintSystem infers the type arguments of one call.
//
// Register every type parameter with RegisterTypeVariable, add constraints in
// any order, then call Solve exactly once. A ConstraintSystem is single-use
// and not safe for concurrent use.
type ConstraintSystem struct {
	checker *types.Checker
	hooks   *expansion

	// nodes is the arena every NodeID points into
	nodes          []*typeValue
	knownByKey     map[string]NodeID
	unknownByParam map[*types.TypeParameter]NodeID
	// registered keeps registration order, which is the order of solving
	registered []*types.TypeParameter

	errs         *ilerr.Errors
	loopReported map[NodeID]struct{}
	solved       bool

	logger *slog.Logger
}

type Option func(*ConstraintSystem)

// WithLogger replaces the package logger for this ConstraintSystem
func WithLogger(l *slog.Logger) Option {
	return func(cs *ConstraintSystem) {
		cs.logger = l
	}
}

func New(checker *types.Checker, opts ...Option) *ConstraintSystem {
	cs := &ConstraintSystem{
		checker:        checker,
		knownByKey:     make(map[string]NodeID),
		unknownByParam: make(map[*types.TypeParameter]NodeID),
		loopReported:   make(map[NodeID]struct{}),
		logger:         logger,
	}
	cs.hooks = &expansion{cs: cs}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

func (cs *ConstraintSystem) add(v *typeValue) NodeID {
	cs.nodes = append(cs.nodes, v)
	return NodeID(len(cs.nodes) - 1)
}

// find returns the canonical node id follows merges to
func (cs *ConstraintSystem) find(id NodeID) NodeID {
	root := id
	for cs.nodes[root].forward != root {
		root = cs.nodes[root].forward
	}
	// path compression
	for cs.nodes[id].forward != root {
		next := cs.nodes[id].forward
		cs.nodes[id].forward = root
		id = next
	}
	return root
}

func (cs *ConstraintSystem) node(id NodeID) *typeValue {
	return cs.nodes[cs.find(id)]
}

func (cs *ConstraintSystem) checkValid(id NodeID) {
	if id < 0 || int(id) >= len(cs.nodes) {
		panic(errors.Errorf("node %d does not belong to this constraint system", id))
	}
}

func (cs *ConstraintSystem) describe(id NodeID) string {
	return cs.node(id).String()
}

func (cs *ConstraintSystem) report(err ilerr.InferError) {
	cs.logger.Debug("inference error", "err", ilerr.FormatWithCode(err))
	cs.errs = cs.errs.With(err)
}

// RegisterTypeVariable makes param a variable to infer, whose value is
// derived according to the variance of the position it occurs at.
// Registering the same parameter twice is a programming error and panics
func (cs *ConstraintSystem) RegisterTypeVariable(param *types.TypeParameter, variance types.Variance) NodeID {
	if _, ok := cs.unknownByParam[param]; ok {
		panic(errors.Errorf("type parameter %s is already registered", param.Name))
	}
	if cs.solved {
		panic(errors.Errorf("cannot register %s: constraint system was already solved", param.Name))
	}
	id := NodeID(len(cs.nodes))
	cs.add(newUnknown(id, param, variance))
	cs.unknownByParam[param] = id
	cs.registered = append(cs.registered, param)
	cs.logger.Debug("registered type variable", "param", param.Name, "variance", variance, "node", id)
	return id
}

// unknownFor returns the unknown node t stands for, if any.
// Only occurrences with the declared (non-null) nullability of a registered
// parameter are variables: T? is an ordinary known type
func (cs *ConstraintSystem) unknownFor(t types.Type) (NodeID, bool) {
	pt, ok := t.(*types.ParamType)
	if !ok || pt.IsNullable {
		return 0, false
	}
	id, ok := cs.unknownByParam[pt.Param]
	if !ok {
		return 0, false
	}
	return cs.find(id), true
}

// Resolve returns the node for t, creating it the first time a
// structurally distinct type is seen
func (cs *ConstraintSystem) Resolve(t types.Type) NodeID {
	if id, ok := cs.unknownFor(t); ok {
		return id
	}
	key := t.Key()
	if id, ok := cs.knownByKey[key]; ok {
		return id
	}
	id := NodeID(len(cs.nodes))
	cs.add(newKnown(id, t))
	cs.knownByKey[key] = id
	return id
}

// UnknownOf returns the node of a registered parameter, and panics when
// param was never registered
func (cs *ConstraintSystem) UnknownOf(param *types.TypeParameter) NodeID {
	id, ok := cs.unknownByParam[param]
	if !ok {
		panic(errors.Errorf("type parameter %s is not registered", param.Name))
	}
	return cs.find(id)
}

// AddSubtypingConstraint records sub <: sup
func (cs *ConstraintSystem) AddSubtypingConstraint(sub, sup types.Type) {
	cs.logger.Debug("adding subtyping constraint", "sub", sub, "sup", sup)
	cs.addEdge(cs.Resolve(sub), cs.Resolve(sup))
}

// AddEqualityConstraint records a = b
func (cs *ConstraintSystem) AddEqualityConstraint(a, b types.Type) {
	cs.logger.Debug("adding equality constraint", "a", a, "b", b)
	cs.equate(cs.Resolve(a), cs.Resolve(b))
}

func (cs *ConstraintSystem) addEdge(sub, sup NodeID) {
	sub, sup = cs.find(sub), cs.find(sup)
	if sub == sup {
		return
	}
	cs.addUpperBound(sub, sup)
}

// equate makes a and b equal: two known types must agree structurally,
// a known and an unknown assign the unknown, and two unknowns are merged
func (cs *ConstraintSystem) equate(a, b NodeID) {
	a, b = cs.find(a), cs.find(b)
	if a == b {
		return
	}
	na, nb := cs.nodes[a], cs.nodes[b]
	switch {
	case na.kind == known && nb.kind == known:
		if !cs.checker.CheckEqual(na.typ, nb.typ, cs.hooks) {
			cs.report(ilerr.New(ilerr.NewEqualityMismatch{First: na.typ, Second: nb.typ}))
		}
	case na.kind == known:
		cs.assign(b, na.typ)
	case nb.kind == known:
		cs.assign(a, nb.typ)
	default:
		cs.merge(a, b)
	}
}

// assign sets the value of an unknown. A second assignment must be
// structurally equal to the first (up to other unknowns, which get equated)
func (cs *ConstraintSystem) assign(id NodeID, t types.Type) {
	n := cs.nodes[id]
	if n.assigned == nil {
		cs.logger.Debug("assigning type variable", "param", n.param.Name, "value", t)
		n.assigned = t
		return
	}
	if cs.checker.CheckEqual(n.assigned, t, cs.hooks) {
		return
	}
	cs.report(ilerr.New(ilerr.NewConflictingAssignment{
		Param:    n.param.Name,
		Assigned: n.assigned,
		Rejected: t,
	}))
}

// merge unions two unknowns. The lower id stays canonical, and inherits
// the bounds and the assigned value of the other one
func (cs *ConstraintSystem) merge(a, b NodeID) {
	keep, drop := min(a, b), max(a, b)
	nk, nd := cs.nodes[keep], cs.nodes[drop]
	cs.logger.Debug("merging type variables", "keep", nk.param.Name, "drop", nd.param.Name)
	// the canonical variable's variance decides how the merged one is derived
	if nk.variance != nd.variance {
		cs.logger.Debug("merged variables occur at different positions",
			"keep", nk.param.Name, "variance", nk.variance, "dropped", nd.variance)
	}

	uppers, lowers := nd.upperBounds.Slice(), nd.lowerBounds.Slice()
	for _, ub := range uppers {
		cs.nodes[ub].lowerBounds.Remove(drop)
	}
	for _, lb := range lowers {
		cs.nodes[lb].upperBounds.Remove(drop)
	}
	nd.upperBounds, nd.lowerBounds = newBoundSet(), newBoundSet()
	nd.forward = keep

	if nd.assigned != nil {
		cs.assign(keep, nd.assigned)
	}
	for _, ub := range uppers {
		cs.addUpperBound(keep, ub)
	}
	for _, lb := range lowers {
		cs.addLowerBound(keep, lb)
	}
}

// Errors are the inference failures found so far
func (cs *ConstraintSystem) Errors() []ilerr.InferError {
	return cs.errs.Errors()
}

// NodeCount is the number of nodes ever created, merged ones included
func (cs *ConstraintSystem) NodeCount() int {
	return len(cs.nodes)
}

func (cs *ConstraintSystem) IsUnknown(id NodeID) bool {
	cs.checkValid(id)
	return cs.node(id).kind == unknown
}

// Canonical is the node id stands for after merges
func (cs *ConstraintSystem) Canonical(id NodeID) NodeID {
	cs.checkValid(id)
	return cs.find(id)
}

// TypeOf returns the type a known node wraps
func (cs *ConstraintSystem) TypeOf(id NodeID) (types.Type, bool) {
	cs.checkValid(id)
	n := cs.node(id)
	return n.typ, n.kind == known
}

// Assigned returns the value an unknown node was equated with
func (cs *ConstraintSystem) Assigned(id NodeID) (types.Type, bool) {
	cs.checkValid(id)
	n := cs.node(id)
	return n.assigned, n.assigned != nil
}

func (cs *ConstraintSystem) UpperBounds(id NodeID) []NodeID {
	cs.checkValid(id)
	return cs.node(id).upperBounds.Slice()
}

func (cs *ConstraintSystem) LowerBounds(id NodeID) []NodeID {
	cs.checkValid(id)
	return cs.node(id).lowerBounds.Slice()
}
