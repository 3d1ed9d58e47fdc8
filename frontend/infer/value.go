package infer

import (
	"cmp"
	"github.com/cottand/tyinfer/frontend/types"
	set "github.com/hashicorp/go-set/v3"
)

// NodeID is the handle of a TypeValue inside the arena of one ConstraintSystem
type NodeID int

type valueKind uint8

const (
	// known nodes wrap one concrete (possibly parameterized) type
	known valueKind = iota
	// unknown nodes stand for a registered type parameter being inferred
	unknown
)

func (k valueKind) String() string {
	if k == known {
		return "known"
	}
	return "unknown"
}

// typeValue is a node of the constraint graph.
// Bound sets only ever hold canonical ids, and are kept symmetric:
// b in a.upperBounds iff a in b.lowerBounds
type typeValue struct {
	kind                     valueKind
	upperBounds, lowerBounds *set.TreeSet[NodeID]

	// typ is set for known nodes only
	typ types.Type

	// the fields below are meaningful for unknown nodes only

	param    *types.TypeParameter
	variance types.Variance
	// assigned is written once, by an equality with a known type
	assigned types.Type
	// forward is the node this one was merged into, or the node itself
	forward NodeID
	// deriving guards against re-entrant derivation of the same value
	deriving bool
	derived  bool
	// value is memoized by derivation, and nil when unconstrained
	value types.Type
}

func newBoundSet() *set.TreeSet[NodeID] {
	return set.NewTreeSet[NodeID](cmp.Compare[NodeID])
}

func newKnown(id NodeID, t types.Type) *typeValue {
	return &typeValue{
		kind:        known,
		typ:         t,
		forward:     id,
		upperBounds: newBoundSet(),
		lowerBounds: newBoundSet(),
	}
}

func newUnknown(id NodeID, param *types.TypeParameter, variance types.Variance) *typeValue {
	return &typeValue{
		kind:        unknown,
		param:       param,
		variance:    variance,
		forward:     id,
		upperBounds: newBoundSet(),
		lowerBounds: newBoundSet(),
	}
}

func (v *typeValue) String() string {
	if v.kind == known {
		return v.typ.String()
	}
	return v.param.Name
}
