package infer

import (
	"github.com/cottand/tyinfer/frontend/ilerr"
	"github.com/cottand/tyinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestResolveIsStable(t *testing.T) {
	h := newTestHierarchy()
	cs := New(h.c)
	tParam := h.param("T")
	tID := cs.RegisterTypeVariable(tParam, types.Out)

	first := cs.Resolve(h.List(h.Int()))
	// a structurally equal but distinct instance
	second := cs.Resolve(h.list.Type(h.int_.Type()))
	assert.Equal(t, first, second)
	assert.False(t, cs.IsUnknown(first))

	assert.Equal(t, tID, cs.Resolve(tParam.Type()))
	assert.True(t, cs.IsUnknown(tID))

	nullableT := cs.Resolve(nullable(tParam.Type()))
	assert.NotEqual(t, tID, nullableT)
	assert.False(t, cs.IsUnknown(nullableT), "a nullable occurrence of a variable is a known type")

	unregistered := cs.Resolve(h.param("U").Type())
	assert.False(t, cs.IsUnknown(unregistered))
}

func TestSubtypingConstraintIsSymmetric(t *testing.T) {
	h := newTestHierarchy()
	cs := New(h.c)
	tParam := h.param("T")
	cs.RegisterTypeVariable(tParam, types.Out)

	cs.AddSubtypingConstraint(h.Int(), tParam.Type())
	cs.AddSubtypingConstraint(tParam.Type(), h.Number())

	tID, intID, numberID := cs.Resolve(tParam.Type()), cs.Resolve(h.Int()), cs.Resolve(h.Number())
	assert.Equal(t, []NodeID{numberID}, cs.UpperBounds(tID))
	assert.Equal(t, []NodeID{intID}, cs.LowerBounds(tID))
	assert.Equal(t, []NodeID{tID}, cs.UpperBounds(intID))
	assert.Equal(t, []NodeID{tID}, cs.LowerBounds(numberID))
}

func TestConstraintBetweenSameNodeIsNoop(t *testing.T) {
	h := newTestHierarchy()
	cs := New(h.c)
	cs.AddSubtypingConstraint(h.Int(), h.int_.Type())

	id := cs.Resolve(h.Int())
	assert.Empty(t, cs.UpperBounds(id))
	assert.Empty(t, cs.LowerBounds(id))
	assert.Equal(t, 1, cs.NodeCount())
}

func TestContractViolationsPanic(t *testing.T) {
	h := newTestHierarchy()

	t.Run("duplicate registration", func(t *testing.T) {
		cs := New(h.c)
		tParam := h.param("T")
		cs.RegisterTypeVariable(tParam, types.Out)
		assert.Panics(t, func() { cs.RegisterTypeVariable(tParam, types.In) })
	})
	t.Run("unregistered parameter", func(t *testing.T) {
		cs := New(h.c)
		assert.Panics(t, func() { cs.UnknownOf(h.param("T")) })
	})
	t.Run("solving twice", func(t *testing.T) {
		cs := New(h.c)
		cs.Solve()
		assert.Panics(t, func() { cs.Solve() })
	})
	t.Run("foreign node", func(t *testing.T) {
		cs := New(h.c)
		assert.Panics(t, func() { cs.UpperBounds(NodeID(42)) })
	})
}

func TestMutualBoundsBetweenUnknownsMerge(t *testing.T) {
	h := newTestHierarchy()
	cs := New(h.c)
	x, y := h.param("X"), h.param("Y")
	xID := cs.RegisterTypeVariable(x, types.Out)
	yID := cs.RegisterTypeVariable(y, types.Out)

	cs.AddSubtypingConstraint(x.Type(), y.Type())
	cs.AddSubtypingConstraint(y.Type(), x.Type())

	assert.Equal(t, 2, cs.NodeCount())
	assert.Equal(t, cs.Canonical(xID), cs.Canonical(yID))
	assert.Empty(t, cs.UpperBounds(xID))
	assert.Empty(t, cs.LowerBounds(yID))
}

func TestMergeMovesBounds(t *testing.T) {
	h := newTestHierarchy()
	cs := New(h.c)
	x, y := h.param("X"), h.param("Y")
	xID := cs.RegisterTypeVariable(x, types.Out)
	yID := cs.RegisterTypeVariable(y, types.Out)
	cs.AddSubtypingConstraint(y.Type(), h.Number())
	cs.AddSubtypingConstraint(h.Int(), y.Type())

	cs.AddEqualityConstraint(x.Type(), y.Type())

	numberID, intID := cs.Resolve(h.Number()), cs.Resolve(h.Int())
	assert.Equal(t, xID, cs.Canonical(yID))
	assert.Equal(t, []NodeID{numberID}, cs.UpperBounds(xID))
	assert.Equal(t, []NodeID{intID}, cs.LowerBounds(xID))
	assert.Equal(t, []NodeID{xID}, cs.LowerBounds(numberID))
	assert.Equal(t, []NodeID{xID}, cs.UpperBounds(intID))
	assert.Equal(t, xID, cs.Resolve(y.Type()))
}

func TestMergeKeepsCanonicalVariance(t *testing.T) {
	h := newTestHierarchy()
	tests := []struct {
		name     string
		inFirst  bool
		expected string
	}{
		{"in registered first derives maximal", true, "Number"},
		{"out registered first derives minimal", false, "Int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := New(h.c)
			x, y := h.param("X"), h.param("Y")
			if tt.inFirst {
				cs.RegisterTypeVariable(x, types.In)
				cs.RegisterTypeVariable(y, types.Out)
			} else {
				cs.RegisterTypeVariable(y, types.Out)
				cs.RegisterTypeVariable(x, types.In)
			}
			cs.AddSubtypingConstraint(x.Type(), h.Number())
			cs.AddSubtypingConstraint(h.Int(), y.Type())
			cs.AddEqualityConstraint(x.Type(), y.Type())

			sol := cs.Solve()
			require.True(t, sol.IsSuccessful(), sol.Message())
			assert.Equal(t, tt.expected, valueOf(t, sol, x))
			assert.Equal(t, tt.expected, valueOf(t, sol, y))
		})
	}
}

func TestMergeCarriesAssignedValue(t *testing.T) {
	h := newTestHierarchy()

	t.Run("compatible", func(t *testing.T) {
		cs := New(h.c)
		x, y := h.param("X"), h.param("Y")
		cs.RegisterTypeVariable(x, types.Out)
		cs.RegisterTypeVariable(y, types.Out)
		cs.AddEqualityConstraint(y.Type(), h.Int())
		cs.AddEqualityConstraint(x.Type(), y.Type())

		assigned, ok := cs.Assigned(cs.UnknownOf(x))
		require.True(t, ok)
		assert.Equal(t, "Int", assigned.String())
		assert.Empty(t, cs.Errors())
	})
	t.Run("conflicting", func(t *testing.T) {
		cs := New(h.c)
		x, y := h.param("X"), h.param("Y")
		cs.RegisterTypeVariable(x, types.Out)
		cs.RegisterTypeVariable(y, types.Out)
		cs.AddEqualityConstraint(x.Type(), h.Int())
		cs.AddEqualityConstraint(y.Type(), h.String())
		cs.AddEqualityConstraint(x.Type(), y.Type())

		require.Len(t, cs.Errors(), 1)
		assert.Equal(t, ilerr.ConflictingAssignment, cs.Errors()[0].Code())
	})
}

func TestMutualBoundsWithKnownAssign(t *testing.T) {
	h := newTestHierarchy()
	cs := New(h.c)
	tParam := h.param("T")
	tID := cs.RegisterTypeVariable(tParam, types.Out)

	cs.AddSubtypingConstraint(tParam.Type(), h.Int())
	cs.AddSubtypingConstraint(h.Int(), tParam.Type())

	assigned, ok := cs.Assigned(tID)
	require.True(t, ok)
	assert.Equal(t, "Int", assigned.String())
}

func TestEqualityOfKnownTypesDecomposes(t *testing.T) {
	h := newTestHierarchy()

	t.Run("arguments are equated", func(t *testing.T) {
		cs := New(h.c)
		tParam := h.param("T")
		tID := cs.RegisterTypeVariable(tParam, types.Out)
		cs.AddEqualityConstraint(h.List(tParam.Type()), h.List(h.Int()))

		assigned, ok := cs.Assigned(tID)
		require.True(t, ok)
		assert.Equal(t, "Int", assigned.String())
	})
	t.Run("mismatching arguments", func(t *testing.T) {
		cs := New(h.c)
		cs.AddEqualityConstraint(h.List(h.Int()), h.List(h.String()))

		require.Len(t, cs.Errors(), 1)
		assert.Equal(t, ilerr.EqualityMismatch, cs.Errors()[0].Code())
	})
}

func TestAssignmentIsWriteOnce(t *testing.T) {
	h := newTestHierarchy()
	cs := New(h.c)
	tParam := h.param("T")
	tID := cs.RegisterTypeVariable(tParam, types.Out)

	cs.AddEqualityConstraint(tParam.Type(), h.Int())
	cs.AddEqualityConstraint(tParam.Type(), h.int_.Type())
	assert.Empty(t, cs.Errors(), "assigning an equal type again is fine")

	cs.AddEqualityConstraint(tParam.Type(), h.String())
	require.Len(t, cs.Errors(), 1)
	assert.Equal(t, ilerr.ConflictingAssignment, cs.Errors()[0].Code())

	assigned, _ := cs.Assigned(tID)
	assert.Equal(t, "Int", assigned.String(), "the first assignment is kept")
}

func TestExpansionHooks(t *testing.T) {
	h := newTestHierarchy()
	cs := New(h.c)
	tParam := h.param("T")
	tID := cs.RegisterTypeVariable(tParam, types.Out)

	assert.False(t, cs.hooks.NoCorrespondingSupertype(h.Int(), h.String()))
	assert.Equal(t, 1, cs.NodeCount(), "known-only checks do not create nodes")

	assert.True(t, cs.hooks.NoCorrespondingSupertype(h.Int(), tParam.Type()))
	assert.Equal(t, []NodeID{cs.Resolve(h.Int())}, cs.LowerBounds(tID))

	assert.True(t, cs.hooks.AssertSubtype(tParam.Type(), h.Number(), h.c))
	assert.Equal(t, []NodeID{cs.Resolve(h.Number())}, cs.UpperBounds(tID))

	assert.True(t, cs.hooks.AssertSubtype(h.Int(), h.Number(), h.c))
	assert.False(t, cs.hooks.AssertSubtype(h.String(), h.Number(), h.c))
}
