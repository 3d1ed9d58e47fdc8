package infer

import (
	"cmp"
	"github.com/benbjohnson/immutable"
	"github.com/cottand/tyinfer/frontend/ilerr"
	"github.com/cottand/tyinfer/frontend/types"
)

type Status uint8

const (
	Success Status = iota
	Error
)

func (s Status) String() string {
	if s == Success {
		return "Success"
	}
	return "Error"
}

// Solution is the immutable outcome of ConstraintSystem.Solve
type Solution struct {
	status       Status
	errs         *ilerr.Errors
	substitution Substitution
}

func (s *Solution) Status() Status     { return s.status }
func (s *Solution) IsSuccessful() bool { return s.status == Success }

// Errors are every failure found, in the order they were found
func (s *Solution) Errors() []ilerr.InferError {
	return s.errs.Errors()
}

// Message renders every error, one per line, or is empty on success
func (s *Solution) Message() string {
	return s.errs.Error()
}

func (s *Solution) Substitution() Substitution {
	return s.substitution
}

type binding struct {
	param *types.TypeParameter
	// value is nil for unconstrained parameters
	value types.Type
}

type paramIDComparer struct{}

func (paramIDComparer) Compare(a, b uint64) int { return cmp.Compare(a, b) }

// Substitution maps the registered type parameters to their inferred type
// arguments, and leaves every other type constructor alone
type Substitution struct {
	checker  *types.Checker
	bindings *immutable.SortedMap[uint64, binding]
}

// Lookup returns the inferred argument of the parameter c names.
// It declines (false) when c is not a registered parameter. The projection
// has a nil Type when the parameter was never constrained
func (s Substitution) Lookup(c types.Constructor) (types.Projection, bool) {
	param, ok := c.(*types.TypeParameter)
	if !ok || s.bindings == nil {
		return types.Projection{}, false
	}
	b, ok := s.bindings.Get(param.ID())
	if !ok || b.param != param {
		return types.Projection{}, false
	}
	return types.Projection{Kind: types.Invariant, Type: b.value}, true
}

// Value is the inferred argument of param, if param was registered and constrained
func (s Substitution) Value(param *types.TypeParameter) (types.Type, bool) {
	proj, ok := s.Lookup(param)
	if !ok || proj.Type == nil {
		return nil, false
	}
	return proj.Type, true
}

// Apply substitutes every constrained registered parameter inside t
func (s Substitution) Apply(t types.Type) types.Type {
	return s.checker.Substitute(t, s.Lookup)
}

// Params are the registered parameters, ordered by id
func (s Substitution) Params() []*types.TypeParameter {
	if s.bindings == nil {
		return nil
	}
	params := make([]*types.TypeParameter, 0, s.bindings.Len())
	itr := s.bindings.Iterator()
	for !itr.Done() {
		_, b, _ := itr.Next()
		params = append(params, b.param)
	}
	return params
}

func (s Substitution) Len() int {
	if s.bindings == nil {
		return 0
	}
	return s.bindings.Len()
}

// solution freezes the current state. Values come from the memoized
// derivation, so none are set when bound expansion failed
func (cs *ConstraintSystem) solution() *Solution {
	bindings := immutable.NewSortedMap[uint64, binding](paramIDComparer{})
	for _, param := range cs.registered {
		var value types.Type
		if n := cs.node(cs.unknownByParam[param]); n.derived {
			value = n.value
		}
		bindings = bindings.Set(param.ID(), binding{param: param, value: value})
	}
	status := Success
	if cs.errs.HasError() {
		status = Error
	}
	return &Solution{
		status: status,
		errs:   new(ilerr.Errors).Merge(cs.errs),
		substitution: Substitution{
			checker:  cs.checker,
			bindings: bindings,
		},
	}
}
