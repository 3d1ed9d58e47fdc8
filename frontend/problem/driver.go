package problem

import (
	"github.com/cottand/tyinfer/frontend/infer"
	"github.com/cottand/tyinfer/frontend/types"
	"github.com/cottand/tyinfer/util"
	"github.com/pkg/errors"
)

// System registers every variable of p and adds every constraint to a new
// ConstraintSystem, which is left unsolved
func (p *Problem) System(opts ...infer.Option) *infer.ConstraintSystem {
	cs := infer.New(p.Checker, opts...)
	for _, v := range p.Variables {
		cs.RegisterTypeVariable(v.Param, v.Position)
	}
	for _, c := range p.Constraints {
		switch c.Kind {
		case Subtype:
			cs.AddSubtypingConstraint(c.Left, c.Right)
		case Equal:
			cs.AddEqualityConstraint(c.Left, c.Right)
		}
	}
	return cs
}

func (p *Problem) Solve(opts ...infer.Option) *infer.Solution {
	sol := p.System(opts...).Solve()
	logger.Debug("solved problem", "status", sol.Status(), "variables", len(p.Variables))
	return sol
}

// Check runs the plain subtype test between two type expressions
func (p *Problem) Check(sub, sup string) (bool, error) {
	subT, err := p.ParseType(sub)
	if err != nil {
		return false, errors.Wrap(err, "subtype")
	}
	supT, err := p.ParseType(sup)
	if err != nil {
		return false, errors.Wrap(err, "supertype")
	}
	return p.Checker.IsSubtype(subT, supT), nil
}

// Binding is the inferred argument of one variable, nil when the
// variable was left unconstrained
type Binding = util.Pair[*types.TypeParameter, types.Type]

// Bindings lists the inferred arguments of every variable of p, in
// declaration order
func (p *Problem) Bindings(sol *infer.Solution) []Binding {
	subst := sol.Substitution()
	res := make([]Binding, 0, len(p.Variables))
	for _, v := range p.Variables {
		value, _ := subst.Value(v.Param)
		res = append(res, util.NewPair(v.Param, value))
	}
	return res
}
