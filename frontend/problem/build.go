package problem

import (
	"github.com/cottand/tyinfer/frontend/types"
	"github.com/cottand/tyinfer/util"
	set "github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
	"slices"
)

type ConstraintKind uint8

const (
	Subtype ConstraintKind = iota
	Equal
)

func (k ConstraintKind) String() string {
	if k == Equal {
		return "="
	}
	return "<:"
}

// Constraint is a resolved constraint of a Problem
type Constraint struct {
	Kind        ConstraintKind
	Left, Right types.Type
}

func (c Constraint) String() string {
	return c.Left.String() + " " + c.Kind.String() + " " + c.Right.String()
}

// Variable is a type parameter to infer, and the variance of the
// position it occurs at
type Variable struct {
	Param    *types.TypeParameter
	Position types.Variance
}

// Problem is a resolved problem file: a class hierarchy, the variables
// to infer and the constraints between them
type Problem struct {
	Universe    *types.Universe
	Checker     *types.Checker
	Variables   []Variable
	Constraints []Constraint

	// scope resolves names in constraints: variables shadow classes
	scope *scope
}

// scope maps names to the type parameters visible in one declaration.
// Names that are not parameters are looked up as classes
type scope struct {
	u      *types.Universe
	params map[string]*types.TypeParameter
	parent *scope
}

func (s *scope) child() *scope {
	return &scope{u: s.u, params: make(map[string]*types.TypeParameter), parent: s}
}

func (s *scope) param(name string) (*types.TypeParameter, bool) {
	for current := s; current != nil; current = current.parent {
		if p, ok := current.params[name]; ok {
			return p, true
		}
	}
	return nil, false
}

func (s *scope) resolve(e *typeExpr, c *types.Checker) (types.Type, error) {
	if len(e.members) > 0 {
		members := make([]types.Type, 0, len(e.members))
		for _, m := range e.members {
			t, err := s.resolve(m, c)
			if err != nil {
				return nil, err
			}
			members = append(members, t)
		}
		inter := c.Intersect(members)
		return types.MakeNullable(inter, inter.Nullable() || e.nullable), nil
	}

	if p, ok := s.param(e.name); ok {
		if len(e.args) > 0 {
			return nil, errors.Errorf("type parameter %s cannot take type arguments", e.name)
		}
		return types.MakeNullable(p.Type(), e.nullable), nil
	}
	def, ok := s.u.Class(e.name)
	if !ok {
		return nil, errors.Errorf("unknown type %s", e.name)
	}
	if len(e.args) != len(def.Params) {
		return nil, errors.Errorf("%s expects %d type arguments, but got %d", def.Name, len(def.Params), len(e.args))
	}
	args := make([]types.Type, 0, len(e.args))
	for _, a := range e.args {
		t, err := s.resolve(a, c)
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	return types.MakeNullable(def.Type(args...), e.nullable), nil
}

func (s *scope) parse(src string, c *types.Checker) (types.Type, error) {
	e, err := parseTypeExpr(src)
	if err != nil {
		return nil, err
	}
	t, err := s.resolve(e, c)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", e)
	}
	return t, nil
}

func (s *scope) declare(u *types.Universe, decls []ParamDecl) ([]*types.TypeParameter, error) {
	params := make([]*types.TypeParameter, 0, len(decls))
	for _, decl := range decls {
		if decl.Name == "" {
			return nil, errors.New("type parameter without a name")
		}
		if _, ok := s.params[decl.Name]; ok {
			return nil, errors.Errorf("type parameter %s is declared twice", decl.Name)
		}
		variance, err := types.ParseVariance(decl.Variance)
		if err != nil {
			return nil, errors.Wrapf(err, "type parameter %s", decl.Name)
		}
		p := u.NewTypeParameter(decl.Name, variance)
		s.params[decl.Name] = p
		params = append(params, p)
	}
	return params, nil
}

// bind resolves declared bounds once every parameter of the scope exists,
// so that bounds can mention them
func (s *scope) bind(params []*types.TypeParameter, decls []ParamDecl, c *types.Checker) error {
	for i, decl := range decls {
		bounds := make([]types.Type, 0, len(decl.Bounds))
		for _, src := range decl.Bounds {
			b, err := s.parse(src, c)
			if err != nil {
				return errors.Wrapf(err, "bound of %s", decl.Name)
			}
			bounds = append(bounds, b)
		}
		params[i].SetUpperBounds(bounds...)
	}
	return nil
}

// Build resolves every name of f and builds its class hierarchy.
// Classes may refer to each other regardless of declaration order
func Build(f *File) (*Problem, error) {
	u := types.NewUniverse()
	c := types.NewChecker(u)
	root := &scope{u: u}

	builtins := util.SetFromSeq(util.MapIter(slices.Values(u.Classes()), func(def *types.ClassDef) string {
		return def.Name
	}), 2)

	type pending struct {
		decl   ClassDecl
		def    *types.ClassDef
		scope  *scope
		params []*types.TypeParameter
	}
	classes := make([]pending, 0, len(f.Classes))
	for _, decl := range f.Classes {
		if decl.Name == "" {
			return nil, errors.New("class without a name")
		}
		if builtins.Contains(decl.Name) {
			return nil, errors.Errorf("class %s is built in and cannot be redeclared", decl.Name)
		}
		if _, ok := u.Class(decl.Name); ok {
			return nil, errors.Errorf("class %s is declared twice", decl.Name)
		}
		s := root.child()
		params, err := s.declare(u, decl.Params)
		if err != nil {
			return nil, errors.Wrapf(err, "class %s", decl.Name)
		}
		def := u.NewClass(decl.Name, params...)
		def.Final = decl.Final
		classes = append(classes, pending{decl: decl, def: def, scope: s, params: params})
	}

	for _, cl := range classes {
		if err := cl.scope.bind(cl.params, cl.decl.Params, c); err != nil {
			return nil, errors.Wrapf(err, "class %s", cl.decl.Name)
		}
		for _, src := range cl.decl.Supertypes {
			st, err := cl.scope.parse(src, c)
			if err != nil {
				return nil, errors.Wrapf(err, "supertype of %s", cl.decl.Name)
			}
			ct, ok := st.(*types.ClassType)
			if !ok || ct.IsNullable {
				return nil, errors.Errorf("supertype %s of %s must be a non-null class type", st, cl.decl.Name)
			}
			if ct.Def == cl.def {
				return nil, errors.Errorf("class %s cannot extend itself", cl.decl.Name)
			}
			cl.def.AddSupertype(ct)
		}
	}
	if err := checkAcyclic(u); err != nil {
		return nil, err
	}

	vars := root.child()
	params, err := vars.declare(u, f.Variables)
	if err != nil {
		return nil, errors.Wrap(err, "variables")
	}
	if err := vars.bind(params, f.Variables, c); err != nil {
		return nil, errors.Wrap(err, "variables")
	}
	p := &Problem{Universe: u, Checker: c, scope: vars}
	for _, param := range params {
		// a variable's variance names the position it occurs at
		p.Variables = append(p.Variables, Variable{Param: param, Position: param.Variance})
		logger.Debug("declared variable", "param", param, "position", param.Variance)
	}

	for i, decl := range f.Constraints {
		constraint, err := p.constraint(decl)
		if err != nil {
			return nil, errors.Wrapf(err, "constraint %d", i+1)
		}
		p.Constraints = append(p.Constraints, constraint)
	}
	return p, nil
}

func (p *Problem) constraint(decl ConstraintDecl) (Constraint, error) {
	hasSubtype := decl.Sub != "" || decl.Sup != ""
	switch {
	case hasSubtype && len(decl.Equal) > 0:
		return Constraint{}, errors.New("a constraint is either sub/sup or equal, not both")
	case len(decl.Equal) > 0:
		if len(decl.Equal) != 2 {
			return Constraint{}, errors.Errorf("equal takes exactly 2 types, got %d", len(decl.Equal))
		}
		return p.resolveConstraint(Equal, decl.Equal[0], decl.Equal[1])
	case decl.Sub == "" || decl.Sup == "":
		return Constraint{}, errors.New("a subtyping constraint needs both sub and sup")
	}
	return p.resolveConstraint(Subtype, decl.Sub, decl.Sup)
}

func (p *Problem) resolveConstraint(kind ConstraintKind, left, right string) (Constraint, error) {
	l, err := p.ParseType(left)
	if err != nil {
		return Constraint{}, err
	}
	r, err := p.ParseType(right)
	if err != nil {
		return Constraint{}, err
	}
	return Constraint{Kind: kind, Left: l, Right: r}, nil
}

// ParseType parses a type expression in the scope of the problem's
// variables and classes
func (p *Problem) ParseType(src string) (types.Type, error) {
	return p.scope.parse(src, p.Checker)
}

// checkAcyclic rejects hierarchies where a class is its own supertype
func checkAcyclic(u *types.Universe) error {
	done := set.New[*types.ClassDef](0)
	onPath := set.New[*types.ClassDef](0)
	var visit func(def *types.ClassDef) error
	visit = func(def *types.ClassDef) error {
		if done.Contains(def) {
			return nil
		}
		if !onPath.Insert(def) {
			return errors.Errorf("class %s is its own supertype", def.Name)
		}
		for _, st := range def.Supertypes() {
			if err := visit(st.Def); err != nil {
				return err
			}
		}
		onPath.Remove(def)
		done.Insert(def)
		return nil
	}
	for _, def := range u.Classes() {
		if err := visit(def); err != nil {
			return err
		}
	}
	return nil
}
