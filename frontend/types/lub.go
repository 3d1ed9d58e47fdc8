package types

import (
	"cmp"
	xset "github.com/xtgo/set"
	"slices"
)

// idSlice is a sorted set of constructor ids, as xtgo/set operates on
type idSlice []uint64

func (s idSlice) Len() int           { return len(s) }
func (s idSlice) Less(i, j int) bool { return s[i] < s[j] }
func (s idSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

func interIDs(a, b idSlice) idSlice {
	data := make(idSlice, 0, len(a)+len(b))
	data = append(data, a...)
	data = append(data, b...)
	size := xset.Inter(data, len(a))
	return data[:size]
}

// roots are the class types a type stands for when looking for supertypes:
// a parameter stands for its bounds, an intersection for its members
func (c *Checker) roots(t Type, seen map[*TypeParameter]struct{}) []*ClassType {
	switch t := t.(type) {
	case *ClassType:
		return []*ClassType{MakeNotNull(t).(*ClassType)}
	case *IntersectionType:
		var res []*ClassType
		for _, m := range t.Members {
			res = append(res, c.roots(m, seen)...)
		}
		return res
	case *ParamType:
		if _, ok := seen[t.Param]; ok {
			return nil
		}
		seen[t.Param] = struct{}{}
		var res []*ClassType
		for _, bound := range t.Param.upperBounds {
			res = append(res, c.roots(bound, seen)...)
		}
		if len(res) == 0 {
			return []*ClassType{c.u.Any.Type()}
		}
		return res
	}
	return nil
}

// superDefs collects def and all of its transitive supertype constructors
func (c *Checker) superDefs(def *ClassDef, into map[uint64]*ClassDef) {
	if _, ok := into[def.id]; ok {
		return
	}
	into[def.id] = def
	for _, st := range c.u.directSupertypes(def) {
		c.superDefs(st.Def, into)
	}
}

// isStrictSuperDef reports whether sup is a proper supertype constructor of sub
func (c *Checker) isStrictSuperDef(sup, sub *ClassDef) bool {
	if sup == sub {
		return false
	}
	defs := make(map[uint64]*ClassDef)
	c.superDefs(sub, defs)
	_, ok := defs[sup.id]
	return ok
}

// CommonSupertype computes the least common supertype of types.
// When several unrelated constructors are equally specific, the result is
// their intersection
func (c *Checker) CommonSupertype(types []Type) Type {
	if len(types) == 0 {
		return c.u.NothingType(false)
	}
	if !c.enter() {
		logger.Warn("common supertype exceeded max depth limit", "types", types)
		c.exit()
		return c.u.AnyType(true)
	}
	defer c.exit()

	nullable := false
	var candidates []Type
	for _, t := range types {
		nullable = nullable || t.Nullable()
		t = MakeNotNull(t)
		if c.u.IsNothing(t) {
			continue
		}
		if !slices.ContainsFunc(candidates, func(other Type) bool { return c.Equal(t, other) }) {
			candidates = append(candidates, t)
		}
	}
	switch len(candidates) {
	case 0:
		return c.u.NothingType(nullable)
	case 1:
		return MakeNullable(candidates[0], nullable)
	}
	// a type that is a supertype of all others is the answer already
	for _, t := range candidates {
		if !slices.ContainsFunc(candidates, func(other Type) bool { return !c.IsSubtype(other, t) }) {
			return MakeNullable(t, nullable)
		}
	}

	rootsOf := make([][]*ClassType, len(candidates))
	var common idSlice
	defsByID := make(map[uint64]*ClassDef)
	for i, t := range candidates {
		rootsOf[i] = c.roots(t, make(map[*TypeParameter]struct{}))
		defs := make(map[uint64]*ClassDef)
		for _, root := range rootsOf[i] {
			c.superDefs(root.Def, defs)
		}
		ids := make(idSlice, 0, len(defs))
		for id, def := range defs {
			ids = append(ids, id)
			defsByID[id] = def
		}
		slices.Sort(ids)
		if i == 0 {
			common = ids
		} else {
			common = interIDs(common, ids)
		}
	}

	var results []Type
	var resultDefs []*ClassDef
	done := make(map[uint64]struct{})
	worklist := c.mostSpecific(common, defsByID)
	for len(worklist) > 0 {
		def := worklist[0]
		worklist = worklist[1:]
		if _, ok := done[def.id]; ok {
			continue
		}
		done[def.id] = struct{}{}
		if slices.ContainsFunc(resultDefs, func(found *ClassDef) bool { return c.isStrictSuperDef(def, found) }) {
			continue
		}
		if t := c.commonInstance(def, rootsOf); t != nil {
			results = append(results, t)
			resultDefs = append(resultDefs, def)
			continue
		}
		// the type arguments do not agree: try the supertypes of def instead
		for _, st := range c.u.directSupertypes(def) {
			worklist = append(worklist, st.Def)
		}
	}
	switch len(results) {
	case 0:
		return c.u.AnyType(nullable)
	case 1:
		return MakeNullable(results[0], nullable)
	}
	return MakeNullable(c.Intersect(results), nullable)
}

// mostSpecific keeps the constructors of ids that are not strict supertypes
// of another constructor in ids, ordered by id
func (c *Checker) mostSpecific(ids idSlice, defsByID map[uint64]*ClassDef) []*ClassDef {
	var res []*ClassDef
	for _, id := range ids {
		def := defsByID[id]
		dominated := slices.ContainsFunc(ids, func(other uint64) bool {
			return c.isStrictSuperDef(def, defsByID[other])
		})
		if !dominated {
			res = append(res, def)
		}
	}
	slices.SortFunc(res, func(a, b *ClassDef) int { return cmp.Compare(a.id, b.id) })
	return res
}

// commonInstance builds def applied to type arguments common to every
// candidate, or returns nil when an invariant argument differs
func (c *Checker) commonInstance(def *ClassDef, rootsOf [][]*ClassType) Type {
	instances := make([]*ClassType, 0, len(rootsOf))
	for _, roots := range rootsOf {
		var found *ClassType
		for _, root := range roots {
			if found = c.CorrespondingSupertype(root, def); found != nil {
				break
			}
		}
		if found == nil {
			return nil
		}
		instances = append(instances, found)
	}
	args := make([]Type, len(def.Params))
	for i, param := range def.Params {
		argsAt := make([]Type, len(instances))
		allEqual := true
		for j, inst := range instances {
			argsAt[j] = inst.Args[i]
			allEqual = allEqual && c.Equal(argsAt[0], argsAt[j])
		}
		switch {
		case allEqual:
			args[i] = argsAt[0]
		case param.Variance == Out:
			args[i] = c.CommonSupertype(argsAt)
		case param.Variance == In:
			args[i] = c.Intersect(argsAt)
		default:
			return nil
		}
	}
	return def.Type(args...)
}

// Intersect builds the intersection of types, dropping members that are
// supertypes of other members. The intersection of no types is Any?
func (c *Checker) Intersect(types []Type) Type {
	if len(types) == 0 {
		return c.u.AnyType(true)
	}
	if len(types) == 1 {
		return types[0]
	}

	// the intersection of T1..Tn is the intersection of their non-null
	// versions, made nullable if they all were nullable
	allNullable := true
	nothingPresent := false
	var stripped []Type
	for _, t := range types {
		allNullable = allNullable && t.Nullable()
		t = MakeNotNull(t)
		nothingPresent = nothingPresent || c.u.IsNothing(t)
		if inter, ok := t.(*IntersectionType); ok {
			stripped = append(stripped, inter.Members...)
			continue
		}
		stripped = append(stripped, t)
	}
	if nothingPresent {
		return c.u.NothingType(allNullable)
	}

	var result []Type
outer:
	for _, t := range stripped {
		if class, ok := t.(*ClassType); ok && class.Def.Final {
			for _, other := range stripped {
				if !c.IsSubtype(t, other) && !c.IsSubtype(other, t) {
					return c.u.NothingType(allNullable)
				}
			}
		}
		for _, other := range stripped {
			if !c.Equal(t, other) && c.IsSubtype(other, t) && !c.IsSubtype(t, other) {
				continue outer
			}
		}
		for _, other := range result {
			if c.Equal(other, t) {
				continue outer
			}
		}
		result = append(result, t)
	}

	switch len(result) {
	case 0:
		return MakeNullable(stripped[0], allNullable)
	case 1:
		return MakeNullable(result[0], allNullable)
	}
	slices.SortFunc(result, func(a, b Type) int { return cmp.Compare(a.Key(), b.Key()) })
	return &IntersectionType{Members: result, IsNullable: allNullable}
}
