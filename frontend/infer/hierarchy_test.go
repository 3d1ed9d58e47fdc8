package infer

import (
	"github.com/cottand/tyinfer/frontend/ilerr"
	"github.com/cottand/tyinfer/frontend/types"
)

// testHierarchy is a small Kotlin-like class hierarchy shared by the tests
type testHierarchy struct {
	u *types.Universe
	c *types.Checker

	number, int_, double, charSeq, string_ *types.ClassDef
	comparable, list, mutableList          *types.ClassDef
}

func newTestHierarchy() *testHierarchy {
	u := types.NewUniverse()
	h := &testHierarchy{u: u, c: types.NewChecker(u)}

	h.comparable = u.NewClass("Comparable", u.NewTypeParameter("T", types.In))
	listE := u.NewTypeParameter("E", types.Out)
	h.list = u.NewClass("List", listE)
	mutableE := u.NewTypeParameter("E", types.Invariant)
	h.mutableList = u.NewClass("MutableList", mutableE)
	h.mutableList.AddSupertype(h.list.Type(mutableE.Type()))

	h.number = u.NewClass("Number")
	h.int_ = u.NewClass("Int")
	h.int_.Final = true
	h.int_.AddSupertype(h.number.Type())
	h.int_.AddSupertype(h.comparable.Type(h.int_.Type()))
	h.double = u.NewClass("Double")
	h.double.Final = true
	h.double.AddSupertype(h.number.Type())
	h.double.AddSupertype(h.comparable.Type(h.double.Type()))
	h.charSeq = u.NewClass("CharSequence")
	h.string_ = u.NewClass("String")
	h.string_.Final = true
	h.string_.AddSupertype(h.charSeq.Type())
	h.string_.AddSupertype(h.comparable.Type(h.string_.Type()))
	return h
}

func (h *testHierarchy) Int() types.Type    { return h.int_.Type() }
func (h *testHierarchy) String() types.Type { return h.string_.Type() }
func (h *testHierarchy) Number() types.Type { return h.number.Type() }

func (h *testHierarchy) List(arg types.Type) types.Type        { return h.list.Type(arg) }
func (h *testHierarchy) MutableList(arg types.Type) types.Type { return h.mutableList.Type(arg) }

// param declares a function type parameter
func (h *testHierarchy) param(name string, bounds ...types.Type) *types.TypeParameter {
	return h.u.NewTypeParameter(name, types.Invariant, bounds...)
}

func nullable(t types.Type) types.Type { return types.MakeNullable(t, true) }

func codes(sol *Solution) []ilerr.ErrCode {
	var res []ilerr.ErrCode
	for _, err := range sol.Errors() {
		res = append(res, err.Code())
	}
	return res
}
