package problem

import (
	"fmt"
	"github.com/cottand/tyinfer/frontend/ilerr"
	"github.com/cottand/tyinfer/frontend/infer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
)

func load(t *testing.T, name string) *Problem {
	t.Helper()
	f, err := Load(filepath.Join("testdata", name), "")
	require.NoError(t, err)
	p, err := Build(f)
	require.NoError(t, err)
	return p
}

func render(p *Problem, sol *infer.Solution) map[string]string {
	res := make(map[string]string)
	for _, b := range p.Bindings(sol) {
		res[b.Fst.Name] = fmt.Sprint(b.Snd)
	}
	return res
}

func TestSolveProblemFiles(t *testing.T) {
	expected := map[string]string{
		"T": "Comparable<Nothing> & Number",
		"R": "Comparable<Int>",
		"E": "String?",
	}
	for _, name := range []string{"collections.yaml", "collections.toml"} {
		t.Run(name, func(t *testing.T) {
			p := load(t, name)
			assert.Len(t, p.Variables, 3)
			assert.Len(t, p.Constraints, 5)

			sol := p.Solve()
			require.True(t, sol.IsSuccessful(), sol.Message())
			assert.Equal(t, expected, render(p, sol))
		})
	}
}

func TestFormatsAgree(t *testing.T) {
	yamlProblem, tomlProblem := load(t, "collections.yaml"), load(t, "collections.toml")

	yamlSol, tomlSol := yamlProblem.Solve(), tomlProblem.Solve()
	assert.Equal(t, yamlSol.Status(), tomlSol.Status())
	assert.Equal(t, render(yamlProblem, yamlSol), render(tomlProblem, tomlSol))

	for i := range yamlProblem.Constraints {
		assert.Equal(t, yamlProblem.Constraints[i].String(), tomlProblem.Constraints[i].String())
	}
}

func TestSolveConflictingProblem(t *testing.T) {
	p := load(t, "conflict.yaml")
	sol := p.Solve()
	assert.Equal(t, infer.Error, sol.Status())
	require.Len(t, sol.Errors(), 1)
	assert.Equal(t, ilerr.ConflictingAssignment, sol.Errors()[0].Code())
	assert.Equal(t, map[string]string{"T": "Int"}, render(p, sol))
}

func TestCheck(t *testing.T) {
	p := load(t, "collections.yaml")
	tests := []struct {
		sub, sup string
		expected bool
	}{
		{"MutableList<Int>", "Collection<Number>", true},
		{"List<Int>", "MutableList<Int>", false},
		{"MutableList<Int>", "MutableList<Number>", false},
		{"Int", "Comparable<Int> & Number", true},
		{"Comparable<Number>", "Comparable<Int>", true},
		{"Int?", "Any", false},
		{"Int", "Any?", true},
		{"Nothing?", "String?", true},
	}
	for _, tt := range tests {
		t.Run(tt.sub+" <: "+tt.sup, func(t *testing.T) {
			ok, err := p.Check(tt.sub, tt.sup)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}

	_, err := p.Check("List<", "Int")
	assert.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
		err      bool
	}{
		{"a.yaml", YAML, false},
		{"dir/a.YML", YAML, false},
		{"a.toml", TOML, false},
		{"a.json", "", true},
		{"a", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, err := FormatOf(tt.path)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestDecodeNullableTypes(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"yaml flow sequence", YAML, "constraints:\n  - equal: [\"List<E>\", \"List<String?>\"]\n  - sub: Int?\n    sup: T?\n"},
		{"yaml block sequence", YAML, "constraints:\n  - equal:\n      - List<E>\n      - List<String?>\n  - sub: Int?\n    sup: T?\n"},
		{"toml", TOML, "[[constraints]]\nequal = [\"List<E>\", \"List<String?>\"]\n\n[[constraints]]\nsub = \"Int?\"\nsup = \"T?\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode([]byte(tt.data), tt.format)
			require.NoError(t, err)
			require.Len(t, f.Constraints, 2)
			assert.Equal(t, []string{"List<E>", "List<String?>"}, f.Constraints[0].Equal)
			assert.Equal(t, "Int?", f.Constraints[1].Sub)
			assert.Equal(t, "T?", f.Constraints[1].Sup)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"empty yaml", YAML, ""},
		{"unknown yaml field", YAML, "clases:\n  - name: Int\n"},
		{"unknown toml field", TOML, "[[clases]]\nname = \"Int\"\n"},
		{"malformed toml", TOML, "[[classes]\n"},
		{"unknown format", Format("json"), "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	intClass := ClassDecl{Name: "Int", Final: true}
	list := ClassDecl{Name: "List", Params: []ParamDecl{{Name: "E", Variance: "out"}}}

	tests := []struct {
		name     string
		file     File
		contains string
	}{
		{
			name:     "unknown type",
			file:     File{Constraints: []ConstraintDecl{{Sub: "Int", Sup: "Any"}}},
			contains: "unknown type Int",
		},
		{
			name: "arity",
			file: File{
				Classes:     []ClassDecl{intClass, list},
				Constraints: []ConstraintDecl{{Sub: "List<Int, Int>", Sup: "Any"}},
			},
			contains: "List expects 1 type arguments, but got 2",
		},
		{
			name:     "duplicate class",
			file:     File{Classes: []ClassDecl{intClass, intClass}},
			contains: "class Int is declared twice",
		},
		{
			name:     "built in class",
			file:     File{Classes: []ClassDecl{{Name: "Any"}}},
			contains: "class Any is built in",
		},
		{
			name: "cyclic hierarchy",
			file: File{Classes: []ClassDecl{
				{Name: "A", Supertypes: []string{"B"}},
				{Name: "B", Supertypes: []string{"A"}},
			}},
			contains: "is its own supertype",
		},
		{
			name:     "nullable supertype",
			file:     File{Classes: []ClassDecl{intClass, {Name: "B", Supertypes: []string{"Int?"}}}},
			contains: "must be a non-null class type",
		},
		{
			name: "parameter with arguments",
			file: File{
				Classes:   []ClassDecl{intClass},
				Variables: []ParamDecl{{Name: "T", Bounds: []string{"T<Int>"}}},
			},
			contains: "type parameter T cannot take type arguments",
		},
		{
			name:     "bad variance",
			file:     File{Variables: []ParamDecl{{Name: "T", Variance: "sideways"}}},
			contains: "type parameter T",
		},
		{
			name:     "duplicate variable",
			file:     File{Variables: []ParamDecl{{Name: "T"}, {Name: "T"}}},
			contains: "type parameter T is declared twice",
		},
		{
			name: "equal arity",
			file: File{
				Variables:   []ParamDecl{{Name: "T"}},
				Constraints: []ConstraintDecl{{Equal: []string{"T", "T", "T"}}},
			},
			contains: "equal takes exactly 2 types, got 3",
		},
		{
			name: "mixed constraint",
			file: File{
				Variables:   []ParamDecl{{Name: "T"}},
				Constraints: []ConstraintDecl{{Sub: "T", Equal: []string{"T", "Any"}}},
			},
			contains: "either sub/sup or equal",
		},
		{
			name: "half a constraint",
			file: File{
				Variables:   []ParamDecl{{Name: "T"}},
				Constraints: []ConstraintDecl{{Sub: "T"}},
			},
			contains: "needs both sub and sup",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(&tt.file)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestVariablesShadowClasses(t *testing.T) {
	p, err := Build(&File{
		Classes:   []ClassDecl{{Name: "T"}},
		Variables: []ParamDecl{{Name: "T", Variance: "out"}},
		Constraints: []ConstraintDecl{
			{Sub: "Any", Sup: "T"},
		},
	})
	require.NoError(t, err)
	sol := p.Solve()
	require.True(t, sol.IsSuccessful(), sol.Message())
	assert.Equal(t, map[string]string{"T": "Any"}, render(p, sol))
}
