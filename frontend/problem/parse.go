package problem

import (
	"fmt"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"strings"
)

// typeExpr is a parsed, unresolved type expression
type typeExpr struct {
	name string
	args []*typeExpr
	// members is set for intersections only, which have no name
	members  []*typeExpr
	nullable bool
}

func (e *typeExpr) String() string {
	sb := &strings.Builder{}
	if len(e.members) > 0 {
		if e.nullable {
			sb.WriteString("(")
		}
		for i, m := range e.members {
			if i > 0 {
				sb.WriteString(" & ")
			}
			sb.WriteString(m.String())
		}
		if e.nullable {
			sb.WriteString(")?")
		}
		return sb.String()
	}
	sb.WriteString(e.name)
	if len(e.args) > 0 {
		sb.WriteString("<")
		for i, a := range e.args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteString(">")
	}
	if e.nullable {
		sb.WriteString("?")
	}
	return sb.String()
}

// SyntaxError reports a malformed type expression
type SyntaxError struct {
	Expr   string
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid type %q at column %d: %s", e.Expr, e.Column, e.Msg)
}

// typeSyntax is the grammar of type expressions:
//
//	type    := primary ('&' primary)*
//	primary := atom '?'?
//	atom    := '(' type ')' | Name ('<' type (',' type)* '>')?
type typeSyntax struct {
	Members []*primarySyntax `parser:"@@ ( '&' @@ )*"`
}

type primarySyntax struct {
	Atom     *atomSyntax `parser:"@@"`
	Nullable bool        `parser:"@'?'?"`
}

type atomSyntax struct {
	Group *typeSyntax   `parser:"  '(' @@ ')'"`
	Name  string        `parser:"| @Ident"`
	Args  []*typeSyntax `parser:"  ( '<' @@ ( ',' @@ )* '>' )?"`
}

var typeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[<>,?&()]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var typeParser = participle.MustBuild[typeSyntax](
	participle.Lexer(typeLexer),
	participle.Elide("Whitespace"),
)

func parseTypeExpr(src string) (*typeExpr, error) {
	syntax, err := typeParser.ParseString("", src)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return nil, errors.WithStack(&SyntaxError{Expr: src, Column: perr.Position().Column, Msg: perr.Message()})
		}
		return nil, errors.Wrapf(err, "parsing type %q", src)
	}
	return syntax.expr(), nil
}

func (s *typeSyntax) expr() *typeExpr {
	if len(s.Members) == 1 {
		return s.Members[0].expr()
	}
	inter := &typeExpr{}
	for _, m := range s.Members {
		inter.members = append(inter.members, m.expr())
	}
	return inter
}

func (p *primarySyntax) expr() *typeExpr {
	var e *typeExpr
	if p.Atom.Group != nil {
		e = p.Atom.Group.expr()
	} else {
		e = &typeExpr{name: p.Atom.Name}
		for _, a := range p.Atom.Args {
			e.args = append(e.args, a.expr())
		}
	}
	e.nullable = e.nullable || p.Nullable
	return e
}
