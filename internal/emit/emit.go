// Package emit renders a target.FuncDef to C with OpenMP annotations. It is
// the one concrete backend; everything target-specific (preprocessor
// variants, pragma spellings, the lock primitive) is decided here, keyed off
// the symbolic directive and call kinds, so another backend could map the
// same tree onto a different concurrency technology.
package emit

import (
	"fmt"
	"strings"

	"cykgen/internal/target"
)

const indentStep = "  "

// Render returns the function definition as compilable C text.
func Render(fn *target.FuncDef) string {
	r := &renderer{a: fn.Arena}
	r.printf("void %s() {\n", fn.Name)
	r.indent++
	r.stmts(fn.Body)
	r.indent--
	r.printf("}\n")
	return r.b.String()
}

type renderer struct {
	a      *target.Arena
	b      strings.Builder
	indent int
}

func (r *renderer) printf(format string, args ...any) {
	fmt.Fprintf(&r.b, format, args...)
}

func (r *renderer) line(s string) {
	for i := 0; i < r.indent; i++ {
		r.b.WriteString(indentStep)
	}
	r.b.WriteString(s)
	r.b.WriteByte('\n')
}

func (r *renderer) stmts(ids []target.NodeID) {
	for _, id := range ids {
		r.stmt(id)
	}
}

func (r *renderer) stmt(id target.NodeID) {
	n := r.a.At(id)
	switch n.Kind {
	case target.KindDecl:
		if n.Type == target.TypeNone {
			r.line(fmt.Sprintf("%s = %s;", n.Var, expr(n.Init)))
		} else {
			r.line(fmt.Sprintf("%s %s = %s;", ctype(n.Type), n.Var, expr(n.Init)))
		}
	case target.KindAssign:
		op := "="
		if n.AssignOp == target.AssignAdd {
			op = "+="
		}
		r.line(fmt.Sprintf("%s %s %s;", n.Var, op, expr(n.Init)))
	case target.KindFor:
		r.line(fmt.Sprintf("for (%s = %s; %s %s %s; %s) {",
			forInit(n), expr(n.Init), n.Var, cmp(n.CondOp), expr(n.Bound), forStep(n)))
		r.indent++
		r.stmts(n.Children)
		r.indent--
		r.line("}")
	case target.KindBlock:
		r.line("{")
		r.indent++
		r.stmts(n.Children)
		r.indent--
		r.line("}")
	case target.KindCall:
		var args []string
		recv := ""
		if n.Method {
			recv = expr(n.Args[0]) + "."
			for _, a := range n.Args[1:] {
				args = append(args, expr(a))
			}
		} else {
			for _, a := range n.Args {
				args = append(args, expr(a))
			}
		}
		r.line(fmt.Sprintf("%s%s(%s);", recv, n.Name, strings.Join(args, ", ")))
	case target.KindDirective:
		r.directive(n.Directive)
	}
}

// directive maps the symbolic markers onto the preprocessor and OpenMP.
// Preprocessor lines start in column zero; pragmas follow the surrounding
// indentation.
func (r *renderer) directive(d target.DirectiveKind) {
	switch d {
	case target.DirectiveVariantSingle:
		r.b.WriteString("#ifndef _OPENMP\n")
	case target.DirectiveVariantMulti:
		r.b.WriteString("#else\n")
	case target.DirectiveVariantEnd:
		r.b.WriteString("#endif\n")
	case target.DirectiveTileOverrideBegin:
		r.b.WriteString("#ifdef TILE_SIZE\n")
	case target.DirectiveTileOverrideEnd:
		r.b.WriteString("#endif\n")
	case target.DirectiveParallelBegin:
		r.line("#pragma omp parallel")
	case target.DirectiveWorkShare:
		r.line("#pragma omp for")
	case target.DirectiveWorkShareOrdered:
		r.line("#pragma omp for ordered schedule(dynamic)")
	case target.DirectiveOrderedCommit:
		r.line("#pragma omp ordered")
	}
}

func forInit(n *target.Node) string {
	if n.Reuse || n.Type == target.TypeNone {
		return n.Var
	}
	return ctype(n.Type) + " " + n.Var
}

func forStep(n *target.Node) string {
	switch s := n.Step.(type) {
	case nil:
		return "++" + n.Var
	case *target.Const:
		if s.Value == -1 {
			return n.Var + "--"
		}
	}
	return fmt.Sprintf("%s += %s", n.Var, expr(n.Step))
}

func cmp(op target.CmpOp) string {
	if op == target.CmpGreater {
		return ">"
	}
	return "<"
}

func ctype(t target.DeclType) string {
	if t == target.TypeInt {
		return "int"
	}
	return "unsigned int"
}

func expr(e target.Expr) string {
	switch e := e.(type) {
	case *target.Const:
		return fmt.Sprintf("%d", e.Value)
	case *target.Var:
		return e.Name
	case *target.SeqLen:
		return e.Seq + ".size()"
	case *target.Binary:
		return fmt.Sprintf("(%s %s %s)", expr(e.L), binop(e.Op), expr(e.R))
	case *target.Cond:
		return fmt.Sprintf("((%s) ? %s : %s)", expr(e.If), expr(e.Then), expr(e.Else))
	case *target.PostInc:
		return e.Name + "++"
	case *target.Not:
		return "!" + expr(e.X)
	case *target.Or:
		return fmt.Sprintf("(%s || %s)", expr(e.L), expr(e.R))
	}
	return "/* unknown expr */"
}

func binop(op target.BinOp) string {
	switch op {
	case target.OpAdd:
		return "+"
	case target.OpSub:
		return "-"
	case target.OpMul:
		return "*"
	case target.OpDiv:
		return "/"
	}
	return "?"
}
