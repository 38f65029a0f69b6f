package cyk

import (
	"fmt"
	"testing"

	"cykgen/internal/target"
)

// visit records one nonterminal evaluation with its evaluated arguments.
type visit struct {
	name string
	args []int
}

// interp executes a generated traversal tree for a concrete input length and
// records every evaluation call. It understands just enough of the target
// tree to simulate the generated program sequentially: the variant
// directives select the single- or multi-thread branch, tile-size overrides
// are skipped (TILE_SIZE undefined), and parallel-region markers are
// no-ops, so the multi-thread schedule runs in its sequential commit order.
type interp struct {
	t      *testing.T
	a      *target.Arena
	env    map[string]int
	seqs   map[string]int
	multi  bool
	visits []visit
}

func newInterp(t *testing.T, fn *target.FuncDef, seqs map[string]int, multi bool) *interp {
	t.Helper()
	return &interp{
		t:     t,
		a:     fn.Arena,
		env:   map[string]int{},
		seqs:  seqs,
		multi: multi,
	}
}

// seed presets a variable before the run, e.g. a restored checkpoint value.
func (it *interp) seed(name string, v int) *interp {
	it.env[name] = v
	return it
}

func (it *interp) run(fn *target.FuncDef) []visit {
	it.t.Helper()
	it.execList(fn.Body)
	return it.visits
}

func (it *interp) execList(ids []target.NodeID) {
	skipVariant := false
	skipOverride := false
	for _, id := range ids {
		n := it.a.At(id)
		if n.Kind == target.KindDirective {
			switch n.Directive {
			case target.DirectiveVariantSingle:
				skipVariant = it.multi
			case target.DirectiveVariantMulti:
				skipVariant = !it.multi
			case target.DirectiveVariantEnd:
				skipVariant = false
			case target.DirectiveTileOverrideBegin:
				skipOverride = true
			case target.DirectiveTileOverrideEnd:
				skipOverride = false
			}
			continue
		}
		if skipVariant || skipOverride {
			continue
		}
		it.exec(n)
	}
}

func (it *interp) exec(n *target.Node) {
	switch n.Kind {
	case target.KindDecl:
		it.env[n.Var] = it.eval(n.Init)
	case target.KindAssign:
		v := it.eval(n.Init)
		if n.AssignOp == target.AssignAdd {
			it.env[n.Var] += v
		} else {
			it.env[n.Var] = v
		}
	case target.KindFor:
		it.env[n.Var] = it.eval(n.Init)
		for it.cond(n) {
			it.execList(n.Children)
			it.step(n)
		}
	case target.KindBlock:
		it.execList(n.Children)
	case target.KindCall:
		if n.CallKind != target.CallEval {
			return // assert and lock operations have no sequential effect
		}
		args := make([]int, len(n.Args))
		for i, a := range n.Args {
			args[i] = it.eval(a)
		}
		it.visits = append(it.visits, visit{name: n.Name, args: args})
	default:
		it.t.Fatalf("interp: unhandled node kind %s", n.Kind)
	}
}

func (it *interp) cond(n *target.Node) bool {
	v := it.env[n.Var]
	b := it.eval(n.Bound)
	if n.CondOp == target.CmpGreater {
		return v > b
	}
	return v < b
}

func (it *interp) step(n *target.Node) {
	if n.Step == nil {
		it.env[n.Var]++
		return
	}
	it.env[n.Var] += it.eval(n.Step)
}

func (it *interp) eval(e target.Expr) int {
	switch e := e.(type) {
	case *target.Const:
		return e.Value
	case *target.Var:
		return it.env[e.Name]
	case *target.SeqLen:
		n, ok := it.seqs[e.Seq]
		if !ok {
			it.t.Fatalf("interp: unknown sequence %q", e.Seq)
		}
		return n
	case *target.Binary:
		l, r := it.eval(e.L), it.eval(e.R)
		switch e.Op {
		case target.OpAdd:
			return l + r
		case target.OpSub:
			return l - r
		case target.OpMul:
			return l * r
		case target.OpDiv:
			return l / r
		}
	case *target.Cond:
		if it.eval(e.If) != 0 {
			return it.eval(e.Then)
		}
		return it.eval(e.Else)
	case *target.PostInc:
		v := it.env[e.Name]
		it.env[e.Name] = v + 1
		return v
	case *target.Not:
		if it.eval(e.X) == 0 {
			return 1
		}
		return 0
	case *target.Or:
		if it.eval(e.L) != 0 || it.eval(e.R) != 0 {
			return 1
		}
		return 0
	}
	it.t.Fatalf("interp: unhandled expression %T", e)
	return 0
}

// cell identifies one visited DP coordinate pair of a single-track table.
type cell struct {
	row, col int
}

func (c cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.row, c.col)
}

// cellsOf projects the visits of one nonterminal onto (row, col) pairs.
func cellsOf(t *testing.T, visits []visit, name string) []cell {
	t.Helper()
	var cells []cell
	for _, v := range visits {
		if v.name != name {
			continue
		}
		if len(v.args) != 2 {
			t.Fatalf("%s called with %d args, want 2", name, len(v.args))
		}
		cells = append(cells, cell{row: v.args[0], col: v.args[1]})
	}
	return cells
}
