package cyk

import (
	"testing"

	"cykgen/internal/target"
)

// variantSection returns the top-level statements between the variant
// markers: the single-thread section or the multi-thread section.
func variantSection(t *testing.T, fn *target.FuncDef, multi bool) []target.NodeID {
	t.Helper()
	var out []target.NodeID
	keep := false
	for _, id := range fn.Body {
		n := fn.Arena.At(id)
		if n.Kind == target.KindDirective {
			switch n.Directive {
			case target.DirectiveVariantSingle:
				keep = !multi
				continue
			case target.DirectiveVariantMulti:
				keep = multi
				continue
			case target.DirectiveVariantEnd:
				keep = false
				continue
			}
		}
		if keep {
			out = append(out, id)
		}
	}
	if out == nil {
		t.Fatal("variant section not found")
	}
	return out
}

func firstLoopVar(fn *target.FuncDef) string {
	var find func(ids []target.NodeID) string
	find = func(ids []target.NodeID) string {
		for _, id := range ids {
			n := fn.Arena.At(id)
			if n.Kind == target.KindFor {
				return n.Var
			}
			if v := find(n.Children); v != "" {
				return v
			}
		}
		return ""
	}
	return find(fn.Body)
}

func countLoops(a *target.Arena, ids []target.NodeID) int {
	total := 0
	for _, id := range ids {
		n := a.At(id)
		if n.Kind == target.KindFor {
			total++
		}
		total += countLoops(a, n.Children)
	}
	return total
}

type callAt struct {
	name  string
	depth int
}

// evalCallDepths records every evaluator call in the subtree together with
// the number of enclosing loops.
func evalCallDepths(a *target.Arena, ids []target.NodeID) []callAt {
	var out []callAt
	var walk func(ids []target.NodeID, depth int)
	walk = func(ids []target.NodeID, depth int) {
		for _, id := range ids {
			n := a.At(id)
			switch n.Kind {
			case target.KindFor:
				walk(n.Children, depth+1)
			case target.KindCall:
				if n.CallKind == target.CallEval {
					out = append(out, callAt{n.Name, depth})
				}
			default:
				walk(n.Children, depth)
			}
		}
	}
	walk(ids, 0)
	return out
}
