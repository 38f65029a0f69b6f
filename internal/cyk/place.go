package cyk

import (
	"slices"
	"strings"

	"cykgen/internal/target"
)

// hasEvalOrLoop reports whether a loop body contains either a nonterminal
// evaluation call or a nested loop; loops with neither compute nothing and
// are pruned.
func (gen *generator) hasEvalOrLoop(loop *target.Node) bool {
	for _, id := range loop.Children {
		c := gen.a.At(id)
		if c.Kind == target.KindFor {
			return true
		}
		if c.Kind == target.KindCall && c.CallKind == target.CallEval {
			return true
		}
	}
	return false
}

// placeCalls walks a finished traversal depth first and inserts evaluation
// calls at the single correct nesting depth for every tabulated nonterminal.
// It returns the statement list with dead loops pruned, plus the calls that
// belong at this level (the caller appends them after the loops, where the
// end-state declarations are in scope).
//
// The depth rule: a call is emitted exactly where every loop variable on the
// current stack is one of the nonterminal's live indices. Shallower levels
// would leave an index undetermined; deeper ones would re-evaluate a cell
// per iteration of an unrelated loop. Indices the current stack does not
// bind resolve through the end-state declarations, which is how the top-row,
// last-column and corner regions get their calls from the same rule.
func (gen *generator) placeCalls(stmts []target.NodeID, loopVars []string, mode Mode) (kept, calls []target.NodeID) {
	nestedFor := false
	for _, id := range stmts {
		n := gen.a.At(id)
		if n.Kind != target.KindFor {
			continue
		}
		nestedFor = true
		next := loopVars
		if mode != ModeParallelInterior || strings.HasPrefix(n.Var, indexPrefix) {
			// Tile offsets (z, y) are not table indices; in parallel
			// mode only genuine indices join the stack.
			next = append(slices.Clone(loopVars), n.Var)
		}
		body, bodyCalls := gen.placeCalls(n.Children, next, mode)
		gen.a.At(id).Children = append(body, bodyCalls...)
	}

	// Prune dead loops by rebuilding the list; erasing in place would
	// skip the sibling after a removed node.
	kept = make([]target.NodeID, 0, len(stmts))
	for _, id := range stmts {
		n := gen.a.At(id)
		if n.Kind == target.KindFor && !gen.hasEvalOrLoop(n) {
			continue
		}
		kept = append(kept, id)
	}

	if mode == ModeParallelInterior && nestedFor {
		// The work-sharing construct parallelizes one designated loop;
		// a call above the innermost loop would run once per outer
		// iteration instead of once per work item.
		return kept, nil
	}

	for _, nt := range gen.g.NTs {
		if !nt.Tabulated {
			continue
		}
		var args []target.Expr
		used, total := 0, 0
		for t := range gen.g.Tracks {
			table := nt.Tables[t]
			if !table.DeleteLeft {
				name := gen.g.Tracks[t].Left.Name
				if slices.Contains(loopVars, name) {
					used++
				}
				total++
				// Row indices run one above the cell they address.
				args = append(args, target.Sub(target.Ref(name), target.Num(1)))
			}
			if !table.DeleteRight {
				name := gen.g.Tracks[t].Right.Name
				if slices.Contains(loopVars, name) {
					used++
				}
				total++
				args = append(args, target.Ref(name))
			}
		}
		if used != len(loopVars) {
			continue
		}
		if mode == ModeOutside && used != total {
			// The dual traversal builds no end-state declarations, so
			// a partially bound call would reference an index no loop
			// determined. Outside cells are only evaluated where every
			// live index is bound.
			continue
		}
		calls = append(calls, gen.a.New(target.Node{
			Kind:     target.KindCall,
			Name:     nt.EvalName,
			CallKind: target.CallEval,
			Args:     args,
		}))
	}

	if gen.opts.Checkpoint && len(calls) > 0 {
		switch mode {
		case ModeSingleThread:
			calls = gen.wrap(gen.lockExclusive(), calls, gen.unlockExclusive())
		case ModeSerialClosure:
			calls = gen.wrap(gen.lockShared(), calls, gen.unlockShared())
		}
	}

	return kept, calls
}

func (gen *generator) wrap(before target.NodeID, stmts []target.NodeID, after target.NodeID) []target.NodeID {
	out := make([]target.NodeID, 0, len(stmts)+2)
	out = append(out, before)
	out = append(out, stmts...)
	out = append(out, after)
	return out
}
