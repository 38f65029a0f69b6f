package cyk

import (
	"cykgen/internal/grammar"
	"cykgen/internal/target"
)

// checkpointStart rewrites a loop's natural start into the restored-or-default
// conditional. The loaded flag is read with a post-increment, so exactly the
// first activation of the owning loop consumes the restored value and every
// later activation falls back to the natural start.
func checkpointStart(index string, natural target.Expr) target.Expr {
	return &target.Cond{
		If:   &target.PostInc{Name: index + loadedSuffix},
		Then: natural,
		Else: target.Ref(index),
	}
}

// forColumn builds the loop over a track's column (right) index, ascending
// from start while below end, plus the end-state declaration pinning the
// index to end once the loop closes.
func (gen *generator) forColumn(index *grammar.RunningIndex, start, end target.Expr, mode Mode) loopPair {
	typ := target.TypeSize
	reuse := false
	if gen.opts.Checkpoint && mode != ModeParallelInterior {
		// The restorable index is declared in the function preamble;
		// redeclaring it here would shadow the restored value.
		reuse = true
		typ = target.TypeNone
		start = checkpointStart(index.Name, start)
	}

	loop := gen.a.New(target.Node{
		Kind:   target.KindFor,
		Var:    index.Name,
		Type:   typ,
		Init:   start,
		CondOp: target.CmpLess,
		Bound:  end,
		Reuse:  reuse,
	})
	endState := gen.a.New(target.Node{
		Kind: target.KindDecl,
		Var:  index.Name,
		Type: typ,
		Init: end,
	})
	return gen.newLoopPair(loop, endState)
}

// forRow builds the loop over a track's row (left) index. Inside modes run it
// descending towards the diagonal's upper neighbour; outside mode ascends.
// The end state pins the index to 1, the value the descending loop stops
// short of; callers address the top row through the minus-one convention of
// evaluation call arguments.
func (gen *generator) forRow(index *grammar.RunningIndex, start, end target.Expr, mode Mode) loopPair {
	typ := target.TypeSize
	if mode == ModeParallelInterior {
		// Work-sharing constructs require signed loop counters.
		typ = target.TypeInt
	}
	reuse := false
	if gen.opts.Checkpoint && mode != ModeParallelInterior {
		reuse = true
		typ = target.TypeNone
		start = checkpointStart(index.Name, start)
	}

	condOp := target.CmpGreater
	var step target.Expr = target.Num(-1)
	if mode == ModeOutside {
		condOp = target.CmpLess
		step = nil
	}

	loop := gen.a.New(target.Node{
		Kind:   target.KindFor,
		Var:    index.Name,
		Type:   typ,
		Init:   start,
		CondOp: condOp,
		Bound:  end,
		Step:   step,
		Reuse:  reuse,
	})
	endState := gen.a.New(target.Node{
		Kind: target.KindDecl,
		Var:  index.Name,
		Type: typ,
		Init: target.Num(1),
	})
	return gen.newLoopPair(loop, endState)
}

// traverseTrack builds the four traversal regions of one track's triangular
// table, nesting an already-built inner body (the next track's traversal)
// into each region as an independent deep copy:
//
//	for (t_x_j ...) {
//	  for (t_x_i ...) {
//	    A: interior triangle
//	  }
//	  B: top row, via the row end state
//	}
//	for (t_x_i ...) {
//	  C: last column, via the column end state
//	}
//	D: top right corner, via both end states
//
//	  |  0  1  2  3  4  5          |  0  1  2  3  4  5
//	--|-------------------       --|------------------
//	0 |  0  2  5  9 14 20        0 |  B  B  B  B  B  D
//	1 |     1  4  8 13 19        1 |     A  A  A  A  C
//	2 |        3  7 12 18        2 |        A  A  A  C
//	3 |           6 11 17        3 |           A  A  C
//	4 |             10 16        4 |              A  C
//	5 |                15        5 |                 C
//
// Column is non-decreasing and rows run from the diagonal towards the top,
// so every shorter sub-range is visited before any cell that depends on it.
func (gen *generator) traverseTrack(track int, nested []target.NodeID, mode Mode) []target.NodeID {
	tr := gen.g.Tracks[track]
	rowStart := target.Add(target.Ref(tr.Right.Name), target.Num(1))
	seqEnd := &target.SeqLen{Seq: tr.Seq}

	// A: interior triangle below the top row, left of the last column.
	row := gen.forRow(tr.Left, rowStart, target.Num(1), mode)
	gen.a.AddChildren(row.loop, gen.a.CloneList(nested)...)

	colStart := target.Num(0)
	if mode == ModeSerialClosure {
		// The closure pass only covers the band the tiling left over.
		colStart = target.Ref(maxTilesLen)
	}
	col := gen.forColumn(tr.Right, colStart, seqEnd, mode)
	gen.a.AddChildren(col.loop, row.loop, row.endState)

	// B: top row, once per column, at column scope.
	gen.a.AddChildren(col.loop, gen.a.CloneList(nested)...)
	stmts := []target.NodeID{col.loop, col.endState}

	// C: last column.
	rowC := gen.forRow(tr.Left, rowStart, target.Num(1), mode)
	gen.a.AddChildren(rowC.loop, gen.a.CloneList(nested)...)
	stmts = append(stmts, rowC.loop, rowC.endState)

	// D: top right corner, outside all loops.
	stmts = append(stmts, gen.a.CloneList(nested)...)

	return stmts
}

// traverseTrackOutside builds the dual traversal for one track: rows ascend
// from 0 and columns ascend from n - row, so outer (larger) source intervals
// are finished before the inner intervals they feed.
//
//	for (t_x_i = 0; t_x_i < n+1; ++t_x_i) {
//	  for (t_x_j = n - t_x_i; t_x_j < n+1; ++t_x_j) {
//	    ...
//	  }
//	}
func (gen *generator) traverseTrackOutside(track int, nested []target.NodeID, mode Mode) []target.NodeID {
	tr := gen.g.Tracks[track]
	seqEnd := &target.SeqLen{Seq: tr.Seq}
	past := target.Add(seqEnd, target.Num(1))

	col := gen.forColumn(tr.Right, target.Sub(seqEnd, target.Ref(tr.Left.Name)), past, mode)
	gen.a.AddChildren(col.loop, gen.a.CloneList(nested)...)

	row := gen.forRow(tr.Left, target.Num(0), past, mode)
	gen.a.AddChildren(row.loop, col.loop)

	return []target.NodeID{row.loop}
}

// traverseAllTracks composes the per-track structures across tracks, last
// track innermost: each iteration wraps the accumulated body in the next
// track's quadrants, so track 0 ends up outermost.
func (gen *generator) traverseAllTracks(mode Mode) []target.NodeID {
	var stmts []target.NodeID
	for track := gen.g.TrackCount() - 1; track >= 0; track-- {
		if mode == ModeOutside {
			stmts = gen.traverseTrackOutside(track, stmts, mode)
		} else {
			stmts = gen.traverseTrack(track, stmts, mode)
		}
	}
	return stmts
}
