package cyk

import (
	"cykgen/internal/target"
)

// lockShared / unlockShared guard per-cell work in checkpoint mode: workers
// hold the progress lock in shared mode so they serialize only against a
// checkpoint snapshot, not against each other.
func (gen *generator) lockShared() target.NodeID {
	return gen.a.New(target.Node{
		Kind:     target.KindCall,
		Name:     "lock_shared",
		CallKind: target.CallRuntime,
		Args:     []target.Expr{target.Ref(mutexVar)},
		Method:   true,
	})
}

func (gen *generator) unlockShared() target.NodeID {
	return gen.a.New(target.Node{
		Kind:     target.KindCall,
		Name:     "unlock_shared",
		CallKind: target.CallRuntime,
		Args:     []target.Expr{target.Ref(mutexVar)},
		Method:   true,
	})
}

// lockExclusive / unlockExclusive bracket updates the checkpoint writer must
// never observe torn, such as advancing the persisted progress counters.
func (gen *generator) lockExclusive() target.NodeID {
	return gen.a.New(target.Node{
		Kind:     target.KindCall,
		Name:     "lock",
		CallKind: target.CallRuntime,
		Args:     []target.Expr{target.Ref(mutexVar)},
		Method:   true,
	})
}

func (gen *generator) unlockExclusive() target.NodeID {
	return gen.a.New(target.Node{
		Kind:     target.KindCall,
		Name:     "unlock",
		CallKind: target.CallRuntime,
		Args:     []target.Expr{target.Ref(mutexVar)},
		Method:   true,
	})
}

// tilePrelude declares the tile geometry:
//
//	tile_size   (default, overridable through the tile-override directive)
//	max_tiles   = n / tile_size
//	max_tiles_n = max_tiles * tile_size
//
// In checkpoint mode the tile_size declaration is hoisted into the function
// preamble (justTileSize pass) because the auxiliary counter starts need it
// before the parallel region opens; the later pass then only emits the
// derived quantities.
func (gen *generator) tilePrelude(track int, justTileSize bool) []target.NodeID {
	var stmts []target.NodeID

	if !gen.opts.Checkpoint || justTileSize {
		stmts = append(stmts,
			gen.a.New(target.Node{
				Kind: target.KindDecl,
				Var:  tileSizeVar,
				Type: target.TypeSize,
				Init: target.Num(gen.opts.TileSize),
			}),
			gen.a.New(target.Node{Kind: target.KindDirective, Directive: target.DirectiveTileOverrideBegin}),
			gen.a.New(target.Node{
				Kind:     target.KindAssign,
				Var:      tileSizeVar,
				AssignOp: target.AssignSet,
				Init:     target.Ref(tileSizeEnv),
			}),
			gen.a.New(target.Node{Kind: target.KindDirective, Directive: target.DirectiveTileOverrideEnd}),
		)
		if justTileSize {
			return stmts
		}
	}

	seqEnd := &target.SeqLen{Seq: gen.g.Tracks[track].Seq}
	stmts = append(stmts,
		gen.a.New(target.Node{
			Kind:     target.KindCall,
			Name:     "assert",
			CallKind: target.CallRuntime,
			Args:     []target.Expr{target.Ref(tileSizeVar)},
		}),
		gen.a.New(target.Node{
			Kind: target.KindDecl,
			Var:  maxTilesVar,
			Type: target.TypeSize,
			Init: target.Div(seqEnd, target.Ref(tileSizeVar)),
		}),
		gen.a.New(target.Node{
			Kind: target.KindDecl,
			Var:  maxTilesLen,
			Type: target.TypeInt,
			Init: target.Mul(target.Ref(maxTilesVar), target.Ref(tileSizeVar)),
		}),
	)
	return stmts
}

// forWorkShare builds a tile-offset loop: signed counter, ascending by
// tile_size. These loops carry no end state; their variables are internal
// offsets, never table indices.
func (gen *generator) forWorkShare(name string, start, end target.Expr) target.NodeID {
	return gen.a.New(target.Node{
		Kind:   target.KindFor,
		Var:    name,
		Type:   target.TypeInt,
		Init:   start,
		CondOp: target.CmpLess,
		Bound:  end,
		Step:   target.Ref(tileSizeVar),
	})
}

// parallelPhases builds the two-phase tiled schedule over track 0. Phase A
// sequentially fills the cells bordering the next diagonal of tiles; phase B
// computes whole tile interiors, where distinct (z, y) offset pairs touch
// disjoint cells and run concurrently. The residual band beyond max_tiles_n
// is left to the serial closure pass.
//
// Phase A, tile_size = 4, n = 12: the diagonal triangles
//
//	  |  0   1   2   3   4   5   6   7   8   9  10  11  12
//	--|---------------------------------------------------
//	0 |  0   2   5   9
//	1 |      1   4   8
//	2 |          3   7
//	3 |              6
//	4 |                 10  12  15  19
//	5 |                     11  14  18
//	6 |                         13  17
//	7 |                             16
//	8 |                                 20  22  25  29
//	  |                                     ...
//
// Phase B, the whole off-diagonal tiles at block offsets (z, y), y >= z:
//
//	  |  0   1   2   3   4   5   6   7   8   9  10  11  12
//	--|---------------------------------------------------
//	0 |                 33  37  41  45  65  69  73  77
//	1 |                 32  36  40  44  64  68  72  76
//	2 |                 31  35  39  43  63  67  71  75
//	3 |                 30  34  38  42  62  66  70  74
//	4 |                                 49  53  57  61
//	  |                                     ...
func (gen *generator) parallelPhases(track int) []target.NodeID {
	tr := gen.g.Tracks[track]
	ck := gen.opts.Checkpoint
	rowStart := target.Add(target.Ref(tr.Right.Name), target.Num(1))
	z := target.Ref(tileOffsetZ)
	y := target.Ref(tileOffsetY)
	tile := target.Ref(tileSizeVar)

	var stmts []target.NodeID

	// Phase A: boundary fill. For each tile-aligned offset z, compute the
	// triangle of cells a diagonal tile depends on.
	rowA := gen.forRow(tr.Left, rowStart, z, ModeParallelInterior)
	colA := gen.forColumn(tr.Right, z, target.Add(z, tile), ModeParallelInterior)
	gen.a.AddChildren(colA.loop, rowA.loop)

	startZ := target.Expr(target.Num(0))
	if ck {
		startZ = target.Ref(outerLoop1 + startSuffix)
	}
	loopZ := gen.forWorkShare(tileOffsetZ, startZ, target.Ref(maxTilesLen))
	if ck {
		gen.a.AddChildren(loopZ, gen.lockShared())
	}
	gen.a.AddChildren(loopZ, colA.loop)
	if ck {
		// Advance the persisted boundary progress counter once the
		// batch is done, in tile order, under the exclusive lock.
		commit := gen.a.New(target.Node{Kind: target.KindBlock})
		gen.a.AddChildren(commit,
			gen.a.New(target.Node{
				Kind:     target.KindAssign,
				Var:      outerLoop1,
				AssignOp: target.AssignSet,
				Init:     target.Add(z, tile),
			}),
			gen.unlockShared(),
		)
		gen.a.AddChildren(loopZ,
			gen.a.New(target.Node{Kind: target.KindDirective, Directive: target.DirectiveOrderedCommit}),
			commit,
		)
	}
	stmts = append(stmts, loopZ)

	// Phase B: tile interiors. x spans the rows of the (z, y) tile.
	xDecl := gen.a.New(target.Node{
		Kind: target.KindDecl,
		Var:  tileSpanVar,
		Type: target.TypeSize,
		Init: target.Add(target.Sub(y, z), tile),
	})
	rowB := gen.forRow(tr.Left, target.Ref(tileSpanVar),
		target.Sub(target.Ref(tileSpanVar), tile), ModeParallelInterior)
	colB := gen.forColumn(tr.Right, y, target.Add(y, tile), ModeParallelInterior)
	gen.a.AddChildren(colB.loop, rowB.loop)

	startY := target.Expr(target.Ref(tileOffsetZ))
	if ck {
		startY = &target.Cond{
			If:   target.Ref(innerLoop2 + loadedSuffix),
			Then: z,
			Else: target.Ref(innerLoop2 + startSuffix),
		}
	}
	loopY := gen.forWorkShare(tileOffsetY, startY, target.Ref(maxTilesLen))
	if ck {
		gen.a.AddChildren(loopY,
			gen.a.New(target.Node{
				Kind:     target.KindAssign,
				Var:      innerLoop2 + loadedSuffix,
				AssignOp: target.AssignAdd,
				Init:     target.Num(1),
			}),
			gen.lockShared(),
		)
	}
	gen.a.AddChildren(loopY, xDecl, colB.loop)
	if ck {
		commit := gen.a.New(target.Node{Kind: target.KindBlock})
		gen.a.AddChildren(commit,
			gen.a.New(target.Node{
				Kind:     target.KindAssign,
				Var:      innerLoop2,
				AssignOp: target.AssignSet,
				Init:     target.Add(target.Ref(innerLoop2), tile),
			}),
			gen.a.New(target.Node{
				Kind:     target.KindAssign,
				Var:      outerLoop2,
				AssignOp: target.AssignSet,
				Init:     z,
			}),
			gen.unlockShared(),
		)
		gen.a.AddChildren(loopY,
			gen.a.New(target.Node{Kind: target.KindDirective, Directive: target.DirectiveOrderedCommit}),
			commit,
		)
	}

	startZ2 := target.Expr(target.Ref(tileSizeVar))
	if ck {
		startZ2 = target.Ref(outerLoop2 + startSuffix)
	}
	loopZ2 := gen.forWorkShare(tileOffsetZ, startZ2, target.Ref(maxTilesLen))
	share := target.DirectiveWorkShare
	if ck {
		share = target.DirectiveWorkShareOrdered
	}
	gen.a.AddChildren(loopZ2,
		gen.a.New(target.Node{Kind: target.KindDirective, Directive: share}),
		loopY,
	)
	if ck {
		gen.a.AddChildren(loopZ2, gen.a.New(target.Node{
			Kind:     target.KindAssign,
			Var:      innerLoop2,
			AssignOp: target.AssignSet,
			Init:     target.Add(z, tile),
		}))
	}
	stmts = append(stmts, loopZ2)

	return stmts
}
