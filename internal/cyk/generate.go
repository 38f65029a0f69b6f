package cyk

import (
	"fmt"

	"go.uber.org/zap"

	"cykgen/internal/grammar"
	"cykgen/internal/target"
)

// loadedFlag declares the one-shot marker for a restorable index:
//
//	int <index>_loaded = !load_checkpoint || !<index>;
//
// The flag starts "already loaded" unless a restore was requested and the
// restored value is non-default, so a checkpoint-capable run with nothing to
// restore behaves exactly like an unchecked run.
func (gen *generator) loadedFlag(index string) target.NodeID {
	return gen.a.New(target.Node{
		Kind: target.KindDecl,
		Var:  index + loadedSuffix,
		Type: target.TypeInt,
		Init: &target.Or{
			L: &target.Not{X: target.Ref(loadFlagVar)},
			R: &target.Not{X: target.Ref(index)},
		},
	})
}

// Generate synthesizes the traversal function for one grammar and mode
// combination. The returned function always exists; its body is empty when
// the grammar requests no DP evaluation. A broken front-end contract
// (mismatched table descriptors, a tabulated nonterminal without an
// evaluation routine, a loop/end-state identity mismatch) aborts with an
// error.
func Generate(g *grammar.Grammar, opts Options, log *zap.Logger) (fn *target.FuncDef, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TileSize == 0 {
		opts.TileSize = DefaultTileSize
	}
	if opts.TileSize < 0 {
		return nil, fmt.Errorf("tile size must be positive, got %d", opts.TileSize)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			iv, ok := r.(invariantError)
			if !ok {
				panic(r)
			}
			fn = nil
			err = iv
		}
	}()

	gen := &generator{g: g, opts: opts, log: log, a: target.NewArena()}
	fn = &target.FuncDef{Name: "cyk", Arena: gen.a}
	if !opts.Enabled {
		return fn, nil
	}

	singleMode := ModeSingleThread
	if opts.Outside {
		singleMode = ModeOutside
	}

	if opts.Checkpoint {
		for _, tr := range g.Tracks {
			fn.Body = append(fn.Body, gen.loadedFlag(tr.Left.Name), gen.loadedFlag(tr.Right.Name))
		}
	}

	// Single-thread variant.
	fn.Body = append(fn.Body, gen.a.New(target.Node{
		Kind: target.KindDirective, Directive: target.DirectiveVariantSingle,
	}))
	stmts := gen.traverseAllTracks(singleMode)
	kept, calls := gen.placeCalls(stmts, nil, singleMode)
	fn.Body = append(fn.Body, kept...)
	fn.Body = append(fn.Body, calls...)

	// Multi-thread variant.
	fn.Body = append(fn.Body, gen.a.New(target.Node{
		Kind: target.KindDirective, Directive: target.DirectiveVariantMulti,
	}))
	switch {
	case g.TrackCount() != 1:
		// The tiled schedule only exists for single-track grammars.
		// Fall back to the sequential traversal rather than emitting a
		// variant that silently computes nothing.
		log.Warn("tiled parallel traversal supports single-track grammars only; "+
			"multi-thread variant falls back to the single-thread traversal",
			zap.String("grammar", g.Name),
			zap.Int("tracks", g.TrackCount()))
		gen.appendSingleFallback(fn, singleMode)
	case opts.Outside:
		// No tiled schedule exists for the dual traversal either.
		log.Warn("tiled parallel traversal does not support outside mode; "+
			"multi-thread variant falls back to the single-thread traversal",
			zap.String("grammar", g.Name))
		gen.appendSingleFallback(fn, singleMode)
	default:
		gen.appendTiled(fn)
	}
	fn.Body = append(fn.Body, gen.a.New(target.Node{
		Kind: target.KindDirective, Directive: target.DirectiveVariantEnd,
	}))

	log.Debug("traversal generation complete",
		zap.String("grammar", g.Name),
		zap.Int("tracks", g.TrackCount()),
		zap.Int("nodes", gen.a.Len()),
		zap.Bool("checkpoint", opts.Checkpoint),
		zap.Bool("outside", opts.Outside))

	return fn, nil
}

// appendSingleFallback emits the sequential traversal into the multi-thread
// variant for configurations the tile scheduler does not cover.
func (gen *generator) appendSingleFallback(fn *target.FuncDef, mode Mode) {
	stmts := gen.traverseAllTracks(mode)
	kept, calls := gen.placeCalls(stmts, nil, mode)
	fn.Body = append(fn.Body, kept...)
	fn.Body = append(fn.Body, calls...)
}

// appendTiled emits the two-phase tiled schedule plus the serial closure
// pass over the non-tile-aligned remainder.
func (gen *generator) appendTiled(fn *target.FuncDef) {
	const track = 0
	ck := gen.opts.Checkpoint

	if ck {
		// tile_size must exist before the parallel region: the
		// auxiliary counter starts below reference it.
		fn.Body = append(fn.Body, gen.tilePrelude(track, true)...)
		for _, aux := range []string{outerLoop1, outerLoop2, innerLoop2} {
			fn.Body = append(fn.Body, gen.loadedFlag(aux))
		}
		fn.Body = append(fn.Body,
			gen.a.New(target.Node{
				Kind: target.KindDecl,
				Var:  outerLoop1 + startSuffix,
				Type: target.TypeInt,
				Init: &target.Cond{
					If:   &target.PostInc{Name: outerLoop1 + loadedSuffix},
					Then: target.Num(0),
					Else: target.Ref(outerLoop1),
				},
			}),
			gen.a.New(target.Node{
				Kind: target.KindDecl,
				Var:  outerLoop2 + startSuffix,
				Type: target.TypeInt,
				Init: &target.Cond{
					If:   &target.PostInc{Name: outerLoop2 + loadedSuffix},
					Then: target.Ref(tileSizeVar),
					Else: target.Ref(outerLoop2),
				},
			}),
			gen.a.New(target.Node{
				Kind: target.KindDecl,
				Var:  innerLoop2 + startSuffix,
				Type: target.TypeInt,
				Init: target.Ref(innerLoop2),
			}),
		)
	}

	// The parallel region: every worker recomputes the tile geometry
	// locally, then the work-shared boundary and interior phases run with
	// a barrier between them.
	fn.Body = append(fn.Body, gen.a.New(target.Node{
		Kind: target.KindDirective, Directive: target.DirectiveParallelBegin,
	}))
	region := gen.a.New(target.Node{Kind: target.KindBlock})
	gen.a.AddChildren(region, gen.tilePrelude(track, false)...)
	share := target.DirectiveWorkShare
	if ck {
		share = target.DirectiveWorkShareOrdered
	}
	gen.a.AddChildren(region, gen.a.New(target.Node{
		Kind: target.KindDirective, Directive: share,
	}))
	phases := gen.parallelPhases(track)
	kept, calls := gen.placeCalls(phases, nil, ModeParallelInterior)
	gen.a.AddChildren(region, kept...)
	gen.a.AddChildren(region, calls...)
	fn.Body = append(fn.Body, region)

	// Serial closure over the residual band [max_tiles_n, n].
	fn.Body = append(fn.Body, gen.tilePrelude(track, false)...)
	stmts := gen.traverseAllTracks(ModeSerialClosure)
	kept, calls = gen.placeCalls(stmts, nil, ModeSerialClosure)
	fn.Body = append(fn.Body, kept...)
	fn.Body = append(fn.Body, calls...)
}
