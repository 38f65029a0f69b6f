// Package cyk synthesizes the table-traversal function of a compiled dynamic
// programming program: the nested loops that visit every DP cell in an order
// consistent with the recurrence's data dependencies, the placement of each
// tabulated nonterminal's evaluation call at its one correct nesting depth,
// an optional two-phase tiled schedule for parallel execution, and optional
// checkpoint/restart plumbing for the loop indices.
//
// The package is pure tree construction: it builds a target.FuncDef and never
// executes the generated program. All structures are created fresh per
// Generate call and are immutable once returned.
package cyk

import (
	"fmt"

	"go.uber.org/zap"

	"cykgen/internal/grammar"
	"cykgen/internal/target"
)

// Mode selects which traversal variant a builder constructs. It is threaded
// explicitly through every builder; the same quadrant code serves several
// modes with small, mode-keyed differences in bounds and bookkeeping.
type Mode uint8

const (
	// ModeSingleThread is the plain bottom-up traversal.
	ModeSingleThread Mode = iota
	// ModeParallelInterior builds the work-shared tiled interior phase.
	ModeParallelInterior
	// ModeSerialClosure is the single-thread pass over the cells the
	// tiling pattern leaves uncovered.
	ModeSerialClosure
	// ModeOutside is the dual, outer-to-inner traversal.
	ModeOutside
)

func (m Mode) String() string {
	switch m {
	case ModeSingleThread:
		return "single-thread"
	case ModeParallelInterior:
		return "parallel-interior"
	case ModeSerialClosure:
		return "serial-closure"
	case ModeOutside:
		return "outside"
	}
	return "unknown"
}

// DefaultTileSize is the tile edge length used when no override is given.
const DefaultTileSize = 32

// Options configures one generation run.
type Options struct {
	// Enabled is false when the grammar requests no DP evaluation at all;
	// the traversal function is then emitted empty but still present,
	// because the generic driver always calls it.
	Enabled bool
	// Outside requests the dual traversal for outside grammars.
	Outside bool
	// Checkpoint threads resumable loop starts and one-shot loaded flags
	// through every loop of the traversal.
	Checkpoint bool
	// TileSize is the tile edge length of the parallel schedule; zero
	// means DefaultTileSize.
	TileSize int
}

// Well-known variable names in the generated function. The t_ prefix marks
// genuine table indices; the call placement pass uses it to ignore tile
// offsets in parallel mode.
const (
	mutexVar     = "mutex"
	tileSizeVar  = "tile_size"
	tileSizeEnv  = "TILE_SIZE"
	maxTilesVar  = "max_tiles"
	maxTilesLen  = "max_tiles_n"
	loadFlagVar  = "load_checkpoint"
	outerLoop1   = "outer_loop_1_idx"
	outerLoop2   = "outer_loop_2_idx"
	innerLoop2   = "inner_loop_2_idx"
	loadedSuffix = "_loaded"
	startSuffix  = "_start"
	tileOffsetZ  = "z"
	tileOffsetY  = "y"
	tileSpanVar  = "x"
	indexPrefix  = "t_"
)

// invariantError marks a broken construction-time contract. Builders panic
// with it and Generate converts the panic into an error, so a violation
// aborts the whole run with a diagnostic instead of emitting broken code.
type invariantError struct {
	msg string
}

func (e invariantError) Error() string {
	return "traversal invariant violated: " + e.msg
}

type generator struct {
	g    *grammar.Grammar
	opts Options
	log  *zap.Logger
	a    *target.Arena
}

// loopPair bundles a loop with its end-state declaration: the value the loop
// variable would hold one step past termination, re-declared after the loop
// so statements outside it (top row, last column, corner) can still address
// the next logical index.
type loopPair struct {
	loop     target.NodeID
	endState target.NodeID
}

// newLoopPair checks the one identity invariant the pair carries: loop and
// end state must name the same variable.
func (gen *generator) newLoopPair(loop, endState target.NodeID) loopPair {
	lv := gen.a.At(loop).Var
	ev := gen.a.At(endState).Var
	if lv != ev {
		panic(invariantError{msg: fmt.Sprintf(
			"loop binds %q but its end state declares %q", lv, ev)})
	}
	return loopPair{loop: loop, endState: endState}
}
