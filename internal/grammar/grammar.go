// Package grammar holds the slice of the analysis front end's output that the
// traversal generator consumes: the tabulated nonterminals in topological
// order, the per-track running indices, and the per-table index-elimination
// flags. The front end itself (parsing, semantic analysis, the outside
// transformation) is a separate collaborator; descriptors arrive here either
// already built or serialized as an .hcl file.
package grammar

import (
	"fmt"
)

// RunningIndex is one loop index variable of a track's DP table. Every loop
// that binds the index shares this record, so identity comparisons can go by
// name.
type RunningIndex struct {
	Name string
}

// Track is one input-sequence dimension of the grammar.
type Track struct {
	// Left and Right are the row and column running indices of this
	// track's table.
	Left  *RunningIndex
	Right *RunningIndex
	// Seq names the input sequence variable whose length bounds the
	// table.
	Seq string
}

// TableDescriptor carries the yield-size analysis result for one
// (nonterminal, track) pair: an eliminated dimension collapses the table
// from quadratic to linear or constant.
type TableDescriptor struct {
	DeleteLeft  bool
	DeleteRight bool
}

// Nonterminal is one grammar symbol as seen by the generator.
type Nonterminal struct {
	Name      string
	Tabulated bool
	// Tables has one descriptor per track.
	Tables []TableDescriptor
	// EvalName is the evaluation routine computing one table cell. Empty
	// only for untabulated nonterminals.
	EvalName string
	// Rank is the symbol's position in the topological order, callees
	// first.
	Rank int
}

// Grammar is the generator's view of one grammar: its tracks and its
// nonterminals in topological order (callees before callers, so a cell only
// ever depends on already-visited sub-ranges).
type Grammar struct {
	Name   string
	Tracks []Track
	// NTs is ordered topologically; Rank mirrors the slice position.
	NTs []*Nonterminal
}

// New returns a grammar with trackCount tracks using the conventional
// t_<k>_i / t_<k>_j / t_<k>_seq variable names.
func New(name string, trackCount int) *Grammar {
	g := &Grammar{Name: name}
	for k := 0; k < trackCount; k++ {
		g.Tracks = append(g.Tracks, Track{
			Left:  &RunningIndex{Name: fmt.Sprintf("t_%d_i", k)},
			Right: &RunningIndex{Name: fmt.Sprintf("t_%d_j", k)},
			Seq:   fmt.Sprintf("t_%d_seq", k),
		})
	}
	return g
}

// TrackCount reports the number of tracks of the grammar's axiom.
func (g *Grammar) TrackCount() int {
	return len(g.Tracks)
}

// Add appends a nonterminal, assigning its topological rank from the
// insertion position.
func (g *Grammar) Add(nt *Nonterminal) *Nonterminal {
	nt.Rank = len(g.NTs)
	g.NTs = append(g.NTs, nt)
	return nt
}

// ValidationError reports a grammar that breaks the front-end contract.
// These are fatal: generation must not proceed on a descriptor whose
// invariants do not hold.
type ValidationError struct {
	NT     string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.NT == "" {
		return fmt.Sprintf("invalid grammar: %s", e.Reason)
	}
	return fmt.Sprintf("invalid grammar: nonterminal %q: %s", e.NT, e.Reason)
}

// Validate checks the contract the generator depends on: every nonterminal
// carries one table descriptor per track, and every tabulated nonterminal
// names its evaluation routine.
func (g *Grammar) Validate() error {
	if len(g.Tracks) == 0 {
		return &ValidationError{Reason: "grammar has no tracks"}
	}
	for _, nt := range g.NTs {
		if len(nt.Tables) != len(g.Tracks) {
			return &ValidationError{
				NT: nt.Name,
				Reason: fmt.Sprintf("has %d table descriptors for %d tracks",
					len(nt.Tables), len(g.Tracks)),
			}
		}
		if nt.Tabulated && nt.EvalName == "" {
			return &ValidationError{
				NT:     nt.Name,
				Reason: "tabulated but has no evaluation routine",
			}
		}
	}
	return nil
}
