package cyk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cykgen/internal/grammar"
	"cykgen/internal/target"
)

// singleTrack returns a one-track grammar with a single quadratic tabulated
// nonterminal.
func singleTrack(t *testing.T) *grammar.Grammar {
	t.Helper()
	g := grammar.New("fold", 1)
	g.Add(&grammar.Nonterminal{
		Name:      "struct",
		Tabulated: true,
		Tables:    []grammar.TableDescriptor{{}},
		EvalName:  "nt_tabulate_struct",
	})
	return g
}

func generate(t *testing.T, g *grammar.Grammar, opts Options) *target.FuncDef {
	t.Helper()
	opts.Enabled = true
	fn, err := Generate(g, opts, zap.NewNop())
	require.NoError(t, err)
	return fn
}

func TestSingleTrackCoverage(t *testing.T) {
	g := singleTrack(t)
	fn := generate(t, g, Options{})

	for n := 0; n <= 8; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			visits := newInterp(t, fn, map[string]int{"t_0_seq": n}, false).run(fn)
			cells := cellsOf(t, visits, "nt_tabulate_struct")

			seen := map[cell]int{}
			for _, c := range cells {
				seen[c]++
			}
			for r := 0; r <= n; r++ {
				for c := r; c <= n; c++ {
					assert.Equalf(t, 1, seen[cell{r, c}], "cell (%d,%d)", r, c)
				}
			}
			// Nothing below the diagonal or out of range.
			assert.Len(t, cells, (n+1)*(n+2)/2)
		})
	}
}

func TestSingleTrackDependencyOrder(t *testing.T) {
	g := singleTrack(t)
	fn := generate(t, g, Options{})

	const n = 7
	visits := newInterp(t, fn, map[string]int{"t_0_seq": n}, false).run(fn)
	cells := cellsOf(t, visits, "nt_tabulate_struct")

	done := map[cell]bool{}
	for _, c := range cells {
		// Every strictly shorter sub-range of [row, col] must already
		// be evaluated when (row, col) is.
		for r := c.row; r <= c.col; r++ {
			for j := r; j <= c.col; j++ {
				sub := cell{r, j}
				if j-r >= c.col-c.row {
					continue
				}
				assert.Truef(t, done[sub], "cell %v evaluated before its dependency %v", c, sub)
			}
		}
		done[c] = true
	}
}

func TestOutsideTraversalOrder(t *testing.T) {
	g := singleTrack(t)
	fn := generate(t, g, Options{Outside: true})

	const n = 5
	visits := newInterp(t, fn, map[string]int{"t_0_seq": n}, false).run(fn)
	cells := cellsOf(t, visits, "nt_tabulate_struct")

	// Rows ascend from the empty-context corner; within a row, columns
	// ascend from n - row. Outer contexts always precede the inner
	// contexts derived from them.
	var want []cell
	for i := 0; i <= n; i++ {
		for j := n - i; j <= n; j++ {
			want = append(want, cell{i - 1, j})
		}
	}
	assert.Equal(t, want, cells)
}

func TestTwoTrackCoverage(t *testing.T) {
	g := grammar.New("align", 2)
	g.Add(&grammar.Nonterminal{
		Name:      "ali",
		Tabulated: true,
		Tables:    []grammar.TableDescriptor{{}, {}},
		EvalName:  "nt_tabulate_ali",
	})
	fn := generate(t, g, Options{})

	n0, n1 := 3, 4
	visits := newInterp(t, fn, map[string]int{"t_0_seq": n0, "t_1_seq": n1}, false).run(fn)

	type quad struct{ r0, c0, r1, c1 int }
	seen := map[quad]int{}
	for _, v := range visits {
		require.Len(t, v.args, 4)
		seen[quad{v.args[0], v.args[1], v.args[2], v.args[3]}]++
	}
	count := 0
	for r0 := 0; r0 <= n0; r0++ {
		for c0 := r0; c0 <= n0; c0++ {
			for r1 := 0; r1 <= n1; r1++ {
				for c1 := r1; c1 <= n1; c1++ {
					count++
					assert.Equalf(t, 1, seen[quad{r0, c0, r1, c1}],
						"cell (%d,%d)x(%d,%d)", r0, c0, r1, c1)
				}
			}
		}
	}
	assert.Len(t, seen, count)
}

func TestTrackNestingOrder(t *testing.T) {
	// Track 0 must end up outermost: the first loop of the body binds
	// t_0_j, and t_1 loops only occur nested inside t_0 loops.
	g := grammar.New("align", 2)
	g.Add(&grammar.Nonterminal{
		Name:      "ali",
		Tabulated: true,
		Tables:    []grammar.TableDescriptor{{}, {}},
		EvalName:  "nt_tabulate_ali",
	})
	fn := generate(t, g, Options{})

	first := firstLoopVar(fn)
	assert.Equal(t, "t_0_j", first)
}
