package grammar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foldDescriptor = `
grammar "fold" {
  tracks = 1

  nonterminal "struct" {
    table {}
  }

  nonterminal "weak" {
    eval = "nt_tabulate_weak_custom"
    table {
      delete_left = true
    }
  }

  nonterminal "dangle" {
    tabulated = false
    table {}
  }
}
`

func TestLoadBytes(t *testing.T) {
	g, err := LoadBytes([]byte(foldDescriptor), "fold.hcl")
	require.NoError(t, err)

	assert.Equal(t, "fold", g.Name)
	assert.Equal(t, 1, g.TrackCount())
	assert.Equal(t, "t_0_i", g.Tracks[0].Left.Name)
	assert.Equal(t, "t_0_j", g.Tracks[0].Right.Name)
	assert.Equal(t, "t_0_seq", g.Tracks[0].Seq)

	require.Len(t, g.NTs, 3)

	st := g.NTs[0]
	assert.Equal(t, "struct", st.Name)
	assert.True(t, st.Tabulated)
	assert.Equal(t, "nt_tabulate_struct", st.EvalName)
	assert.Equal(t, 0, st.Rank)
	require.Len(t, st.Tables, 1)
	assert.False(t, st.Tables[0].DeleteLeft)
	assert.False(t, st.Tables[0].DeleteRight)

	weak := g.NTs[1]
	assert.Equal(t, "nt_tabulate_weak_custom", weak.EvalName)
	assert.True(t, weak.Tables[0].DeleteLeft)
	assert.Equal(t, 1, weak.Rank)

	dangle := g.NTs[2]
	assert.False(t, dangle.Tabulated)
	assert.Empty(t, dangle.EvalName)
}

func TestLoadBytesMissingTables(t *testing.T) {
	// Absent table blocks default to full quadratic descriptors, one per
	// track.
	src := `
grammar "align" {
  tracks = 2

  nonterminal "ali" {}
}
`
	g, err := LoadBytes([]byte(src), "align.hcl")
	require.NoError(t, err)
	require.Len(t, g.NTs, 1)
	assert.Equal(t, []TableDescriptor{{}, {}}, g.NTs[0].Tables)
}

func TestLoadBytesErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "syntax",
			src:  `grammar "x" {`,
			want: "parsing grammar descriptor",
		},
		{
			name: "no grammar block",
			src:  ``,
			want: "expected exactly one grammar block, found 0",
		},
		{
			name: "two grammar blocks",
			src: `
grammar "a" { tracks = 1 }
grammar "b" { tracks = 1 }
`,
			want: "expected exactly one grammar block, found 2",
		},
		{
			name: "zero tracks",
			src:  `grammar "x" { tracks = 0 }`,
			want: "tracks must be at least 1",
		},
		{
			name: "non-bool tabulated",
			src: `
grammar "x" {
  tracks = 1
  nonterminal "a" {
    tabulated = 3
  }
}
`,
			want: "tabulated: expected bool",
		},
		{
			name: "non-bool delete_left",
			src: `
grammar "x" {
  tracks = 1
  nonterminal "a" {
    table {
      delete_left = "yes"
    }
  }
}
`,
			want: "delete_left: expected bool",
		},
		{
			name: "too many tables",
			src: `
grammar "x" {
  tracks = 1
  nonterminal "a" {
    table {}
    table {}
  }
}
`,
			want: "2 table blocks for 1 tracks",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tc.src), tc.name+".hcl")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fold.hcl")
	require.NoError(t, os.WriteFile(path, []byte(foldDescriptor), 0o644))

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fold", g.Name)

	_, err = LoadFile(filepath.Join(dir, "absent.hcl"))
	assert.Error(t, err)
}
