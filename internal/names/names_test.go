package names

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phylokit/supermatrix/internal/partition"
)

func TestClean(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: ">sp3#sample|*0-sub  subsample", want: "sp3_sample0_sub_subsample"},
		{raw: "sample.valid..name_0", want: "sample.valid..name_0"},
		{raw: "Homo sapiens", want: "Homo_sapiens"},
		{raw: "taxon-", want: "taxon_"},
		{raw: "(x)", want: "x"},
		{raw: "***", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.raw))
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "sp1", Resolve("sp1#sample1", false))
	assert.Equal(t, "sp1_sample1", Resolve("sp1#sample1", true))
	assert.Equal(t, "sp1", Resolve(" >sp1#sample1 ", false))
	assert.Equal(t, "Mus_musculus", Resolve("Mus musculus", false))
	assert.Equal(t, "", Resolve("#sample0", false))
}

var alignments = []string{`
>sp0#sample0
ACGT
>sp1#sample0
ACGT
>sp2#sample0
ACGT
>sp3#sample0
ACGT
`, `
>sp0#sample0
ACGT
>sp1#sample1
ACGT
>sp2#sample0
ACGT
>sp4#sample0
ACGT
`, `
>sp0#sample0
ACGT
>sp5#sample0
ACGT
`}

func writeAlignments(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(alignments))
	for i, content := range alignments {
		paths[i] = filepath.Join(dir, "alg_test_"+string(rune('0'+i))+".fasta")
		require.NoError(t, os.WriteFile(paths[i], []byte(content), 0o600))
	}
	return paths
}

func TestBuildMap(t *testing.T) {
	files := writeAlignments(t)

	t.Run("full names", func(t *testing.T) {
		m, err := BuildMap(files, nil, MapOptions{FullNames: true})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"sp0#sample0": "sp0_sample0",
			"sp1#sample0": "sp1_sample0",
			"sp2#sample0": "sp2_sample0",
			"sp3#sample0": "sp3_sample0",
			"sp1#sample1": "sp1_sample1",
			"sp4#sample0": "sp4_sample0",
			"sp5#sample0": "sp5_sample0",
		}, m.Names)
		assert.Len(t, m.Inputs, 3)
		assert.Empty(t, m.Dropped)
	})

	t.Run("species roots", func(t *testing.T) {
		m, err := BuildMap(files, nil, MapOptions{})
		require.NoError(t, err)
		assert.Equal(t, "sp1", m.Names["sp1#sample0"])
		assert.Equal(t, "sp1", m.Names["sp1#sample1"])
		assert.Equal(t, []string{"sp0", "sp1", "sp2", "sp3", "sp4", "sp5"}, m.Terminals())
	})

	t.Run("keep 80 percent", func(t *testing.T) {
		m, err := BuildMap(files, nil, MapOptions{KeepPercent: 80})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"sp0#sample0": "sp0",
			"sp1#sample0": "sp1",
			"sp2#sample0": "sp2",
			"sp3#sample0": "sp3",
			"sp1#sample1": "sp1",
			"sp4#sample0": "sp4",
		}, m.Names)
		assert.Equal(t, []string{files[2]}, m.Dropped)
	})

	t.Run("keep 40 percent", func(t *testing.T) {
		m, err := BuildMap(files, nil, MapOptions{FullNames: true, KeepPercent: 40})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"sp0#sample0": "sp0_sample0",
			"sp1#sample0": "sp1_sample0",
			"sp2#sample0": "sp2_sample0",
			"sp3#sample0": "sp3_sample0",
		}, m.Names)
		require.Len(t, m.Inputs, 1)
		assert.Equal(t, files[0], m.Inputs[0].Path)
	})
}

func TestBuildMap_TablesFollowSequences(t *testing.T) {
	files := writeAlignments(t)
	table := filepath.Join(t.TempDir(), "morph.tsv")
	require.NoError(t, os.WriteFile(table, []byte("taxon\tc1\nsp6 extra\ta\n"), 0o600))

	m, err := BuildMap(files[:1], []string{table}, MapOptions{})
	require.NoError(t, err)
	require.Len(t, m.Inputs, 2)
	assert.Equal(t, partition.AlignedSequence, m.Inputs[0].Kind)
	assert.Equal(t, partition.Tabular, m.Inputs[1].Kind)
	assert.Equal(t, "sp6_extra", m.Names["sp6 extra"])
}

func TestBuildMap_EmptyName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.fasta")
	require.NoError(t, os.WriteFile(path, []byte(">#sample0\nACGT\n"), 0o600))

	_, err := BuildMap([]string{path}, nil, MapOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty terminal name")
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.fasta", "a.FAS", "notes.md", ".hidden.fasta", "sub/c.aln"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(">x\nA\n"), 0o600))
	}

	got, err := Discover(dir, partition.AlignedSequence)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.FAS"),
		filepath.Join(dir, "b.fasta"),
		filepath.Join(dir, "sub", "c.aln"),
	}, got.Files)
	assert.Equal(t, []string{filepath.Join(dir, "notes.md")}, got.Skipped)
}

func TestDiscover_Empty(t *testing.T) {
	dir := t.TempDir()
	_, err := Discover(dir, partition.Tabular)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain any")

	_, err = Discover(filepath.Join(dir, "missing"), partition.Tabular)
	require.Error(t, err)
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf("data/locus1.FNA")
	require.True(t, ok)
	assert.Equal(t, partition.AlignedSequence, kind)

	kind, ok = KindOf("morph.tab")
	require.True(t, ok)
	assert.Equal(t, partition.Tabular, kind)

	_, ok = KindOf("README.md")
	assert.False(t, ok)
}
