package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/phylokit/supermatrix/internal/alphabet"
	"github.com/phylokit/supermatrix/internal/partition"
	"github.com/phylokit/supermatrix/internal/state"
	"github.com/phylokit/supermatrix/internal/terminal"
	"github.com/phylokit/supermatrix/internal/testutil"
)

const locus0 = `>sp0#sample0
TATTCCTCTATTA---GTAATTGGGCTTCTACTT-TTCCAAGAGCAACTAAAAATATTCGGCGTATC---
>sp1#sample0
-ATTCCTCTATTA---GTAATTGGGCTTCTACTT-TTCCATGAGCAACTAAAAATATACGGCGTATCT--
>sp2#sample0
--TTCCTCTATTAA-AGGAATTGGG--TCTACATTTTCCACGAGCAACTACCCATATTCGGCGTATCTG-
>sp3#sample0
---TCCTCTATTAA-AGGAATTGGG--TCTACATTTTCCAAGAGCAACTACCCATATTC-GCGTATCTGG
`

const locus1 = `>sp0#sample0
CTTCTTTGCATTTATTACGATCGATTCTCCATGAATG------TAGTTTTAGTAAAGAAAATTTGCAGAAATCTCTGATT
>sp1#sample1
CTTCGTTGCATTTATTACGATC-ATTCTCCATGAATG------TAGTTTTAGTAAAGAATATTTGCAGAAATCTCTGACT
>sp2#sample0
CTTCGCTGCAT--ATTACGATC-ATTCTCCATGAATG------TAGTTTTAGTTAAGAATATTTGCAGAAATCTCTGACT
>sp4#sample0
CTTCGCTGCAT--ATTACGATC-ATTCTCCATGAATGATAATCTAGTTTTAGTTAAGAATATTTGCAGAAATCTCTGATT
`

// Identical sequences carry no signal.
const locusFlat = `>sp0#sample0
ACGTACGT
>sp9#sample0
ACGTACGT
`

const morphTable = "taxon\tc1\tc2\n" +
	"sp0\ta\tx\n" +
	"sp1\ta\ty\n" +
	"sp2\tb\tx|y\n" +
	"sp5\tb\tz\n"

type project struct {
	fastaDir string
	tableDir string
	outDir   string
}

func writeProject(t *testing.T, fasta map[string]string, tables map[string]string) project {
	t.Helper()
	root := t.TempDir()
	p := project{
		fastaDir: filepath.Join(root, "fasta"),
		tableDir: filepath.Join(root, "tables"),
		outDir:   filepath.Join(root, "out"),
	}
	write := func(dir string, files map[string]string) {
		require.NoError(t, os.MkdirAll(dir, 0o750))
		for name, content := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
		}
	}
	write(p.fastaDir, fasta)
	if tables != nil {
		write(p.tableDir, tables)
	} else {
		p.tableDir = ""
	}
	return p
}

func (p project) config(t *testing.T) Config {
	return Config{
		FastaDir:    p.fastaDir,
		TableDir:    p.tableDir,
		OutputDir:   p.outDir,
		RootName:    "matrix",
		Indels:      true,
		GeneContent: true,
		Scratch:     terminal.ScratchMemory,
		Logger:      testutil.NewTestLogger(t),
	}
}

func runEngine(t *testing.T, cfg Config) (*Report, error) {
	t.Helper()
	eng, err := New(cfg)
	require.NoError(t, err)
	return eng.Run(context.Background())
}

func readOutput(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestRun_EndToEnd(t *testing.T) {
	p := writeProject(t,
		map[string]string{"locus0.fasta": locus0, "locus1.fasta": locus1, "notes.md": "skip me"},
		map[string]string{"morph.tsv": morphTable})

	report, err := runEngine(t, p.config(t))
	require.NoError(t, err)

	assert.Equal(t, 6, report.Terminals)
	assert.Equal(t, 161, report.Characters)
	assert.Equal(t, 15, report.Informative)
	assert.Len(t, report.Retained, 3)
	assert.Empty(t, report.Excluded)
	assert.Equal(t, []string{filepath.Join(p.fastaDir, "notes.md")}, report.Skipped)

	// two sequence regions, one indel region each, the table and gene content
	part := readOutput(t, p.outDir, "matrix.part")
	assert.Equal(t, "GTR+I+G, p1 = 1-70\n"+
		"BIN, p2 = 71-74\n"+
		"GTR+I+G, p3 = 75-154\n"+
		"BIN, p4 = 155-157\n"+
		"MULTI3_GTR, p5 = 158-159\n"+
		"BIN, p6 = 160-161\n", part)

	phy := readOutput(t, p.outDir, "matrix.phy")
	lines := strings.Split(strings.TrimSuffix(phy, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "6 161", lines[0])
	names := make([]string, 0, 6)
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		require.Len(t, fields, 2)
		assert.Len(t, fields[1], 161)
		assert.Equal(t, strings.Repeat(" ", 13-len(fields[0])), line[len(fields[0]):13])
		names = append(names, fields[0])
	}
	assert.Equal(t, []string{"sp0", "sp1", "sp2", "sp3", "sp4", "sp5"}, names)

	// sp5 only occurs in the table
	assert.Equal(t, "sp5          "+strings.Repeat("-", 157)+"12"+"00", lines[6])
	// sp3 lacks locus1 and the table
	assert.True(t, strings.HasPrefix(lines[4], "sp3          ---TCCTCTATTAA-AGGAATTGGG"))
	assert.True(t, strings.HasSuffix(lines[4], "0110"+strings.Repeat("-", 83+2)+"10"))

	morph := readOutput(t, p.outDir, "matrix_morphological.phy")
	assert.Equal(t, "6 2\n"+
		"sp0          00\n"+
		"sp1          01\n"+
		"sp2          1?\n"+
		"sp3          --\n"+
		"sp4          --\n"+
		"sp5          12\n", morph)

	nex := readOutput(t, p.outDir, "matrix.nex")
	assert.Contains(t, nex, "\tcharset part3 = matrix_nucleic.phy: 71-150;\n")
	assert.Contains(t, nex, "\tcharset part4 = matrix_indel.phy: 5-7;\n")
	assert.Contains(t, nex, "charpartition mine = GTR+I+G:part1, GTR2:part2, GTR+I+G:part3, GTR2:part4, MK:part5, GTR2:part6;")

	tnt := readOutput(t, p.outDir, "matrix.ss")
	assert.True(t, strings.HasPrefix(tnt, "nstates 32;\nxread\n'xread file processed with supermatrix.'\n15 6\n"))
	assert.True(t, strings.HasSuffix(tnt, "\n;\n"))
	assert.Contains(t, tnt, "sp2          ")

	for _, typ := range []alphabet.CharType{alphabet.Nucleic, alphabet.Indel, alphabet.GeneContent} {
		_, err := os.Stat(filepath.Join(p.outDir, "matrix_"+string(typ)+".phy"))
		assert.NoError(t, err, typ)
	}

	var logged Report
	require.NoError(t, yaml.Unmarshal([]byte(readOutput(t, p.outDir, "matrix.log.yaml")), &logged))
	assert.Equal(t, report.Characters, logged.Characters)
	assert.Len(t, logged.Regions, 6)
	assert.Equal(t, 161, logged.Regions[5].End)
	assert.Len(t, logged.Outputs, len(report.Outputs))
}

func TestRun_ParallelLoadingMatchesSequential(t *testing.T) {
	p := writeProject(t,
		map[string]string{"locus0.fasta": locus0, "locus1.fasta": locus1},
		map[string]string{"morph.tsv": morphTable})

	cfg := p.config(t)
	_, err := runEngine(t, cfg)
	require.NoError(t, err)
	sequential := map[string]string{}
	for _, name := range []string{"matrix.phy", "matrix.part", "matrix.nex", "matrix.ss"} {
		sequential[name] = readOutput(t, p.outDir, name)
	}

	cfg.OutputDir = filepath.Join(t.TempDir(), "parallel")
	cfg.Jobs = 4
	cfg.Scratch = terminal.ScratchDisk
	cfg.ScratchDir = t.TempDir()
	_, err = runEngine(t, cfg)
	require.NoError(t, err)
	for name, want := range sequential {
		assert.Equal(t, want, readOutput(t, cfg.OutputDir, name), name)
	}
}

func TestRun_ExcludesUninformativeFiles(t *testing.T) {
	p := writeProject(t,
		map[string]string{"locus0.fasta": locus0, "flat.fasta": locusFlat},
		nil)

	cfg := p.config(t)
	cfg.GeneContent = false
	logger, logs := testutil.NewRecordingLogger(t)
	cfg.Logger = logger
	report, err := runEngine(t, cfg)
	require.NoError(t, err)

	warnings := logs.Find(slog.LevelWarn, "file has no informative characters, excluding it")
	require.Len(t, warnings, 1)
	assert.Equal(t, filepath.Join(p.fastaDir, "flat.fasta"), warnings[0].Attrs["file"])
	retained := logs.Find(slog.LevelInfo, "retained file")
	require.Len(t, retained, 1)
	assert.Equal(t, "70", retained[0].Attrs["nucleic.characters"])
	assert.Equal(t, "3", retained[0].Attrs["indel.informative"])

	require.Len(t, report.Excluded, 1)
	assert.Equal(t, filepath.Join(p.fastaDir, "flat.fasta"), report.Excluded[0].Path)
	assert.Equal(t, "no informative characters", report.Excluded[0].Reason)
	// sp9 only occurred in the excluded file
	assert.Equal(t, []string{"sp9"}, report.Pruned)
	assert.Equal(t, 4, report.Terminals)
	assert.Equal(t, "GTR+I+G, p1 = 1-70\nBIN, p2 = 71-74\n", readOutput(t, p.outDir, "matrix.part"))
}

func TestRun_NoIndelsNoGeneContent(t *testing.T) {
	p := writeProject(t, map[string]string{"locus0.fasta": locus0, "locus1.fasta": locus1}, nil)

	cfg := p.config(t)
	cfg.Indels = false
	cfg.GeneContent = false
	report, err := runEngine(t, cfg)
	require.NoError(t, err)

	assert.Equal(t, 150, report.Characters)
	assert.Equal(t, "GTR+I+G, p1 = 1-70\nGTR+I+G, p2 = 71-150\n", readOutput(t, p.outDir, "matrix.part"))
	_, err = os.Stat(filepath.Join(p.outDir, "matrix_indel.phy"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_NoData(t *testing.T) {
	p := writeProject(t, map[string]string{"flat.fasta": locusFlat}, nil)
	_, err := runEngine(t, p.config(t))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRun_FatalErrorCleansUpAndRecordsFailure(t *testing.T) {
	p := writeProject(t,
		map[string]string{"locus0.fasta": locus0, "zbad.fasta": ">sp0#s\nACGT\n>sp1#s\nACG\n"},
		nil)

	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	defer func() { _ = store.Close() }()

	scratchDir := t.TempDir()
	cfg := p.config(t)
	cfg.Scratch = terminal.ScratchDisk
	cfg.ScratchDir = scratchDir
	cfg.Store = store

	report, err := runEngine(t, cfg)
	var lenErr *partition.AlignmentLengthError
	require.True(t, errors.As(err, &lenErr))

	entries, rerr := os.ReadDir(scratchDir)
	require.NoError(t, rerr)
	assert.Empty(t, entries)

	run, gerr := store.GetRun(report.RunID)
	require.NoError(t, gerr)
	assert.Equal(t, state.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "different lengths")

	_, serr := os.Stat(filepath.Join(p.outDir, "matrix.phy"))
	assert.True(t, os.IsNotExist(serr))
}

func TestRun_RecordsHistory(t *testing.T) {
	p := writeProject(t,
		map[string]string{"locus0.fasta": locus0, "flat.fasta": locusFlat, "readme.md": "x"},
		nil)

	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	defer func() { _ = store.Close() }()

	cfg := p.config(t)
	cfg.Store = store
	report, err := runEngine(t, cfg)
	require.NoError(t, err)

	run, err := store.GetRun(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusCompleted, run.Status)
	assert.Equal(t, report.Terminals, run.Terminals)
	assert.Equal(t, report.Characters, run.Characters)

	files, err := store.ListFiles(report.RunID)
	require.NoError(t, err)
	statuses := map[state.FileStatus]int{}
	for _, f := range files {
		statuses[f.Status]++
	}
	assert.Equal(t, map[state.FileStatus]int{state.FileRetained: 1, state.FileExcluded: 1, state.FileSkipped: 1}, statuses)
}

func TestRun_KeepPercentile(t *testing.T) {
	p := writeProject(t, map[string]string{"locus0.fasta": locus0, "locus1.fasta": locus1, "small.fasta": locusFlat}, nil)

	cfg := p.config(t)
	cfg.KeepPercentile = 70
	report, err := runEngine(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(p.fastaDir, "small.fasta")}, report.Dropped)
	assert.Len(t, report.Retained, 2)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no inputs", cfg: Config{RootName: "m"}},
		{name: "no root", cfg: Config{FastaDir: "x"}},
		{name: "bad percentile", cfg: Config{FastaDir: "x", RootName: "m", KeepPercentile: 101}},
		{name: "bad encoding", cfg: Config{FastaDir: "x", RootName: "m", AAEncoding: "7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestInspect(t *testing.T) {
	p := writeProject(t, map[string]string{"locus0.fasta": locus0}, map[string]string{"morph.tsv": morphTable})

	fr, err := Inspect(filepath.Join(p.fastaDir, "locus0.fasta"), InspectOptions{Indels: true})
	require.NoError(t, err)
	assert.Equal(t, partition.AlignedSequence, fr.Kind)
	assert.Equal(t, 4, fr.Terminals)
	assert.Equal(t, []SubpartitionReport{
		{Type: alphabet.Nucleic, Size: 70, Informative: 5},
		{Type: alphabet.Indel, Size: 4, Informative: 3},
	}, fr.Subpartitions)
	assert.Empty(t, fr.Reason)

	fr, err = Inspect(filepath.Join(p.tableDir, "morph.tsv"), InspectOptions{})
	require.NoError(t, err)
	assert.Equal(t, []SubpartitionReport{{Type: alphabet.Morphological, Size: 2, Informative: 1, States: 3}}, fr.Subpartitions)

	_, err = Inspect("notes.md", InspectOptions{})
	assert.Error(t, err)
}
