package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/phylokit/supermatrix/internal/matrix"
	"github.com/phylokit/supermatrix/internal/names"
	"github.com/phylokit/supermatrix/internal/partition"
	"github.com/phylokit/supermatrix/internal/state"
	"github.com/phylokit/supermatrix/internal/terminal"
)

// ErrNoData is returned when every input file was excluded.
var ErrNoData = errors.New("no informative data left to write")

// Run executes the whole pipeline and writes every output file. The
// returned report is valid up to the point of failure.
func (e *Engine) Run(ctx context.Context) (report *Report, err error) {
	report = &Report{RootName: e.cfg.RootName}
	e.logger.Info("starting run", slog.String("root_name", e.cfg.RootName))

	if e.store != nil {
		run, serr := e.store.CreateRun(e.cfg.RootName)
		if serr != nil {
			return report, fmt.Errorf("failed to create run: %w", serr)
		}
		report.RunID = run.ID
		e.logger.Debug("created run", slog.String("run_id", run.ID))
		defer func() {
			status, msg := state.RunStatusCompleted, ""
			if err != nil {
				status, msg = state.RunStatusFailed, err.Error()
			}
			stats := state.RunStats{Terminals: report.Terminals, Characters: report.Characters}
			if cerr := e.store.CompleteRun(run.ID, status, msg, stats); cerr != nil {
				e.logger.Warn("failed to complete run record", slog.String("run_id", run.ID), slog.String("error", cerr.Error()))
			}
		}()
	}

	seqFiles, tableFiles, err := e.discover(report)
	if err != nil {
		return report, err
	}

	nameMap, err := names.BuildMap(seqFiles, tableFiles, names.MapOptions{
		FullNames:   e.cfg.FullNames,
		KeepPercent: e.cfg.KeepPercentile,
	})
	if err != nil {
		return report, err
	}
	for _, path := range nameMap.Dropped {
		e.logger.Info("file below occupancy percentile", slog.String("file", path))
		e.recordFile(report.RunID, state.RunFile{Path: path, Kind: string(partition.AlignedSequence), Status: state.FileExcluded, Reason: "below occupancy percentile"})
	}
	report.Dropped = nameMap.Dropped

	scratch, err := terminal.NewScratch(e.cfg.Scratch, e.cfg.ScratchDir)
	if err != nil {
		return report, err
	}
	set, err := terminal.NewSet(nameMap.Terminals(), scratch, e.logger)
	if err != nil {
		_ = scratch.Close()
		return report, err
	}
	defer func() {
		if cerr := set.Close(); cerr != nil {
			e.logger.Warn("failed to remove scratch data", slog.String("error", cerr.Error()))
		}
	}()

	registry := partition.NewRegistry()
	var coll partition.Collection
	opts := partition.LoadOptions{Names: nameMap.Names, Reduction: e.reduction, Registry: registry}

	err = e.process(ctx, nameMap.Inputs, opts, func(p *partition.Partition) error {
		fr := describe(p)
		if p.InformativeCount() == 0 {
			fr.Reason = "no informative characters"
			e.logger.Warn("file has no informative characters, excluding it", slog.String("file", p.Origin))
			report.Excluded = append(report.Excluded, fr)
			e.recordFile(report.RunID, fileRecord(report.RunID, fr, state.FileExcluded))
			return nil
		}

		p.PruneDerived()
		fr = describe(p)
		if err := set.Feed(p); err != nil {
			return err
		}
		coll.Add(p)

		attrs := []any{slog.String("file", p.Origin), slog.Int("terminals", fr.Terminals)}
		for _, s := range fr.Subpartitions {
			attrs = append(attrs, slog.Group(string(s.Type), slog.Int("characters", s.Size), slog.Int("informative", s.Informative)))
		}
		e.logger.Info("retained file", attrs...)
		report.Retained = append(report.Retained, fr)
		e.recordFile(report.RunID, fileRecord(report.RunID, fr, state.FileRetained))
		return nil
	})
	if err != nil {
		return report, err
	}

	report.Pruned = set.Prune()
	if set.Len() == 0 || coll.Len() == 0 {
		return report, ErrNoData
	}

	if e.cfg.GeneContent {
		region, ok, err := set.DeriveGeneContent()
		if err != nil {
			return report, err
		}
		if ok {
			coll.Append(region)
		}
	}

	report.Terminals = set.Len()
	report.Characters = coll.TotalSize()
	report.Regions = regionReports(coll.Regions())
	for _, entry := range set.Records()[0].Ledger {
		report.Informative += len(entry.Informative)
	}

	if err := e.emit(matrix.NewWriter(set.Records(), coll.Regions(), registry), report); err != nil {
		return report, err
	}

	logPath := filepath.Join(e.cfg.OutputDir, e.cfg.RootName+".log.yaml")
	report.Outputs = append(report.Outputs, logPath)
	if err := writeYAML(logPath, report); err != nil {
		return report, err
	}

	e.logger.Info("run completed",
		slog.Int("terminals", report.Terminals),
		slog.Int("characters", report.Characters),
		slog.Int("regions", len(report.Regions)))
	return report, nil
}

// discover lists the input files of the configured directories.
func (e *Engine) discover(report *Report) (seqFiles, tableFiles []string, err error) {
	dirs := []struct {
		dir  string
		kind partition.FileKind
		out  *[]string
	}{
		{e.cfg.FastaDir, partition.AlignedSequence, &seqFiles},
		{e.cfg.TableDir, partition.Tabular, &tableFiles},
	}
	for _, d := range dirs {
		if d.dir == "" {
			continue
		}
		found, err := names.Discover(d.dir, d.kind)
		if err != nil {
			return nil, nil, err
		}
		for _, path := range found.Skipped {
			e.logger.Warn("skipping file with unrecognized extension", slog.String("file", path))
			e.recordFile(report.RunID, state.RunFile{Path: path, Kind: string(d.kind), Status: state.FileSkipped, Reason: "unrecognized extension"})
		}
		report.Skipped = append(report.Skipped, found.Skipped...)
		*d.out = found.Files
	}
	return seqFiles, tableFiles, nil
}

// process prepares every input and hands the partitions to feed in input
// order. With Jobs > 1 files are loaded concurrently; feed is still called
// from a single goroutine.
func (e *Engine) process(ctx context.Context, inputs []names.Input, opts partition.LoadOptions, feed func(*partition.Partition) error) error {
	if e.cfg.Jobs <= 1 {
		for _, in := range inputs {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := e.prepare(in, opts)
			if err != nil {
				return err
			}
			if err := feed(p); err != nil {
				return err
			}
		}
		return nil
	}

	loaded := make([]*partition.Partition, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Jobs)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := e.prepare(in, opts)
			if err != nil {
				return err
			}
			loaded[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, p := range loaded {
		if err := feed(p); err != nil {
			return err
		}
		loaded[i] = nil
	}
	return nil
}

// prepare loads one file, codes its indels and marks informative columns.
func (e *Engine) prepare(in names.Input, opts partition.LoadOptions) (*partition.Partition, error) {
	e.logger.Debug("loading file", slog.String("file", in.Path), slog.String("kind", string(in.Kind)))
	p, err := partition.Load(in.Path, in.Kind, opts)
	if err != nil {
		return nil, err
	}
	if e.cfg.Indels {
		p.CodeIndels()
	}
	p.AnalyzeInformative()
	return p, nil
}

type output struct {
	name  string
	write func(io.Writer) error
}

// emit writes the partition map first so an uninformative region fails the
// run before any matrix is written.
func (e *Engine) emit(w *matrix.Writer, report *Report) error {
	if err := os.MkdirAll(e.cfg.OutputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	root := e.cfg.RootName

	outputs := []output{
		{root + ".part", w.WritePartitionMap},
		{root + ".phy", func(out io.Writer) error { return w.WritePhylip(out) }},
	}
	for _, t := range w.Types() {
		outputs = append(outputs, output{matrix.PerTypeFile(root, t), func(out io.Writer) error { return w.WritePhylip(out, t) }})
	}
	outputs = append(outputs,
		output{root + ".nex", func(out io.Writer) error { return w.WriteNexusSets(out, root) }},
		output{root + ".ss", w.WriteTNT},
	)

	for _, o := range outputs {
		path := filepath.Join(e.cfg.OutputDir, o.name)
		if err := writeFile(path, o.write); err != nil {
			return err
		}
		report.Outputs = append(report.Outputs, path)
		e.logger.Debug("wrote output", slog.String("file", path))
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path) //nolint:gosec // G304: path is built from the output directory
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (e *Engine) recordFile(runID string, f state.RunFile) {
	if e.store == nil || runID == "" {
		return
	}
	f.RunID = runID
	if err := e.store.RecordFile(f); err != nil {
		e.logger.Warn("failed to record file", slog.String("file", f.Path), slog.String("error", err.Error()))
	}
}

func fileRecord(runID string, fr FileReport, status state.FileStatus) state.RunFile {
	return state.RunFile{
		RunID:       runID,
		Path:        fr.Path,
		Kind:        string(fr.Kind),
		Status:      status,
		Characters:  fr.Characters(),
		Informative: fr.InformativeCount(),
		Reason:      fr.Reason,
	}
}
