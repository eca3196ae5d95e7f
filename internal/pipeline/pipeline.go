// Package pipeline drives a single streaming pass of the variant filters
// over a VCF file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ousamg/indb-filter/internal/filter"
	"github.com/ousamg/indb-filter/internal/output"
	"github.com/ousamg/indb-filter/internal/region"
	"github.com/ousamg/indb-filter/internal/stats"
	"github.com/ousamg/indb-filter/internal/vcf"
)

// progressInterval is how often, in records, progress is logged.
const progressInterval = 100000

// Pipeline filters one VCF file according to a Config.
type Pipeline struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a pipeline for cfg.
func New(cfg Config) *Pipeline {
	if cfg.OnMalformed == "" {
		cfg.OnMalformed = filter.MalformedAbort
	}
	return &Pipeline{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for progress and warning messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// OutputPath returns the file the pipeline writes unless in dry-run mode.
func (p *Pipeline) OutputPath() string {
	return p.cfg.OutputPath()
}

// Run executes the pipeline. Output is created only after every
// precondition holds, and is removed again if the run fails part way.
// Metrics are returned even on error and reflect the records processed so far.
func (p *Pipeline) Run(ctx context.Context) (stats.Metrics, error) {
	var m stats.Metrics

	if err := p.cfg.Validate(); err != nil {
		return m, fmt.Errorf("invalid configuration: %w", err)
	}

	outPath := p.cfg.OutputPath()
	if !p.cfg.DryRun {
		if _, err := os.Stat(outPath); err == nil {
			return m, &PreconditionError{Path: outPath, Reason: ErrOutputExists}
		} else if !errors.Is(err, os.ErrNotExist) {
			return m, fmt.Errorf("check output file: %w", err)
		}
	}

	input := p.cfg.Input
	if p.cfg.RegionFile != "" {
		tmpPath, res, err := p.regionPrePass(ctx)
		if tmpPath != "" {
			defer p.removeTemp(tmpPath)
		}
		if err != nil {
			return m, err
		}
		m.RegionFiltered = res.Removed
		if res.Kept == 0 {
			return m, &PreconditionError{Path: p.cfg.RegionFile, Reason: ErrNoRegionSurvivors}
		}
		input = tmpPath
	}

	parser, err := vcf.NewParser(input)
	if err != nil {
		return m, err
	}
	defer parser.Close()

	if p.cfg.DryRun {
		err = p.stream(ctx, parser, nil, &m)
		return m, err
	}

	err = p.writeOutput(ctx, parser, outPath, &m)
	return m, err
}

// writeOutput streams parser into a new file at path. The file is created
// exclusively and deleted when anything goes wrong.
func (p *Pipeline) writeOutput(ctx context.Context, parser *vcf.Parser, path string, m *stats.Metrics) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return &PreconditionError{Path: path, Reason: ErrOutputExists}
		}
		return fmt.Errorf("create output file: %w", err)
	}

	w := output.NewVCFWriter(f)
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output file: %w", cerr)
		}
		if err != nil {
			if rerr := os.Remove(path); rerr != nil {
				p.logger.Warn("could not remove partial output", zap.String("path", path), zap.Error(rerr))
			}
		}
	}()

	p.logger.Debug("writing output", zap.String("path", path))
	return p.stream(ctx, parser, w, m)
}

// stream applies the filters to every record from r and writes survivors
// to w. A nil w counts without writing.
func (p *Pipeline) stream(ctx context.Context, r vcf.RecordReader, w *output.VCFWriter, m *stats.Metrics) error {
	if w != nil {
		if err := w.WriteHeader(r.Header()); err != nil {
			return err
		}
	}

	for {
		if p.cfg.Limit > 0 && m.Seen >= p.cfg.Limit {
			p.logger.Debug("record limit reached", zap.Int("limit", p.cfg.Limit))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := r.Next()
		if err != nil {
			if !filter.IsMalformed(err) {
				return err
			}
			m.Seen++
			if err := p.malformed(m, err); err != nil {
				return err
			}
			continue
		}
		if rec == nil {
			return nil
		}

		m.Seen++
		if m.Seen%progressInterval == 0 {
			p.logger.Debug("reading records", zap.Int("seen", m.Seen))
		}

		keep, err := p.evaluate(rec, m)
		if err != nil {
			err = fmt.Errorf("line %d (%s): %w", r.LineNumber(), rec.Label(), err)
			if err := p.malformed(m, err); err != nil {
				return err
			}
			continue
		}
		if !keep {
			continue
		}

		m.Passed++
		if w != nil {
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
}

// evaluate runs every filter on rec and updates the rejection counters.
// Both annotations are parsed before any counter changes, so a malformed
// record leaves the metrics untouched.
func (p *Pipeline) evaluate(rec *vcf.Record, m *stats.Metrics) (bool, error) {
	ind, err := filter.EvaluateIndications(rec.Info, p.cfg.Filter)
	if err != nil {
		return false, err
	}
	af, err := filter.EvaluateAF(rec.Info, p.cfg.Filter)
	if err != nil {
		return false, err
	}

	keep := true

	switch {
	case !ind.Present:
		m.MissingIndications++
		keep = false
	case !ind.Pass:
		m.UnderThreshold++
		if ind.Unique {
			m.Unique++
		}
		keep = false
		p.logger.Debug("variant below threshold",
			zap.String("variant", rec.Label()),
			zap.Int("threshold", p.cfg.Filter.Threshold),
			zap.Int("total", ind.Total))
	}

	switch {
	case af.MultiValued:
		m.AFMultiValued++
	case !af.Pass:
		m.AFFiltered++
		keep = false
	}

	return keep, nil
}

// malformed applies the malformed-record policy to err.
func (p *Pipeline) malformed(m *stats.Metrics, err error) error {
	if p.cfg.OnMalformed != filter.MalformedSkip {
		return err
	}
	m.Malformed++
	p.logger.Warn("skipping malformed record", zap.Error(err))
	return nil
}

// regionPrePass writes the records of the input that overlap the region
// file to a temporary bgzipped VCF. The returned path, when non-empty, must
// be removed by the caller on every exit path.
func (p *Pipeline) regionPrePass(ctx context.Context) (path string, res region.Result, err error) {
	p.logger.Info("filtering regions", zap.String("bed", p.cfg.RegionFile))

	intervals, err := region.LoadBED(p.cfg.RegionFile)
	if err != nil {
		return "", res, err
	}
	idx := region.NewIndex(intervals)
	p.logger.Debug("loaded regions",
		zap.Int("intervals", idx.Len()),
		zap.Int("chromosomes", idx.Chromosomes()))

	parser, err := vcf.NewParser(p.cfg.Input)
	if err != nil {
		return "", res, err
	}
	defer parser.Close()

	tmp, err := os.CreateTemp(p.cfg.TempDir, "indb-filter-*.vcf.gz")
	if err != nil {
		return "", res, fmt.Errorf("create temp file: %w", err)
	}
	path = tmp.Name()

	w := output.NewVCFWriter(tmp)
	res, err = region.FilterByRegions(ctx, parser, idx, w, p.cfg.OnMalformed, p.logger)
	if cerr := w.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("region pre-pass: %w", cerr)
	}
	if cerr := tmp.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close temp file: %w", cerr)
	}
	if err != nil {
		return path, res, err
	}

	p.logger.Info("finished filtering regions",
		zap.Int("kept", res.Kept),
		zap.Int("removed", res.Removed))
	return path, res, nil
}

func (p *Pipeline) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("could not remove temp file", zap.String("path", path), zap.Error(err))
	}
}
