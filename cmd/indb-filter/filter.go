package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ousamg/indb-filter/internal/duckdb"
	"github.com/ousamg/indb-filter/internal/filter"
	"github.com/ousamg/indb-filter/internal/pipeline"
	"github.com/ousamg/indb-filter/internal/stats"
)

type filterOptions struct {
	file    string
	output  string
	bed     string
	dryRun  bool
	meta    bool
	verbose bool
	debug   bool
}

func newFilterCmd() *cobra.Command {
	var opts filterOptions

	cmd := &cobra.Command{
		Use:   "filter -f <vcf-file> [options]",
		Short: "Filter a VCF file by regions, indications and allele frequency",
		Long: `Filter a VCF file and write the surviving variants to a bgzipped VCF.

Variants are removed when they fall outside the regions of a BED file, when
their summed indication count is below the threshold, when they have no
indication annotation, or when their allele frequency is above the ceiling.
The output defaults to filtered_<input>.gz in the working directory and is
never overwritten.`,
		Example: `  indb-filter filter -f inDB.vcf.gz
  indb-filter filter -f inDB.vcf.gz -t 10 -b exome.bed --allele-frequency 0.05
  indb-filter filter -f inDB.vcf.gz --dry-run
  indb-filter filter -f inDB.vcf.gz --on-malformed skip --history ~/.indb-filter/history.duckdb`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return &usageError{err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "VCF file to filter (use '-' for stdin)")
	f.StringVarP(&opts.output, "output", "o", "", "Output file (default: filtered_<input>.gz)")
	f.StringVarP(&opts.bed, "bed", "b", "", "Filter variants to regions contained in BED file")
	f.IntP("threshold", "t", filter.DefaultThreshold, "Minimum number of indications to share")
	f.Float64P("allele-frequency", "a", filter.DefaultAFMax, "Filter out variants over the given frequency")
	f.StringSlice("indication-key", filter.DefaultIndicationKeys(), "INFO key(s) holding label:count indications")
	f.String("af-key", filter.DefaultAFKey, "INFO key holding the allele frequency")
	f.String("on-malformed", string(filter.MalformedAbort), "What to do with malformed records: abort or skip")
	f.String("temp-dir", "", "Directory for the region pre-pass file (default: system temp dir)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Don't write a new output, just run")
	f.BoolVar(&opts.meta, "meta", false, "Print meta info after filtering")
	f.BoolVar(&opts.verbose, "verbose", false, "Be extra chatty")
	f.BoolVar(&opts.debug, "debug", false, "Run in debug mode (first 100 records only)")

	_ = viper.BindPFlag("filter.threshold", f.Lookup("threshold"))
	_ = viper.BindPFlag("filter.af_max", f.Lookup("allele-frequency"))
	_ = viper.BindPFlag("filter.indication_keys", f.Lookup("indication-key"))
	_ = viper.BindPFlag("filter.af_key", f.Lookup("af-key"))
	_ = viper.BindPFlag("filter.on_malformed", f.Lookup("on-malformed"))
	_ = viper.BindPFlag("filter.temp_dir", f.Lookup("temp-dir"))

	return cmd
}

// buildConfig assembles the pipeline configuration from flags and viper.
func buildConfig(opts filterOptions) (pipeline.Config, error) {
	policy, err := filter.ParseMalformedPolicy(viper.GetString("filter.on_malformed"))
	if err != nil {
		return pipeline.Config{}, &usageError{err: err}
	}

	cfg := pipeline.Config{
		Input:       opts.file,
		Output:      opts.output,
		RegionFile:  opts.bed,
		Filter:      filterConfigFromViper(),
		DryRun:      opts.dryRun,
		OnMalformed: policy,
		TempDir:     viper.GetString("filter.temp_dir"),
	}
	if opts.debug {
		cfg.Limit = pipeline.DebugLimit
	}

	if err := cfg.Validate(); err != nil {
		return pipeline.Config{}, &usageError{err: err}
	}
	return cfg, nil
}

func runFilter(cmd *cobra.Command, opts filterOptions) error {
	start := time.Now()

	if opts.debug {
		opts.verbose = true
	}
	if opts.verbose || opts.dryRun {
		opts.meta = true
	}

	cfg, err := buildConfig(opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(opts.verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	p := pipeline.New(cfg)
	p.SetLogger(logger)

	logger.Debug("beginning parse", zap.String("input", cfg.Input))
	m, err := p.Run(cmd.Context())
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, pipeline.ErrOutputExists) {
			logger.Info("hint: remove the previous output or choose another with --output")
		}
		return err
	}
	logger.Debug("finished filtering", zap.String("input", cfg.Input), zap.Duration("elapsed", elapsed))

	if msg, ok := stats.MissingIndicationsWarning(m); ok {
		logger.Warn(msg)
	}

	if opts.meta {
		if err := stats.Render(cmd.OutOrStdout(), cfg.Input, m, cfg.Filter, elapsed); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if path := viper.GetString("history.path"); path != "" {
		if err := recordRun(path, cfg, p.OutputPath(), m, start, elapsed); err != nil {
			// History is best effort; the output is already complete.
			logger.Warn("could not record run history", zap.String("path", path), zap.Error(err))
		}
	}

	return nil
}

func recordRun(path string, cfg pipeline.Config, output string, m stats.Metrics, start time.Time, elapsed time.Duration) error {
	store, err := duckdb.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.DryRun {
		output = ""
	}
	return store.RecordRuns(duckdb.Run{
		ID:         duckdb.NewRunID(),
		StartedAt:  start,
		Input:      duckdb.Fingerprint(cfg.Input),
		Output:     output,
		RegionFile: cfg.RegionFile,
		Threshold:  cfg.Filter.Threshold,
		AFMax:      cfg.Filter.AFMax,
		DryRun:     cfg.DryRun,
		Metrics:    m,
		Elapsed:    elapsed,
	})
}
