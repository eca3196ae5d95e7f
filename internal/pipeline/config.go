package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ousamg/indb-filter/internal/filter"
)

// DebugLimit is the record limit applied in debug mode.
const DebugLimit = 100

// Config describes a single filtering run.
type Config struct {
	Input       string // VCF path, "-" for stdin
	Output      string // output path; derived from Input when empty
	RegionFile  string // optional BED file
	Filter      filter.Config
	DryRun      bool // evaluate and count without creating output
	OnMalformed filter.MalformedPolicy
	Limit       int    // stop after this many records when > 0
	TempDir     string // directory for the region pre-pass file; os.TempDir() when empty
}

// Validate checks the configuration before any file is touched.
func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input file is required")
	}
	if c.Input == "-" && c.Output == "" && !c.DryRun {
		return errors.New("an output file is required when reading from stdin")
	}
	if c.Limit < 0 {
		return fmt.Errorf("record limit must be >= 0, got %d", c.Limit)
	}
	if _, err := filter.ParseMalformedPolicy(string(c.OnMalformed)); err != nil {
		return err
	}
	return c.Filter.Validate()
}

// OutputPath returns the path the run writes to. Output is always
// compressed, so a missing .gz suffix is added.
func (c Config) OutputPath() string {
	out := c.Output
	if out == "" {
		out = DefaultOutputPath(c.Input)
	}
	if !strings.HasSuffix(out, ".gz") {
		out += ".gz"
	}
	return out
}

// DefaultOutputPath returns filtered_<basename> in the working directory.
func DefaultOutputPath(input string) string {
	return "filtered_" + filepath.Base(input)
}
