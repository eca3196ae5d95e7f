package region

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ousamg/indb-filter/internal/filter"
	"github.com/ousamg/indb-filter/internal/vcf"
)

// LineWriter receives the header and the surviving lines of a pre-pass.
type LineWriter interface {
	WriteHeader(lines []string) error
	WriteLine(line string) error
}

// Result summarises a region pre-pass.
type Result struct {
	Kept    int // records overlapping at least one interval
	Removed int // records outside every interval
	Passed  int // malformed lines passed through for the main pass
}

// FilterByRegions copies the header and every record that overlaps idx from
// r to w. Malformed lines cannot be placed, so under MalformedSkip they are
// passed through untouched and left for the main pass to count; under
// MalformedAbort the first one ends the pre-pass with its error.
// A nil logger discards progress messages.
func FilterByRegions(ctx context.Context, r vcf.RecordReader, idx *Index, w LineWriter, onMalformed filter.MalformedPolicy, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	res, err := filterRegions(ctx, r, idx, w, onMalformed)
	if err != nil {
		return res, fmt.Errorf("region pre-pass: %w", err)
	}

	logger.Debug("region pre-pass finished",
		zap.Int("kept", res.Kept),
		zap.Int("removed", res.Removed),
		zap.Int("malformed", res.Passed))
	return res, nil
}

func filterRegions(ctx context.Context, r vcf.RecordReader, idx *Index, w LineWriter, onMalformed filter.MalformedPolicy) (Result, error) {
	var res Result

	if err := w.WriteHeader(r.Header()); err != nil {
		return res, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		rec, err := r.Next()
		if err != nil {
			var pe *vcf.ParseError
			if !errors.As(err, &pe) || onMalformed != filter.MalformedSkip {
				return res, err
			}
			if err := w.WriteLine(pe.Raw); err != nil {
				return res, err
			}
			res.Passed++
			continue
		}
		if rec == nil {
			return res, nil
		}

		if !idx.Contains(rec) {
			res.Removed++
			continue
		}
		if err := w.WriteLine(rec.Raw); err != nil {
			return res, err
		}
		res.Kept++
	}
}
