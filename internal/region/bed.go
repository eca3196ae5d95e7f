// Package region restricts VCF records to a set of genomic intervals.
package region

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/ousamg/indb-filter/internal/vcf"
)

// Interval is a BED interval: 0-based, inclusive start, exclusive end.
type Interval struct {
	Chrom string
	Start int64
	End   int64
}

// LoadBED reads intervals from a plain or gzipped BED file.
func LoadBED(path string) ([]Interval, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open BED file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var reader io.Reader = br

	// Handle gzipped files
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read BED file: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return ReadBED(reader)
}

// ReadBED parses BED intervals from r. Comment, track, browser and blank
// lines are ignored; only the first three columns are used.
func ReadBED(r io.Reader) ([]Interval, error) {
	var intervals []Interval

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("BED line %d: expected at least 3 columns, found %d", lineNum, len(fields))
		}

		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || start < 0 {
			return nil, fmt.Errorf("BED line %d: invalid start %q", lineNum, fields[1])
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("BED line %d: invalid end %q", lineNum, fields[2])
		}
		if end < start {
			return nil, fmt.Errorf("BED line %d: end %d before start %d", lineNum, end, start)
		}

		intervals = append(intervals, Interval{Chrom: fields[0], Start: start, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read BED file: %w", err)
	}

	return intervals, nil
}

// Index answers overlap queries against intervals bucketed by chromosome.
// Chromosome names are compared without a "chr" prefix.
type Index struct {
	trees map[string]*IntervalTree
}

// NewIndex builds an Index from intervals.
func NewIndex(intervals []Interval) *Index {
	byChrom := make(map[string][]Interval)
	for _, iv := range intervals {
		chrom := vcf.NormalizeChrom(iv.Chrom)
		byChrom[chrom] = append(byChrom[chrom], iv)
	}

	idx := &Index{trees: make(map[string]*IntervalTree, len(byChrom))}
	for chrom, ivs := range byChrom {
		idx.trees[chrom] = BuildIntervalTree(ivs)
	}
	return idx
}

// Len returns the number of indexed intervals.
func (idx *Index) Len() int {
	n := 0
	for _, tree := range idx.trees {
		n += tree.Len()
	}
	return n
}

// Chromosomes returns the number of chromosomes with at least one interval.
func (idx *Index) Chromosomes() int {
	return len(idx.trees)
}

// Overlaps reports whether any interval on chrom overlaps [start, end).
func (idx *Index) Overlaps(chrom string, start, end int64) bool {
	tree, ok := idx.trees[vcf.NormalizeChrom(chrom)]
	if !ok {
		return false
	}
	return tree.Overlaps(start, end)
}

// Contains reports whether r's reference span overlaps an indexed interval.
func (idx *Index) Contains(r *vcf.Record) bool {
	return idx.Overlaps(r.Chrom, r.Start(), r.End())
}
