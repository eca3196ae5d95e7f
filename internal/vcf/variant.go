// Package vcf provides VCF file parsing functionality.
package vcf

import "strconv"

// Record represents a single data line from a VCF file.
// Records are never modified after parsing; writers emit Raw unchanged.
type Record struct {
	Chrom   string   // Chromosome name (e.g., "12", "chr12")
	Pos     int64    // 1-based genomic position
	ID      string   // Variant identifier (e.g., rs ID)
	Ref     string   // Reference allele
	Alt     string   // Alternate allele(s), comma-separated when multi-allelic
	Qual    float64  // Quality score, 0 when missing
	Filter  string   // Filter status (PASS or filter name)
	Info    Info     // INFO field entries
	Format  string   // FORMAT column, empty when absent
	Samples []string // Sample columns after FORMAT
	Raw     string   // Original line without the line terminator
}

// Info holds parsed INFO entries. Each value is the comma-separated
// sub-list of a key=value entry; flag entries map to an empty slice.
type Info map[string][]string

// Get returns the values for key.
func (i Info) Get(key string) ([]string, bool) {
	v, ok := i[key]
	return v, ok
}

// Start returns the 0-based start of the reference span.
func (r *Record) Start() int64 {
	return r.Pos - 1
}

// End returns the 0-based exclusive end of the reference span.
// A record always covers at least one base.
func (r *Record) End() int64 {
	n := int64(len(r.Ref))
	if n < 1 {
		n = 1
	}
	return r.Start() + n
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (r *Record) NormalizeChrom() string {
	return NormalizeChrom(r.Chrom)
}

// NormalizeChrom strips a leading "chr" from a chromosome name.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && chrom[:3] == "chr" {
		return chrom[3:]
	}
	return chrom
}

// Label returns a compact chrN.pos.ref->alt identifier for log messages.
func (r *Record) Label() string {
	return "chr" + r.NormalizeChrom() + "." + strconv.FormatInt(r.Pos, 10) + "." + r.Ref + "->" + r.Alt
}
