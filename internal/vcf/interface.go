// Package vcf provides VCF file parsing functionality.
package vcf

// RecordReader is the interface for sources of VCF records.
type RecordReader interface {
	// Header returns the raw header lines, ending with the #CHROM line.
	Header() []string

	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// LineNumber returns the current line number being processed.
	LineNumber() int
}
