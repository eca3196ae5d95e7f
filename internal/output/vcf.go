// Package output writes filtered VCF records.
package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/biogo/hts/bgzf"

	"github.com/ousamg/indb-filter/internal/vcf"
)

// VCFWriter writes VCF lines as a BGZF-compressed stream.
// Header lines and records are emitted exactly as they were read.
type VCFWriter struct {
	bg     *bgzf.Writer
	w      *bufio.Writer
	closed bool
}

// NewVCFWriter creates a BGZF-compressed VCF writer on top of w.
// Close must be called to flush the final block; it does not close w.
func NewVCFWriter(w io.Writer) *VCFWriter {
	bg := bgzf.NewWriter(w, 1)
	return &VCFWriter{
		bg: bg,
		w:  bufio.NewWriterSize(bg, 1<<16),
	}
}

// WriteHeader writes the header lines verbatim, one per line.
func (vw *VCFWriter) WriteHeader(lines []string) error {
	for _, line := range lines {
		if err := vw.writeLine(line); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	return nil
}

// Write writes the record's original line.
func (vw *VCFWriter) Write(r *vcf.Record) error {
	return vw.WriteLine(r.Raw)
}

// WriteLine writes a raw data line.
func (vw *VCFWriter) WriteLine(line string) error {
	if err := vw.writeLine(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func (vw *VCFWriter) writeLine(line string) error {
	if _, err := vw.w.WriteString(line); err != nil {
		return err
	}
	return vw.w.WriteByte('\n')
}

// Close flushes buffered data and writes the BGZF end-of-file marker.
func (vw *VCFWriter) Close() error {
	if vw.closed {
		return nil
	}
	vw.closed = true
	if err := vw.w.Flush(); err != nil {
		vw.bg.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	if err := vw.bg.Close(); err != nil {
		return fmt.Errorf("close bgzf stream: %w", err)
	}
	return nil
}
