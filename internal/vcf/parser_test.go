package vcf

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "##fileformat=VCFv4.1\n" +
	"##source=SelectVariants\n" +
	"##reference=GRCh37\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tDUMMY\n"

const testRecords = "1\t100\t.\tA\tG\t50\tPASS\tindications_OUSWES=A:2,B:3;AF_OUSWES=0.01\tGT\t./.\n" +
	"2\t200\trs1\tAT\tA\t.\tLowQual\tindications_OUSWES=A:1\tGT\t./.\n"

func TestParser_Header(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(testHeader + testRecords))
	require.NoError(t, err)

	header := p.Header()
	require.Len(t, header, 4)
	assert.Equal(t, "##fileformat=VCFv4.1", header[0])
	assert.True(t, strings.HasPrefix(header[3], "#CHROM"))
	assert.Equal(t, 4, p.LineNumber())
}

func TestParser_Records(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(testHeader + testRecords))
	require.NoError(t, err)

	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "1", r.Chrom)
	assert.Equal(t, int64(100), r.Pos)
	assert.Equal(t, 50.0, r.Qual)
	assert.Equal(t, []string{"A:2", "B:3"}, r.Info["indications_OUSWES"])
	assert.Equal(t, []string{"0.01"}, r.Info["AF_OUSWES"])
	assert.Equal(t, "GT", r.Format)
	assert.Equal(t, []string{"./."}, r.Samples)
	assert.Equal(t, strings.Split(testRecords, "\n")[0], r.Raw)

	r, err = p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "rs1", r.ID)
	assert.Equal(t, 0.0, r.Qual, "missing QUAL parses as zero")
	assert.Equal(t, int64(199), r.Start())
	assert.Equal(t, int64(201), r.End())

	r, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParser_NoTrailingNewline(t *testing.T) {
	input := testHeader + strings.TrimSuffix(testRecords, "\n")
	p, err := NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	count := 0
	for {
		r, err := p.Next()
		require.NoError(t, err)
		if r == nil {
			break
		}
		count++
	}
	assert.Equal(t, 2, count)
}

func TestParser_CRLF(t *testing.T) {
	input := "##fileformat=VCFv4.1\r\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\r\n" +
		"\r\n" +
		"1\t100\t.\tA\tG\t50\tPASS\tindications_OUSWES=A:5\r\n"
	p, err := NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"##fileformat=VCFv4.1\r",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\r",
	}, p.Header())

	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "1\t100\t.\tA\tG\t50\tPASS\tindications_OUSWES=A:5\r", r.Raw)
	assert.Equal(t, []string{"A:5"}, r.Info["indications_OUSWES"], "fields are split without the carriage return")

	r, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParser_SkipsBlankLines(t *testing.T) {
	input := testHeader + "\n" + testRecords + "\n\n"
	p, err := NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	count := 0
	for {
		r, err := p.Next()
		require.NoError(t, err)
		if r == nil {
			break
		}
		count++
	}
	assert.Equal(t, 2, count)
}

func TestParser_MalformedRecords(t *testing.T) {
	tests := []struct {
		name string
		line string
		msg  string
	}{
		{"too few columns", "1\t100\t.\tA\tG\t50\tPASS", "expected at least 8 columns, found 7"},
		{"non-integer position", "1\tabc\t.\tA\tG\t50\tPASS\t.", "invalid position: abc"},
		{"zero position", "1\t0\t.\tA\tG\t50\tPASS\t.", "invalid position: 0"},
		{"bad quality", "1\t100\t.\tA\tG\thigh\tPASS\t.", "invalid quality: high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := testHeader + tt.line + "\n" + testRecords
			p, err := NewParserFromReader(strings.NewReader(input))
			require.NoError(t, err)

			r, err := p.Next()
			assert.Nil(t, r)
			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, 5, pe.Line)
			assert.Equal(t, tt.msg, pe.Message)
			assert.Equal(t, tt.line, pe.Raw)

			// The parser keeps going after a malformed line.
			r, err = p.Next()
			require.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, int64(100), r.Pos)
		})
	}
}

func TestParser_MissingColumnLine(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("##fileformat=VCFv4.1\n" + testRecords))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "expected #CHROM header line", pe.Message)

	_, err = NewParserFromReader(strings.NewReader("##fileformat=VCFv4.1\n"))
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "no #CHROM header line found", pe.Message)
}

func TestParser_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(testHeader + testRecords))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "in.vcf.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	p, err := NewParser(path)
	require.NoError(t, err)
	defer p.Close()

	assert.Len(t, p.Header(), 4)
	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "1", r.Chrom)
}

func TestParser_Bgzf(t *testing.T) {
	var buf bytes.Buffer
	bw := bgzf.NewWriter(&buf, 1)
	_, err := bw.Write([]byte(testHeader))
	require.NoError(t, err)
	// Force a block boundary so the stream has several gzip members.
	require.NoError(t, bw.Flush())
	_, err = bw.Write([]byte(testRecords))
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	p, err := NewParserFromReader(&buf)
	require.NoError(t, err)

	count := 0
	for {
		r, err := p.Next()
		require.NoError(t, err)
		if r == nil {
			break
		}
		count++
	}
	assert.Equal(t, 2, count)
}

func TestParser_MissingFile(t *testing.T) {
	_, err := NewParser(filepath.Join(t.TempDir(), "nope.vcf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseInfo(t *testing.T) {
	info := ParseInfo("DP=10;DB;AF=0.1,0.2;EMPTY=;indications_OUSWES=A:1")
	assert.Equal(t, []string{"10"}, info["DP"])
	db, ok := info.Get("DB")
	assert.True(t, ok)
	assert.Empty(t, db)
	assert.Equal(t, []string{"0.1", "0.2"}, info["AF"])
	assert.Contains(t, info, "EMPTY")
	assert.Equal(t, []string{"A:1"}, info["indications_OUSWES"])
	_, ok = info.Get("MISSING")
	assert.False(t, ok)

	assert.Empty(t, ParseInfo("."))
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "expected at least 8 columns, found 7",
	}

	expected := "vcf parse error at line 42: expected at least 8 columns, found 7"
	if err.Error() != expected {
		t.Errorf("Error message mismatch: got %q, want %q", err.Error(), expected)
	}
}
