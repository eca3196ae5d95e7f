package filter

import (
	"errors"
	"fmt"

	"github.com/ousamg/indb-filter/internal/vcf"
)

// MalformedError reports an INFO annotation that could not be parsed.
type MalformedError struct {
	Key     string
	Value   string
	Message string
}

func (e *MalformedError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("malformed %s annotation: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("malformed %s annotation %q: %s", e.Key, e.Value, e.Message)
}

// IsMalformed reports whether err describes a single bad record, either a
// VCF line that could not be split into fields or an annotation that could
// not be parsed. Any other error is an I/O failure.
func IsMalformed(err error) bool {
	var pe *vcf.ParseError
	var me *MalformedError
	return errors.As(err, &pe) || errors.As(err, &me)
}

// MalformedPolicy selects what happens to records that fail to parse.
type MalformedPolicy string

const (
	// MalformedAbort stops the run at the first malformed record.
	MalformedAbort MalformedPolicy = "abort"
	// MalformedSkip drops malformed records and counts them.
	MalformedSkip MalformedPolicy = "skip"
)

// ParseMalformedPolicy converts a configuration value to a MalformedPolicy.
// The empty string selects MalformedAbort.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch MalformedPolicy(s) {
	case "", MalformedAbort:
		return MalformedAbort, nil
	case MalformedSkip:
		return MalformedSkip, nil
	default:
		return "", fmt.Errorf("unknown malformed-record policy %q (want %q or %q)", s, MalformedAbort, MalformedSkip)
	}
}
