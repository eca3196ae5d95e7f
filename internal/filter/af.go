package filter

import (
	"math"
	"strconv"

	"github.com/ousamg/indb-filter/internal/vcf"
)

// AFResult is the outcome of the allele-frequency check.
type AFResult struct {
	Present     bool    // a single usable AF value was found
	MultiValued bool    // the AF annotation lists more than one value
	Value       float64 // the AF value when Present
	Pass        bool
}

// EvaluateAF compares a single-valued AF annotation with cfg.AFMax.
// Missing AF never fails the record. Multi-valued AF is flagged and passed
// without comparison. A single value that is not a frequency in [0,1],
// including NaN, is a *MalformedError.
func EvaluateAF(info vcf.Info, cfg Config) (AFResult, error) {
	values, ok := info.Get(cfg.AFKey)
	if !ok || len(values) == 0 || (len(values) == 1 && values[0] == ".") {
		return AFResult{Pass: true}, nil
	}

	if len(values) > 1 {
		return AFResult{MultiValued: true, Pass: true}, nil
	}

	af, err := strconv.ParseFloat(values[0], 64)
	if err != nil {
		return AFResult{}, &MalformedError{Key: cfg.AFKey, Value: values[0], Message: "not a number"}
	}
	if math.IsNaN(af) || af < 0 || af > 1 {
		return AFResult{}, &MalformedError{Key: cfg.AFKey, Value: values[0], Message: "frequency outside [0,1]"}
	}

	return AFResult{
		Present: true,
		Value:   af,
		Pass:    af <= cfg.AFMax,
	}, nil
}
