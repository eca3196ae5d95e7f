package filter

import (
	"strconv"
	"strings"

	"github.com/ousamg/indb-filter/internal/vcf"
)

// IndicationResult is the outcome of aggregating indication counts.
type IndicationResult struct {
	Total   int  // sum of all label counts
	Unique  bool // Total == 1
	Present bool // at least one indication key was found
	Pass    bool // Present && Total >= threshold
}

// EvaluateIndications sums the label:count pairs found under the configured
// indication keys and compares the total with the threshold. A record with
// no indication key never passes. Unparseable pairs are a *MalformedError.
func EvaluateIndications(info vcf.Info, cfg Config) (IndicationResult, error) {
	var res IndicationResult

	for _, key := range cfg.IndicationKeys {
		values, ok := info.Get(key)
		if !ok {
			continue
		}
		res.Present = true

		if len(values) == 0 {
			return IndicationResult{}, &MalformedError{Key: key, Message: "no label:count pairs"}
		}
		for _, pair := range values {
			n, err := parseIndication(key, pair)
			if err != nil {
				return IndicationResult{}, err
			}
			res.Total += n
		}
	}

	if !res.Present {
		return res, nil
	}

	res.Unique = res.Total == 1
	res.Pass = res.Total >= cfg.Threshold
	return res, nil
}

// parseIndication parses one label:count pair and returns the count.
func parseIndication(key, pair string) (int, error) {
	label, count, ok := strings.Cut(pair, ":")
	if !ok {
		return 0, &MalformedError{Key: key, Value: pair, Message: "missing ':' separator"}
	}
	if label == "" {
		return 0, &MalformedError{Key: key, Value: pair, Message: "empty label"}
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 0 {
		return 0, &MalformedError{Key: key, Value: pair, Message: "count is not a non-negative integer"}
	}
	return n, nil
}
