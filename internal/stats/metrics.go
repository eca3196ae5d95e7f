// Package stats accumulates filtering counters and renders the run summary.
package stats

// Metrics counts the outcome of a filtering run. A record may increment more
// than one rejection counter; it is still written at most once.
type Metrics struct {
	Seen               int // data records reaching the main pass
	UnderThreshold     int // indication total below the threshold
	Unique             int // under threshold with a total of exactly one
	MissingIndications int // no indication annotation at all
	RegionFiltered     int // removed by the region pre-pass
	AFFiltered         int // single-valued AF above the ceiling
	AFMultiValued      int // multi-valued AF, passed without comparison
	Malformed          int // skipped because they could not be parsed
	Passed             int // passed every filter
}

// Total returns every data record in the input, before region filtering.
func (m Metrics) Total() int {
	return m.Seen + m.RegionFiltered
}
