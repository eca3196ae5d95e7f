package stats

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ousamg/indb-filter/internal/filter"
)

// MissingIndicationsLimit is the fraction of records without indications
// above which the summary carries a warning.
const MissingIndicationsLimit = 0.1

// notAvailable replaces percentages when there is nothing to divide by.
const notAvailable = "n/a"

// Percent formats n as a percentage of total with two decimals.
// A zero total yields "n/a".
func Percent(n, total int) string {
	if total == 0 {
		return notAvailable
	}
	return fmt.Sprintf("%.02f%%", float64(n)/float64(total)*100)
}

// MissingIndicationsWarning returns a warning when more than
// MissingIndicationsLimit of all records lack indication annotations.
func MissingIndicationsWarning(m Metrics) (string, bool) {
	total := m.Total()
	if total == 0 {
		return "", false
	}
	if float64(m.MissingIndications)/float64(total) <= MissingIndicationsLimit {
		return "", false
	}
	return fmt.Sprintf("Missing indications on %d of %d variants", m.MissingIndications, total), true
}

// FormatDuration renders d as MMmSS.mmms.
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02dm%02d.%03ds", ms/60000, (ms/1000)%60, ms%1000)
}

// Render writes the processing summary for input to w.
func Render(w io.Writer, input string, m Metrics, cfg filter.Config, elapsed time.Duration) error {
	total := m.Total()
	pct := func(n int) string {
		return strconv.Itoa(n) + " (" + Percent(n, total) + ")"
	}

	ew := &errWriter{w: w}
	if msg, ok := MissingIndicationsWarning(m); ok {
		ew.printf("\n*** WARNING *** %s\n", msg)
	}
	ew.printf("\nProcessing stats on %s\n", input)
	ew.printf("\tTotal variants:      %d\n", total)
	ew.printf("\tTotal shareable:     %s\n\n", pct(m.Passed))

	ew.printf("\tBED filtered:        %s\n\n", pct(m.RegionFiltered))

	ew.printf("\tAF threshold:        %g\n", cfg.AFMax)
	ew.printf("\tAF filtered:         %s\n", pct(m.AFFiltered))
	ew.printf("\tAF multi-valued:     %s\n\n", pct(m.AFMultiValued))

	ew.printf("\tThreshold minimum:   %d\n", cfg.Threshold)
	ew.printf("\tN under threshold:   %s\n", pct(m.UnderThreshold))
	ew.printf("\tN unique:            %s\n", pct(m.Unique))
	ew.printf("\tNo indications:      %s\n", pct(m.MissingIndications))
	ew.printf("\tMalformed:           %s\n\n", pct(m.Malformed))

	ew.printf("\tTotal run time:      %s\n\n", FormatDuration(elapsed))
	return ew.err
}

// errWriter keeps the first write error so Render can check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
