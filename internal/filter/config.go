// Package filter implements the per-record filtering decisions: indication
// sharing and allele frequency.
package filter

import (
	"errors"
	"fmt"
)

// Default filter settings.
const (
	DefaultThreshold = 5
	DefaultAFMax     = 1.0
	DefaultAFKey     = "AF_OUSWES"
)

// DefaultIndicationKeys returns the INFO keys summed when none are
// configured: the exome and the T1 panel cohorts.
func DefaultIndicationKeys() []string {
	return []string{"indications_OUSWES", "indications_OUST1"}
}

// Config holds the settings shared by all filters. It is built once per run.
type Config struct {
	Threshold      int      // minimum summed indication count, inclusive
	AFMax          float64  // maximum allele frequency, inclusive
	IndicationKeys []string // INFO keys holding label:count lists
	AFKey          string   // INFO key holding the allele frequency
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Threshold:      DefaultThreshold,
		AFMax:          DefaultAFMax,
		IndicationKeys: DefaultIndicationKeys(),
		AFKey:          DefaultAFKey,
	}
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be >= 0, got %d", c.Threshold)
	}
	if c.AFMax < 0 || c.AFMax > 1 {
		return fmt.Errorf("allele frequency maximum must be in [0,1], got %g", c.AFMax)
	}
	if len(c.IndicationKeys) == 0 {
		return errors.New("at least one indication key is required")
	}
	for _, k := range c.IndicationKeys {
		if k == "" {
			return errors.New("indication key must not be empty")
		}
	}
	if c.AFKey == "" {
		return errors.New("allele frequency key must not be empty")
	}
	return nil
}
