package filter

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ousamg/indb-filter/internal/vcf"
)

func TestEvaluateIndications(t *testing.T) {
	cfg := DefaultConfig() // threshold 5

	tests := []struct {
		name    string
		info    string
		total   int
		unique  bool
		present bool
		pass    bool
	}{
		{"below threshold", "indications_OUSWES=A:2,B:2", 4, false, true, false},
		{"unique", "indications_OUSWES=A:1", 1, true, true, false},
		{"exactly threshold", "indications_OUSWES=A:5", 5, false, true, true},
		{"above threshold", "indications_OUSWES=A:3,B:3,C:1", 7, false, true, true},
		{"zero count", "indications_OUSWES=A:0", 0, false, true, false},
		{"missing", "AF_OUSWES=0.1", 0, false, false, false},
		{"empty info", ".", 0, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := EvaluateIndications(vcf.ParseInfo(tt.info), cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.total, res.Total)
			assert.Equal(t, tt.unique, res.Unique)
			assert.Equal(t, tt.present, res.Present)
			assert.Equal(t, tt.pass, res.Pass)
		})
	}
}

func TestEvaluateIndications_ThresholdBoundary(t *testing.T) {
	for threshold := 1; threshold <= 10; threshold++ {
		cfg := DefaultConfig()
		cfg.Threshold = threshold

		at := vcf.Info{"indications_OUSWES": {"X:" + strconv.Itoa(threshold)}}
		res, err := EvaluateIndications(at, cfg)
		require.NoError(t, err)
		assert.True(t, res.Pass, "total == threshold %d passes", threshold)

		below := vcf.Info{"indications_OUSWES": {"X:" + strconv.Itoa(threshold-1)}}
		res, err = EvaluateIndications(below, cfg)
		require.NoError(t, err)
		assert.False(t, res.Pass, "total == threshold-1 fails for %d", threshold)
	}
}

func TestEvaluateIndications_ZeroThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 0

	res, err := EvaluateIndications(vcf.Info{"indications_OUSWES": {"A:0"}}, cfg)
	require.NoError(t, err)
	assert.True(t, res.Pass)

	// Missing annotations still fail with a zero threshold.
	res, err = EvaluateIndications(vcf.Info{}, cfg)
	require.NoError(t, err)
	assert.False(t, res.Pass)
}

func TestEvaluateIndications_DefaultKeysSummed(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{"indications_OUSWES", "indications_OUST1"}, cfg.IndicationKeys)

	info := vcf.ParseInfo("indications_OUSWES=A:2;indications_OUST1=B:3")
	res, err := EvaluateIndications(info, cfg)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.True(t, res.Pass)

	info = vcf.ParseInfo("indications_OUST1=B:1")
	res, err = EvaluateIndications(info, cfg)
	require.NoError(t, err)
	assert.True(t, res.Present)
	assert.True(t, res.Unique)

	cfg.IndicationKeys = []string{"indications_OUSWES"}
	res, err = EvaluateIndications(info, cfg)
	require.NoError(t, err)
	assert.False(t, res.Present, "keys outside the configured list are ignored")
}

func TestEvaluateIndications_Malformed(t *testing.T) {
	tests := []struct {
		name string
		info string
		msg  string
	}{
		{"missing separator", "indications_OUSWES=A2", "missing ':' separator"},
		{"non-integer count", "indications_OUSWES=A:two", "count is not a non-negative integer"},
		{"negative count", "indications_OUSWES=A:-1", "count is not a non-negative integer"},
		{"empty label", "indications_OUSWES=:3", "empty label"},
		{"one bad pair", "indications_OUSWES=A:3,B", "missing ':' separator"},
		{"flag without values", "indications_OUSWES", "no label:count pairs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateIndications(vcf.ParseInfo(tt.info), DefaultConfig())
			require.Error(t, err)
			var me *MalformedError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, "indications_OUSWES", me.Key)
			assert.Equal(t, tt.msg, me.Message)
			assert.True(t, IsMalformed(err))
		})
	}
}
