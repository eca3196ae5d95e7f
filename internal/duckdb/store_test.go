package duckdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ousamg/indb-filter/internal/stats"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(input string, started time.Time) Run {
	return Run{
		StartedAt: started,
		Input: FileFingerprint{
			Path:    input,
			Size:    1234,
			ModTime: started.Add(-time.Hour),
		},
		Output:     "filtered_" + input,
		RegionFile: "exome.bed",
		Threshold:  5,
		AFMax:      0.05,
		Metrics: stats.Metrics{
			Seen: 80, Passed: 40, UnderThreshold: 30, Unique: 10,
			MissingIndications: 5, RegionFiltered: 20, AFFiltered: 8,
			AFMultiValued: 2, Malformed: 1,
		},
		Elapsed: 1500 * time.Millisecond,
	}
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	runs, err := s.RecentRuns(1)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.FileExists(t, path)
}

func TestRecordAndReadRuns(t *testing.T) {
	s := openInMemory(t)

	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	run := testRun("inDB.vcf.gz", started)
	run.ID = "run-1"
	require.NoError(t, s.RecordRuns(run))

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, "run-1", got.ID)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Equal(t, run.Input.Path, got.Input.Path)
	assert.Equal(t, int64(1234), got.Input.Size)
	assert.True(t, got.Input.ModTime.Equal(run.Input.ModTime))
	assert.Equal(t, "filtered_inDB.vcf.gz", got.Output)
	assert.Equal(t, "exome.bed", got.RegionFile)
	assert.Equal(t, 5, got.Threshold)
	assert.Equal(t, 0.05, got.AFMax)
	assert.False(t, got.DryRun)
	assert.Equal(t, run.Metrics, got.Metrics)
	assert.Equal(t, 100, got.Metrics.Total())
	assert.Equal(t, 1500*time.Millisecond, got.Elapsed)
}

func TestRecordRuns_AssignsIDs(t *testing.T) {
	s := openInMemory(t)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.RecordRuns(testRun("a.vcf", now), testRun("b.vcf", now.Add(time.Minute))))

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b.vcf", runs[0].Input.Path, "newest first")
	assert.NotEmpty(t, runs[0].ID)
	assert.NotEqual(t, runs[0].ID, runs[1].ID)
}

func TestRecordRuns_Empty(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.RecordRuns())

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRecentRuns_Limit(t *testing.T) {
	s := openInMemory(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordRuns(testRun("in.vcf", base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := s.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.Equal(base.Add(4*time.Hour)))
}

func TestRunsForInput(t *testing.T) {
	s := openInMemory(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordRuns(
		testRun("a.vcf", base.Add(time.Hour)),
		testRun("b.vcf", base),
		testRun("a.vcf", base),
	))

	runs, err := s.RunsForInput("a.vcf")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.Before(runs[1].StartedAt), "oldest first")

	runs, err = s.RunsForInput("missing.vcf")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestClearRuns(t *testing.T) {
	s := openInMemory(t)
	now := time.Now()
	require.NoError(t, s.RecordRuns(testRun("a.vcf", now), testRun("b.vcf", now.Add(time.Second))))

	n, err := s.ClearRuns()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.vcf")
	require.NoError(t, os.WriteFile(path, []byte("##fileformat=VCFv4.1\n"), 0o644))

	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, fp.Path)
	assert.Equal(t, int64(21), fp.Size)
	assert.False(t, fp.ModTime.IsZero())

	_, err = StatFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	fp = Fingerprint("-")
	assert.Equal(t, FileFingerprint{Path: "-"}, fp)
}
