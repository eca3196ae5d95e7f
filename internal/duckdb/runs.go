package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/ousamg/indb-filter/internal/stats"
)

// Run is one row of the run history.
type Run struct {
	ID         string
	StartedAt  time.Time
	Input      FileFingerprint
	Output     string // empty for dry runs
	RegionFile string
	Threshold  int
	AFMax      float64
	DryRun     bool
	Metrics    stats.Metrics
	Elapsed    time.Duration
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// RecordRuns appends runs to the history using the Appender API.
// Runs without an ID are assigned one.
func (s *Store) RecordRuns(runs ...Run) error {
	if len(runs) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "filter_runs")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range runs {
		if r.ID == "" {
			r.ID = NewRunID()
		}
		m := r.Metrics
		if err := appender.AppendRow(
			r.ID, r.StartedAt.UTC(),
			r.Input.Path, r.Input.Size, r.Input.ModTime.UTC(),
			r.Output, r.RegionFile,
			int64(r.Threshold), r.AFMax, r.DryRun,
			int64(m.Seen), int64(m.Passed), int64(m.UnderThreshold), int64(m.Unique),
			int64(m.MissingIndications), int64(m.RegionFiltered), int64(m.AFFiltered),
			int64(m.AFMultiValued), int64(m.Malformed),
			r.Elapsed.Milliseconds(),
		); err != nil {
			return fmt.Errorf("append run: %w", err)
		}
	}

	return appender.Flush()
}

const runColumns = `run_id, started_at, input_path, input_size, input_mtime,
		output_path, region_file, threshold, af_max, dry_run,
		seen, passed, under_threshold, unique_count, missing_indications,
		region_filtered, af_filtered, af_multi_valued, malformed, elapsed_ms`

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+`
		FROM filter_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// RunsForInput returns every run over the given input path, oldest first.
func (s *Store) RunsForInput(path string) ([]Run, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+`
		FROM filter_runs
		WHERE input_path=?
		ORDER BY started_at`, path)
	if err != nil {
		return nil, fmt.Errorf("query runs by input: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// scanRuns scans rows into Run slices.
func scanRuns(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			r         Run
			threshold int64
			elapsedMS int64
			counts    [9]int64
		)
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.Input.Path, &r.Input.Size, &r.Input.ModTime,
			&r.Output, &r.RegionFile, &threshold, &r.AFMax, &r.DryRun,
			&counts[0], &counts[1], &counts[2], &counts[3], &counts[4],
			&counts[5], &counts[6], &counts[7], &counts[8], &elapsedMS,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Threshold = int(threshold)
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		r.Metrics = stats.Metrics{
			Seen:               int(counts[0]),
			Passed:             int(counts[1]),
			UnderThreshold:     int(counts[2]),
			Unique:             int(counts[3]),
			MissingIndications: int(counts[4]),
			RegionFiltered:     int(counts[5]),
			AFFiltered:         int(counts[6]),
			AFMultiValued:      int(counts[7]),
			Malformed:          int(counts[8]),
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ClearRuns removes the whole run history and returns how many runs were
// deleted.
func (s *Store) ClearRuns() (int64, error) {
	res, err := s.db.Exec("DELETE FROM filter_runs")
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}
