// Package duckdb records filtering runs in a DuckDB database so results can
// be audited after the fact.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for the run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS filter_runs (
		run_id VARCHAR PRIMARY KEY,
		started_at TIMESTAMP,
		input_path VARCHAR,
		input_size BIGINT,
		input_mtime TIMESTAMP,
		output_path VARCHAR,
		region_file VARCHAR,
		threshold BIGINT,
		af_max DOUBLE,
		dry_run BOOLEAN,
		seen BIGINT,
		passed BIGINT,
		under_threshold BIGINT,
		unique_count BIGINT,
		missing_indications BIGINT,
		region_filtered BIGINT,
		af_filtered BIGINT,
		af_multi_valued BIGINT,
		malformed BIGINT,
		elapsed_ms BIGINT
	)`)
	return err
}
