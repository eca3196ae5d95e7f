package duckdb

import (
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Fingerprint returns the fingerprint of path, or one carrying only the
// path when the file cannot be inspected (e.g. stdin).
func Fingerprint(path string) FileFingerprint {
	fp, err := StatFile(path)
	if err != nil {
		return FileFingerprint{Path: path}
	}
	return fp
}
