// Package testutil writes parquet fixtures for tests and sample data.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
)

// ScoreRow is the three-column fixture used across packages.
type ScoreRow struct {
	ID    int64   `parquet:"id"`
	Name  string  `parquet:"name"`
	Score float64 `parquet:"score"`
}

// EventRow carries nullable, temporal and nested columns.
type EventRow struct {
	ID       int64            `parquet:"id"`
	Label    *string          `parquet:"label,optional"`
	At       time.Time        `parquet:"at,timestamp(millisecond)"`
	Day      int32            `parquet:"day,date"`
	Tags     []string         `parquet:"tags,list"`
	Attrs    map[string]int32 `parquet:"attrs"`
	Location Location         `parquet:"location"`
}

// Location is the nested group of EventRow.
type Location struct {
	City string   `parquet:"city"`
	Lat  *float64 `parquet:"lat,optional"`
}

// ScoreRows returns n rows with ids 1..n, names "user1".."userN" and
// scores id*1.5.
func ScoreRows(n int) []ScoreRow {
	rows := make([]ScoreRow, n)
	for i := range rows {
		id := int64(i + 1)
		rows[i] = ScoreRow{ID: id, Name: fmt.Sprintf("user%d", id), Score: float64(id) * 1.5}
	}
	return rows
}

// WriteFile writes rows to a new parquet file at path.
func WriteFile[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	writer := parquet.NewGenericWriter[T](f)
	if _, err := writer.Write(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return f.Close()
}

// WriteParquet writes rows into a file under t.TempDir and returns its path.
func WriteParquet[T any](t testing.TB, rows []T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.parquet")
	if err := WriteFile(path, rows); err != nil {
		t.Fatalf("failed to write parquet fixture: %v", err)
	}
	return path
}

// WriteGarbage writes a file that is not parquet and returns its path.
func WriteGarbage(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "garbage.parquet")
	if err := os.WriteFile(path, []byte("this is not a parquet file"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}
