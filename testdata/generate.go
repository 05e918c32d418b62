//go:build ignore

// Generates the sample files in this directory:
//
//	go run ./testdata/generate.go
package main

import (
	"log"
	"path/filepath"
	"time"

	"github.com/vegasq/parqsee/internal/testutil"
)

func main() {
	dir := "testdata"

	if err := testutil.WriteFile(filepath.Join(dir, "scores.parquet"), testutil.ScoreRows(1000)); err != nil {
		log.Fatal(err)
	}

	first, lat := "first", 59.91
	start := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	events := []testutil.EventRow{
		{
			ID: 1, Label: &first, At: start, Day: 19730,
			Tags: []string{"a", "b"}, Attrs: map[string]int32{"x": 1},
			Location: testutil.Location{City: "Oslo", Lat: &lat},
		},
		{
			ID: 2, At: start.Add(time.Hour), Day: 19731,
			Location: testutil.Location{City: "Bergen"},
		},
		{
			ID: 3, At: start.Add(2 * time.Hour), Day: 19732,
			Tags: []string{"c"}, Attrs: map[string]int32{"y": 2, "z": 3},
			Location: testutil.Location{City: "Oslo"},
		},
	}
	if err := testutil.WriteFile(filepath.Join(dir, "events.parquet"), events); err != nil {
		log.Fatal(err)
	}

	log.Printf("Generated scores.parquet and events.parquet in %s", dir)
}
