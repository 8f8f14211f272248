// Package report summarizes conversion runs: per-file line and error
// counts plus a run-level identity and timing.
package report

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
)

// File summarizes the processing of one input file.
type File struct {
	Language       string         `json:"language"`
	Date           string         `json:"date"`
	Path           string         `json:"path"`
	Lines          int            `json:"lines"`
	DecodeErrors   int            `json:"decode_errors"`
	ShapeErrors    int            `json:"shape_errors"`
	Records        int            `json:"records_written"`
	Users          int            `json:"user_rows_written"`
	Dropped        int            `json:"records_dropped"`
	RecordsDeduped int            `json:"records_removed_by_dedup"`
	UsersDeduped   int            `json:"user_rows_removed_by_dedup"`
	Clients        map[string]int `json:"clients,omitempty"`
}

// Run summarizes one batch run.
type Run struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Files        []File    `json:"files"`
	SkippedFiles []string  `json:"skipped_files,omitempty"`
}

var entropy = ulid.Monotonic(rand.Reader, 0)

// NewRun stamps a fresh run with a ULID identifier and its start time.
func NewRun() *Run {
	return &Run{
		ID:        ulid.MustNew(ulid.Now(), entropy).String(),
		StartedAt: time.Now().UTC(),
		Files:     []File{},
	}
}

// Finish records the completion time.
func (r *Run) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// WriteJSON prints the run as indented JSON.
func (r *Run) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
