// Package tables writes the flattened records and users CSV tables and
// deduplicates them after a pass.
package tables

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/perchlab/aviary/pkg/aviary/flatten"
)

// Writer appends rows to one CSV table. The file is created lazily on
// the first append, and the header is written only when the file is new,
// so repeated runs append to the same table under a single header.
type Writer struct {
	path    string
	columns []string
	f       *os.File
	w       *csv.Writer
}

// NewWriter binds a writer to a path and an ordered column list.
func NewWriter(path string, columns []string) *Writer {
	return &Writer{path: path, columns: columns}
}

func (w *Writer) open() error {
	header := false
	if _, err := os.Stat(w.path); errors.Is(err, fs.ErrNotExist) {
		header = true
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	w.f = f
	w.w = csv.NewWriter(f)
	if header {
		return w.w.Write(w.columns)
	}
	return nil
}

// Append writes one row, taking cells from the row map in column order.
// Keys outside the column list are ignored; missing keys become empty
// cells.
func (w *Writer) Append(row map[string]any) error {
	if w.f == nil {
		if err := w.open(); err != nil {
			return err
		}
	}
	cells := make([]string, len(w.columns))
	for i, col := range w.columns {
		cells[i] = CellText(row[col])
	}
	return w.w.Write(cells)
}

// Close flushes and closes the table. A writer that never appended
// leaves no file behind.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	w.w.Flush()
	err := w.w.Error()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// CellText renders one record value as CSV cell text: nil becomes an
// empty cell, numbers keep their exact decimal text, and lists and
// nested objects are written as compact JSON so the network derivations
// can parse them back.
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// Pair is the records+users table pair for one output base path:
// <base>.csv and <base>_users.csv. It satisfies the pipeline sink
// contract.
type Pair struct {
	Records *Writer
	Users   *Writer
}

// OpenPair binds the table pair for base. A non-empty flagColumn extends
// the records schema with one trailing flag column.
func OpenPair(base, flagColumn string) *Pair {
	cols := flatten.Columns()
	if flagColumn != "" {
		cols = append(cols, flagColumn)
	}
	return &Pair{
		Records: NewWriter(base+".csv", cols),
		Users:   NewWriter(base+"_users.csv", flatten.UserColumns()),
	}
}

// Write appends one record and its user snapshot.
func (p *Pair) Write(rec flatten.Record, user flatten.UserSnapshot) error {
	if err := p.Records.Append(rec); err != nil {
		return err
	}
	return p.Users.Append(user)
}

// Close closes both tables.
func (p *Pair) Close() error {
	err := p.Records.Close()
	if uerr := p.Users.Close(); err == nil {
		err = uerr
	}
	return err
}
