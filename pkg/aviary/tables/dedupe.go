package tables

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"
)

// Dedupe rewrites the CSV at path with exact duplicate rows removed,
// preserving first-occurrence order and the header row. Row identity is
// the full cell tuple. Seen rows are tracked in a SQLite staging table
// so memory stays bounded on large tables. A missing file is a no-op.
func Dedupe(ctx context.Context, path string) (removed int, err error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	in, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return 0, err
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, "CREATE TABLE seen (row TEXT PRIMARY KEY)"); err != nil {
		return 0, err
	}
	insert, err := db.PrepareContext(ctx, "INSERT OR IGNORE INTO seen(row) VALUES (?)")
	if err != nil {
		return 0, err
	}
	defer insert.Close()

	tmp := path + ".dedupe"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}
	defer func() {
		if out != nil {
			out.Close()
			os.Remove(tmp)
		}
	}()

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	w := csv.NewWriter(out)

	header, err := r.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := w.Write(header); err != nil {
		return 0, err
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		key, err := json.Marshal(rec)
		if err != nil {
			return 0, err
		}
		res, err := insert.ExecContext(ctx, string(key))
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			removed++
			continue
		}
		if err := w.Write(rec); err != nil {
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}
	out = nil
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return removed, nil
}
