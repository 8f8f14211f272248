// Package cooccur derives user co-occurrence edge lists from interaction
// edge lists: two distinct users sharing the same tag become a pair.
package cooccur

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/perchlab/aviary/pkg/aviary/networks"
)

// Pairs projects the edge list at path to (user, tag) pairs over the
// byTag column, deduplicates them, and self-joins on the tag. Pairs of a
// user with itself are dropped. Hashtag values are lower-cased before
// the join so case variants of one tag co-occur.
func Pairs(ctx context.Context, path, byTag string) (*networks.Edgelist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	userIdx, tagIdx := -1, -1
	for i, col := range header {
		switch col {
		case "user.id_str":
			userIdx = i
		case byTag:
			tagIdx = i
		}
	}
	if userIdx == -1 || tagIdx == -1 {
		return nil, fmt.Errorf("%s: need columns %q and %q", path, "user.id_str", byTag)
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx,
		"CREATE TABLE edges (user TEXT, tag TEXT, PRIMARY KEY(user, tag))"); err != nil {
		return nil, err
	}
	insert, err := db.PrepareContext(ctx,
		"INSERT OR IGNORE INTO edges(user, tag) VALUES (?, ?)")
	if err != nil {
		return nil, err
	}
	defer insert.Close()

	lower := byTag == "hashtag"
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if userIdx >= len(rec) || tagIdx >= len(rec) {
			continue
		}
		tag := rec[tagIdx]
		if lower {
			tag = strings.ToLower(tag)
		}
		if _, err := insert.ExecContext(ctx, rec[userIdx], tag); err != nil {
			return nil, err
		}
	}

	rows, err := db.QueryContext(ctx, `
SELECT DISTINCT a.user, a.tag, b.user
FROM edges a JOIN edges b ON a.tag = b.tag
WHERE a.user <> b.user`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := &networks.Edgelist{Columns: []string{"user.id_str_x", byTag, "user.id_str_y"}}
	for rows.Next() {
		var x, tag, y string
		if err := rows.Scan(&x, &tag, &y); err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, []string{x, tag, y})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ConvertFile derives the co-occurrence edge list of one file.
func ConvertFile(ctx context.Context, source, target, byTag string) error {
	pairs, err := Pairs(ctx, source, byTag)
	if err != nil {
		return err
	}
	return pairs.WriteCSV(target)
}

// ConvertDir processes every CSV in source, writing each result into
// target as <name>_cooccurrences.csv.
func ConvertDir(ctx context.Context, source, target, byTag string) error {
	entries, err := os.ReadDir(source)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".csv")
		out := filepath.Join(target, name+"_cooccurrences.csv")
		if err := ConvertFile(ctx, filepath.Join(source, entry.Name()), out, byTag); err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
	}
	return nil
}
