// Package networks derives user interaction edge lists (replies,
// retweets, quotes, mentions, hashtags) from flattened records tables.
// Join-style derivations run as SQL over an in-memory SQLite copy of the
// table; list-valued columns are exploded in Go.
package networks

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Types lists every derivable interaction network.
var Types = []string{"replies", "retweets", "quotes", "mentions", "hashtags"}

// loadColumns are the records table columns the derivations read.
var loadColumns = []string{
	"created_at", "id_str", "user.id_str", "in_reply_to_user_id_str",
	"in_reply_to_status_id_str", "retweeted_status", "quoted_status",
	"user_id_mentions", "hashtags",
}

// Dataset is one day's records table loaded into an in-memory SQLite
// database.
type Dataset struct {
	db *sql.DB
}

// Load reads the records CSV at path. Columns outside the needed set are
// ignored; a table missing one of them is an error.
func Load(ctx context.Context, path string) (*Dataset, error) {
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
	index := make([]int, len(loadColumns))
	for i, want := range loadColumns {
		index[i] = -1
		for j, col := range header {
			if col == want {
				index[i] = j
				break
			}
		}
		if index[i] == -1 {
			return nil, fmt.Errorf("%s: missing column %q", path, want)
		}
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE records (
	created_at TEXT, id_str TEXT, user_id TEXT,
	reply_user TEXT, reply_status TEXT,
	retweeted TEXT, quoted TEXT,
	mentions TEXT, hashtags TEXT
)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO records VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, err
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stmt.Close()
			tx.Rollback()
			db.Close()
			return nil, err
		}
		args := make([]any, len(index))
		for i, j := range index {
			if j < len(rec) {
				args[i] = rec[j]
			} else {
				args[i] = ""
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			tx.Rollback()
			db.Close()
			return nil, err
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		db.Close()
		return nil, err
	}
	return &Dataset{db: db}, nil
}

// Close releases the in-memory database.
func (d *Dataset) Close() error {
	return d.db.Close()
}

// Edgelist is one derived network: a header and its rows.
type Edgelist struct {
	Columns []string
	Rows    [][]string
}

// WriteCSV writes the edgelist to path, replacing any previous file.
func (e *Edgelist) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(e.Columns); err != nil {
		f.Close()
		return err
	}
	for _, row := range e.Rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Derive produces the named interaction network.
func (d *Dataset) Derive(ctx context.Context, name string) (*Edgelist, error) {
	switch name {
	case "replies":
		return d.Replies(ctx)
	case "retweets":
		return d.Retweets(ctx)
	case "quotes":
		return d.Quotes(ctx)
	case "mentions":
		return d.Mentions(ctx)
	case "hashtags":
		return d.Hashtags(ctx)
	}
	return nil, fmt.Errorf("unknown interaction type %q", name)
}

// Replies links each reply to the user and status it answers.
// Deduplicated.
func (d *Dataset) Replies(ctx context.Context) (*Edgelist, error) {
	rows, err := d.db.QueryContext(ctx, `
SELECT DISTINCT created_at, id_str, user_id, reply_user, reply_status
FROM records WHERE reply_user <> ''`)
	if err != nil {
		return nil, err
	}
	out := &Edgelist{Columns: []string{
		"created_at", "id_str", "user.id_str",
		"in_reply_to_user_id_str", "in_reply_to_status_id_str",
	}}
	return collect(out, rows)
}

// Retweets links each retweet to the retweeted status and, when that
// status appears in the same table, its author. Deduplicated.
func (d *Dataset) Retweets(ctx context.Context) (*Edgelist, error) {
	rows, err := d.db.QueryContext(ctx, `
SELECT DISTINCT r.created_at, r.id_str, r.user_id, r.retweeted, COALESCE(ref.user_id, '')
FROM records r LEFT JOIN records ref ON ref.id_str = r.retweeted
WHERE r.retweeted <> ''`)
	if err != nil {
		return nil, err
	}
	out := &Edgelist{Columns: []string{
		"created_at", "id_str", "user.id_str", "retweeted_status", "retweeted_user",
	}}
	return collect(out, rows)
}

// Quotes links each quote to the quoted status and, when present, its
// author. Deduplicated.
func (d *Dataset) Quotes(ctx context.Context) (*Edgelist, error) {
	rows, err := d.db.QueryContext(ctx, `
SELECT DISTINCT r.created_at, r.id_str, r.user_id, r.quoted, COALESCE(ref.user_id, '')
FROM records r LEFT JOIN records ref ON ref.id_str = r.quoted
WHERE r.quoted <> ''`)
	if err != nil {
		return nil, err
	}
	out := &Edgelist{Columns: []string{
		"created_at", "id_str", "user.id_str", "quoted_status", "quoted_user",
	}}
	return collect(out, rows)
}

// Mentions emits one row per mentioned user id. Not deduplicated.
func (d *Dataset) Mentions(ctx context.Context) (*Edgelist, error) {
	return d.explode(ctx, "mentions", "user_id.mention")
}

// Hashtags emits one row per hashtag. Not deduplicated.
func (d *Dataset) Hashtags(ctx context.Context) (*Edgelist, error) {
	return d.explode(ctx, "hashtags", "hashtag")
}

func collect(e *Edgelist, rows *sql.Rows) (*Edgelist, error) {
	defer rows.Close()
	n := len(e.Columns)
	for rows.Next() {
		cells := make([]string, n)
		dest := make([]any, n)
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		e.Rows = append(e.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

// explode decodes the JSON list cell of column and yields one edge per
// element.
func (d *Dataset) explode(ctx context.Context, column, outColumn string) (*Edgelist, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
SELECT created_at, id_str, user_id, %s
FROM records WHERE %s <> '' AND %s <> '[]'`, column, column, column))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := &Edgelist{Columns: []string{"created_at", "id_str", "user.id_str", outColumn}}
	for rows.Next() {
		var createdAt, id, userID, cell string
		if err := rows.Scan(&createdAt, &id, &userID, &cell); err != nil {
			return nil, err
		}
		var values []string
		if err := json.Unmarshal([]byte(cell), &values); err != nil {
			return nil, fmt.Errorf("decode %s cell of %s: %w", column, id, err)
		}
		for _, v := range values {
			out.Rows = append(out.Rows, []string{createdAt, id, userID, v})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SourcePath returns the records table path for one language and day:
// {source}/{lang}/{YYYY}_{MM}_{DD}.csv.
func SourcePath(source, lang string, day time.Time) string {
	return filepath.Join(source, lang, day.Format("2006_01_02")+".csv")
}

// OutputPath returns the edgelist path for one interaction, language and
// day: {target}/user_interactions/{interaction}/{lang}_{YYYY}_{MM}_{DD}.csv.
// Language and date collapse into the file name so a later step can
// concatenate one day across languages.
func OutputPath(target, interaction, lang string, day time.Time) string {
	return filepath.Join(target, "user_interactions", interaction,
		lang+"_"+day.Format("2006_01_02")+".csv")
}
