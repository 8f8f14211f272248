package convert

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/perchlab/aviary/pkg/aviary/keyword"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse day %q: %v", s, err)
	}
	return d
}

func writeArchiveFile(t *testing.T, source, lang string, d time.Time, lines []string) {
	t.Helper()
	path := filepath.Join(source, lang, d.Format("2006_01"), d.Format("02")+".txt")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write archive file: %v", err)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestRunConvertsArchive(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	d := day(t, "2018-12-05")
	good := `{"id_str": "1", "source": "<a href=\"x\">Twitter for iPhone</a>", "user": {"id_str": "u1"}, "retweeted_status": {"id_str": "2", "user": {"id_str": "u2"}}}`
	writeArchiveFile(t, source, "en", d, []string{
		good,
		"this is not json",
		good,
		`{"entities": 5}`,
	})

	job := &Job{
		Source:    source,
		Target:    target,
		Start:     day(t, "2018-12-04"),
		End:       d,
		Languages: []string{"en", "de"},
	}
	run, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Only one language/day combination has an input file; the absent
	// ones are skipped silently.
	if len(run.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(run.Files))
	}
	if len(run.SkippedFiles) != 0 {
		t.Errorf("skipped = %v, want none", run.SkippedFiles)
	}
	if run.ID == "" || run.FinishedAt.IsZero() {
		t.Error("run identity and timing should be stamped")
	}

	file := run.Files[0]
	if file.Language != "en" || file.Date != "2018-12-05" {
		t.Errorf("file identity = %s %s", file.Language, file.Date)
	}
	if file.Lines != 4 {
		t.Errorf("lines = %d, want 4", file.Lines)
	}
	if file.DecodeErrors != 1 {
		t.Errorf("decode errors = %d, want 1", file.DecodeErrors)
	}
	if file.ShapeErrors != 1 {
		t.Errorf("shape errors = %d, want 1", file.ShapeErrors)
	}
	// Each good line yields the outer record and its embedded retweet
	if file.Records != 4 || file.Users != 4 {
		t.Errorf("written = %d records, %d users; want 4 each", file.Records, file.Users)
	}
	if file.RecordsDeduped != 2 || file.UsersDeduped != 2 {
		t.Errorf("deduped = %d records, %d users; want 2 each", file.RecordsDeduped, file.UsersDeduped)
	}
	if file.Clients["Twitter for iPhone"] != 2 {
		t.Errorf("clients = %v, want Twitter for iPhone twice", file.Clients)
	}

	base := filepath.Join(target, "en", "2018_12_05")
	records := readCSV(t, base+".csv")
	if len(records) != 3 {
		t.Errorf("records rows = %d, want header plus outer and embedded", len(records))
	}
	users := readCSV(t, base+"_users.csv")
	if len(users) != 3 {
		t.Errorf("user rows = %d, want header plus u1 and u2", len(users))
	}
}

func TestRunWithRetainingFilter(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	d := day(t, "2018-12-05")
	writeArchiveFile(t, source, "en", d, []string{
		`{"id_str": "1", "text": "all about climate", "user": {"id_str": "u1"}}`,
		`{"id_str": "2", "text": "nothing relevant", "user": {"id_str": "u2"}}`,
	})

	filter, err := keyword.New(keyword.Rule{
		Keywords:   []string{"climate"},
		FlagColumn: "contains_keyword",
		Retain:     true,
		Fields:     []keyword.Field{keyword.FieldText},
	})
	if err != nil {
		t.Fatalf("keyword.New: %v", err)
	}

	job := &Job{
		Source:    source,
		Target:    target,
		Start:     d,
		End:       d,
		Languages: []string{"en"},
		Filter:    filter,
	}
	run, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	file := run.Files[0]
	if file.Records != 1 || file.Dropped != 1 {
		t.Errorf("written = %d, dropped = %d; want 1 and 1", file.Records, file.Dropped)
	}

	rows := readCSV(t, filepath.Join(target, "en", "2018_12_05.csv"))
	header := rows[0]
	if header[len(header)-1] != "contains_keyword" {
		t.Errorf("header should end with the flag column, got %q", header[len(header)-1])
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header plus the retained tweet", len(rows))
	}
	if rows[1][len(rows[1])-1] != "true" {
		t.Errorf("flag cell = %q, want true", rows[1][len(rows[1])-1])
	}
}

func TestRunFullyFilteredDayLeavesNoFiles(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	d := day(t, "2018-12-05")
	writeArchiveFile(t, source, "en", d, []string{
		`{"id_str": "1", "text": "nothing relevant", "user": {"id_str": "u1"}}`,
	})

	filter, err := keyword.New(keyword.Rule{
		Keywords: []string{"climate"},
		Retain:   true,
		Fields:   []keyword.Field{keyword.FieldText},
	})
	if err != nil {
		t.Fatalf("keyword.New: %v", err)
	}

	job := &Job{Source: source, Target: target, Start: d, End: d,
		Languages: []string{"en"}, Filter: filter}
	run, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Files[0].Records != 0 {
		t.Errorf("records = %d, want 0", run.Files[0].Records)
	}
	if _, err := os.Stat(filepath.Join(target, "en", "2018_12_05.csv")); err == nil {
		t.Error("a day with no retained tweets should produce no table file")
	}
}

func TestRunInvalidDateRange(t *testing.T) {
	job := &Job{
		Source: t.TempDir(),
		Target: t.TempDir(),
		Start:  day(t, "2018-12-05"),
		End:    day(t, "2018-12-01"),
	}
	if _, err := job.Run(context.Background()); err == nil {
		t.Error("end before start should abort the run")
	}
}

func TestRunSkipsUnreadableFile(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	d := day(t, "2018-12-05")
	// An input path that exists but cannot be read as a file
	path := filepath.Join(source, "en", "2018_12", "05.txt")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeArchiveFile(t, source, "de", d, []string{`{"id_str": "1"}`})

	job := &Job{Source: source, Target: target, Start: d, End: d,
		Languages: []string{"en", "de"}}
	run, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(run.SkippedFiles) != 1 || !strings.Contains(run.SkippedFiles[0], "05.txt") {
		t.Errorf("skipped = %v, want the unreadable path", run.SkippedFiles)
	}
	if len(run.Files) != 1 || run.Files[0].Language != "de" {
		t.Errorf("files = %v, want the de file processed regardless", run.Files)
	}
}
