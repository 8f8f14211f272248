// Package archive knows the on-disk layout of the tweet archive: input
// files organized by language and day, and the matching output base
// paths. It also provides line-oriented scanning of one input file.
package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// InputPath returns the archived tweet file for one language and day:
// {source}/{lang}/{YYYY}_{MM}/{DD}.txt.
func InputPath(source, lang string, day time.Time) string {
	return filepath.Join(source, lang, day.Format("2006_01"), day.Format("02")+".txt")
}

// OutputBase returns the table base path for one language and day:
// {target}/{lang}/{YYYY}_{MM}_{DD}. The table suffixes are added by the
// writer.
func OutputBase(target, lang string, day time.Time) string {
	return filepath.Join(target, lang, day.Format("2006_01_02"))
}

// ParseDate parses a YYYY-MM-DD value.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// DateRange returns every day from start through end inclusive. An end
// before start is a construction error.
func DateRange(start, end time.Time) ([]time.Time, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}

// ScanLines streams the file at path line by line, invoking fn for each
// non-empty line. Per-line failures are the caller's concern; only read
// errors abort the scan. The buffer ceiling accommodates tweets carrying
// deeply embedded quoted statuses.
func ScanLines(path string, fn func(line []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		fn(line)
	}
	return sc.Err()
}
