// Package convert orchestrates one batch conversion run over the
// archive: for each language and day with an input file, decode every
// line, run the pipeline, and deduplicate the resulting tables.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/perchlab/aviary/internal/sourcelabel"
	"github.com/perchlab/aviary/pkg/aviary/archive"
	"github.com/perchlab/aviary/pkg/aviary/config"
	"github.com/perchlab/aviary/pkg/aviary/flatten"
	"github.com/perchlab/aviary/pkg/aviary/keyword"
	"github.com/perchlab/aviary/pkg/aviary/pipeline"
	"github.com/perchlab/aviary/pkg/aviary/report"
	"github.com/perchlab/aviary/pkg/aviary/tables"
	"github.com/perchlab/aviary/pkg/aviary/tweet"
)

// Job converts a date range of archived tweet files into CSV table
// pairs, one per language and day.
type Job struct {
	Source    string
	Target    string
	Start     time.Time
	End       time.Time
	Languages []string
	Filter    *keyword.Filter
}

// Run processes every language and day in order, single-threaded. Days
// without an input file are skipped silently; a file that cannot be
// processed is reported and skipped while its siblings continue. Only
// an invalid date range and target-directory setup failures abort the
// run.
func (j *Job) Run(ctx context.Context) (*report.Run, error) {
	days, err := archive.DateRange(j.Start, j.End)
	if err != nil {
		return nil, err
	}
	langs := j.Languages
	if len(langs) == 0 {
		langs = config.DefaultLanguages
	}

	run := report.NewRun()
	driver := pipeline.New(j.Filter)
	for _, lang := range langs {
		if err := os.MkdirAll(filepath.Join(j.Target, lang), 0o755); err != nil {
			return nil, fmt.Errorf("create target dir: %w", err)
		}
		for _, day := range days {
			in := archive.InputPath(j.Source, lang, day)
			if _, err := os.Stat(in); errors.Is(err, fs.ErrNotExist) {
				continue
			}
			file, err := j.convertFile(ctx, driver, lang, day, in)
			if err != nil {
				log.Printf("unable to process %s: %v", in, err)
				run.SkippedFiles = append(run.SkippedFiles, in)
				continue
			}
			run.Files = append(run.Files, file)
		}
	}
	run.Finish()
	return run, nil
}

// sink wires the table pair into the per-file counters.
type sink struct {
	pair *tables.Pair
	file *report.File
}

func (s *sink) Write(rec flatten.Record, user flatten.UserSnapshot) error {
	if err := s.pair.Write(rec, user); err != nil {
		return err
	}
	s.file.Records++
	s.file.Users++
	if src, ok := rec["source"].(string); ok && src != "" {
		s.file.Clients[sourcelabel.Parse(src)]++
	}
	return nil
}

func (j *Job) convertFile(ctx context.Context, driver *pipeline.Driver, lang string, day time.Time, in string) (report.File, error) {
	file := report.File{
		Language: lang,
		Date:     day.Format("2006-01-02"),
		Path:     in,
		Clients:  map[string]int{},
	}
	base := archive.OutputBase(j.Target, lang, day)
	pair := tables.OpenPair(base, j.Filter.FlagColumn())
	out := &sink{pair: pair, file: &file}

	// Decode and shape failures are counted per line and skipped; a
	// write failure stops the file.
	var writeErr error
	scanErr := archive.ScanLines(in, func(line []byte) {
		if writeErr != nil {
			return
		}
		file.Lines++
		t, err := tweet.Decode(line)
		if err != nil {
			file.DecodeErrors++
			log.Printf("%s line %d: unable to decode tweet: %v", in, file.Lines, err)
			return
		}
		stats, err := driver.Process(t, out)
		file.Dropped += stats.Dropped
		if err != nil {
			var shape *tweet.ShapeError
			if errors.As(err, &shape) {
				file.ShapeErrors++
				log.Printf("%s line %d: %v", in, file.Lines, err)
				return
			}
			writeErr = err
		}
	})
	if err := pair.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if scanErr != nil {
		return file, scanErr
	}
	if writeErr != nil {
		return file, writeErr
	}

	var err error
	if file.RecordsDeduped, err = tables.Dedupe(ctx, base+".csv"); err != nil {
		return file, fmt.Errorf("dedupe records: %w", err)
	}
	if file.UsersDeduped, err = tables.Dedupe(ctx, base+"_users.csv"); err != nil {
		return file, fmt.Errorf("dedupe users: %w", err)
	}
	return file, nil
}
