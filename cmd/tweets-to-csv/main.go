// Command tweets-to-csv converts archived line-by-line tweet JSON files
// into flat CSV tables, one records+users pair per language and day,
// optionally filtering or flagging records by keyword. The run report is
// printed as JSON on stdout.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/perchlab/aviary/pkg/aviary/archive"
	"github.com/perchlab/aviary/pkg/aviary/config"
	"github.com/perchlab/aviary/pkg/aviary/convert"
)

func main() {
	var (
		source        = flag.String("source", "", "Source directory (required)")
		target        = flag.String("target", "", "Target directory (required)")
		start         = flag.String("start", "", "First date to parse, YYYY-MM-DD (required)")
		end           = flag.String("end", "", "Last date to parse, YYYY-MM-DD (required)")
		languages     = flag.String("languages", "", "Comma-separated language codes (default: ar,de,en,fr,ru)")
		keywordFile   = flag.String("keyword-file", "", "File with one keyword per line. Optional, enables filtering/flagging")
		keywordFlag   = flag.String("keyword-flag", config.DefaultFlagColumn, "Column name recording the keyword match per record")
		keywordFields = flag.String("keyword-fields", "", "Comma-separated fields to check: author,text,entities (default: all)")
		doFilter      = flag.Bool("filter", false, "Write only tweets containing a keyword")
		configPath    = flag.String("config", "", "Optional YAML run configuration; flags override its values")
	)
	flag.Parse()

	run := &config.Run{}
	if *configPath != "" {
		loaded, err := config.LoadRun(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		run = loaded
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["source"] {
		run.Source = *source
	}
	if set["target"] {
		run.Target = *target
	}
	if set["start"] {
		run.Start = *start
	}
	if set["end"] {
		run.End = *end
	}
	if set["languages"] {
		run.Languages = splitList(*languages)
	}
	if set["keyword-file"] {
		run.KeywordFile = *keywordFile
	}
	if set["keyword-flag"] || run.KeywordFlag == "" {
		run.KeywordFlag = *keywordFlag
	}
	if set["keyword-fields"] {
		run.KeywordFields = splitList(*keywordFields)
	}
	if set["filter"] {
		run.Filter = *doFilter
	}

	if run.Source == "" || run.Target == "" || run.Start == "" || run.End == "" {
		log.Fatal("--source, --target, --start, and --end are required")
	}

	startDay, err := archive.ParseDate(run.Start)
	if err != nil {
		log.Fatalf("parse start date: %v", err)
	}
	endDay, err := archive.ParseDate(run.End)
	if err != nil {
		log.Fatalf("parse end date: %v", err)
	}

	loader := config.Loader{
		KeywordFile: run.KeywordFile,
		FlagColumn:  run.KeywordFlag,
		Retain:      run.Filter,
		Fields:      run.KeywordFields,
	}
	filter, err := loader.Load()
	if err != nil {
		log.Fatalf("load keyword filter: %v", err)
	}

	job := &convert.Job{
		Source:    run.Source,
		Target:    run.Target,
		Start:     startDay,
		End:       endDay,
		Languages: run.Languages,
		Filter:    filter,
	}
	result, err := job.Run(context.Background())
	if err != nil {
		log.Fatalf("run conversion: %v", err)
	}
	if err := result.WriteJSON(os.Stdout); err != nil {
		log.Fatalf("write report: %v", err)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
