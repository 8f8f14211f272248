// Command interaction-networks derives user interaction edge lists
// (replies, retweets, quotes, mentions, hashtags) from previously
// converted records tables, one edgelist file per interaction, language
// and day.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/perchlab/aviary/pkg/aviary/archive"
	"github.com/perchlab/aviary/pkg/aviary/config"
	"github.com/perchlab/aviary/pkg/aviary/networks"
)

func main() {
	var (
		source    = flag.String("source", "", "Source directory with converted CSV tables (required)")
		target    = flag.String("target", "", "Target directory (required)")
		start     = flag.String("start", "", "First date to parse, YYYY-MM-DD (required)")
		end       = flag.String("end", "", "Last date to parse, YYYY-MM-DD (required)")
		types     = flag.String("types", "", "Comma-separated interaction types (default: all)")
		languages = flag.String("languages", "", "Comma-separated language codes (default: ar,de,en,fr,ru)")
	)
	flag.Parse()

	if *source == "" || *target == "" || *start == "" || *end == "" {
		log.Fatal("--source, --target, --start, and --end are required")
	}

	startDay, err := archive.ParseDate(*start)
	if err != nil {
		log.Fatalf("parse start date: %v", err)
	}
	endDay, err := archive.ParseDate(*end)
	if err != nil {
		log.Fatalf("parse end date: %v", err)
	}
	days, err := archive.DateRange(startDay, endDay)
	if err != nil {
		log.Fatalf("date range: %v", err)
	}

	chosen := networks.Types
	if *types != "" {
		chosen = splitList(*types)
		for _, name := range chosen {
			if !contains(networks.Types, name) {
				log.Fatalf("unknown interaction type %q", name)
			}
		}
	}
	langs := config.DefaultLanguages
	if *languages != "" {
		langs = splitList(*languages)
	}

	for _, name := range chosen {
		dir := filepath.Join(*target, "user_interactions", name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("create output dir: %v", err)
		}
	}

	ctx := context.Background()
	for _, lang := range langs {
		for _, day := range days {
			src := networks.SourcePath(*source, lang, day)
			if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
				continue
			}
			ds, err := networks.Load(ctx, src)
			if err != nil {
				log.Printf("unable to load %s: %v", src, err)
				continue
			}
			for _, name := range chosen {
				edges, err := ds.Derive(ctx, name)
				if err != nil {
					log.Printf("%s: derive %s: %v", src, name, err)
					continue
				}
				out := networks.OutputPath(*target, name, lang, day)
				if err := edges.WriteCSV(out); err != nil {
					log.Printf("write %s: %v", out, err)
				}
			}
			ds.Close()
		}
	}
}

func splitList(s string) []string {
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

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
