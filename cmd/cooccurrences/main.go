// Command cooccurrences derives user co-occurrence edge lists from
// interaction edge lists. With a source directory, every CSV inside is
// converted into the target directory with a "_cooccurrences" suffix;
// with a source file, the result is written to the target path.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/perchlab/aviary/pkg/aviary/cooccur"
)

func main() {
	var (
		source = flag.String("source", "", "Source directory or edge list file (required)")
		target = flag.String("target", "", "Target directory or file (required)")
		byTag  = flag.String("bytag", "", "Column to join co-occurrences on, e.g. hashtag or retweeted_user (required)")
	)
	flag.Parse()

	if *source == "" || *target == "" || *byTag == "" {
		log.Fatal("--source, --target, and --bytag are required")
	}

	info, err := os.Stat(*source)
	if err != nil {
		log.Fatalf("unable to find source: %v", err)
	}

	ctx := context.Background()
	if info.IsDir() {
		if err := cooccur.ConvertDir(ctx, *source, *target, *byTag); err != nil {
			log.Fatalf("convert directory: %v", err)
		}
		return
	}
	if err := cooccur.ConvertFile(ctx, *source, *target, *byTag); err != nil {
		log.Fatalf("convert file: %v", err)
	}
}
