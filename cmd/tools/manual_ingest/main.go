package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/david/grant-agent/internal/app"
	"github.com/david/grant-agent/internal/config"
	"github.com/david/grant-agent/internal/ingest"
)

type options struct {
	File string `long:"file" description:"Text or HTML file to run through the funnel ('-' for stdin); without it the configured scan source runs"`
}

func main() {
	var cmd options
	opts, err := config.LoadWith(&cmd)
	if err != nil {
		log.Fatal(err)
	}
	if opts == nil {
		return
	}

	ctx := context.Background()
	a, err := app.Build(ctx, opts)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer a.Close()

	var source ingest.CandidateSource
	if cmd.File != "" {
		text, err := readInput(cmd.File)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", cmd.File, err)
		}
		source = ingest.FunnelSource{Text: text}
	} else {
		if source, err = a.Source(""); err != nil {
			log.Fatal(err)
		}
	}

	log.Printf("Starting manual ingestion from: %s", source.Name())
	report, err := a.Pipeline.RunBatch(ctx, source)
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}

	log.Printf("Ingestion finished for %s. Scanned: %d, Added: %d, Updated: %d, Duplicates: %d, Errors: %d",
		source.Name(), report.Scanned, report.Added, report.Updated, report.Duplicates, len(report.Errors))
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
