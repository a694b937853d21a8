package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/grant-agent/internal/app"
	"github.com/david/grant-agent/internal/config"
	"github.com/david/grant-agent/internal/db"
	"github.com/david/grant-agent/internal/ingest"
)

func main() {
	opts, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if opts == nil {
		return
	}

	ctx := context.Background()
	a, err := app.Build(ctx, opts)
	if err != nil {
		log.Fatalf("Unable to open record store: %v", err)
	}
	defer a.Close()

	records, err := a.Backend.LoadAll(ctx)
	if err != nil {
		log.Fatalf("Load failed: %v", err)
	}

	var missingID, mismatchedID, datedDeadline, openDeadline, noLink int
	seen := map[string]int{}
	for _, rec := range records {
		switch {
		case rec.ID == "":
			missingID++
		case rec.ID != rec.Identity():
			mismatchedID++
		}
		seen[rec.Identity()]++

		switch {
		case ingest.IsOpenAllYear(rec.Deadline):
			openDeadline++
		default:
			if _, ok := ingest.ParseDeadline(rec.Deadline); ok {
				datedDeadline++
			}
		}
		if rec.ApplicationLink == "" || rec.ApplicationLink == "#" {
			noLink++
		}
	}
	duplicates := 0
	for _, n := range seen {
		if n > 1 {
			duplicates += n - 1
		}
	}

	stats := db.ComputeStats(records)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Record store (%s)", opts.Backend))
	t.AppendRow(table.Row{"Total grants", stats.Total})
	t.AppendRow(table.Row{"High priority", stats.High()})
	t.AppendRow(table.Row{"Missing id (assigned on load)", missingID})
	t.AppendRow(table.Row{"Id not matching name+provider", mismatchedID})
	t.AppendRow(table.Row{"Duplicate identities", duplicates})
	t.AppendRow(table.Row{"Dated deadlines", datedDeadline})
	t.AppendRow(table.Row{"Open all year", openDeadline})
	t.AppendRow(table.Row{"Unmonitored deadlines", stats.Total - datedDeadline - openDeadline})
	t.AppendRow(table.Row{"Without application link", noLink})
	t.Render()
}
