package main

import (
	"log"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/grant-agent/internal/config"
	"github.com/david/grant-agent/internal/db"
)

type options struct {
	Limit int `long:"limit" default:"10" description:"Number of most recent runs to show"`
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

	entries, err := db.NewRunLog(opts.RunLogFile).Entries()
	if err != nil {
		log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Run", "Source", "Scanned", "Added", "Updated", "Dupes", "Alerts", "Errors", "Started At"})

	shown := 0
	for i := len(entries) - 1; i >= 0 && shown < cmd.Limit; i-- {
		e := entries[i]
		runID := e.RunID
		if len(runID) > 8 {
			runID = runID[:8]
		}
		t.AppendRow(table.Row{runID, e.Source, e.Scanned, e.Added, e.Updated, e.Duplicates, e.AlertsSent, len(e.Errors), e.Timestamp.Local().Format("2006-01-02 15:04:05")})
		if len(e.Errors) > 0 {
			t.AppendRow(table.Row{"", "↳ " + strings.Join(e.Errors, "; ")})
		}
		shown++
	}
	t.Render()
}
