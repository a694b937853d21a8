package cli

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/grant-agent/internal/alerts"
	"github.com/david/grant-agent/internal/db"
	"github.com/david/grant-agent/internal/ingest"
	"github.com/david/grant-agent/internal/models"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderReport(out io.Writer, r ingest.BatchReport) {
	t := newTable(out)
	t.SetTitle("Batch " + r.Source)
	t.AppendHeader(table.Row{"Scanned", "Added", "Updated", "Duplicates", "Alerts", "Errors", "Total"})
	t.AppendRow(table.Row{r.Scanned, r.Added, r.Updated, r.Duplicates, r.Alerts.Total(), len(r.Errors), r.Total})
	t.Render()

	if len(r.Flagged) > 0 {
		f := newTable(out)
		f.SetTitle("Deadlines")
		f.AppendHeader(table.Row{"Program", "Deadline", "Days Left"})
		for _, flag := range r.Flagged {
			f.AppendRow(table.Row{flag.ProgramName, flag.Deadline, flag.DaysLeft})
		}
		f.Render()
	}
	for _, e := range r.Errors {
		io.WriteString(out, errColor.Sprint("  ✗ "+e)+"\n")
	}
}

func renderStats(out io.Writer, s db.Stats, session alerts.Counters) {
	t := newTable(out)
	t.SetTitle("Grant Stats")
	t.AppendRow(table.Row{"Total grants", s.Total})
	t.AppendRow(table.Row{"High priority", s.High()})
	t.AppendRow(table.Row{"Medium priority", s.ByPriority[models.PriorityMedium]})
	t.AppendRow(table.Row{"Low priority", s.ByPriority[models.PriorityLow]})
	t.AppendSeparator()
	for _, status := range []models.Status{models.StatusNotApplied, models.StatusApplied, models.StatusRejected, models.StatusAwarded} {
		t.AppendRow(table.Row{string(status), s.ByStatus[status]})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Alerts this session", session.Total()})
	if session.Failures > 0 {
		t.AppendRow(table.Row{"Failed deliveries", session.Failures})
	}
	t.Render()
}

func renderGrant(out io.Writer, g models.GrantRecord) {
	t := newTable(out)
	t.AppendRows([]table.Row{
		{"Program", g.ProgramName},
		{"Provider", g.Provider},
		{"Amount", g.FundingAmount},
		{"Deadline", g.Deadline},
		{"Link", ingest.TruncateText(g.ApplicationLink, 60)},
		{"Documents", strings.Join(g.RequiredDocuments, ", ")},
	})
	t.Render()
}
