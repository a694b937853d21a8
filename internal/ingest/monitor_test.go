package ingest

import (
	"context"
	"testing"

	"github.com/david/grant-agent/internal/models"
)

func TestMonitor_FiresOnlyOnExactDays(t *testing.T) {
	notifier := &fakeNotifier{}
	m := NewMonitor(notifier)
	m.Now = clockAt("2025-06-01")

	var records []models.GrantRecord
	for _, d := range []string{"2025-06-03", "2025-06-04", "2025-06-05", "2025-06-07", "2025-06-08", "2025-06-09"} {
		records = append(records, models.GrantRecord{ProgramName: d, Deadline: d, Status: models.StatusNotApplied})
	}

	flags, counters := m.Scan(context.Background(), records)
	if len(flags) != 2 || counters.Deadline != 2 {
		t.Fatalf("expected 2 flags, got %d (%+v)", len(flags), counters)
	}
	if got := notifier.deadlines["2025-06-04"]; len(got) != 1 || got[0] != 3 {
		t.Errorf("expected 3-day alert, got %v", got)
	}
	if got := notifier.deadlines["2025-06-08"]; len(got) != 1 || got[0] != 7 {
		t.Errorf("expected 7-day alert, got %v", got)
	}
	for _, d := range []string{"2025-06-03", "2025-06-05", "2025-06-07", "2025-06-09"} {
		if _, ok := notifier.deadlines[d]; ok {
			t.Errorf("unexpected alert for %s", d)
		}
	}
}

func TestMonitor_SkipsClosedAndUnmonitored(t *testing.T) {
	notifier := &fakeNotifier{}
	m := NewMonitor(notifier)
	m.Now = clockAt("2025-06-01")

	records := []models.GrantRecord{
		{ProgramName: "applied", Deadline: "2025-06-08", Status: models.StatusApplied},
		{ProgramName: "rejected", Deadline: "2025-06-08", Status: models.StatusRejected},
		{ProgramName: "awarded", Deadline: "2025-06-04", Status: models.StatusAwarded},
		{ProgramName: "rolling", Deadline: "Rolling"},
		{ProgramName: "always", Deadline: "Open all year"},
		{ProgramName: "legacy", Deadline: "2025-06-08"},
	}

	flags, _ := m.Scan(context.Background(), records)
	if len(flags) != 1 || flags[0].ProgramName != "legacy" {
		t.Fatalf("expected only the status-less legacy record, got %+v", flags)
	}
}

func TestMonitor_CustomDays(t *testing.T) {
	m := NewMonitor(nil, 1)
	m.Now = clockAt("2025-06-01")

	flags, counters := m.Scan(context.Background(), []models.GrantRecord{{Deadline: "2025-06-02"}, {Deadline: "2025-06-08"}})
	if len(flags) != 1 || flags[0].DaysLeft != 1 {
		t.Fatalf("expected a single 1-day flag, got %+v", flags)
	}
	if counters.Total() != 0 {
		t.Fatalf("nil notifier should count nothing, got %+v", counters)
	}
}
