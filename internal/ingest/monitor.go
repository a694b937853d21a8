package ingest

import (
	"context"
	"log"
	"time"

	"github.com/david/grant-agent/internal/alerts"
	"github.com/david/grant-agent/internal/models"
)

// DefaultAlertDays are the exact day counts that trigger a deadline alert.
var DefaultAlertDays = []int{7, 3}

// DeadlineFlag marks a grant that hit an alert day.
type DeadlineFlag struct {
	ID          string `json:"id"`
	ProgramName string `json:"program_name"`
	Deadline    string `json:"deadline"`
	DaysLeft    int    `json:"days_left"`
}

// Monitor alerts when an open grant is exactly N days from its deadline.
// Matching is exact, so a daily run alerts each grant once per threshold.
type Monitor struct {
	notifier Notifier
	days     map[int]bool
	Now      func() time.Time
}

func NewMonitor(notifier Notifier, alertDays ...int) *Monitor {
	if len(alertDays) == 0 {
		alertDays = DefaultAlertDays
	}
	days := make(map[int]bool, len(alertDays))
	for _, d := range alertDays {
		days[d] = true
	}
	return &Monitor{notifier: notifier, days: days, Now: time.Now}
}

// Scan checks every record and alerts on threshold matches. Closed grants,
// open-all-year grants and unparseable deadlines are skipped.
func (m *Monitor) Scan(ctx context.Context, records []models.GrantRecord) ([]DeadlineFlag, alerts.Counters) {
	now := m.Now()
	var flags []DeadlineFlag
	var counters alerts.Counters

	for _, rec := range records {
		if rec.Status.Closed() || IsOpenAllYear(rec.Deadline) {
			continue
		}
		due, ok := ParseDeadline(rec.Deadline)
		if !ok {
			continue
		}

		daysLeft := DaysUntil(due, now)
		if !m.days[daysLeft] {
			continue
		}

		log.Printf("⏰ %s closes in %d days", rec.ProgramName, daysLeft)
		flags = append(flags, DeadlineFlag{
			ID:          rec.ID,
			ProgramName: rec.ProgramName,
			Deadline:    rec.Deadline,
			DaysLeft:    daysLeft,
		})
		if m.notifier != nil {
			counters = counters.Add(m.notifier.NotifyDeadline(ctx, rec, daysLeft))
		}
	}

	return flags, counters
}
