package ingest

import (
	"strings"
	"time"

	"github.com/david/grant-agent/internal/models"
)

const openAllYear = "open all year"

// IsOpenAllYear reports whether deadline is the "no deadline pressure" sentinel.
func IsOpenAllYear(deadline string) bool {
	return strings.EqualFold(strings.TrimSpace(deadline), openAllYear)
}

// ParseDeadline accepts only strict YYYY-MM-DD dates. Relative or free-text
// deadlines ("Rolling", "Q3 2026") are not errors, just unparseable.
func ParseDeadline(deadline string) (time.Time, bool) {
	t, err := time.Parse(models.DateLayout, deadline)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaysUntil counts calendar days from now's date to deadline's date.
// Negative means the deadline has passed.
func DaysUntil(deadline, now time.Time) int {
	d := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(n).Hours() / 24)
}

// Today formats now as a calendar date.
func Today(now time.Time) string {
	return now.Format(models.DateLayout)
}
