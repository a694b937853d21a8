package ingest

import (
	"context"

	"github.com/david/grant-agent/internal/alerts"
	"github.com/david/grant-agent/internal/models"
)

// Outcome is the reconciliation decision for one candidate.
type Outcome string

const (
	OutcomeAdded     Outcome = "ADDED"
	OutcomeUpdated   Outcome = "UPDATED"
	OutcomeDuplicate Outcome = "DUPLICATE"
)

// CandidateSource produces candidate grants not yet reconciled against the
// store: the mock scanner, the text funnel, or a future crawler.
type CandidateSource interface {
	Name() string
	Scan(ctx context.Context) ([]models.GrantRecord, error)
}

// Notifier is the alerting capability the reconciler and monitor depend on.
type Notifier interface {
	NotifyNew(ctx context.Context, rec models.GrantRecord) alerts.Counters
	NotifyDeadline(ctx context.Context, rec models.GrantRecord, daysLeft int) alerts.Counters
}

// BatchReport summarizes one pipeline run.
type BatchReport struct {
	RunID      string          `json:"run_id"`
	Source     string          `json:"source"`
	Scanned    int             `json:"scanned"`
	Added      int             `json:"added"`
	Updated    int             `json:"updated"`
	Duplicates int             `json:"duplicates"`
	Flagged    []DeadlineFlag  `json:"flagged"`
	Alerts     alerts.Counters `json:"alerts"`
	Errors     []string        `json:"errors"`
	Total      int             `json:"total"`
}
