package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/david/grant-agent/internal/alerts"
	"github.com/david/grant-agent/internal/db"
	"github.com/david/grant-agent/internal/models"
)

// defaultUnknown fills optional descriptive fields the sources often omit.
const defaultUnknown = "Unknown"

// Result is what Ingest did with one candidate.
type Result struct {
	ID      string          `json:"id"`
	Outcome Outcome         `json:"outcome"`
	Score   int             `json:"score"`
	Alerts  alerts.Counters `json:"alerts"`
}

// Reconciler decides whether a candidate is new, a changed version of a known
// grant, or a duplicate, and applies that decision to the store.
type Reconciler struct {
	store    *db.Store
	scorer   *Scorer
	notifier Notifier
	Now      func() time.Time
}

func NewReconciler(store *db.Store, scorer *Scorer, notifier Notifier) *Reconciler {
	return &Reconciler{
		store:    store,
		scorer:   scorer,
		notifier: notifier,
		Now:      time.Now,
	}
}

// Ingest reconciles one candidate. Only deadline, funding amount and
// application link count as changes; other differing fields are still
// overwritten on UPDATED but never trigger it.
func (r *Reconciler) Ingest(ctx context.Context, candidate models.GrantRecord) (Result, error) {
	today := Today(r.Now())
	rec := r.enrich(candidate)
	result := Result{ID: rec.ID, Score: rec.RelevanceScore}

	existing, ok := r.store.Get(rec.ID)
	if !ok {
		rec.Status = models.StatusNotApplied
		rec.Notes = ""
		rec.AddedDate = today
		rec.LastUpdated = today

		if err := r.store.Prepend(rec); err != nil {
			return result, fmt.Errorf("failed to add %q: %w", rec.ProgramName, err)
		}
		log.Printf("✨ Added: %s (%s) score=%d priority=%s", rec.ProgramName, rec.Provider, rec.RelevanceScore, rec.Priority)

		result.Outcome = OutcomeAdded
		if r.notifier != nil {
			result.Alerts = r.notifier.NotifyNew(ctx, rec)
		}
		return result, nil
	}

	if !trackedFieldsChanged(*existing, rec) {
		result.Outcome = OutcomeDuplicate
		return result, nil
	}

	rec.Status = existing.Status
	rec.Notes = existing.Notes
	rec.AddedDate = existing.AddedDate
	rec.LastUpdated = today
	*existing = rec

	log.Printf("🔄 Updated: %s (%s) score=%d", rec.ProgramName, rec.Provider, rec.RelevanceScore)
	result.Outcome = OutcomeUpdated
	return result, nil
}

// enrich derives the managed fields of a candidate. Status, notes and dates
// are left to Ingest since they depend on whether the grant is known.
func (r *Reconciler) enrich(candidate models.GrantRecord) models.GrantRecord {
	rec := candidate.Clone()
	rec.ID = rec.Identity()

	if rec.SourceCategory == "" {
		rec.SourceCategory = models.SourcePrivate
	}
	if rec.AwardsAvailable == "" {
		rec.AwardsAvailable = defaultUnknown
	}
	if rec.OpenDate == "" {
		rec.OpenDate = defaultUnknown
	}

	rec.RelevanceScore = r.scorer.Score(rec)
	rec.Priority = PriorityFor(rec.RelevanceScore)
	return rec
}

func trackedFieldsChanged(existing, candidate models.GrantRecord) bool {
	return existing.Deadline != candidate.Deadline ||
		existing.FundingAmount != candidate.FundingAmount ||
		existing.ApplicationLink != candidate.ApplicationLink
}
