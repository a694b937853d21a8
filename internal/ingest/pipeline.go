package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/david/grant-agent/internal/db"
	"github.com/david/grant-agent/internal/models"
)

// Pipeline runs a batch: scan a source, reconcile each candidate, check
// deadlines, persist the collection and log the run.
type Pipeline struct {
	Store      *db.Store
	Scorer     *Scorer
	Reconciler *Reconciler
	Monitor    *Monitor
	RunLog     *db.RunLog
	Now        func() time.Time
}

func NewPipeline(store *db.Store, scorer *Scorer, notifier Notifier, runLog *db.RunLog) *Pipeline {
	return &Pipeline{
		Store:      store,
		Scorer:     scorer,
		Reconciler: NewReconciler(store, scorer, notifier),
		Monitor:    NewMonitor(notifier),
		RunLog:     runLog,
		Now:        time.Now,
	}
}

// SetClock pins every component to the same clock.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.Now = now
	p.Scorer.Now = now
	p.Reconciler.Now = now
	p.Monitor.Now = now
}

// RunBatch processes one source. Source and per-candidate errors are recorded
// in the report and the run log; only store and run log I/O errors are returned.
func (p *Pipeline) RunBatch(ctx context.Context, source CandidateSource) (BatchReport, error) {
	report := BatchReport{
		RunID:  uuid.NewString(),
		Source: source.Name(),
		Errors: []string{},
	}
	log.Printf("🚀 Starting batch %s from %s", report.RunID, report.Source)

	if err := p.Store.Load(ctx); err != nil {
		return report, err
	}

	candidates, err := source.Scan(ctx)
	if err != nil {
		log.Printf("⚠️ Source %s failed: %v", report.Source, err)
		report.Errors = append(report.Errors, fmt.Sprintf("scan: %v", err))
	}
	report.Scanned = len(candidates)

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, err.Error())
			break
		}

		NormalizeCandidate(&candidate)
		res, err := p.Reconciler.Ingest(ctx, candidate)
		if err != nil {
			log.Printf("Failed to ingest %q: %v", candidate.ProgramName, err)
			report.Errors = append(report.Errors, err.Error())
			continue
		}

		report.Alerts = report.Alerts.Add(res.Alerts)
		switch res.Outcome {
		case OutcomeAdded:
			report.Added++
		case OutcomeUpdated:
			report.Updated++
		case OutcomeDuplicate:
			report.Duplicates++
			log.Printf("⚠️ Already tracked: %s", candidate.ProgramName)
		}
	}

	flags, deadlineAlerts := p.Monitor.Scan(ctx, p.Store.Records())
	report.Flagged = flags
	report.Alerts = report.Alerts.Add(deadlineAlerts)

	if err := p.Store.Save(ctx); err != nil {
		return report, err
	}
	report.Total = p.Store.Len()

	if err := p.logRun(report); err != nil {
		return report, err
	}

	log.Printf("Batch complete: scanned=%d added=%d updated=%d duplicates=%d alerts=%d errors=%d",
		report.Scanned, report.Added, report.Updated, report.Duplicates, report.Alerts.Total(), len(report.Errors))
	return report, nil
}

func (p *Pipeline) logRun(report BatchReport) error {
	if p.RunLog == nil {
		return nil
	}
	return p.RunLog.Append(db.RunEntry{
		RunID:      report.RunID,
		Timestamp:  p.Now().UTC(),
		Source:     report.Source,
		Scanned:    report.Scanned,
		Added:      report.Added,
		Updated:    report.Updated,
		Duplicates: report.Duplicates,
		AlertsSent: report.Alerts.Total(),
		Errors:     report.Errors,
	})
}

// Rescore recomputes score and priority for every stored record. Urgency
// drifts as deadlines approach, so stored scores go stale. Nothing else changes.
func (p *Pipeline) Rescore(ctx context.Context) (int, error) {
	if err := p.Store.Load(ctx); err != nil {
		return 0, err
	}

	changed := 0
	p.Store.Each(func(rec *models.GrantRecord) {
		score := p.Scorer.Score(*rec)
		priority := PriorityFor(score)
		if score == rec.RelevanceScore && priority == rec.Priority {
			return
		}
		log.Printf("Rescored %s: %d -> %d (%s)", rec.ProgramName, rec.RelevanceScore, score, priority)
		rec.RelevanceScore = score
		rec.Priority = priority
		changed++
	})

	if changed == 0 {
		return 0, nil
	}
	if err := p.Store.Save(ctx); err != nil {
		return changed, err
	}
	return changed, nil
}
