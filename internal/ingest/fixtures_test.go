package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/david/grant-agent/internal/alerts"
	"github.com/david/grant-agent/internal/db"
	"github.com/david/grant-agent/internal/models"
)

type memBackend struct {
	records []models.GrantRecord
	saves   int
}

func (m *memBackend) LoadAll(ctx context.Context) ([]models.GrantRecord, error) {
	out := make([]models.GrantRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memBackend) SaveAll(ctx context.Context, records []models.GrantRecord) error {
	m.records = records
	m.saves++
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	newGrants []models.GrantRecord
	deadlines map[string][]int
}

func (f *fakeNotifier) NotifyNew(ctx context.Context, rec models.GrantRecord) alerts.Counters {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.RelevanceScore <= alerts.DefaultHighScoreThreshold {
		return alerts.Counters{}
	}
	f.newGrants = append(f.newGrants, rec)
	return alerts.Counters{NewGrant: 1}
}

func (f *fakeNotifier) NotifyDeadline(ctx context.Context, rec models.GrantRecord, daysLeft int) alerts.Counters {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deadlines == nil {
		f.deadlines = make(map[string][]int)
	}
	f.deadlines[rec.ProgramName] = append(f.deadlines[rec.ProgramName], daysLeft)
	return alerts.Counters{Deadline: 1}
}

func clockAt(day string) func() time.Time {
	t, err := time.Parse(models.DateLayout, day)
	if err != nil {
		panic(err)
	}
	t = t.Add(10 * time.Hour)
	return func() time.Time { return t }
}

func newTestReconciler(day string) (*Reconciler, *db.Store, *fakeNotifier) {
	store := db.NewStore(&memBackend{})
	scorer := NewScorer(DefaultWeights())
	scorer.Now = clockAt(day)
	notifier := &fakeNotifier{}
	r := NewReconciler(store, scorer, notifier)
	r.Now = clockAt(day)
	return r, store, notifier
}

func xyCandidate() models.GrantRecord {
	return models.GrantRecord{
		ProgramName:        "X",
		Provider:           "Y",
		FundingType:        "Grant",
		SourceCategory:     models.SourceGov,
		Deadline:           "Open All Year",
		EligibilitySummary: "Open to all",
		FundingAmount:      "$10,000",
		ApplicationLink:    "https://example.org/x",
	}
}
