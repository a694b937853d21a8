package ingest

import (
	"context"
	"testing"

	"github.com/david/grant-agent/internal/models"
)

func TestIngest_NewGrantIsAddedAndAlerted(t *testing.T) {
	r, store, notifier := newTestReconciler("2025-06-01")
	ctx := context.Background()

	res, err := r.Ingest(ctx, xyCandidate())
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Outcome != OutcomeAdded {
		t.Fatalf("expected ADDED, got %s", res.Outcome)
	}
	if res.Score != 94 || res.Alerts.NewGrant != 1 {
		t.Fatalf("expected score 94 with one alert, got %+v", res)
	}

	rec, ok := store.Get(models.ResolveID("X", "Y"))
	if !ok {
		t.Fatal("record not stored under its identity")
	}
	if rec.Status != models.StatusNotApplied || rec.Notes != "" {
		t.Errorf("unexpected user state: %q / %q", rec.Status, rec.Notes)
	}
	if rec.AddedDate != "2025-06-01" || rec.LastUpdated != "2025-06-01" {
		t.Errorf("unexpected dates: added=%s updated=%s", rec.AddedDate, rec.LastUpdated)
	}
	if rec.AwardsAvailable != "Unknown" || rec.OpenDate != "Unknown" {
		t.Errorf("expected Unknown defaults, got %q / %q", rec.AwardsAvailable, rec.OpenDate)
	}
	if rec.Priority != models.PriorityHigh {
		t.Errorf("expected High priority, got %s", rec.Priority)
	}
	if len(notifier.newGrants) != 1 {
		t.Fatalf("expected one new-grant alert, got %d", len(notifier.newGrants))
	}
}

func TestIngest_SecondSightingIsDuplicate(t *testing.T) {
	r, store, notifier := newTestReconciler("2025-06-01")
	ctx := context.Background()

	if _, err := r.Ingest(ctx, xyCandidate()); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	res, err := r.Ingest(ctx, xyCandidate())
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	if res.Outcome != OutcomeDuplicate {
		t.Fatalf("expected DUPLICATE, got %s", res.Outcome)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 stored record, got %d", store.Len())
	}
	if len(notifier.newGrants) != 1 {
		t.Fatalf("alert should fire once, fired %d times", len(notifier.newGrants))
	}
}

func TestIngest_DefaultsSourceCategoryToPrivate(t *testing.T) {
	r, store, _ := newTestReconciler("2025-06-01")

	c := xyCandidate()
	c.SourceCategory = ""
	res, err := r.Ingest(context.Background(), c)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	rec, _ := store.Get(res.ID)
	if rec.SourceCategory != models.SourcePrivate {
		t.Fatalf("expected Private, got %q", rec.SourceCategory)
	}
	// 40 + 28.5 + 16 + 8
	if rec.RelevanceScore != 92 {
		t.Fatalf("expected 92, got %d", rec.RelevanceScore)
	}
}

func TestIngest_ChangedDeadlineUpdatesAndPreservesUserState(t *testing.T) {
	r, store, notifier := newTestReconciler("2025-06-01")
	ctx := context.Background()

	first, err := r.Ingest(ctx, xyCandidate())
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	status := models.StatusApplied
	notes := "submitted via portal"
	if _, err := store.UpdateUserState(first.ID, &status, &notes); err != nil {
		t.Fatalf("UpdateUserState: %v", err)
	}

	r.Now = clockAt("2025-06-10")
	r.scorer.Now = clockAt("2025-06-10")

	changed := xyCandidate()
	changed.Deadline = "2025-06-12"
	changed.Country = "Canada"
	res, err := r.Ingest(ctx, changed)
	if err != nil {
		t.Fatalf("update ingest: %v", err)
	}
	if res.Outcome != OutcomeUpdated {
		t.Fatalf("expected UPDATED, got %s", res.Outcome)
	}

	rec, _ := store.Get(first.ID)
	if rec.Status != models.StatusApplied || rec.Notes != notes {
		t.Errorf("user state lost: %q / %q", rec.Status, rec.Notes)
	}
	if rec.AddedDate != "2025-06-01" {
		t.Errorf("added_date changed to %s", rec.AddedDate)
	}
	if rec.LastUpdated != "2025-06-10" {
		t.Errorf("expected last_updated 2025-06-10, got %s", rec.LastUpdated)
	}
	if rec.Deadline != "2025-06-12" || rec.Country != "Canada" {
		t.Errorf("candidate fields not merged: %+v", rec)
	}
	// urgency 90 now: 40 + 28.5 + 18 + 10
	if rec.RelevanceScore != 96 {
		t.Errorf("expected rescored 96, got %d", rec.RelevanceScore)
	}
	if len(notifier.newGrants) != 1 {
		t.Errorf("updates must not alert, got %d alerts", len(notifier.newGrants))
	}
}

func TestIngest_UntrackedFieldChangeIsDuplicate(t *testing.T) {
	r, store, _ := newTestReconciler("2025-06-01")
	ctx := context.Background()

	first, _ := r.Ingest(ctx, xyCandidate())

	c := xyCandidate()
	c.Country = "Mexico"
	c.EligibilitySummary = "Students only"
	res, err := r.Ingest(ctx, c)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Outcome != OutcomeDuplicate {
		t.Fatalf("expected DUPLICATE, got %s", res.Outcome)
	}

	rec, _ := store.Get(first.ID)
	if rec.Country == "Mexico" {
		t.Fatal("duplicate must not mutate the stored record")
	}
}

func TestIngest_TrackedFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.GrantRecord)
	}{
		{"funding amount", func(g *models.GrantRecord) { g.FundingAmount = "$20,000" }},
		{"application link", func(g *models.GrantRecord) { g.ApplicationLink = "https://example.org/new" }},
		{"deadline", func(g *models.GrantRecord) { g.Deadline = "Rolling" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestReconciler("2025-06-01")
			ctx := context.Background()
			if _, err := r.Ingest(ctx, xyCandidate()); err != nil {
				t.Fatal(err)
			}

			c := xyCandidate()
			tt.mutate(&c)
			res, err := r.Ingest(ctx, c)
			if err != nil {
				t.Fatal(err)
			}
			if res.Outcome != OutcomeUpdated {
				t.Fatalf("expected UPDATED, got %s", res.Outcome)
			}
		})
	}
}

func TestIngest_NewestFirst(t *testing.T) {
	r, store, _ := newTestReconciler("2025-06-01")
	ctx := context.Background()

	a := xyCandidate()
	b := xyCandidate()
	b.ProgramName = "Z"
	r.Ingest(ctx, a)
	r.Ingest(ctx, b)

	recs := store.Records()
	if len(recs) != 2 || recs[0].ProgramName != "Z" {
		t.Fatalf("expected newest first, got %+v", recs)
	}
}
