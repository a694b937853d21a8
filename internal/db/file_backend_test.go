package db

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/david/grant-agent/internal/models"
)

func sampleGrants() []models.GrantRecord {
	return []models.GrantRecord{
		{
			ID:                models.ResolveID("Google for Startups Cloud Program", "Google Cloud"),
			ProgramName:       "Google for Startups Cloud Program",
			Provider:          "Google Cloud",
			Country:           "Global",
			FundingType:       "Credits (Non-dilutive)",
			FundingAmount:     "Up to $350,000 (Credits)",
			Deadline:          "Open All Year",
			ApplicationLink:   "https://cloud.google.com/startup",
			RequiredDocuments: []string{"Company Domain", "Funding Proof"},
			SourceCategory:    models.SourcePrivate,
			EffortLevel:       "Low",
			RelevanceScore:    81,
			Priority:          models.PriorityMedium,
			Status:            models.StatusApplied,
			Notes:             "submitted <b>early</b> & followed up",
			AddedDate:         "2026-01-05",
			LastUpdated:       "2026-02-01",
		},
		{
			ID:             models.ResolveID("Y Combinator W26 Batch", "Y Combinator"),
			ProgramName:    "Y Combinator W26 Batch",
			Provider:       "Y Combinator",
			Deadline:       "2026-03-30",
			RelevanceScore: 71,
			Priority:       models.PriorityLow,
		},
	}
}

func fixedClock(day string) func() time.Time {
	t, _ := time.Parse(models.DateLayout, day)
	return func() time.Time { return t.Add(10 * time.Hour) }
}

func TestFileBackend_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	b := NewFileBackend(filepath.Join(dir, "grants.js"))
	ctx := context.Background()

	want := sampleGrants()
	if err := b.SaveAll(ctx, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := b.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got: %+v\nwant: %+v", got, want)
	}

	raw, _ := os.ReadFile(b.Path)
	if !strings.HasPrefix(string(raw), "window.grantsData = [") {
		t.Fatalf("expected script prefix, got %q", string(raw[:30]))
	}
	if !strings.HasSuffix(string(raw), "];\n") {
		t.Fatalf("expected script suffix, got %q", string(raw[len(raw)-10:]))
	}
}

func TestFileBackend_MissingFileIsEmpty(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "absent.js"))
	got, err := b.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty collection, got %d", len(got))
	}
}

func TestFileBackend_MalformedIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.js")
	if err := os.WriteFile(path, []byte("window.grantsData = [{\"program_name\": "), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFileBackend(path).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("malformed content must not be an error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty collection, got %d", len(got))
	}
}

func TestDecodeScript_Variants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		count int
	}{
		{"script wrapper", `window.grantsData = [{"program_name":"A","provider":"B"}];`, 1},
		{"no semicolon", `window.grantsData = [{"program_name":"A","provider":"B"}]`, 1},
		{"bare json", `[{"program_name":"A","provider":"B"},{"program_name":"C","provider":"D"}]`, 2},
		{"tight spacing", `window.grantsData=[]`, 0},
		{"empty", "   ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeScript([]byte(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.count {
				t.Fatalf("expected %d records, got %d", tt.count, len(got))
			}
		})
	}
}

func TestFileBackend_BackupOncePerDay(t *testing.T) {
	dir := t.TempDir()
	b := NewFileBackend(filepath.Join(dir, "grants.js"))
	b.Now = fixedClock("2026-10-18")
	ctx := context.Background()

	first := sampleGrants()[:1]
	if err := b.SaveAll(ctx, first); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(b.BackupPath()); !os.IsNotExist(err) {
		t.Fatal("no backup expected when there was no previous file")
	}

	if err := b.SaveAll(ctx, sampleGrants()); err != nil {
		t.Fatal(err)
	}
	backup, err := os.ReadFile(b.BackupPath())
	if err != nil {
		t.Fatalf("expected backup after second save: %v", err)
	}
	backedUp, _ := DecodeScript(backup)
	if len(backedUp) != 1 {
		t.Fatalf("backup should hold the first save, got %d records", len(backedUp))
	}

	// A third save the same day keeps the first backup.
	if err := b.SaveAll(ctx, nil); err != nil {
		t.Fatal(err)
	}
	backup, _ = os.ReadFile(b.BackupPath())
	backedUp, _ = DecodeScript(backup)
	if len(backedUp) != 1 {
		t.Fatalf("backup must not be re-copied the same day, got %d records", len(backedUp))
	}

	b.Now = fixedClock("2026-10-19")
	if err := b.SaveAll(ctx, sampleGrants()); err != nil {
		t.Fatal(err)
	}
	if filepath.Base(b.BackupPath()) != "grants_2026-10-19.js" {
		t.Fatalf("unexpected backup name %s", b.BackupPath())
	}
	backup, _ = os.ReadFile(b.BackupPath())
	backedUp, _ = DecodeScript(backup)
	if len(backedUp) != 0 {
		t.Fatalf("next day's backup should hold the empty save, got %d", len(backedUp))
	}
}
