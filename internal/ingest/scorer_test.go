package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/david/grant-agent/internal/models"
)

func TestScore_OpenAllYearGovGrant(t *testing.T) {
	s := NewScorer(DefaultWeights())
	s.Now = clockAt("2025-06-01")

	b := s.Breakdown(xyCandidate())
	if b.Eligibility != 100 || b.Funding != 95 || b.Urgency != 80 || b.Reliability != 100 {
		t.Fatalf("unexpected sub-scores: %+v", b)
	}
	if b.Score != 94 {
		t.Fatalf("expected score 94 (raw %.2f), got %d", b.Raw, b.Score)
	}
	if p := PriorityFor(b.Score); p != models.PriorityHigh {
		t.Fatalf("expected High, got %s", p)
	}
}

func TestEligibilityScore(t *testing.T) {
	tests := []struct {
		name        string
		eligibility string
		sector      string
		want        int
	}{
		{"open", "Open to all startups", "AI", 100},
		{"student", "Undergraduate STUDENTS only", "AI", 50},
		{"non-profit sector", "Open to all", "Non-Profit orgs", 60},
		{"sector wins over student", "Students welcome", "non-profit", 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EligibilityScore(models.GrantRecord{EligibilitySummary: tt.eligibility, SectorFocus: tt.sector})
			if got != tt.want {
				t.Errorf("EligibilityScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFundingScore_LaterMatchWins(t *testing.T) {
	tests := []struct {
		fundingType string
		want        int
	}{
		{"Loan", 50},
		{"Equity", 70},
		{"Grant", 95},
		{"Grant/Equity", 95},
		{"Credits", 60},
		{"Cloud Credits + Grant", 60},
		{"Equity & Credits", 60},
		{"grant", 50},
	}

	for _, tt := range tests {
		if got := FundingScore(tt.fundingType); got != tt.want {
			t.Errorf("FundingScore(%q) = %d, want %d", tt.fundingType, got, tt.want)
		}
	}
}

func TestUrgencyScore_Bands(t *testing.T) {
	now := clockAt("2025-06-01")()

	tests := []struct {
		deadline string
		want     int
	}{
		{"open all year", 80},
		{"  OPEN ALL YEAR ", 80},
		{"Rolling", 50},
		{"2025-13-01", 50},
		{"2025-05-31", 0},
		{"2025-06-01", 90},
		{"2025-06-07", 90},
		{"2025-06-08", 85},
		{"2025-06-30", 85},
		{"2025-07-01", 50},
		{"2025-08-30", 50},
		{"2025-08-31", 60},
	}

	for _, tt := range tests {
		t.Run(tt.deadline, func(t *testing.T) {
			if got := UrgencyScore(tt.deadline, now); got != tt.want {
				t.Errorf("UrgencyScore(%q) = %d, want %d", tt.deadline, got, tt.want)
			}
		})
	}
}

func TestReliabilityScore(t *testing.T) {
	tests := map[string]int{
		models.SourceGov:         100,
		models.SourceAccelerator: 90,
		models.SourcePrivate:     80,
		models.SourceVC:          50,
		"":                       50,
		"gov":                    50,
	}
	for category, want := range tests {
		if got := ReliabilityScore(category); got != want {
			t.Errorf("ReliabilityScore(%q) = %d, want %d", category, got, want)
		}
	}
}

func TestPriorityFor_Monotonic(t *testing.T) {
	rank := map[models.Priority]int{models.PriorityLow: 0, models.PriorityMedium: 1, models.PriorityHigh: 2}

	prev := rank[PriorityFor(0)]
	for score := 1; score <= 100; score++ {
		cur := rank[PriorityFor(score)]
		if cur < prev {
			t.Fatalf("priority dropped at score %d", score)
		}
		prev = cur
	}

	if PriorityFor(89) != models.PriorityMedium || PriorityFor(90) != models.PriorityHigh {
		t.Fatal("High boundary should be 90")
	}
	if PriorityFor(74) != models.PriorityLow || PriorityFor(75) != models.PriorityMedium {
		t.Fatal("Medium boundary should be 75")
	}
}

func TestScore_StaysInRange(t *testing.T) {
	s := NewScorer(DefaultWeights())
	s.Now = func() time.Time { return time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC) }

	records := []models.GrantRecord{
		{},
		xyCandidate(),
		{EligibilitySummary: "student", SectorFocus: "non-profit", Deadline: "2000-01-01"},
		{FundingType: "Grant", SourceCategory: "Gov", Deadline: "2025-06-02"},
	}
	for _, rec := range records {
		if got := s.Score(rec); got < 0 || got > 100 {
			t.Errorf("score %d out of range for %+v", got, rec)
		}
	}
}

func TestWeights_Validate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
	if err := (Weights{Eligibility: 0.5, Funding: 0.5, Urgency: 0.5}).Validate(); err == nil {
		t.Fatal("expected error for weights summing to 1.5")
	}
	if err := (Weights{Eligibility: 1.2, Funding: -0.2}).Validate(); err == nil {
		t.Fatal("expected error for negative weight")
	}
	// the first negative weight in declaration order is reported
	err := (Weights{Eligibility: 1.5, Funding: -0.2, Reliability: -0.3}).Validate()
	if err == nil || !strings.Contains(err.Error(), "funding") {
		t.Fatalf("expected funding to be named, got %v", err)
	}
}
