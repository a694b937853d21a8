package ingest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/david/grant-agent/internal/models"
)

// Weights are the relative contributions of each sub-score. They should sum to 1.
type Weights struct {
	Eligibility float64 `yaml:"eligibility" json:"eligibility"`
	Funding     float64 `yaml:"funding" json:"funding"`
	Urgency     float64 `yaml:"urgency" json:"urgency"`
	Reliability float64 `yaml:"reliability" json:"reliability"`
}

func DefaultWeights() Weights {
	return Weights{Eligibility: 0.4, Funding: 0.3, Urgency: 0.2, Reliability: 0.1}
}

func (w Weights) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"eligibility", w.Eligibility},
		{"funding", w.Funding},
		{"urgency", w.Urgency},
		{"reliability", w.Reliability},
	} {
		if f.v < 0 {
			return fmt.Errorf("weight %s must not be negative (got %v)", f.name, f.v)
		}
	}
	sum := w.Eligibility + w.Funding + w.Urgency + w.Reliability
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("weights must sum to 1.0 (got %v)", sum)
	}
	return nil
}

// Priority thresholds on the 0-100 score.
const (
	HighPriorityScore   = 90
	MediumPriorityScore = 75
)

// Breakdown exposes the sub-scores behind a relevance score.
type Breakdown struct {
	Eligibility int     `json:"eligibility"`
	Funding     int     `json:"funding"`
	Urgency     int     `json:"urgency"`
	Reliability int     `json:"reliability"`
	Raw         float64 `json:"raw"`
	Score       int     `json:"score"`
}

// Scorer rates how relevant a grant is for a non-student, for-profit applicant.
type Scorer struct {
	Weights Weights
	Now     func() time.Time
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{Weights: w, Now: time.Now}
}

func (s *Scorer) Score(rec models.GrantRecord) int {
	return s.Breakdown(rec).Score
}

func (s *Scorer) Breakdown(rec models.GrantRecord) Breakdown {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	b := Breakdown{
		Eligibility: EligibilityScore(rec),
		Funding:     FundingScore(rec.FundingType),
		Urgency:     UrgencyScore(rec.Deadline, now()),
		Reliability: ReliabilityScore(rec.SourceCategory),
	}
	b.Raw = float64(b.Eligibility)*s.Weights.Eligibility +
		float64(b.Funding)*s.Weights.Funding +
		float64(b.Urgency)*s.Weights.Urgency +
		float64(b.Reliability)*s.Weights.Reliability

	// Truncate, tolerating float noise such as 74.99999999999999 for 75.
	score := int(math.Floor(b.Raw + 1e-9))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	b.Score = score
	return b
}

// PriorityFor maps a score onto its tier.
func PriorityFor(score int) models.Priority {
	switch {
	case score >= HighPriorityScore:
		return models.PriorityHigh
	case score >= MediumPriorityScore:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// EligibilityScore penalizes student-only and non-profit-only programs.
// The sector check runs last and wins when both match.
func EligibilityScore(rec models.GrantRecord) int {
	score := 100
	if strings.Contains(strings.ToLower(rec.EligibilitySummary), "student") {
		score = 50
	}
	if strings.Contains(strings.ToLower(rec.SectorFocus), "non-profit") {
		score = 60
	}
	return score
}

// FundingScore checks Equity, Grant, then Credits; later matches overwrite
// earlier ones, so "Credits" beats "Grant" beats "Equity".
func FundingScore(fundingType string) int {
	score := 50
	if strings.Contains(fundingType, "Equity") {
		score = 70
	}
	if strings.Contains(fundingType, "Grant") {
		score = 95
	}
	if strings.Contains(fundingType, "Credits") {
		score = 60
	}
	return score
}

// UrgencyScore rewards deadlines that are close but not passed.
func UrgencyScore(deadline string, now time.Time) int {
	if IsOpenAllYear(deadline) {
		return 80
	}

	due, ok := ParseDeadline(deadline)
	if !ok {
		return 50
	}

	days := DaysUntil(due, now)
	switch {
	case days < 0:
		return 0
	case days < 7:
		return 90
	case days < 30:
		return 85
	case days > 90:
		return 60
	default:
		return 50
	}
}

// ReliabilityScore trusts government sources most.
func ReliabilityScore(category string) int {
	switch category {
	case models.SourceGov:
		return 100
	case models.SourceAccelerator:
		return 90
	case models.SourcePrivate:
		return 80
	default:
		return 50
	}
}
