package models

import (
	"errors"
	"fmt"
)

// DateLayout is the calendar-date format used for deadlines and bookkeeping dates.
const DateLayout = "2006-01-02"

// GrantRecord is a funding opportunity as persisted in the grants file.
type GrantRecord struct {
	ID                 string   `json:"id,omitempty"`
	ProgramName        string   `json:"program_name"`
	Provider           string   `json:"provider"`
	Country            string   `json:"country"`
	SectorFocus        string   `json:"sector_focus"`
	FundingType        string   `json:"funding_type"`
	FundingAmount      string   `json:"funding_amount"`
	EligibilitySummary string   `json:"eligibility_summary"`
	Deadline           string   `json:"deadline"` // YYYY-MM-DD or a sentinel ("Open All Year", "Rolling", ...)
	ApplicationLink    string   `json:"application_link"`
	RequiredDocuments  []string `json:"required_documents"`
	AwardsAvailable    string   `json:"awards_available,omitempty"`
	OpenDate           string   `json:"open_date,omitempty"`
	SourceCategory     string   `json:"source_category,omitempty"`
	EffortLevel        string   `json:"effort_level"`

	// Managed by the reconciler and scorer.
	RelevanceScore int      `json:"relevance_score"`
	Priority       Priority `json:"priority"`
	Status         Status   `json:"status,omitempty"`
	Notes          string   `json:"notes"`
	AddedDate      string   `json:"added_date,omitempty"`
	LastUpdated    string   `json:"last_updated,omitempty"`
}

// Identity returns the dedup key derived from program name and provider.
func (g GrantRecord) Identity() string {
	return ResolveID(g.ProgramName, g.Provider)
}

// Clone returns a deep copy so callers can mutate without aliasing RequiredDocuments.
func (g GrantRecord) Clone() GrantRecord {
	c := g
	if g.RequiredDocuments != nil {
		c.RequiredDocuments = append([]string(nil), g.RequiredDocuments...)
	}
	return c
}

// Priority is the tier derived from the relevance score.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Source categories. Anything outside this vocabulary scores as Unknown.
const (
	SourceGov         = "Gov"
	SourceAccelerator = "Accelerator"
	SourcePrivate     = "Private"
	SourceNonProfit   = "Non-Profit"
	SourceVC          = "VC"
	SourceCorporate   = "Corporate"
	SourceUnknown     = "Unknown"
)

// Status is the application lifecycle of a grant.
type Status string

const (
	StatusNotApplied Status = "Not Applied"
	StatusApplied    Status = "Applied"
	StatusRejected   Status = "Rejected"
	StatusAwarded    Status = "Awarded"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// Closed reports whether the grant no longer needs deadline monitoring.
func (s Status) Closed() bool {
	switch s {
	case StatusApplied, StatusRejected, StatusAwarded:
		return true
	}
	return false
}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusNotApplied, StatusApplied, StatusRejected, StatusAwarded:
		return true
	}
	return false
}

// CanTransition enforces Not Applied -> Applied -> {Rejected, Awarded}.
// Staying in the same state is always allowed.
func (s Status) CanTransition(to Status) bool {
	if !to.Valid() {
		return false
	}
	if s == to {
		return true
	}
	from := s
	if from == "" {
		from = StatusNotApplied
	}
	switch from {
	case StatusNotApplied:
		return to == StatusApplied
	case StatusApplied:
		return to == StatusRejected || to == StatusAwarded
	}
	return false
}

// Transition validates and returns the next status.
func (s Status) Transition(to Status) (Status, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, s, to)
	}
	return to, nil
}
