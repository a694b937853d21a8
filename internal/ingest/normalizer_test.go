package ingest

import (
	"testing"

	"github.com/david/grant-agent/internal/models"
)

func TestNormalizeCandidate(t *testing.T) {
	rec := models.GrantRecord{
		ProgramName:        "<b>Seed Grant</b>",
		Provider:           "Acme Co",
		EligibilitySummary: "<p>Open to\n all</p>",
		FundingAmount:      "  $10,000 ",
		SourceCategory:     "gov",
		ApplicationLink:    " https://example.org ",
		RequiredDocuments:  []string{" Pitch deck ", "", "pitch DECK", "Budget"},
	}

	NormalizeCandidate(&rec)

	if rec.ProgramName != "Seed Grant" {
		t.Errorf("program_name = %q", rec.ProgramName)
	}
	if rec.EligibilitySummary != "Open to all" {
		t.Errorf("eligibility_summary = %q", rec.EligibilitySummary)
	}
	if rec.FundingAmount != "$10,000" {
		t.Errorf("funding_amount = %q", rec.FundingAmount)
	}
	if rec.SourceCategory != "gov" {
		t.Errorf("source_category = %q", rec.SourceCategory)
	}
	if rec.ApplicationLink != "https://example.org" {
		t.Errorf("application_link = %q", rec.ApplicationLink)
	}
	if len(rec.RequiredDocuments) != 2 || rec.RequiredDocuments[0] != "Pitch deck" || rec.RequiredDocuments[1] != "Budget" {
		t.Errorf("required_documents = %v", rec.RequiredDocuments)
	}
}

func TestNormalizeCandidate_KeepsIdentityFieldsExact(t *testing.T) {
	rec := models.GrantRecord{ProgramName: "X ", Provider: " Y", SourceCategory: "Foundation"}
	NormalizeCandidate(&rec)
	if rec.ProgramName != "X " || rec.Provider != " Y" {
		t.Fatalf("identity fields changed: %q / %q", rec.ProgramName, rec.Provider)
	}
	if rec.SourceCategory != "Foundation" {
		t.Fatalf("source_category = %q", rec.SourceCategory)
	}
}

func TestTruncateText(t *testing.T) {
	if got := TruncateText("abcdefghij", 6); got != "abc..." {
		t.Errorf("got %q", got)
	}
	if got := TruncateText("abc", 6); got != "abc" {
		t.Errorf("got %q", got)
	}
}
