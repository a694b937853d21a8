package ingest

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"

	"github.com/david/grant-agent/internal/models"
)

// Funnel defaults for anything the text does not state.
const (
	FunnelSourceName   = "funnel"
	FunnelProvider     = "External Source (Funnel)"
	unknownProgramName = "Unknown Grant Program"
	unknownAmount      = "Unknown Amount"
	openDeadline       = "Open"
	noLink             = "#"
)

var ErrEmptyFunnelText = errors.New("no text provided")

var (
	funnelNameRe     = regexp.MustCompile(`(?i)(?:Grant Name|Program|Title):?\s*(.+)`)
	funnelAmountRe   = regexp.MustCompile(`(?i)(?:Amount|Funding|Value):?\s*(.+)`)
	funnelDeadlineRe = regexp.MustCompile(`(?i)(?:Deadline|Due Date|Apply by):?\s*(.+)`)
	funnelLinkRe     = regexp.MustCompile(`(https?://\S+)`)
)

// ParseFunnel pulls a candidate out of pasted email or web page text using
// label patterns. HTML input is flattened to lines first.
func ParseFunnel(raw string) (models.GrantRecord, error) {
	if strings.TrimSpace(raw) == "" {
		return models.GrantRecord{}, ErrEmptyFunnelText
	}

	text := raw
	if looksLikeHTML(raw) {
		text = HTMLToLines(raw)
	}

	return models.GrantRecord{
		ProgramName:        firstMatch(funnelNameRe, text, unknownProgramName),
		Provider:           FunnelProvider,
		Country:            "Unknown",
		SectorFocus:        "General",
		FundingType:        "Grant/Other",
		FundingAmount:      firstMatch(funnelAmountRe, text, unknownAmount),
		EligibilitySummary: "See details.",
		Deadline:           firstMatch(funnelDeadlineRe, text, openDeadline),
		ApplicationLink:    firstMatch(funnelLinkRe, text, noLink),
		RequiredDocuments:  []string{"Check website"},
		EffortLevel:        "Medium",
	}, nil
}

func firstMatch(re *regexp.Regexp, text, fallback string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	if v := strings.TrimSpace(m[1]); v != "" {
		return v
	}
	return fallback
}

// FunnelSource adapts pasted text to a CandidateSource.
type FunnelSource struct {
	Text string
}

func (f FunnelSource) Name() string { return FunnelSourceName }

func (f FunnelSource) Scan(ctx context.Context) ([]models.GrantRecord, error) {
	rec, err := ParseFunnel(f.Text)
	if err != nil {
		return nil, err
	}
	log.Printf("🧠 Funnel extracted: %s (deadline %s, amount %s)", rec.ProgramName, rec.Deadline, rec.FundingAmount)
	return []models.GrantRecord{rec}, nil
}
