package ingest

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/david/grant-agent/internal/models"
)

var strictPolicy = bluemonday.StrictPolicy()

// blockSelectors end a line when HTML is flattened to text.
const blockSelectors = "p, div, li, tr, h1, h2, h3, h4, h5, h6, section, article, dt, dd"

// TruncateText cuts a string to max length, appending ellipsis if truncated.
func TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen > 3 {
		return text[:maxLen-3] + "..."
	}
	return text[:maxLen]
}

// looksLikeHTML is a cheap check for pasted markup.
func looksLikeHTML(s string) bool {
	return strings.Contains(s, "<") && strings.Contains(s, ">")
}

// HTMLToLines flattens HTML into text with one line per block element, so
// label-based patterns still see "Deadline: ..." on its own line.
func HTMLToLines(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = normalizeSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// stripTags removes any markup from a single field value.
func stripTags(s string) string {
	if !looksLikeHTML(s) {
		return s
	}
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

func cleanField(s string) string {
	return normalizeSpace(strings.ToValidUTF8(stripTags(s), ""))
}

// NormalizeCandidate cleans free-text fields of an incoming candidate in place.
// Identity fields and source_category only lose markup: ids hash them exactly
// and reliability matches the category case-sensitively. Managed fields are
// left alone; the reconciler owns them.
func NormalizeCandidate(rec *models.GrantRecord) {
	rec.ProgramName = stripTags(rec.ProgramName)
	rec.Provider = stripTags(rec.Provider)
	rec.Country = cleanField(rec.Country)
	rec.SectorFocus = cleanField(rec.SectorFocus)
	rec.FundingType = cleanField(rec.FundingType)
	rec.FundingAmount = cleanField(rec.FundingAmount)
	rec.EligibilitySummary = cleanField(rec.EligibilitySummary)
	rec.Deadline = cleanField(rec.Deadline)
	rec.ApplicationLink = strings.TrimSpace(rec.ApplicationLink)
	rec.AwardsAvailable = cleanField(rec.AwardsAvailable)
	rec.OpenDate = cleanField(rec.OpenDate)
	rec.SourceCategory = stripTags(rec.SourceCategory)
	rec.EffortLevel = cleanField(rec.EffortLevel)
	rec.RequiredDocuments = cleanList(rec.RequiredDocuments)
}
