package ingest

import (
	"context"
	"log"
	"math/rand"

	"github.com/david/grant-agent/internal/models"
)

// ScanMode selects how many catalogue findings a mock scan reports.
type ScanMode string

const (
	ScanAll    ScanMode = "all"
	ScanRandom ScanMode = "random"
)

// MockScanner stands in for a web crawler by reporting catalogue findings.
type MockScanner struct {
	id       string
	findings []models.GrantRecord
	mode     ScanMode
	// Pick chooses an index in [0, n) for ScanRandom.
	Pick func(n int) int
}

func NewMockScanner(id string, findings []models.GrantRecord, mode ScanMode) *MockScanner {
	return &MockScanner{
		id:       id,
		findings: findings,
		mode:     mode,
		Pick:     rand.Intn,
	}
}

func (m *MockScanner) Name() string { return m.id }

func (m *MockScanner) Scan(ctx context.Context) ([]models.GrantRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.findings) == 0 {
		return nil, nil
	}

	log.Printf("🔍 Scanning %s (%d catalogue entries)...", m.id, len(m.findings))
	if m.mode == ScanRandom {
		found := m.findings[m.Pick(len(m.findings))].Clone()
		log.Printf("✨ Found opportunity: %s", found.ProgramName)
		return []models.GrantRecord{found}, nil
	}

	out := make([]models.GrantRecord, 0, len(m.findings))
	for _, rec := range m.findings {
		out = append(out, rec.Clone())
	}
	return out, nil
}
