package ingest

import (
	"context"
	"fmt"
	"sort"

	"github.com/david/grant-agent/internal/models"
)

// SourceRegistry maps source ids (from the scan catalogue) to implementations.
type SourceRegistry struct {
	sources map[string]CandidateSource
}

func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{
		sources: make(map[string]CandidateSource),
	}
}

func (r *SourceRegistry) Register(id string, source CandidateSource) {
	r.sources[id] = source
}

func (r *SourceRegistry) Get(id string) (CandidateSource, error) {
	source, ok := r.sources[id]
	if !ok {
		return nil, fmt.Errorf("source not found: %s", id)
	}
	return source, nil
}

// IDs lists registered sources in a stable order.
func (r *SourceRegistry) IDs() []string {
	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RegistryFromCatalog registers one mock scanner per catalogue source entry.
func RegistryFromCatalog(cat *Catalog) (*SourceRegistry, error) {
	reg := NewSourceRegistry()
	findings := cat.Records()
	for _, src := range cat.Sources {
		var mode ScanMode
		switch src.Mode {
		case "", string(ScanAll):
			mode = ScanAll
		case string(ScanRandom):
			mode = ScanRandom
		default:
			return nil, fmt.Errorf("source %q: unknown mode %q", src.ID, src.Mode)
		}
		reg.Register(src.ID, NewMockScanner(src.ID, findings, mode))
	}
	return reg, nil
}

// StaticSource yields a fixed set of candidates, e.g. records posted to the API.
type StaticSource struct {
	Label   string
	Records []models.GrantRecord
}

func (s StaticSource) Name() string { return s.Label }

func (s StaticSource) Scan(ctx context.Context) ([]models.GrantRecord, error) {
	out := make([]models.GrantRecord, 0, len(s.Records))
	for _, rec := range s.Records {
		out = append(out, rec.Clone())
	}
	return out, nil
}
