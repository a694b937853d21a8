package ingest

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/david/grant-agent/internal/models"
)

//go:embed config/scan_catalog.yaml
var catalogYAML embed.FS

const embeddedCatalog = "config/scan_catalog.yaml"

// Catalog is the scan configuration: scoring weights, the registered scan
// sources and the findings the mock scanner reports.
type Catalog struct {
	Weights Weights        `yaml:"weights"`
	Sources []SourceConfig `yaml:"sources"`
	Grants  []CatalogGrant `yaml:"grants"`
}

// SourceConfig registers one named scan source.
type SourceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Mode string `yaml:"mode"` // "all" or "random"
}

// CatalogGrant is a finding as written in YAML.
type CatalogGrant struct {
	ProgramName        string   `yaml:"program_name"`
	Provider           string   `yaml:"provider"`
	Country            string   `yaml:"country"`
	SectorFocus        string   `yaml:"sector_focus"`
	FundingType        string   `yaml:"funding_type"`
	FundingAmount      string   `yaml:"funding_amount"`
	EligibilitySummary string   `yaml:"eligibility_summary"`
	Deadline           string   `yaml:"deadline"`
	ApplicationLink    string   `yaml:"application_link"`
	RequiredDocuments  []string `yaml:"required_documents"`
	AwardsAvailable    string   `yaml:"awards_available,omitempty"`
	OpenDate           string   `yaml:"open_date,omitempty"`
	SourceCategory     string   `yaml:"source_category,omitempty"`
	EffortLevel        string   `yaml:"effort_level"`
}

func (g CatalogGrant) Record() models.GrantRecord {
	return models.GrantRecord{
		ProgramName:        g.ProgramName,
		Provider:           g.Provider,
		Country:            g.Country,
		SectorFocus:        g.SectorFocus,
		FundingType:        g.FundingType,
		FundingAmount:      g.FundingAmount,
		EligibilitySummary: g.EligibilitySummary,
		Deadline:           g.Deadline,
		ApplicationLink:    g.ApplicationLink,
		RequiredDocuments:  append([]string(nil), g.RequiredDocuments...),
		AwardsAvailable:    g.AwardsAvailable,
		OpenDate:           g.OpenDate,
		SourceCategory:     g.SourceCategory,
		EffortLevel:        g.EffortLevel,
	}
}

// Records converts every catalogue finding into a candidate.
func (c *Catalog) Records() []models.GrantRecord {
	out := make([]models.GrantRecord, 0, len(c.Grants))
	for _, g := range c.Grants {
		out = append(out, g.Record())
	}
	return out
}

// LoadCatalog reads the catalogue from path, or the embedded copy when path
// is empty. Amounts such as "$500,000" rule out environment expansion.
func LoadCatalog(path string) (*Catalog, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = catalogYAML.ReadFile(embeddedCatalog)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if cat.Weights == (Weights{}) {
		cat.Weights = DefaultWeights()
	}
	if err := cat.Weights.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// LoadWeights reads a standalone weights YAML file; an empty path yields the defaults.
func LoadWeights(path string) (Weights, error) {
	if path == "" {
		return DefaultWeights(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("failed to read weights: %w", err)
	}

	var w Weights
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("failed to parse weights: %w", err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}
