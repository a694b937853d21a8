package db

import "github.com/david/grant-agent/internal/models"

// Stats summarizes a grant collection.
type Stats struct {
	Total      int                     `json:"total"`
	ByPriority map[models.Priority]int `json:"by_priority"`
	ByStatus   map[models.Status]int   `json:"by_status"`
}

func (s Stats) High() int {
	return s.ByPriority[models.PriorityHigh]
}

// ComputeStats counts records by priority and status. A blank status counts
// as Not Applied.
func ComputeStats(records []models.GrantRecord) Stats {
	stats := Stats{
		Total:      len(records),
		ByPriority: map[models.Priority]int{},
		ByStatus:   map[models.Status]int{},
	}
	for _, rec := range records {
		stats.ByPriority[rec.Priority]++
		status := rec.Status
		if status == "" {
			status = models.StatusNotApplied
		}
		stats.ByStatus[status]++
	}
	return stats
}

func (s *Store) Stats() Stats {
	return ComputeStats(s.Records())
}
