package db

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// DefaultRunLogSize is how many runs the log keeps.
const DefaultRunLogSize = 50

// RunEntry records the outcome of one batch run.
type RunEntry struct {
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	Scanned    int       `json:"scanned"`
	Added      int       `json:"added"`
	Updated    int       `json:"updated"`
	Duplicates int       `json:"duplicates"`
	AlertsSent int       `json:"alerts_sent"`
	Errors     []string  `json:"errors"`
}

// RunLog is an append-only JSON array of runs capped to the most recent Max.
type RunLog struct {
	Path string
	Max  int
}

func NewRunLog(path string) *RunLog {
	return &RunLog{Path: path, Max: DefaultRunLogSize}
}

// Entries returns logged runs, oldest first. A missing log is empty.
func (l *RunLog) Entries() ([]RunEntry, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}

	var entries []RunEntry
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			log.Printf("⚠️ Run log %s is malformed, starting a new one: %v", l.Path, err)
			return []RunEntry{}, nil
		}
	}
	if entries == nil {
		entries = []RunEntry{}
	}
	return entries, nil
}

// Append adds entry and trims the log to the newest Max entries.
func (l *RunLog) Append(entry RunEntry) error {
	entries, err := l.Entries()
	if err != nil {
		return err
	}

	if entry.Errors == nil {
		entry.Errors = []string{}
	}
	entries = append(entries, entry)

	limit := l.Max
	if limit <= 0 {
		limit = DefaultRunLogSize
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create run log directory: %w", err)
	}
	if err := os.WriteFile(l.Path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}
	return nil
}
