package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/david/grant-agent/internal/models"
)

var ErrNotFound = errors.New("grant not found")

// Backend persists the whole grant collection at once.
type Backend interface {
	LoadAll(ctx context.Context) ([]models.GrantRecord, error)
	SaveAll(ctx context.Context, records []models.GrantRecord) error
}

// Store holds the working collection in memory, newest first. It is not safe
// for concurrent use; callers serialize access.
type Store struct {
	backend Backend
	records []*models.GrantRecord
	byID    map[string]*models.GrantRecord
}

func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		byID:    make(map[string]*models.GrantRecord),
	}
}

// Load replaces the in-memory collection with the backend's contents,
// assigning ids to records persisted before ids existed. Later copies of a
// repeated id are dropped so the collection holds each id once.
func (s *Store) Load(ctx context.Context) error {
	records, err := s.backend.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load grants: %w", err)
	}

	if n := AssignMissingIDs(records); n > 0 {
		log.Printf("Assigned ids to %d legacy grants", n)
	}

	s.records = make([]*models.GrantRecord, 0, len(records))
	s.byID = make(map[string]*models.GrantRecord, len(records))
	dropped := 0
	for i := range records {
		rec := records[i]
		if _, dup := s.byID[rec.ID]; dup {
			log.Printf("[Warn] Dropping duplicate grant id %s (%q); first occurrence kept", rec.ID, rec.ProgramName)
			dropped++
			continue
		}
		s.records = append(s.records, &rec)
		s.byID[rec.ID] = &rec
	}
	if dropped > 0 {
		log.Printf("Collapsed %d duplicate grants on load", dropped)
	}
	return nil
}

// Save writes the current collection through the backend.
func (s *Store) Save(ctx context.Context) error {
	if err := s.backend.SaveAll(ctx, s.Records()); err != nil {
		return fmt.Errorf("failed to save grants: %w", err)
	}
	return nil
}

// Get returns the stored record for id. The pointer aliases store state.
func (s *Store) Get(id string) (*models.GrantRecord, bool) {
	rec, ok := s.byID[id]
	return rec, ok
}

// Prepend inserts rec at the front of the collection.
func (s *Store) Prepend(rec models.GrantRecord) error {
	if rec.ID == "" {
		return errors.New("grant id is required")
	}
	if _, exists := s.byID[rec.ID]; exists {
		return fmt.Errorf("grant %s already stored", rec.ID)
	}
	stored := rec.Clone()
	s.records = append([]*models.GrantRecord{&stored}, s.records...)
	s.byID[rec.ID] = &stored
	return nil
}

// Records returns a copy of the collection in stored order.
func (s *Store) Records() []models.GrantRecord {
	out := make([]models.GrantRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	return out
}

// Each calls fn for every stored record, allowing in-place mutation.
func (s *Store) Each(fn func(rec *models.GrantRecord)) {
	for _, rec := range s.records {
		fn(rec)
	}
}

func (s *Store) Len() int {
	return len(s.records)
}

// UpdateUserState advances a grant's status and/or notes, the only fields
// owned by people rather than the pipeline.
func (s *Store) UpdateUserState(id string, status *models.Status, notes *string) (models.GrantRecord, error) {
	rec, ok := s.byID[id]
	if !ok {
		return models.GrantRecord{}, ErrNotFound
	}

	if status != nil {
		next, err := rec.Status.Transition(*status)
		if err != nil {
			return models.GrantRecord{}, err
		}
		rec.Status = next
	}
	if notes != nil {
		rec.Notes = *notes
	}
	return rec.Clone(), nil
}

// AssignMissingIDs fills empty ids in place and returns how many it set.
func AssignMissingIDs(records []models.GrantRecord) int {
	assigned := 0
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = records[i].Identity()
			assigned++
		}
	}
	return assigned
}
