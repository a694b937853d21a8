package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work, typically a batch run.
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron expression. Runs never overlap: a tick that
// fires while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	running sync.Mutex
}

func New(timezone string) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Printf("⚠️ Invalid timezone %q, using UTC: %v", timezone, err)
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
	}
}

// Schedule registers job under a standard five-field cron expression,
// replacing any previous job.
func (s *Scheduler) Schedule(ctx context.Context, expr string, job Job) error {
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}

	id, err := s.cron.AddFunc(expr, func() { s.run(ctx, job) })
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryID = id
	return nil
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	if !s.running.TryLock() {
		log.Printf("⏭️ Previous run still in progress, skipping tick")
		return
	}
	defer s.running.Unlock()

	if ctx.Err() != nil {
		return
	}
	if err := job(ctx); err != nil {
		log.Printf("❌ Scheduled run failed: %v", err)
	}
}

// Next reports when the job fires next; zero before Start.
func (s *Scheduler) Next() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Run starts the schedule and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.Start()
	log.Printf("⏰ Scheduler started, next run at %s", s.Next().Format(time.RFC3339))
	<-ctx.Done()
	s.Stop()
	log.Printf("Scheduler stopped")
}
