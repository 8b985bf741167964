// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SnapshotRepublisher recomputes and rewrites the unread snapshot. The book
// service implements it.
type SnapshotRepublisher interface {
	RepublishSnapshot() error
}

// SnapshotScheduler periodically republishes the unread snapshot. Mutations
// already republish inline; the schedule covers writes that bypass the
// workflow, such as manual database edits or a crash between commit and
// publish.
type SnapshotScheduler struct {
	republisher SnapshotRepublisher
	schedule    string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NewSnapshotScheduler creates a scheduler with a standard five-field cron
// schedule. An empty schedule disables it.
func NewSnapshotScheduler(republisher SnapshotRepublisher, schedule string) *SnapshotScheduler {
	return &SnapshotScheduler{
		republisher: republisher,
		schedule:    schedule,
		cron:        cron.New(cron.WithParser(cronParser)),
	}
}

// Start begins the scheduler if a schedule is configured.
func (s *SnapshotScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		log.Printf("Snapshot scheduler: disabled")
		return nil
	}

	if _, err := cronParser.Parse(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runRepublish()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule snapshot job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Snapshot scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *SnapshotScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Snapshot scheduler: stopped")
}

// RunNow triggers an immediate republish.
func (s *SnapshotScheduler) RunNow() {
	go s.runRepublish()
}

// IsRunning returns whether the scheduler is active.
func (s *SnapshotScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next republish will occur.
func (s *SnapshotScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *SnapshotScheduler) runRepublish() {
	startTime := time.Now()
	if err := s.republisher.RepublishSnapshot(); err != nil {
		log.Printf("Snapshot republish: failed: %v", err)
		return
	}
	log.Printf("Snapshot republish: completed in %v", time.Since(startTime).Round(time.Millisecond))
}
