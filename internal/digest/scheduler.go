package digest

import (
	"context"
	"log"
	"time"
)

// Scheduler runs a Job once a day at a fixed UTC time of day.
type Scheduler struct {
	job *Job
	at  time.Duration
	now func() time.Time
}

func NewScheduler(job *Job, at time.Duration) *Scheduler {
	return &Scheduler{job: job, at: at, now: time.Now}
}

// Start runs the scheduler loop in the background until ctx is done.
// The returned channel is closed when the loop exits.
func (s *Scheduler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.run(ctx)
	}()
	return done
}

func (s *Scheduler) run(ctx context.Context) {
	for {
		now := s.now()
		next := NextRun(now, s.at)
		log.Printf("[digest.Scheduler] next run at %s", next.Format(time.RFC3339))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.job.Run(ctx); err != nil {
			log.Printf("[digest.Scheduler] run failed: %v", err)
		}
	}
}

// NextRun returns the first instant strictly after now that falls at offset
// at from midnight UTC.
func NextRun(now time.Time, at time.Duration) time.Time {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	next := midnight.Add(at)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
