package crawler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler wraps gocron for recurring background jobs
type Scheduler struct {
	scheduler *gocron.Scheduler
	cancel    context.CancelFunc
	ctx       context.Context
}

// NewScheduler creates a new scheduler
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &Scheduler{
		scheduler: s,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	if s.cancel != nil {
		s.cancel()
	}
}

// ScheduleJob schedules a job on a cron expression
func (s *Scheduler) ScheduleJob(
	tag string,
	cronExpr string,
	job func() error,
) error {
	_, err := s.scheduler.Cron(cronExpr).Tag(tag).Do(job)
	return err
}

// ScheduleInterval schedules a job to run at regular intervals
func (s *Scheduler) ScheduleInterval(
	tag string,
	duration time.Duration,
	job func() error,
) error {
	_, err := s.scheduler.Every(duration).Tag(tag).Do(job)
	return err
}

// RemoveJob removes a scheduled job by tag
func (s *Scheduler) RemoveJob(tag string) error {
	return s.scheduler.RemoveByTag(tag)
}

// GetJobs returns all scheduled jobs
func (s *Scheduler) GetJobs() []*gocron.Job {
	return s.scheduler.Jobs()
}
