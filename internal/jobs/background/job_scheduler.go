package background

import (
	"context"
	"log"
	"time"

	"agencyops/internal/jobs"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages background jobs
type JobScheduler struct {
	scheduler gocron.Scheduler
	sweep     *jobs.OverdueSweep
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(sweep *jobs.OverdueSweep) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		sweep:     sweep,
	}

	if err := js.registerJobs(); err != nil {
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) registerJobs() error {
	_, err := js.scheduler.NewJob(
		gocron.DurationJob(6*time.Hour),
		gocron.NewTask(js.runOverdueSweep),
		gocron.WithName("invoice-overdue-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (js *JobScheduler) runOverdueSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := js.sweep.Run(ctx); err != nil {
		log.Printf("WARN: overdue sweep failed: %v", err)
	}
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop shuts the scheduler down
func (js *JobScheduler) Stop() {
	if err := js.scheduler.Shutdown(); err != nil {
		log.Printf("WARN: scheduler shutdown failed: %v", err)
	}
}
