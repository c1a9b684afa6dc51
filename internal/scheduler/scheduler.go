package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one periodic iteration. A returned error is logged by the scheduler
// and never stops the schedule.
type Job func(ctx context.Context) error

// Scheduler drives the periodic analysis and maintenance jobs.
type Scheduler struct {
	cron                *cron.Cron
	ctx                 context.Context
	cancel              context.CancelFunc
	analysisInterval    time.Duration
	maintenanceInterval time.Duration
	analyzeJob          Job
	maintainJob         Job
}

func New(analysisInterval, maintenanceInterval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:                cron.New(cron.WithLocation(time.UTC)),
		ctx:                 ctx,
		cancel:              cancel,
		analysisInterval:    analysisInterval,
		maintenanceInterval: maintenanceInterval,
	}
}

func (s *Scheduler) SetAnalyzeJob(j Job)  { s.analyzeJob = j }
func (s *Scheduler) SetMaintainJob(j Job) { s.maintainJob = j }

// Start registers and starts both jobs.
func (s *Scheduler) Start() error {
	if s.analyzeJob != nil {
		_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.analysisInterval), func() {
			log.Println("🕘 Running periodic style analysis")
			if err := s.analyzeJob(s.ctx); err != nil {
				log.Printf("❌ Periodic style analysis failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	if s.maintainJob != nil {
		_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.maintenanceInterval), func() {
			log.Println("🕘 Running periodic style maintenance")
			if err := s.maintainJob(s.ctx); err != nil {
				log.Printf("❌ Periodic style maintenance failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Printf("📅 Scheduler started - analysis every %s, maintenance every %s",
		s.analysisInterval, s.maintenanceInterval)
	return nil
}

// Stop waits for a running job to finish, then cancels the job context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("📅 Scheduler stopped")
}

// IsRunning reports whether any schedule is registered and active.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
