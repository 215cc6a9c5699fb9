// Package scheduler runs a collection at startup and then once a day.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/internal/service"
	"github.com/thep200/workflow-popularity/pkg/log"
)

type collectRunner interface {
	CollectAll(ctx context.Context, regions []string) (*service.CollectionResult, error)
}

type Scheduler struct {
	Logger log.Logger
	Config *cfg.Config
	runner collectRunner
	cron   *cron.Cron
	runMu  sync.Mutex
	wg     sync.WaitGroup
}

// New validates the schedule and time zone without starting anything.
func New(logger log.Logger, config *cfg.Config, runner collectRunner) (*Scheduler, error) {
	sched := config.Schedule
	if sched.Hour < 0 || sched.Hour > 23 || sched.Minute < 0 || sched.Minute > 59 {
		return nil, fmt.Errorf("invalid schedule time %02d:%02d", sched.Hour, sched.Minute)
	}
	loc := time.Local
	if sched.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(sched.Timezone); err != nil {
			return nil, fmt.Errorf("invalid schedule timezone %q: %w", sched.Timezone, err)
		}
	}

	return &Scheduler{
		Logger: logger,
		Config: config,
		runner: runner,
		cron:   cron.New(cron.WithLocation(loc), cron.WithLogger(cronLogger{logger})),
	}, nil
}

// Spec is the daily cron expression.
func (s *Scheduler) Spec() string {
	return fmt.Sprintf("%d %d * * *", s.Config.Schedule.Minute, s.Config.Schedule.Hour)
}

// Start kicks off the startup run in the background and arms the daily job.
// Both stop when ctx is done; Stop waits for them.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.Spec(), func() { s.Run(ctx, "scheduled") }); err != nil {
		return fmt.Errorf("failed to schedule collection: %w", err)
	}

	if s.Config.Schedule.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.Run(ctx, "startup")
		}()
	}

	s.cron.Start()
	s.Logger.Info(ctx, "Scheduler started - daily collection at %02d:%02d %s, next run %s",
		s.Config.Schedule.Hour, s.Config.Schedule.Minute, s.cron.Location(), s.Next().Format(time.RFC3339))
	return nil
}

// Next is the time of the next scheduled run, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Run collects once unless a run is already in flight, in which case it is skipped.
// It reports whether it ran.
func (s *Scheduler) Run(ctx context.Context, trigger string) bool {
	if !s.runMu.TryLock() {
		s.Logger.Warn(ctx, "Skipping %s collection: previous run still in progress", trigger)
		return false
	}
	defer s.runMu.Unlock()

	if ctx.Err() != nil {
		return false
	}

	result, err := s.runner.CollectAll(ctx, s.Config.Collector.Regions)
	if err != nil {
		s.Logger.Error(ctx, "%s collection failed: %v", trigger, err)
		return true
	}
	s.Logger.Info(ctx, "%s collection completed (run %s)", trigger, result.RunID)
	return true
}

// Stop halts the schedule and waits for running collections.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// cronLogger routes cron's own messages to the application logger.
type cronLogger struct {
	logger log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(context.Background(), "cron: %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(context.Background(), "cron: %s: %v %v", msg, err, keysAndValues)
}
