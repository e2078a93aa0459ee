package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"deadline_bot/internal/app" // For ReportService interface

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const DefaultCronSpec = "0 7 * * *" // 07:00 every day

// State is the scheduler's position in its two-state loop.
type State int

const (
	StateSleeping State = iota
	StateRunningCycle
)

func (s State) String() string {
	switch s {
	case StateSleeping:
		return "SLEEPING"
	case StateRunningCycle:
		return "RUNNING_CYCLE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// NextDaySchedule fires at the first activation of its cron spec that falls on a later calendar day.
// With "0 7 * * *" a cycle finishing at 06:00 sleeps until 07:00 tomorrow, not 07:00 today.
type NextDaySchedule struct {
	daily cron.Schedule
}

// ParseNextDaySchedule parses a standard five-field cron spec.
func ParseNextDaySchedule(spec string) (*NextDaySchedule, error) {
	daily, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return &NextDaySchedule{daily: daily}, nil
}

func (s *NextDaySchedule) Next(t time.Time) time.Time {
	tomorrow := time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
	return s.daily.Next(tomorrow.Add(-time.Second))
}

// Option configures a ReportScheduler.
type Option func(*ReportScheduler)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ReportScheduler) { s.now = now }
}

// WithCycleTimeout bounds a single cycle.
func WithCycleTimeout(d time.Duration) Option {
	return func(s *ReportScheduler) { s.cycleTimeout = d }
}

// ReportScheduler runs a report cycle at startup and then once per day.
type ReportScheduler struct {
	cronEngine    *cron.Cron
	reportService app.ReportService // Using the interface
	schedule      cron.Schedule
	logger        *logrus.Entry
	now           func() time.Time
	cycleTimeout  time.Duration

	mu    sync.Mutex
	state State
}

func NewReportScheduler(
	reportService app.ReportService,
	schedule cron.Schedule,
	logger *logrus.Entry,
	opts ...Option,
) *ReportScheduler {
	s := &ReportScheduler{
		reportService: reportService,
		schedule:      schedule,
		logger:        logger,
		now:           time.Now,
		cycleTimeout:  5 * time.Minute,
		state:         StateSleeping,
	}
	for _, opt := range opts {
		opt(s)
	}

	cronLogger := cron.PrintfLogger(logger.WithField("subsystem", "cron"))
	s.cronEngine = cron.New(
		cron.WithLocation(time.Local), // Use server's local time for the 07:00 run
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
	)
	return s
}

// Start runs the first cycle right away, then schedules the daily job.
func (s *ReportScheduler) Start() {
	s.logger.Info("Starting report scheduler...")

	s.RunCycle()

	entryID := s.cronEngine.Schedule(s.schedule, cron.FuncJob(func() {
		s.logger.Info("Cron job triggered for daily progress report.")
		s.RunCycle()
	}))

	s.cronEngine.Start()
	s.logger.WithField("next_run", s.cronEngine.Entry(entryID).Next).Info("Report scheduler started.")
}

// RunCycle executes one report cycle. Errors are logged; the next cycle runs regardless.
func (s *ReportScheduler) RunCycle() {
	s.setState(StateRunningCycle)
	defer s.setState(StateSleeping)

	ctx, cancel := context.WithTimeout(context.Background(), s.cycleTimeout)
	defer cancel()

	today := s.now()
	cycleLogger := s.logger.WithField("cycle_date", today.Format("2006-01-02"))
	if err := s.reportService.RunCycle(ctx, today); err != nil {
		cycleLogger.WithError(err).Error("Progress report cycle failed")
		return
	}
	cycleLogger.Info("Progress report cycle completed")
}

// State reports whether a cycle is running right now.
func (s *ReportScheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ReportScheduler) setState(state State) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.mu.Unlock()
	s.logger.WithFields(logrus.Fields{"from": prev, "to": state}).Debug("Scheduler state changed")
}

func (s *ReportScheduler) Stop() {
	s.logger.Info("Stopping report scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Report scheduler gracefully stopped.")
}
