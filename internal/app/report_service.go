// internal/app/report_service.go
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"deadline_bot/internal/domain/deadline"
	"deadline_bot/internal/domain/progress"
	domainTelegram "deadline_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// ReportService runs one report cycle.
type ReportService interface {
	// RunCycle loads the progress log, projects it against the goal for `today`,
	// renders the chart and delivers the text and the chart to the chat.
	RunCycle(ctx context.Context, today time.Time) error
}

// ChartRenderer writes the progress chart to a file and returns its path.
// The report service removes the file once the cycle ends.
type ChartRenderer interface {
	Render(record progress.Record, goal progress.Goal, today time.Time) (string, error)
}

// ReportServiceImpl implements the ReportService interface.
type ReportServiceImpl struct {
	progressRepo   progress.Repository
	renderer       ChartRenderer
	telegramClient domainTelegram.Client
	goal           progress.Goal
	logger         *logrus.Entry
}

func NewReportServiceImpl(
	pr progress.Repository,
	renderer ChartRenderer,
	tc domainTelegram.Client,
	goal progress.Goal,
	logger *logrus.Entry,
) *ReportServiceImpl {
	return &ReportServiceImpl{
		progressRepo:   pr,
		renderer:       renderer,
		telegramClient: tc,
		goal:           goal,
		logger:         logger,
	}
}

func (s *ReportServiceImpl) RunCycle(ctx context.Context, today time.Time) error {
	today = progress.DateOf(today)
	cycleLogger := s.logger.WithField("today", today.Format("2006-01-02"))

	// 1. Load a fresh copy of the log; another process appends to it between cycles.
	record, err := s.progressRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	// 2. Project
	projection, err := deadline.Project(record, s.goal, today)
	if err != nil {
		return fmt.Errorf("failed to project progress: %w", err)
	}
	cycleLogger.WithFields(logrus.Fields{
		"entries":       len(record.Entries),
		"current_pages": projection.CurrentPages,
	}).Debug("Progress log loaded")

	// 3. Render
	chartPath, err := s.renderer.Render(record, s.goal, today)
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	defer s.removeChart(cycleLogger, chartPath)

	// 4. Deliver text, then the chart
	if err := s.telegramClient.SendText(projection.Message()); err != nil {
		return fmt.Errorf("failed to send progress message: %w", err)
	}
	cycleLogger.WithFields(logrus.Fields{
		"pages_left": projection.PagesLeft,
		"days_left":  projection.DaysLeft,
	}).Info("Progress message sent")

	if err := s.telegramClient.SendImage(chartPath); err != nil {
		return fmt.Errorf("failed to send progress chart: %w", err)
	}
	cycleLogger.Info("Progress chart sent")

	return nil
}

func (s *ReportServiceImpl) removeChart(logger *logrus.Entry, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.WithError(err).WithField("path", path).Warn("Failed to remove chart file")
	}
}
