// Package scheduler runs the daily maintenance jobs: the achievement sweep and activity retention.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"github.com/aimd54/kibo-gamification/internal/config"
	prommetrics "github.com/aimd54/kibo-gamification/internal/metrics"
	"github.com/aimd54/kibo-gamification/internal/models"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

const (
	jobAchievementSweep = "achievement_sweep"
	jobRetention        = "activity_retention"
)

// Maintainer is the gateway surface the jobs drive.
type Maintainer interface {
	EvaluateAll(ctx context.Context) (int, error)
	PurgeActivities(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service handles maintenance job scheduling.
type Service struct {
	config     *config.SchedulerConfig
	maintainer Maintainer
	clock      clockwork.Clock
	log        *logger.Logger
	cron       *cron.Cron
	location   *time.Location
}

// NewService creates a new scheduler service.
func NewService(cfg *config.SchedulerConfig, maintainer Maintainer, clock clockwork.Clock, log *logger.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		config:     cfg,
		maintainer: maintainer,
		clock:      clock,
		log:        log.Component("scheduler"),
		location:   time.UTC,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := time.LoadLocation(s.config.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Timezone, err)
	}
	s.location = location

	s.cron = cron.New(cron.WithLocation(location))

	if s.config.AchievementSweep != "" {
		_, err = s.cron.AddFunc(s.config.AchievementSweep, func() {
			s.runAchievementSweep(context.Background())
		})
		if err != nil {
			return fmt.Errorf("failed to register achievement sweep job: %w", err)
		}
		s.log.Info().
			Str("schedule", s.config.AchievementSweep).
			Msg("Achievement sweep job registered")
	}

	if s.config.RetentionTime != "" && s.config.ActivityRetentionDays > 0 {
		cronExpr, err := buildCronExpression(s.config.RetentionTime)
		if err != nil {
			return fmt.Errorf("failed to build cron expression: %w", err)
		}
		_, err = s.cron.AddFunc(cronExpr, func() {
			s.runRetention(context.Background())
		})
		if err != nil {
			return fmt.Errorf("failed to register retention job: %w", err)
		}
		s.log.Info().
			Str("schedule", cronExpr).
			Int("retention_days", s.config.ActivityRetentionDays).
			Msg("Retention job registered")
	}

	s.cron.Start()

	nextRun := ""
	if entries := s.cron.Entries(); len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("timezone", s.config.Timezone).
		Int("jobs", len(s.cron.Entries())).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// buildCronExpression turns "HH:MM" into a daily cron expression.
func buildCronExpression(at string) (string, error) {
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time format %q, expected HH:MM", at)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour %q", parts[0])
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute %q", parts[1])
	}

	// Format: "minute hour day month weekday"
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// retentionCutoff is the first calendar day that is kept.
func (s *Service) retentionCutoff() time.Time {
	today := models.DayOf(s.clock.Now(), s.location)
	return today.AddDate(0, 0, -s.config.ActivityRetentionDays)
}

func (s *Service) track(job string) func(error) {
	start := s.clock.Now()
	return func(err error) {
		prommetrics.ObserveSchedulerJobDuration(job, s.clock.Since(start).Seconds())
		prommetrics.SetSchedulerLastRun(job)
		if err != nil {
			prommetrics.RecordSchedulerJobRun(job, "error")
			return
		}
		prommetrics.RecordSchedulerJobRun(job, "success")
	}
}

// runAchievementSweep unlocks achievements whose criteria were met outside a session.
func (s *Service) runAchievementSweep(ctx context.Context) {
	done := s.track(jobAchievementSweep)
	start := s.clock.Now()

	s.log.Info().Msg("Running achievement sweep")

	unlocked, err := s.maintainer.EvaluateAll(ctx)
	done(err)
	if err != nil {
		s.log.Error().
			Err(err).
			Dur("duration", s.clock.Since(start)).
			Msg("Achievement sweep failed")
		return
	}

	s.log.Info().
		Int("unlocked", unlocked).
		Dur("duration", s.clock.Since(start)).
		Msg("Achievement sweep completed successfully")
}

// runRetention purges daily activity rows older than the retention window.
func (s *Service) runRetention(ctx context.Context) {
	done := s.track(jobRetention)
	cutoff := s.retentionCutoff()

	s.log.Info().Str("cutoff", cutoff.Format(models.DateLayout)).Msg("Running activity retention")

	purged, err := s.maintainer.PurgeActivities(ctx, cutoff)
	done(err)
	if err != nil {
		s.log.Error().Err(err).Msg("Activity retention failed")
		return
	}

	s.log.Info().Int64("purged", purged).Msg("Activity retention completed successfully")
}
