package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tablemenu/menu-backend/pkg/logger"
)

// ResetPurgeSpec removes used and expired password reset tokens.
const ResetPurgeSpec = "@hourly"

type TrialSweeper interface {
	ExpireTrials(now time.Time) (int64, error)
	SendTrialReminders(ctx context.Context, now time.Time, withinDays int) (int, error)
}

type ResetPurger interface {
	PurgeExpired(now time.Time) (int64, error)
}

type Config struct {
	TrialSweepSpec    string
	TrialReminderDays int
}

// HousekeepingScheduler runs the trial sweep and the reset token purge.
type HousekeepingScheduler struct {
	cron   *cron.Cron
	trials TrialSweeper
	resets ResetPurger
	cfg    Config
	now    func() time.Time
}

func NewHousekeepingScheduler(trials TrialSweeper, resets ResetPurger, cfg Config) *HousekeepingScheduler {
	return &HousekeepingScheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		trials: trials,
		resets: resets,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Start registers the jobs and starts the cron loop. It fails on an invalid spec.
func (s *HousekeepingScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.TrialSweepSpec, func() {
		s.SweepTrials(context.Background())
	}); err != nil {
		logger.Error("Failed to add cron job for trial sweep", err, map[string]interface{}{
			"spec": s.cfg.TrialSweepSpec,
		})
		return err
	}
	if _, err := s.cron.AddFunc(ResetPurgeSpec, s.PurgeResets); err != nil {
		logger.Error("Failed to add cron job for reset purge", err)
		return err
	}

	s.cron.Start()
	logger.Info("Housekeeping scheduler started", map[string]interface{}{
		"trial_sweep": s.cfg.TrialSweepSpec,
		"reset_purge": ResetPurgeSpec,
	})
	return nil
}

// Stop stops scheduling and waits for a running job until ctx is done.
func (s *HousekeepingScheduler) Stop(ctx context.Context) {
	logger.Info("Stopping housekeeping scheduler...")
	select {
	case <-s.cron.Stop().Done():
		logger.Info("Housekeeping scheduler stopped")
	case <-ctx.Done():
		logger.Warn("Housekeeping scheduler stop timed out")
	}
}

// SweepTrials expires ended trials, then reminds owners whose trial ends soon.
func (s *HousekeepingScheduler) SweepTrials(ctx context.Context) {
	now := s.now()
	logger.Info("Starting scheduled trial sweep")

	expired, err := s.trials.ExpireTrials(now)
	if err != nil {
		logger.Error("Failed to expire trials from scheduler", err)
	}

	reminded := 0
	if s.cfg.TrialReminderDays > 0 {
		reminded, err = s.trials.SendTrialReminders(ctx, now, s.cfg.TrialReminderDays)
		if err != nil {
			logger.Error("Failed to send trial reminders from scheduler", err)
		}
	}

	logger.Info("Trial sweep finished", map[string]interface{}{
		"expired":  expired,
		"reminded": reminded,
	})
}

func (s *HousekeepingScheduler) PurgeResets() {
	purged, err := s.resets.PurgeExpired(s.now())
	if err != nil {
		logger.Error("Failed to purge password resets from scheduler", err)
		return
	}
	if purged > 0 {
		logger.Info("Purged password resets", map[string]interface{}{
			"count": purged,
		})
	}
}
