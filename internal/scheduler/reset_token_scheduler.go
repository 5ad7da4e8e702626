package scheduler

import (
	"github.com/ikkim/captains-log/pkg/logger"
	"github.com/robfig/cron/v3"
)

// TokenPurger clears password reset tokens that can no longer be used.
type TokenPurger interface {
	PurgeStaleTokens() (int64, error)
}

// ResetTokenScheduler periodically purges expired reset tokens.
type ResetTokenScheduler struct {
	cron     *cron.Cron
	schedule string
	purger   TokenPurger
}

// NewResetTokenScheduler accepts any robfig/cron spec, e.g. "@every 15m".
func NewResetTokenScheduler(purger TokenPurger, schedule string) *ResetTokenScheduler {
	return &ResetTokenScheduler{
		cron:     cron.New(),
		schedule: schedule,
		purger:   purger,
	}
}

func (s *ResetTokenScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.purge); err != nil {
		logger.Error("Failed to add cron job for reset token purge", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Reset token scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

func (s *ResetTokenScheduler) purge() {
	logger.Debug("Starting scheduled reset token purge")

	cleared, err := s.purger.PurgeStaleTokens()
	if err != nil {
		logger.Error("Scheduled reset token purge failed", err)
		return
	}

	logger.Debug("Scheduled reset token purge finished", map[string]interface{}{
		"cleared": cleared,
	})
}

// Stop waits for a running purge to finish.
func (s *ResetTokenScheduler) Stop() {
	logger.Info("Stopping reset token scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Reset token scheduler stopped")
}
