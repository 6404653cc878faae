package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"pocketideas/api/internal/service"
)

// Scheduler runs the background maintenance sweeps in-process: expired
// sessions are removed hourly and trashed items past their retention
// window are purged once a day.
type Scheduler struct {
	cron      *cron.Cron
	sessions  *service.SessionService
	items     *service.ItemService
	retention time.Duration
	log       zerolog.Logger
}

func NewScheduler(sessions *service.SessionService, items *service.ItemService, retention time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		sessions:  sessions,
		items:     items,
		retention: retention,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.sweepSessions); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 30 3 * * *", s.sweepTrash); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for in-flight jobs to finish, up to five seconds.
func (s *Scheduler) Stop() {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) sweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session sweep failed")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("expired sessions removed")
	}
}

func (s *Scheduler) sweepTrash() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	purged, err := s.items.PurgeExpiredTrash(ctx, s.retention)
	if err != nil {
		s.log.Error().Err(err).Msg("trash sweep failed")
		return
	}
	if purged > 0 {
		s.log.Info().Int("purged", purged).Msg("expired trash purged")
	}
}
