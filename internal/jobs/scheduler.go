package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"authd/internal/repository"
)

// Scheduler runs the periodic refresh-token sweep. Expired rows are already
// rejected lazily at verification time; the sweep only keeps the table from
// growing without bound.
type Scheduler struct {
	cron   *cron.Cron
	tokens *repository.RefreshTokenRepository
	log    zerolog.Logger
}

func NewScheduler(tokens *repository.RefreshTokenRepository, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		tokens: tokens,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@daily", s.sweepExpiredTokens); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.tokens.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("refresh token sweep failed")
		return
	}
	s.log.Info().Int64("removed", removed).Msg("expired refresh tokens swept")
}
