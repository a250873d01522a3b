// Package sweep prunes practice posts whose date has passed. It is not an
// actor itself; it drives the posts registry through the same operations a
// transport caller would use.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/peerpractice/server/internal/posts"
)

// retention is how long a post outlives its scheduled date.
const retention = 48 * time.Hour

// Sweeper periodically removes expired posts.
type Sweeper struct {
	posts    *posts.Registry
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// Option configures the sweeper.
type Option func(*Sweeper)

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// New builds a sweeper over the posts registry.
func New(registry *posts.Registry, interval time.Duration, log zerolog.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		posts:    registry,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("component", "sweep").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps once immediately, then on every interval tick until ctx is
// canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("expiry sweep starting")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			s.log.Info().Msg("expiry sweep stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce lists all posts and removes those past retention.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := s.now()
	removed := 0
	for _, entry := range s.posts.List(ctx) {
		if now.After(entry.Post.Date.Add(retention)) {
			s.posts.Remove(ctx, entry.ID)
			removed++
		}
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("expired posts removed")
	}
}
