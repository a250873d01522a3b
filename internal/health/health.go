// Package health tracks whether the service can do useful work. The only
// hard dependency worth probing is the snapshot directory: if it stops
// being writable, every mutation silently loses durability.
package health

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Checker reports a cached health flag for one component.
type Checker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// DataDirChecker probes the snapshot directory by writing and removing a
// marker file.
type DataDirChecker struct {
	dir     string
	healthy atomic.Bool
	log     zerolog.Logger
}

func NewDataDirChecker(dir string, log zerolog.Logger) *DataDirChecker {
	return &DataDirChecker{dir: dir, log: log.With().Str("checker", "data_dir").Logger()}
}

func (c *DataDirChecker) Name() string { return "data_dir" }

func (c *DataDirChecker) IsHealthy() bool { return c.healthy.Load() }

// Start probes once immediately, then on every tick until ctx ends.
func (c *DataDirChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.probe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.probe()
		}
	}
}

func (c *DataDirChecker) probe() {
	path := filepath.Join(c.dir, ".healthcheck")
	err := os.WriteFile(path, []byte("ok"), 0o600)
	if err == nil {
		err = os.Remove(path)
	}

	was := c.healthy.Swap(err == nil)
	if err != nil && was {
		c.log.Error().Stack().Err(err).Msg("data dir not writable")
	} else if err == nil && !was {
		c.log.Info().Msg("data dir writable")
	}
}

// Service aggregates component checkers into one flag for the health route.
type Service struct {
	healthy atomic.Bool
	deps    []Checker
	log     zerolog.Logger
}

func NewService(log zerolog.Logger, deps ...Checker) *Service {
	return &Service{deps: deps, log: log}
}

// IsHealthy returns cached service health.
func (s *Service) IsHealthy() bool { return s.healthy.Load() }

// Start spawns every component checker and re-evaluates the aggregate on
// the same cadence, logging transitions.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	for _, c := range s.deps {
		go c.Start(ctx, interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := false
	eval := func() {
		all := true
		for _, c := range s.deps {
			if !c.IsHealthy() {
				all = false
			}
		}
		s.healthy.Store(all)
		if all != prev {
			if all {
				s.log.Info().Msg("service health: UP")
			} else {
				s.log.Error().Stack().Msg("service health: DOWN")
			}
			prev = all
		}
	}

	// Give component checkers one interval to run their first probe.
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
