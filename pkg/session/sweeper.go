package session

import (
	"context"
	"time"

	"bank-chatbot-be/internal/pkg/logger"
)

// Sweeper periodically evicts expired sessions from a registry. Eviction is
// already done lazily on access; the sweeper only keeps long-idle slots from
// lingering in memory.
type Sweeper struct {
	registry *Registry
	interval time.Duration
	logger   logger.ILogger
}

func NewSweeper(registry *Registry, interval time.Duration, logger logger.ILogger) *Sweeper {
	return &Sweeper{
		registry: registry,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, sweeping on every tick. A short initial
// delay lets the server settle before the first pass.
func (s *Sweeper) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(15 * time.Second):
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.registry.Sweep(); removed > 0 {
				s.logger.Info("SESSION", "Sweep removed expired sessions", map[string]interface{}{
					"removed": removed,
				})
			}
		}
	}
}
