// Package poller periodically reloads the durable collection so separate
// sessions converge without push notifications.
package poller

import (
	"context"
	"log/slog"
	"time"

	"renttrack/internal/store"
)

// Poller refreshes the in-memory collection on a fixed interval.
// Staleness up to one interval is expected and acceptable.
type Poller struct {
	store *store.Store
	log   *slog.Logger
	tick  time.Duration
}

// New creates a Poller with the given refresh interval.
func New(s *store.Store, interval time.Duration, log *slog.Logger) *Poller {
	return &Poller{store: s, log: log, tick: interval}
}

// Run starts the refresh loop, blocking until ctx is cancelled. The first
// reload happens immediately.
func (p *Poller) Run(ctx context.Context) {
	p.refresh(ctx)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	if err := p.store.Load(ctx); err != nil {
		p.log.Error("reload collection", "error", err)
		return
	}
	p.log.Debug("reloaded collection from durable state")
}
