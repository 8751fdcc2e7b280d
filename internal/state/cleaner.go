package state

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner evicts idle in-memory sessions on a schedule. Redis-backed
// sessions expire via key TTLs and do not need it.
type Cleaner struct {
	storage  *MemoryStorage
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(storage *MemoryStorage, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		storage:  storage,
		log:      log,
		ttl:      ttl,
		interval: interval,
	}
}

// Run starts the eviction loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.storage == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("session cleaner stopped")
			return
		case <-ticker.C:
			if evicted := c.storage.EvictIdle(c.ttl); evicted > 0 {
				c.log.Info("evicted idle sessions",
					slog.Int("evicted", evicted),
					slog.Int("remaining", c.storage.Len()))
			}
		}
	}
}
