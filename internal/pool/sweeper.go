package pool

import (
	"context"
	"time"
)

// RunSweeper releases expired leases every interval until ctx is done. It
// returns immediately when ttl is not positive.
func (p *Pool) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.log.Info("Lease sweeper started", "interval", interval, "ttl", ttl)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.Sweep(now, ttl)
		}
	}
}

// StartSweeper runs RunSweeper in its own goroutine. The returned channel is
// closed once the sweeper has exited, after which no sweep touches the store.
func (p *Pool) StartSweeper(ctx context.Context, interval, ttl time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.RunSweeper(ctx, interval, ttl)
	}()
	return done
}
