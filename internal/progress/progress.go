// Package progress provides a scoped background liveness announcer for
// long-running external calls.
package progress

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Notice logs "still working" lines at a fixed interval until stopped.
// Stop always joins the background goroutine, so it is safe to release
// resources the moment Stop returns.
type Notice struct {
	logger   *slog.Logger
	msg      string
	t0       time.Time
	stop     chan struct{}
	stopOnce sync.Once
	g        errgroup.Group
}

// Start begins announcing. Callers must Stop, typically via defer.
func Start(logger *slog.Logger, msg string, interval time.Duration) *Notice {
	n := &Notice{
		logger: logger,
		msg:    msg,
		t0:     time.Now(),
		stop:   make(chan struct{}),
	}
	n.g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-n.stop:
				return nil
			case <-ticker.C:
				n.logger.Info(msg, "running_for", time.Since(n.t0).Round(time.Second))
			}
		}
	})
	return n
}

// Stop signals the announcer and waits for it to finish. Idempotent.
func (n *Notice) Stop() {
	n.stopOnce.Do(func() {
		close(n.stop)
		n.g.Wait()
		n.logger.Info(n.msg+" done", "took", time.Since(n.t0).Round(time.Millisecond))
	})
}
