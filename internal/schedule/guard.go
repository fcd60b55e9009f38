package schedule

import (
	"context"
	"sync"

	"github.com/dvloznov/finance-ledger/internal/logger"
)

// Guard prevents overlapping executions of the same job kind. Each job name
// owns one state cell; a firing that finds the cell taken is skipped and
// logged, never queued. The cell is released on every exit path, so one
// failed run cannot block the next scheduled firing.
type Guard struct {
	mu      sync.Mutex
	running map[string]bool
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{running: make(map[string]bool)}
}

// Run executes fn under the named cell. It reports whether fn ran; false
// means a previous firing of the same job is still executing. fn's error is
// logged here, not propagated: a failed scheduled run is silent to end users
// and observable via logs.
func (g *Guard) Run(ctx context.Context, name string, fn func(context.Context) error) bool {
	log := logger.FromContext(ctx).With().Str("job", name).Logger()

	if !g.tryAcquire(name) {
		log.Warn().Msg("Previous run still executing, skipping this firing")
		return false
	}
	defer g.release(name)

	if err := fn(logger.WithContext(ctx, log)); err != nil {
		log.Error().Err(err).Msg("Scheduled run failed")
	}
	return true
}

func (g *Guard) tryAcquire(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running[name] {
		return false
	}
	g.running[name] = true
	return true
}

func (g *Guard) release(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.running[name] = false
}
