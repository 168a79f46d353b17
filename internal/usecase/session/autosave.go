package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"rimloc/internal/logging"
)

const DefaultInterval = 30 * time.Second

// AutoSaver calls a save function on a fixed interval until stopped.
// A failing save is logged and the next tick proceeds as usual.
type AutoSaver struct {
	mu       sync.Mutex
	interval time.Duration
	save     func(context.Context) error
	parent   context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	log      *zap.SugaredLogger
}

func NewAutoSaver(interval time.Duration, log *zap.SugaredLogger) *AutoSaver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &AutoSaver{interval: interval, log: logging.OrNop(log)}
}

// Start begins ticking. It returns false, changing nothing, when the saver
// is already running.
func (a *AutoSaver) Start(ctx context.Context, save func(context.Context) error) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return false
	}
	a.save = save
	a.parent = ctx
	a.startLocked()
	a.log.Infow("auto save started", "interval", a.interval)
	return true
}

func (a *AutoSaver) startLocked() {
	ctx, cancel := context.WithCancel(a.parent)
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.loop(ctx, a.interval, a.save, a.done)
}

func (a *AutoSaver) loop(ctx context.Context, every time.Duration, save func(context.Context) error, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := save(ctx); err != nil {
				a.log.Warnw("auto save failed", "err", err)
			}
		}
	}
}

// Stop halts the ticker and waits for an in-flight save to return.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopLocked() {
		a.log.Infow("auto save stopped")
	}
}

func (a *AutoSaver) stopLocked() bool {
	if a.cancel == nil {
		return false
	}
	a.cancel()
	<-a.done
	a.cancel = nil
	a.done = nil
	return true
}

// SetInterval changes the period, restarting a running saver.
func (a *AutoSaver) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interval = d
	if a.stopLocked() {
		a.startLocked()
	}
}

func (a *AutoSaver) Interval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interval
}

func (a *AutoSaver) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}
