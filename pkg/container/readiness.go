package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

var ErrNotReady = errors.New("readiness artifact did not appear")

const (
	DefaultInterval = time.Second
	DefaultAttempts = 30
)

// Waiter polls the filesystem for an artifact the container writes once it
// has finished generating peer profiles.
type Waiter struct {
	Interval time.Duration
	Attempts int
	log      *zap.Logger
	stat     func(string) (os.FileInfo, error)
}

func NewWaiter(log *zap.Logger) *Waiter {
	return &Waiter{Interval: DefaultInterval, Attempts: DefaultAttempts, log: log, stat: os.Stat}
}

// Wait returns nil as soon as path exists. After Attempts checks it returns
// ErrNotReady; a cancelled ctx returns ctx.Err(). Non-positive Interval or
// Attempts fall back to the defaults.
func (w *Waiter) Wait(ctx context.Context, path string) error {
	interval, attempts := w.Interval, w.Attempts
	if interval <= 0 {
		interval = DefaultInterval
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 1; i <= attempts; i++ {
		if _, err := w.stat(path); err == nil {
			w.log.Info("container ready", zap.String("artifact", path), zap.Int("attempt", i))
			return nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return fmt.Errorf("%w after %s: %s", ErrNotReady, time.Duration(attempts)*interval, path)
}
