package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// sideEffectTimeout bounds each background side effect so a stuck
// collaborator cannot pin a goroutine forever.
const sideEffectTimeout = 30 * time.Second

// Background runs fire-and-forget side effects (notifications, emails, chat
// sync) on supervised goroutines. Failures and panics land in the logger,
// never in the caller.
type Background struct {
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewBackground returns a Background dispatcher logging to the given logger.
func NewBackground(logger *slog.Logger) *Background {
	return &Background{logger: logger}
}

// Go runs fn on a new goroutine with a detached, bounded context. The task
// name identifies the side effect in logs.
func (b *Background) Go(name string, fn func(ctx context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("background task panicked", "task", name, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			b.logger.Warn("background task failed", "task", name, "err", err)
		}
	}()
}

// Wait blocks until all dispatched tasks have finished. Used on shutdown and
// in tests.
func (b *Background) Wait() {
	b.wg.Wait()
}
