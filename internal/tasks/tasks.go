// Package tasks runs fire-and-forget side effects outside the request path.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Func is a unit of detached work. Its context is independent of the
// request that spawned it.
type Func func(ctx context.Context) error

// Runner spawns detached work.
type Runner interface {
	Go(name string, fn Func)
}

// Detached runs each task on its own goroutine with a timeout. Failures are
// logged and dropped.
type Detached struct {
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewDetached creates a runner whose tasks are cancelled after timeout.
func NewDetached(timeout time.Duration, logger *slog.Logger) *Detached {
	return &Detached{timeout: timeout, logger: logger.With("component", "tasks")}
}

// Go starts fn and returns immediately.
func (d *Detached) Go(name string, fn Func) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("detached task panicked", "task", name, "panic", fmt.Sprint(r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			d.logger.Warn("detached task failed", "task", name, "error", err)
		}
	}()
}

// Wait blocks until running tasks finish or ctx is done.
func (d *Detached) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inline runs tasks synchronously and records their names and errors.
// Used by tests to assert on side effects deterministically.
type Inline struct {
	mu     sync.Mutex
	Names  []string
	Errors []error
}

func (i *Inline) Go(name string, fn Func) {
	err := fn(context.Background())
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Names = append(i.Names, name)
	if err != nil {
		i.Errors = append(i.Errors, err)
	}
}

// Count returns how many tasks named name have run.
func (i *Inline) Count(name string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, got := range i.Names {
		if got == name {
			n++
		}
	}
	return n
}
