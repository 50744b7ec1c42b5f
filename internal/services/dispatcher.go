package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher runs post-commit side effects (emails, events) off the request
// path. A failing task is logged and never reaches the caller.
type Dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration
	log     zerolog.Logger
}

func NewDispatcher(timeout time.Duration, log zerolog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{timeout: timeout, log: log}
}

// Go detaches fn from ctx's cancellation so a finished request does not abort
// it, and bounds it by the dispatcher timeout instead.
func (d *Dispatcher) Go(ctx context.Context, task string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error().Str("task", task).Str("panic", fmt.Sprint(r)).Msg("side effect panicked")
			}
		}()

		taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := fn(taskCtx); err != nil {
			d.log.Warn().Err(err).Str("task", task).Msg("side effect failed")
		}
	}()
}

// Wait blocks until every dispatched task has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
