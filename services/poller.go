package services

import (
	"context"
	"log"
	"time"
)

const defaultPollInterval = 3 * time.Second

// Poller fetches a value on a fixed interval and hands each successful
// result to apply. Fetch errors are logged and retried on the next tick.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    func(ctx context.Context) (T, error)
	apply    func(T)
}

func NewPoller[T any](name string, interval time.Duration, fetch func(ctx context.Context) (T, error), apply func(T)) *Poller[T] {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		apply:    apply,
	}
}

// PollOnce runs a single fetch and apply.
func (p *Poller[T]) PollOnce(ctx context.Context) error {
	v, err := p.fetch(ctx)
	if err != nil {
		return err
	}
	p.apply(v)
	return nil
}

// Run polls until ctx is cancelled. The first poll happens one interval
// after Run is called.
func (p *Poller[T]) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
				log.Printf("%s: poll failed: %v", p.name, err)
			}
		}
	}
}
