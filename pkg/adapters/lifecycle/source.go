// Package lifecycle bridges post events into the aretw0/lifecycle event
// model, so applications can feed a Watch stream to a lifecycle runtime.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/vellumkit/vellum/pkg/core"
)

type postSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource wraps a post event channel as a lifecycle.Source.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &postSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *postSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *postSource) Start(ctx context.Context) error {
	// The bridge goroutine runs under lifecycle.Go so the runtime tracks it.
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
