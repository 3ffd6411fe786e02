package slack

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer controls the wait between staged sends. The delay is a UX
// behavior (progress should appear to unfold over time), so it is
// injected rather than hardcoded; tests substitute NopPacer.
type Pacer interface {
	Wait(ctx context.Context) error
}

// RandomPacer waits a uniform random duration in [Min, Max).
type RandomPacer struct {
	Min time.Duration
	Max time.Duration
}

// NewRandomPacer creates the production pacer. Zero or inverted bounds
// fall back to the standard 1.5s–4.5s window.
func NewRandomPacer(min, max time.Duration) *RandomPacer {
	if min <= 0 || max <= min {
		min = 1500 * time.Millisecond
		max = 4500 * time.Millisecond
	}
	return &RandomPacer{Min: min, Max: max}
}

// Wait blocks for the sampled duration or until the context ends.
func (p *RandomPacer) Wait(ctx context.Context) error {
	d := p.Min + rand.N(p.Max-p.Min)

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NopPacer never waits.
type NopPacer struct{}

func (NopPacer) Wait(context.Context) error { return nil }
