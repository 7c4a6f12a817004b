// Package monitor streams raw text signals from the platforms the
// engine watches. A source knows nothing about mints; it only delivers
// text with enough provenance for the extractor to act on.
package monitor

import (
	"context"
	"time"

	"solana-sniper/internal/domain"
)

// TextEvent is one text signal observed on a platform.
type TextEvent struct {
	Platform domain.Platform
	Source   string // channel name / URL / feed identifier
	Text     string
	SeenAt   time.Time
}

// Source streams text events until the context is cancelled. Run
// returns ctx.Err() on cancellation and a source error when the feed
// cannot be recovered.
type Source interface {
	Name() string
	Run(ctx context.Context, out chan<- TextEvent) error
}
