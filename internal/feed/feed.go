// Package feed supplies candles to the simulator from external sources.
package feed

import (
	"context"

	"github.com/Morgiver/trading-simulator/internal/types"
)

// Feed streams candles one discrete step at a time. The channel closes
// when the source is exhausted or the context is cancelled.
type Feed interface {
	Subscribe(ctx context.Context) (<-chan types.Candle, error)
	Close() error
	Name() string
}
