package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttled wraps an Adapter with a token-bucket send rate.
type Throttled struct {
	Adapter
	limiter *rate.Limiter
}

// Throttle limits a to perSecond sends with the given burst. A non-positive
// rate leaves the adapter unthrottled.
func Throttle(a Adapter, perSecond float64, burst int) Adapter {
	if perSecond <= 0 {
		return a
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttled{Adapter: a, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *Throttled) Send(ctx context.Context, msg Message) (SendResult, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return SendResult{}, fmt.Errorf("%s throttle: %w", t.Channel(), err)
	}
	return t.Adapter.Send(ctx, msg)
}
