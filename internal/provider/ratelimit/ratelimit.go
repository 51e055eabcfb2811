// Package ratelimit spaces out calls to an upstream provider.
package ratelimit

import (
	"context"
	"time"

	"coinboard/internal/provider"

	"golang.org/x/time/rate"
)

// Limited gates every Fetch on L. A caller whose context ends before a
// token is available gets an error and the upstream is not called.
type Limited struct {
	P provider.Provider
	L *rate.Limiter
}

func (l *Limited) Name() string { return l.P.Name() }

func (l *Limited) Fetch(ctx context.Context) ([]provider.Asset, error) {
	if err := l.L.Wait(ctx); err != nil {
		return nil, err
	}
	return l.P.Fetch(ctx)
}

// PerMinute allows n calls a minute with bursts of up to burst.
func PerMinute(p provider.Provider, n, burst int) *Limited {
	if burst <= 0 {
		burst = 1
	}
	return &Limited{P: p, L: rate.NewLimiter(rate.Limit(float64(n)/60), burst)}
}

// MinInterval allows one call per interval.
func MinInterval(p provider.Provider, interval time.Duration) *Limited {
	return &Limited{P: p, L: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wrap applies the limiter the config asks for: a per-minute budget when
// one is set, otherwise a minimum interval, otherwise nothing.
func Wrap(p provider.Provider, maxPerMinute, burst int, minInterval time.Duration) provider.Provider {
	switch {
	case maxPerMinute > 0:
		return PerMinute(p, maxPerMinute, burst)
	case minInterval > 0:
		return MinInterval(p, minInterval)
	default:
		return p
	}
}
