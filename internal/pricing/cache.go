package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// RateCache holds the last fetched fan-token rate and serves it until the
// TTL elapses. It is constructed by the composition root and injected into
// every consumer that needs a conversion.
//
// The fetch itself runs outside the lock, so two requests arriving at
// expiry may both hit the feed. The duplicate fetch is harmless; both
// store the same pair.
type RateCache struct {
	feed Feed
	ttl  time.Duration

	// Now is swappable so tests can drive the TTL boundary.
	Now func() time.Time

	mu        sync.Mutex
	rate      decimal.Decimal
	fetchedAt time.Time
}

func NewRateCache(feed Feed, ttl time.Duration) *RateCache {
	return &RateCache{
		feed: feed,
		ttl:  ttl,
		Now:  time.Now,
	}
}

// Rate returns the cached rate while it is fresh, otherwise fetches a new
// quote from the feed. A feed failure propagates to the caller; the stale
// value is never served past its TTL.
func (c *RateCache) Rate(ctx context.Context) (decimal.Decimal, error) {
	c.mu.Lock()
	if !c.fetchedAt.IsZero() && c.Now().Sub(c.fetchedAt) < c.ttl {
		rate := c.rate
		c.mu.Unlock()
		return rate, nil
	}
	c.mu.Unlock()

	rate, err := c.feed.Rate(ctx)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to fetch fan token rate: %w", err)
	}

	c.mu.Lock()
	c.rate = rate
	c.fetchedAt = c.Now()
	c.mu.Unlock()

	return rate, nil
}
