// Package collector fetches raw news and filings for watchlist tickers
// from the configured sources and fans the fetches out over a bounded
// worker pool, isolating per-source failures.
package collector

import (
	"context"
	"time"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
)

// Collector is one upstream source. Name doubles as the rate-limiter
// service key. FetchSince returns every item for the ticker published at
// or after since; each call re-fetches.
type Collector interface {
	Name() string
	FetchSince(ctx context.Context, ticker string, since time.Time) ([]model.RawItem, error)
}
