package cache

import (
	"context"
	"time"

	"github.com/shoaibghazii/Ghazi-Medi/internal/domain"
)

// SummaryCache holds computed daily summaries so the report endpoints do not
// rescan the ledgers on every request. Entries are invalidated whenever a
// sale, recovery or expense lands on the cached day.
type SummaryCache interface {
	Get(ctx context.Context, key string) (*domain.DailySummary, bool, error)
	Set(ctx context.Context, key string, value *domain.DailySummary, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(_ context.Context, _ string) (*domain.DailySummary, bool, error) {
	return nil, false, nil
}

func (NoopSummaryCache) Set(_ context.Context, _ string, _ *domain.DailySummary, _ time.Duration) error {
	return nil
}

func (NoopSummaryCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
