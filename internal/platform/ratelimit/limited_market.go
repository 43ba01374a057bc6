package ratelimit

import (
	"context"
	"fmt"
	"time"

	"stock_dashboard/internal/feature/dashboard/domain"
	"stock_dashboard/internal/feature/dashboard/domain/entity"
	"stock_dashboard/internal/feature/dashboard/usecase"
)

// LimitedMarket decorates a MarketRepository so that every upstream call
// first takes a slot from the limiter.
type LimitedMarket struct {
	inner   usecase.MarketRepository
	limiter Limiter
}

var _ usecase.MarketRepository = (*LimitedMarket)(nil)

// NewLimitedMarket wraps inner with limiter.
func NewLimitedMarket(inner usecase.MarketRepository, limiter Limiter) *LimitedMarket {
	return &LimitedMarket{inner: inner, limiter: limiter}
}

func (m *LimitedMarket) GetDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]entity.PricePoint, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.inner.GetDailyCloses(ctx, symbol, start, end)
}

func (m *LimitedMarket) GetLatestQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	if err := m.wait(ctx); err != nil {
		return entity.Quote{}, err
	}
	return m.inner.GetLatestQuote(ctx, symbol)
}

func (m *LimitedMarket) GetProfile(ctx context.Context, symbol string) (entity.CompanyProfile, error) {
	if err := m.wait(ctx); err != nil {
		return entity.CompanyProfile{}, err
	}
	return m.inner.GetProfile(ctx, symbol)
}

func (m *LimitedMarket) wait(ctx context.Context) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", domain.ErrUpstream, err)
	}
	return nil
}
