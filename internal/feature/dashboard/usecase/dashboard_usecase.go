// Package usecase はダッシュボード表示用の指標と時系列を組み立てるビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"stock_dashboard/internal/feature/dashboard/domain"
	"stock_dashboard/internal/feature/dashboard/domain/entity"
)

const (
	// NoDataMarker はデータが取得できなかった場合に会社名の代わりに表示する文字列です。
	NoDataMarker = "No Data Available"
	// MissingFieldMarker はプロフィール項目が欠けている場合のプレースホルダーです。
	MissingFieldMarker = "-"
	// DefaultWindowMonths は期間未指定時にさかのぼる月数です。
	DefaultWindowMonths = 12
)

// MarketRepository は外部の市場データプロバイダーを抽象化します。
// 空の結果は domain.ErrNoData、通信やAPIのエラーは domain.ErrUpstream でラップして返します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	GetDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]entity.PricePoint, error)
	GetLatestQuote(ctx context.Context, symbol string) (entity.Quote, error)
	GetProfile(ctx context.Context, symbol string) (entity.CompanyProfile, error)
}

// Options はプロセス起動時に一度だけ組み立てられるダッシュボードの設定です。
type Options struct {
	Tickers       []string         // 対応銘柄
	AllowUnlisted bool             // true の場合、対応銘柄以外もプロバイダーに問い合わせる
	WindowMonths  int              // 期間未指定時の既定の月数
	Now           func() time.Time // テスト用に差し替え可能な現在時刻
}

// DashboardUsecase は1リクエスト分のダッシュボードを組み立てます。状態は保持しません。
type DashboardUsecase struct {
	market  MarketRepository
	opts    Options
	tickers map[string]struct{}
}

// NewDashboardUsecase は新しい DashboardUsecase を生成します。
func NewDashboardUsecase(market MarketRepository, opts Options) *DashboardUsecase {
	if opts.WindowMonths <= 0 {
		opts.WindowMonths = DefaultWindowMonths
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	set := make(map[string]struct{}, len(opts.Tickers))
	for _, t := range opts.Tickers {
		set[normalizeTicker(t)] = struct{}{}
	}
	return &DashboardUsecase{market: market, opts: opts, tickers: set}
}

// ResolveRange は未指定の日付を既定の期間で補い、範囲の妥当性を検証します。
// end の既定値は今日、start の既定値は end から WindowMonths か月前です。
func (u *DashboardUsecase) ResolveRange(start, end time.Time) (time.Time, time.Time, error) {
	if end.IsZero() {
		end = u.opts.Now()
	}
	end = truncateDay(end)
	if start.IsZero() {
		start = end.AddDate(0, -u.opts.WindowMonths, 0)
	}
	start = truncateDay(start)
	if end.Before(start) {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}
	return start, end, nil
}

// Build は指定された銘柄と期間のダッシュボードを組み立てます。
//
// 3つの外部呼び出し（日足終値、最新気配、会社プロフィール）は並行に実行されます。
// 日足または最新気配が空の場合はエラーにせず、プレースホルダーのダッシュボードを返します。
// プロバイダーの障害は domain.ErrUpstream としてそのまま返します。
func (u *DashboardUsecase) Build(ctx context.Context, ticker string, start, end time.Time) (entity.Dashboard, error) {
	ticker = normalizeTicker(ticker)
	if !u.supported(ticker) {
		return entity.Dashboard{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedTicker, ticker)
	}
	start, end, err := u.ResolveRange(start, end)
	if err != nil {
		return entity.Dashboard{}, err
	}

	var (
		raw     []entity.PricePoint
		quote   entity.Quote
		profile entity.CompanyProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = u.market.GetDailyCloses(gctx, ticker, start, end)
		if err != nil {
			return fmt.Errorf("fetch close series %s: %w", ticker, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		quote, err = u.market.GetLatestQuote(gctx, ticker)
		if err != nil {
			return fmt.Errorf("fetch latest quote %s: %w", ticker, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		profile, err = u.market.GetProfile(gctx, ticker)
		if errors.Is(err, domain.ErrNoData) {
			// プロフィールが無いだけなら各項目をプレースホルダーにする
			profile = entity.CompanyProfile{}
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch company profile %s: %w", ticker, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, domain.ErrNoData) {
			slog.Warn("no market data, returning placeholder", "ticker", ticker, "error", err)
			return Placeholder(ticker, start, end), nil
		}
		return entity.Dashboard{}, err
	}

	prices := FillForward(raw, start, end)
	if !HasObservation(prices) {
		slog.Warn("no closes inside range, returning placeholder", "ticker", ticker,
			"start", start.Format(time.DateOnly), "end", end.Format(time.DateOnly))
		return Placeholder(ticker, start, end), nil
	}

	current := round2(quote.Price)
	previous := round2(previousClose(quote, prices))
	abs, pct := ComputeChange(current, previous)

	return entity.Dashboard{
		Status:  entity.StatusOK,
		Ticker:  ticker,
		Start:   start,
		End:     end,
		Profile: fillProfile(profile),
		Metrics: &entity.SummaryMetrics{
			LatestClose:          current,
			PreviousClose:        previous,
			AbsoluteChange:       abs,
			PercentChange:        pct,
			AnnualizedVolatility: Volatility(prices),
		},
		Prices:  prices,
		Returns: LogReturns(prices),
	}, nil
}

// Placeholder はデータが無い場合に返すダッシュボードです。
// テキスト項目はマーカー文字列、数値は未設定、時系列は空になります。
func Placeholder(ticker string, start, end time.Time) entity.Dashboard {
	return entity.Dashboard{
		Status: entity.StatusNoData,
		Ticker: ticker,
		Start:  start,
		End:    end,
		Profile: entity.CompanyProfile{
			Name:        NoDataMarker,
			Website:     MissingFieldMarker,
			Sector:      MissingFieldMarker,
			Description: MissingFieldMarker,
		},
		Prices:  []entity.PricePoint{},
		Returns: []entity.ReturnPoint{},
	}
}

// previousClose は前日終値を決定します。
// 優先順位: 気配の前日終値 → 日足の最後から2番目の終値 → 現在値。
func previousClose(q entity.Quote, prices []entity.PricePoint) float64 {
	if q.HasPreviousClose {
		return q.PreviousClose
	}
	if n := len(prices); n >= 2 && !prices[n-2].Missing {
		return prices[n-2].Close
	}
	return q.Price
}

func fillProfile(p entity.CompanyProfile) entity.CompanyProfile {
	return entity.CompanyProfile{
		Name:        orMissing(p.Name),
		Website:     orMissing(p.Website),
		Sector:      orMissing(p.Sector),
		Description: orMissing(p.Description),
	}
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return MissingFieldMarker
	}
	return s
}

func (u *DashboardUsecase) supported(ticker string) bool {
	if ticker == "" {
		return false
	}
	if u.opts.AllowUnlisted {
		return true
	}
	_, ok := u.tickers[ticker]
	return ok
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
