package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stock_dashboard/internal/feature/dashboard/domain"
	"stock_dashboard/internal/feature/dashboard/domain/entity"
	"stock_dashboard/internal/feature/dashboard/usecase"
	"stock_dashboard/internal/platform/externalapi/twelvedata/dto"
)

const (
	dailyInterval = "1day"
	// maxOutputSize is the largest page the time_series endpoint returns.
	maxOutputSize = 5000
)

// TwelveDataMarket はTwelve Data外部APIから株価データと会社情報を取得するMarketRepository実装です。
type TwelveDataMarket struct {
	cfg    Config
	client *http.Client
}

// TwelveDataMarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*TwelveDataMarket)(nil)

// NewTwelveDataMarket は指定された設定とHTTPクライアントでTwelveDataMarketの新しいインスタンスを生成します。
func NewTwelveDataMarket(cfg Config, client *http.Client) *TwelveDataMarket {
	return &TwelveDataMarket{cfg: cfg.withDefaults(), client: client}
}

// GetDailyCloses はTwelve Data APIから [start, end] の日足終値を昇順で取得します。
// 終値が空の行は欠損 (Missing) として返します。
func (t *TwelveDataMarket) GetDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]entity.PricePoint, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", dailyInterval)
	q.Set("start_date", start.Format(time.DateOnly))
	// end_date は排他的に扱われるため翌日を指定する
	q.Set("end_date", end.AddDate(0, 0, 1).Format(time.DateOnly))
	q.Set("order", "ASC")
	q.Set("outputsize", strconv.Itoa(maxOutputSize))

	var body dto.TimeSeriesResponse
	if err := t.get(ctx, "time_series", q, &body); err != nil {
		return nil, err
	}
	if err := checkStatus(body.APIStatus); err != nil {
		return nil, err
	}
	if len(body.Values) == 0 {
		return nil, fmt.Errorf("twelvedata time_series %s: %w", symbol, domain.ErrNoData)
	}

	points := make([]entity.PricePoint, 0, len(body.Values))
	for _, v := range body.Values {
		// タイムスタンプをパース
		tm, err := parseDatetime(v.Datetime)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(v.Close) == "" {
			points = append(points, entity.PricePoint{Date: tm, Missing: true})
			continue
		}
		// 終値をパース
		c, err := strconv.ParseFloat(v.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parse close %q: %w", domain.ErrUpstream, v.Close, err)
		}
		points = append(points, entity.PricePoint{Date: tm, Close: c})
	}
	return points, nil
}

// GetLatestQuote は最新の1日足の気配を取得します。
// 終値が報告されていない場合は domain.ErrNoData を返します。
func (t *TwelveDataMarket) GetLatestQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", dailyInterval)

	var body dto.QuoteResponse
	if err := t.get(ctx, "quote", q, &body); err != nil {
		return entity.Quote{}, err
	}
	if err := checkStatus(body.APIStatus); err != nil {
		return entity.Quote{}, err
	}
	if strings.TrimSpace(body.Close) == "" {
		return entity.Quote{}, fmt.Errorf("twelvedata quote %s: %w", symbol, domain.ErrNoData)
	}

	price, err := strconv.ParseFloat(body.Close, 64)
	if err != nil {
		return entity.Quote{}, fmt.Errorf("%w: parse close %q: %w", domain.ErrUpstream, body.Close, err)
	}
	quote := entity.Quote{Price: price}
	if body.Datetime != "" {
		if tm, err := parseDatetime(body.Datetime); err == nil {
			quote.Date = tm
		}
	}
	// 前日終値が無い、または数値でない場合は呼び出し側のフォールバックに任せる
	if pc, err := strconv.ParseFloat(strings.TrimSpace(body.PreviousClose), 64); err == nil {
		quote.PreviousClose = pc
		quote.HasPreviousClose = true
	}
	return quote, nil
}

// GetProfile は会社プロフィールを取得します。欠けている項目は空文字のまま返します。
func (t *TwelveDataMarket) GetProfile(ctx context.Context, symbol string) (entity.CompanyProfile, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var body dto.ProfileResponse
	if err := t.get(ctx, "profile", q, &body); err != nil {
		return entity.CompanyProfile{}, err
	}
	if err := checkStatus(body.APIStatus); err != nil {
		return entity.CompanyProfile{}, err
	}
	return entity.CompanyProfile{
		Name:        body.Name,
		Website:     body.Website,
		Sector:      body.Sector,
		Description: body.Description,
	}, nil
}

// get は指定エンドポイントにGETリクエストを送り、JSONレスポンスを out にデコードします。
func (t *TwelveDataMarket) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	q.Set("apikey", t.cfg.APIKey)

	// URLを生成
	u := fmt.Sprintf("%s/%s?%s", strings.TrimRight(t.cfg.BaseURL, "/"), endpoint, q.Encode())

	// リクエストオブジェクトを作成
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("twelvedata %s: %w", endpoint, err)
	}

	// リクエストを実行
	res, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: twelvedata %s: %w", domain.ErrUpstream, endpoint, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("twelvedata http %d: %w", res.StatusCode, domain.ErrNoData)
	}
	if res.StatusCode >= 400 {
		return fmt.Errorf("%w: twelvedata http %d", domain.ErrUpstream, res.StatusCode)
	}

	// JSONレスポンスをDTOにデコード
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", domain.ErrUpstream, endpoint, err)
	}
	return nil
}

// checkStatus はレスポンス本文のエラー表現を判定します。
// 404 や "No data" を含むメッセージはデータ無し、それ以外はプロバイダー障害として扱います。
func checkStatus(s dto.APIStatus) error {
	if s.Status != "error" {
		return nil
	}
	if s.Code == http.StatusNotFound || strings.Contains(strings.ToLower(s.Message), "no data") {
		return fmt.Errorf("twelvedata: %s: %w", s.Message, domain.ErrNoData)
	}
	return fmt.Errorf("%w: twelvedata: %s", domain.ErrUpstream, s.Message)
}

func parseDatetime(s string) (time.Time, error) {
	tm, err := time.Parse(time.DateTime, s)
	if err != nil {
		tm, err = time.Parse(time.DateOnly, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: parse time %q: %w", domain.ErrUpstream, s, err)
		}
	}
	return tm, nil
}
