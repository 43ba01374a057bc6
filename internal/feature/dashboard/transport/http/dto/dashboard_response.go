// Package dto defines the JSON shapes of the dashboard HTTP API.
package dto

import (
	"stock_dashboard/internal/feature/dashboard/domain/entity"
)

const (
	PriceSeriesLabel  = "Stock Price"
	ReturnSeriesLabel = "% Change"

	dateLayout = "2006-01-02"
)

// SeriesPoint は時系列の1点です。値が未定義の場合 Value は null になります。
type SeriesPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// Series はチャート1枚分の時系列とラベルです。
type Series struct {
	Label  string        `json:"label"`
	Points []SeriesPoint `json:"points"`
}

// DashboardResponse はダッシュボード画面の全スロットを保持するレスポンスDTOです。
// データが無い場合は数値項目が null、系列が空になります。
type DashboardResponse struct {
	Status        string   `json:"status"`
	Ticker        string   `json:"ticker"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	CompanyName   string   `json:"company_name"`
	Website       string   `json:"website"`
	Sector        string   `json:"sector"`
	LatestPrice   *float64 `json:"latest_price"`
	PriceChange   *float64 `json:"price_change"`
	PercentChange *float64 `json:"percent_change"`
	Volatility    *float64 `json:"volatility"`
	Prices        Series   `json:"prices"`
	Returns       Series   `json:"returns"`
	Description   string   `json:"description"`
}

// ErrorResponse はエラー時のレスポンスDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromDashboard はドメインのダッシュボードをレスポンスDTOに変換します。
func FromDashboard(d entity.Dashboard) DashboardResponse {
	resp := DashboardResponse{
		Status:      string(d.Status),
		Ticker:      d.Ticker,
		Start:       d.Start.UTC().Format(dateLayout),
		End:         d.End.UTC().Format(dateLayout),
		CompanyName: d.Profile.Name,
		Website:     d.Profile.Website,
		Sector:      d.Profile.Sector,
		Description: d.Profile.Description,
		Prices:      Series{Label: PriceSeriesLabel, Points: make([]SeriesPoint, 0, len(d.Prices))},
		Returns:     Series{Label: ReturnSeriesLabel, Points: make([]SeriesPoint, 0, len(d.Returns))},
	}

	if m := d.Metrics; m != nil {
		resp.LatestPrice = ptr(m.LatestClose)
		resp.PriceChange = ptr(m.AbsoluteChange)
		resp.PercentChange = ptr(m.PercentChange)
		resp.Volatility = ptr(m.AnnualizedVolatility)
	}

	for _, p := range d.Prices {
		point := SeriesPoint{Date: p.Date.UTC().Format(dateLayout)}
		if !p.Missing {
			point.Value = ptr(p.Close)
		}
		resp.Prices.Points = append(resp.Prices.Points, point)
	}
	for _, r := range d.Returns {
		resp.Returns.Points = append(resp.Returns.Points, SeriesPoint{
			Date:  r.Date.UTC().Format(dateLayout),
			Value: ptr(r.LogReturn),
		})
	}
	return resp
}

func ptr(v float64) *float64 {
	return &v
}
