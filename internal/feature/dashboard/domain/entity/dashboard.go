package entity

import "time"

// Status tells whether a dashboard carries real data or the placeholder state.
type Status string

const (
	StatusOK     Status = "ok"
	StatusNoData Status = "no_data"
)

// SummaryMetrics holds the scalar figures shown above the charts.
// Prices are rounded to 2 decimals, AnnualizedVolatility is a percentage.
type SummaryMetrics struct {
	LatestClose          float64
	PreviousClose        float64
	AbsoluteChange       float64
	PercentChange        float64
	AnnualizedVolatility float64
}

// Dashboard is the complete answer for one (ticker, start, end) request.
// When Status is StatusNoData, Metrics is nil and both series are empty.
type Dashboard struct {
	Status  Status
	Ticker  string
	Start   time.Time
	End     time.Time
	Profile CompanyProfile
	Metrics *SummaryMetrics
	Prices  []PricePoint
	Returns []ReturnPoint
}
