// Package entity defines the domain models for the dashboard feature.
package entity

import "time"

// PricePoint is one daily closing price.
// Missing is true when no close is known for Date. After forward-filling only
// the points before the first observation can still be missing.
type PricePoint struct {
	Date    time.Time
	Close   float64
	Missing bool
}

// ReturnPoint is the daily log-return ln(P[t]/P[t-1]) dated at t.
type ReturnPoint struct {
	Date      time.Time
	LogReturn float64
}

// Quote is the most recent 1-day bar reported by the market-data provider.
type Quote struct {
	Date             time.Time
	Price            float64
	PreviousClose    float64
	HasPreviousClose bool // false when the provider did not report a previous close
}
