package usecase

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"stock_dashboard/internal/feature/dashboard/domain/entity"
)

// TradingDaysPerYear は年率換算に使う年間取引日数です。
const TradingDaysPerYear = 252

// FillForward は取得した終値を日付の昇順に並べ、[start, end] の範囲外と重複日付を除き、
// 欠損値を直前の終値で埋めます。最初の観測より前の欠損は Missing のまま残ります。
// start または end がゼロ値の場合、その側の範囲チェックは行いません。
func FillForward(raw []entity.PricePoint, start, end time.Time) []entity.PricePoint {
	pts := make([]entity.PricePoint, 0, len(raw))
	for _, p := range raw {
		d := truncateDay(p.Date)
		if !start.IsZero() && d.Before(truncateDay(start)) {
			continue
		}
		if !end.IsZero() && d.After(truncateDay(end)) {
			continue
		}
		p.Date = d
		pts = append(pts, p)
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })

	out := make([]entity.PricePoint, 0, len(pts))
	for _, p := range pts {
		// 同じ日付が続く場合は後から来た値を採用
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			if !p.Missing {
				out[n-1] = p
			}
			continue
		}
		out = append(out, p)
	}

	var last float64
	seen := false
	for i := range out {
		if !out[i].Missing {
			last = out[i].Close
			seen = true
			continue
		}
		if seen {
			out[i].Close = last
			out[i].Missing = false
		}
	}
	return out
}

// HasObservation は系列に値の確定した点が1つでもあるかを返します。
func HasObservation(series []entity.PricePoint) bool {
	for _, p := range series {
		if !p.Missing {
			return true
		}
	}
	return false
}

// LogReturns は t>0 の各点について ln(P[t]/P[t-1]) を計算します。
// 先頭の点、およびどちらかの終値が未確定または正でない点は結果に含めません。
func LogReturns(series []entity.PricePoint) []entity.ReturnPoint {
	if len(series) < 2 {
		return []entity.ReturnPoint{}
	}
	out := make([]entity.ReturnPoint, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		if prev.Missing || cur.Missing || prev.Close <= 0 || cur.Close <= 0 {
			continue
		}
		out = append(out, entity.ReturnPoint{
			Date:      cur.Date,
			LogReturn: math.Log(cur.Close / prev.Close),
		})
	}
	return out
}

// Volatility は選択期間全体の単純変化率の標本標準偏差に √252 を掛け、
// パーセント表記で小数点以下2桁に丸めた年率ボラティリティを返します。
// 変化率が2つ未満の場合は 0 を返します。
func Volatility(series []entity.PricePoint) float64 {
	changes := make([]float64, 0, len(series))
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		if prev.Missing || cur.Missing || prev.Close == 0 {
			continue
		}
		changes = append(changes, cur.Close/prev.Close-1)
	}
	if len(changes) < 2 {
		return 0
	}

	var mean float64
	for _, c := range changes {
		mean += c
	}
	mean /= float64(len(changes))

	var ss float64
	for _, c := range changes {
		ss += (c - mean) * (c - mean)
	}
	std := math.Sqrt(ss / float64(len(changes)-1))
	return round2(std * math.Sqrt(TradingDaysPerYear) * 100)
}

// ComputeChange は現在値と前日終値から変化額と変化率(%)を計算します。
// 前日終値が 0 の場合、変化率は 0 になります。
func ComputeChange(current, previous float64) (absolute, percent float64) {
	absolute = round2(current - previous)
	if previous == 0 {
		return absolute, 0
	}
	return absolute, round2(absolute / previous * 100)
}

// round2 は小数点以下2桁に四捨五入します。
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
