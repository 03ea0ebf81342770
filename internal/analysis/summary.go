package analysis

import (
	"math"
	"sort"
	"time"

	"pv-configurator/internal/model"
)

// DailyYield is the energy produced on one UTC calendar day.
type DailyYield struct {
	Date time.Time `json:"date"`
	KWh  float64   `json:"kwh"`
}

// YieldSummary condenses an hourly yield year into the figures shown next to the
// production chart.
type YieldSummary struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`

	TotalKWh        float64 `json:"total_kwh"`
	PeakKW          float64 `json:"peak_kw"`
	ProductiveHours int     `json:"productive_hours"`

	MeanDailyKWh float64 `json:"mean_daily_kwh"`
	P05DailyKWh  float64 `json:"p05_daily_kwh"`
	P95DailyKWh  float64 `json:"p95_daily_kwh"`

	MonthlyKWh [12]float64 `json:"monthly_kwh"`
}

// DailyTotals sums hourly kW (one hour each, so kWh) per UTC day, in time order.
func DailyTotals(y model.YieldSeries) []DailyYield {
	out := []DailyYield{}
	for _, p := range y {
		t := p.Time.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if n := len(out); n > 0 && out[n-1].Date.Equal(day) {
			out[n-1].KWh += p.ACPowerKW
			continue
		}
		out = append(out, DailyYield{Date: day, KWh: p.ACPowerKW})
	}
	return out
}

func Summarize(y model.YieldSeries) YieldSummary {
	s := YieldSummary{}
	if len(y) == 0 {
		return s
	}
	s.Count = len(y)
	s.Start = y[0].Time
	s.End = y[len(y)-1].Time

	for _, p := range y {
		s.TotalKWh += p.ACPowerKW
		s.MonthlyKWh[p.Time.UTC().Month()-1] += p.ACPowerKW
		if p.ACPowerKW > s.PeakKW {
			s.PeakKW = p.ACPowerKW
		}
		if p.ACPowerKW > 0 {
			s.ProductiveHours++
		}
	}

	daily := DailyTotals(y)
	vals := make([]float64, 0, len(daily))
	for _, d := range daily {
		vals = append(vals, d.KWh)
	}
	sort.Float64s(vals)
	s.MeanDailyKWh = s.TotalKWh / float64(len(vals))
	s.P05DailyKWh = percentileSorted(vals, 0.05)
	s.P95DailyKWh = percentileSorted(vals, 0.95)
	return s
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
