// Package forecast projects hourly array yield into multi-year revenue and finds
// the moment the installation has paid for itself.
package forecast

import (
	"math"
	"time"

	"pv-configurator/internal/model"

	"github.com/shopspring/decimal"
)

const op = "project_forecast"

// Project repeats the yield year `years` times, dating repetition i in baseYear+i,
// values each hour at pricePerKWh and accumulates the revenue. Break-even is the
// first hour at which cumulative revenue reaches totalCost after having been below
// it. A horizon that ends before that point is a valid result without break-even.
func Project(yield model.YieldSeries, pricePerKWh decimal.Decimal, years int, totalCost decimal.Decimal, baseYear int) (model.ForecastSeries, model.BreakEvenResult, error) {
	res := model.BreakEvenResult{TotalSystemCost: totalCost}
	switch {
	case years < 1:
		return nil, res, model.InvalidInput(op, "forecast years must be >= 1 (got %d)", years)
	case pricePerKWh.IsNegative():
		return nil, res, model.InvalidInput(op, "price per kWh must be >= 0 (got %s)", pricePerKWh)
	case totalCost.IsNegative():
		return nil, res, model.InvalidInput(op, "total system cost must be >= 0 (got %s)", totalCost)
	case len(yield) == 0:
		return nil, res, model.InvalidInput(op, "yield series is empty")
	case baseYear < 1:
		return nil, res, model.InvalidInput(op, "base year must be set (got %d)", baseYear)
	}

	price := pricePerKWh.InexactFloat64()
	cost := totalCost.InexactFloat64()

	out := make(model.ForecastSeries, 0, len(yield)*years)
	cum := 0.0
	breakIdx := -1
	if cost <= 0 {
		breakIdx = 0
	}

	for i := 0; i < years; i++ {
		for _, p := range yield {
			ts, ok := inYear(p.Time, baseYear+i)
			if !ok {
				continue
			}
			kw := p.ACPowerKW
			if math.IsNaN(kw) || kw < 0 {
				kw = 0
			}
			revenue := kw * price
			prev := cum
			cum += revenue
			if breakIdx < 0 && cum >= cost && prev < cost {
				breakIdx = len(out)
			}
			out = append(out, model.ForecastPoint{Time: ts, Revenue: revenue, CumulativeRevenue: cum})
		}
	}

	if breakIdx >= 0 && breakIdx < len(out) {
		be := out[breakIdx].Time
		yrs := YearsBetween(out[0].Time, be)
		res.BreakEven = &be
		res.YearsToBreakEven = &yrs
	}
	return out, res, nil
}

// YearsBetween counts whole days from start to end as 365-day years, rounded to one
// decimal.
func YearsBetween(start, end time.Time) float64 {
	days := math.Floor(end.Sub(start).Hours() / 24)
	return math.Round(days/365*10) / 10
}

// Downsample keeps every step-th point, starting with the first.
func Downsample(s model.ForecastSeries, step int) model.ForecastSeries {
	if step <= 1 {
		return append(model.ForecastSeries(nil), s...)
	}
	out := make(model.ForecastSeries, 0, len(s)/step+1)
	for i := 0; i < len(s); i += step {
		out = append(out, s[i])
	}
	return out
}

func inYear(t time.Time, year int) (time.Time, bool) {
	t = t.UTC()
	if t.Month() == time.February && t.Day() == 29 && !isLeap(year) {
		return time.Time{}, false
	}
	return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), true
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
