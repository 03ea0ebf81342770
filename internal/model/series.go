package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// YieldPoint is the AC output for one hour, in kW (equivalently kWh for the hour).
type YieldPoint struct {
	Time      time.Time `json:"time"`
	ACPowerKW float64   `json:"ac_power_kw"`
}

type YieldSeries []YieldPoint

// TotalKWh sums the hourly values.
func (y YieldSeries) TotalKWh() float64 {
	sum := 0.0
	for _, p := range y {
		sum += p.ACPowerKW
	}
	return sum
}

// ForecastPoint is one hour of the multi-year revenue projection.
type ForecastPoint struct {
	Time              time.Time `json:"time"`
	Revenue           float64   `json:"revenue"`
	CumulativeRevenue float64   `json:"cumulative_revenue"`
}

type ForecastSeries []ForecastPoint

// BreakEvenResult is nil-valued in BreakEven/YearsToBreakEven when the forecast
// horizon ends before cumulative revenue reaches the system cost.
type BreakEvenResult struct {
	TotalSystemCost  decimal.Decimal `json:"total_system_cost"`
	BreakEven        *time.Time      `json:"break_even,omitempty"`
	YearsToBreakEven *float64        `json:"years_to_break_even,omitempty"`
}

func (b BreakEvenResult) Reached() bool {
	return b.BreakEven != nil
}

// SystemCost returns inverter price + module price × module count.
func SystemCost(module, inverter ComponentSpec, moduleCount int) decimal.Decimal {
	return inverter.UnitPrice.Add(module.UnitPrice.Mul(decimal.NewFromInt(int64(moduleCount))))
}

// YieldResult is the outcome of simulating one module/inverter pair on a site.
type YieldResult struct {
	ModuleCount     int         `json:"module_count"`
	ModuleEnergyKWh int         `json:"module_energy_kwh"`
	ArrayYield      YieldSeries `json:"array_yield"`
}
