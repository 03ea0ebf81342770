package analysis

import (
	"sort"

	"pv-configurator/internal/model"

	"github.com/shopspring/decimal"
)

// Candidate is one evaluated module/inverter combination at a fixed site.
type Candidate struct {
	Label           string                `json:"label"`
	ModuleCount     int                   `json:"module_count"`
	AnnualKWh       float64               `json:"annual_kwh"`
	TotalSystemCost decimal.Decimal       `json:"total_system_cost"`
	FinalRevenue    float64               `json:"final_revenue"`
	BreakEven       model.BreakEvenResult `json:"break_even"`
}

type RankedCandidate struct {
	Candidate
	Rank int `json:"rank"`
}

// RankByBreakEven orders candidates that pay back within the horizon by years to
// break-even (more energy first on ties), followed by those that do not, ordered by
// how close their final revenue came to their cost.
func RankByBreakEven(cands []Candidate) []RankedCandidate {
	out := make([]RankedCandidate, 0, len(cands))
	for _, c := range cands {
		out = append(out, RankedCandidate{Candidate: c})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].BreakEven, out[j].BreakEven
		if a.Reached() != b.Reached() {
			return a.Reached()
		}
		if a.Reached() {
			if *a.YearsToBreakEven != *b.YearsToBreakEven {
				return *a.YearsToBreakEven < *b.YearsToBreakEven
			}
			return out[i].AnnualKWh > out[j].AnnualKWh
		}
		return shortfall(out[i].Candidate) < shortfall(out[j].Candidate)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func shortfall(c Candidate) float64 {
	return c.TotalSystemCost.InexactFloat64() - c.FinalRevenue
}
