package models

import (
	"time"

	"pv-configurator/internal/analysis"
	"pv-configurator/internal/configurator"
	"pv-configurator/internal/model"

	"github.com/shopspring/decimal"
)

// CatalogInfo represents one component catalog.
type CatalogInfo struct {
	ID      string              `json:"id"`
	Kind    model.ComponentKind `json:"kind"`
	Library string              `json:"library"`
	Count   int                 `json:"count"`
}

// ComponentInfo is one entry of a catalog listing.
type ComponentInfo struct {
	DisplayName string          `json:"display_name"`
	LibraryName string          `json:"library_name"`
	Price       decimal.Decimal `json:"price"`
}

// ComponentResponse is a resolved component with its key electrical ratings.
type ComponentResponse struct {
	model.ComponentSpec
	PmpW     float64 `json:"pmp_w,omitempty"`
	PacoW    float64 `json:"paco_w,omitempty"`
	VdcoV    float64 `json:"vdco_v,omitempty"`
	Material string  `json:"material,omitempty"`
}

// WeatherResponse is the resolved weather year of a location.
type WeatherResponse struct {
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	AltitudeM float64       `json:"altitude_m"`
	Source    string        `json:"source"`
	Count     int           `json:"count"`
	Hours     []WeatherHour `json:"hours"`
}

// WeatherHour is one hour of weather, optionally with the sun position.
type WeatherHour struct {
	Time           time.Time `json:"time"`
	TempAir        float64   `json:"temp_air"`
	WindSpeed      float64   `json:"wind_speed"`
	Pressure       float64   `json:"pressure"`
	DNI            float64   `json:"dni"`
	GHI            float64   `json:"ghi"`
	DHI            float64   `json:"dhi"`
	ApparentZenith *float64  `json:"apparent_zenith,omitempty"`
	Azimuth        *float64  `json:"azimuth,omitempty"`
}

// SimulateResponse represents the outcome of a yield simulation.
type SimulateResponse struct {
	Site            model.SiteLocation    `json:"site"`
	Module          model.ComponentSpec   `json:"module"`
	Inverter        model.ComponentSpec   `json:"inverter"`
	ModuleCount     int                   `json:"module_count"`
	ModuleEnergyKWh int                   `json:"module_energy_kwh"`
	Summary         analysis.YieldSummary `json:"summary"`
	Daily           []analysis.DailyYield `json:"daily"`
	Hourly          model.YieldSeries     `json:"hourly,omitempty"`
}

// EvaluateResponse represents a complete configuration evaluation. The forecast is
// downsampled to PlotStep.
type EvaluateResponse struct {
	ID              string                     `json:"id"`
	Site            model.SiteLocation         `json:"site"`
	Module          model.ComponentSpec        `json:"module"`
	Inverter        model.ComponentSpec        `json:"inverter"`
	ModuleCount     int                        `json:"module_count"`
	ModuleEnergyKWh int                        `json:"module_energy_kwh"`
	Cost            configurator.CostBreakdown `json:"cost"`
	Summary         analysis.YieldSummary      `json:"summary"`
	Daily           []analysis.DailyYield      `json:"daily"`
	BreakEven       model.BreakEvenResult      `json:"break_even"`
	PricePerKWh     decimal.Decimal            `json:"price_per_kwh"`
	ForecastYears   int                        `json:"forecast_years"`
	PlotStep        int                        `json:"plot_step"`
	ForecastPoints  int                        `json:"forecast_points"`
	Forecast        model.ForecastSeries       `json:"forecast"`
}

// CompareResponse represents the ranked comparison of several variants.
type CompareResponse struct {
	Site     model.SiteLocation         `json:"site"`
	Rankings []analysis.RankedCandidate `json:"rankings"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Retryable bool                   `json:"retryable,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
