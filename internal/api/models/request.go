package models

import "pv-configurator/internal/config"

// ConfigurationRequest describes one PV configuration. Zero-valued fields fall back
// to the configured defaults.
type ConfigurationRequest struct {
	Latitude        float64  `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude       float64  `json:"longitude" binding:"gte=-180,lte=180"`
	SurfaceAreaM2   float64  `json:"surface_area_m2" binding:"gte=0"`
	Body            string   `json:"body,omitempty"`
	ModuleCatalog   string   `json:"module_catalog,omitempty"` // overrides the body's module catalog
	Module          string   `json:"module,omitempty"`
	InverterCatalog string   `json:"inverter_catalog,omitempty"` // overrides the body's inverter catalog
	Inverter        string   `json:"inverter,omitempty"`
	TiltDeg         *float64 `json:"tilt_deg,omitempty" binding:"omitempty,gte=0,lte=90"`
	AzimuthDeg      *float64 `json:"azimuth_deg,omitempty" binding:"omitempty,gte=0,lt=360"`
}

// Overrides returns the request fields in the shape of the configured defaults.
func (r ConfigurationRequest) Overrides() config.DefaultsConfig {
	return config.DefaultsConfig{
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		SurfaceAreaM2: r.SurfaceAreaM2,
		Body:          r.Body,
		Module:        r.Module,
		Inverter:      r.Inverter,
	}
}

// SimulateRequest is the body of POST /api/v1/simulate.
type SimulateRequest struct {
	ConfigurationRequest
	IncludeHourly bool `json:"include_hourly,omitempty"`
}

// EvaluateRequest is the body of POST /api/v1/evaluate and POST /api/v1/forecast/csv.
// Negative prices are passed through and rejected by the engine.
type EvaluateRequest struct {
	ConfigurationRequest
	PricePerKWh   float64 `json:"price_per_kwh"`
	ForecastYears int     `json:"forecast_years" binding:"gte=0"`
	PlotStep      int     `json:"plot_step" binding:"gte=0"` // 1 returns every hour
}

func (r EvaluateRequest) Overrides() config.DefaultsConfig {
	d := r.ConfigurationRequest.Overrides()
	d.PricePerKWh = r.PricePerKWh
	d.ForecastYears = r.ForecastYears
	d.PlotStep = r.PlotStep
	return d
}

// CompareRequest evaluates several module/inverter variants at one site.
type CompareRequest struct {
	EvaluateRequest
	Variants []VariantRequest `json:"variants" binding:"required,min=1,dive"`
}

// VariantRequest names one module/inverter pair. Empty catalogs follow the base
// request's body.
type VariantRequest struct {
	Label           string `json:"label,omitempty"`
	ModuleCatalog   string `json:"module_catalog,omitempty"`
	Module          string `json:"module" binding:"required"`
	InverterCatalog string `json:"inverter_catalog,omitempty"`
	Inverter        string `json:"inverter" binding:"required"`
}

// WeatherQuery is the query string of GET /api/v1/weather.
type WeatherQuery struct {
	Latitude             float64 `form:"lat" binding:"gte=-90,lte=90"`
	Longitude            float64 `form:"lon" binding:"gte=-180,lte=180"`
	IncludeSolarPosition bool    `form:"solar_position"`
}
