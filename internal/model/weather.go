package model

import (
	"fmt"
	"time"
)

// SiteLocation is the user-selected installation site.
// Units:
// - Latitude/Longitude: degrees
// - AltitudeM: meters above sea level (filled in by the resolver)
// - SurfaceAreaM2: usable roof area in m²
type SiteLocation struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	AltitudeM     float64 `json:"altitude_m"`
	SurfaceAreaM2 float64 `json:"surface_area_m2"`
}

func (s SiteLocation) Validate() error {
	if err := ValidateCoordinates(s.Latitude, s.Longitude); err != nil {
		return err
	}
	if !(s.SurfaceAreaM2 > 0) {
		return InvalidInput("site", "surface area must be > 0 (got %g)", s.SurfaceAreaM2)
	}
	return nil
}

// ValidateCoordinates rejects NaN and out-of-range coordinates.
func ValidateCoordinates(lat, lon float64) error {
	if !(lat >= -90 && lat <= 90) {
		return InvalidInput("site", "latitude must be in [-90, 90] (got %g)", lat)
	}
	if !(lon >= -180 && lon <= 180) {
		return InvalidInput("site", "longitude must be in [-180, 180] (got %g)", lon)
	}
	return nil
}

// WeatherRecord is one hour of TMY data.
// Units: TempAir °C, WindSpeed m/s, Pressure Pa, irradiance W/m².
type WeatherRecord struct {
	Time      time.Time `json:"time"`
	TempAir   float64   `json:"temp_air"`
	WindSpeed float64   `json:"wind_speed"`
	Pressure  float64   `json:"pressure"`
	DNI       float64   `json:"dni"`
	GHI       float64   `json:"ghi"`
	DHI       float64   `json:"dhi"`
}

// WeatherSeries holds exactly one representative year of hourly records.
type WeatherSeries []WeatherRecord

const (
	HoursPerYear     = 8760
	HoursPerLeapYear = 8784
)

// Validate checks the series shape: 8760 or 8784 records, UTC, strictly increasing,
// exactly one hour apart.
func (w WeatherSeries) Validate() error {
	if len(w) != HoursPerYear && len(w) != HoursPerLeapYear {
		return fmt.Errorf("weather series has %d records, want %d or %d", len(w), HoursPerYear, HoursPerLeapYear)
	}
	for i := 1; i < len(w); i++ {
		if d := w[i].Time.Sub(w[i-1].Time); d != time.Hour {
			return fmt.Errorf("weather series not hourly at index %d (%s -> %s)",
				i, w[i-1].Time.Format(time.RFC3339), w[i].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// SolarPosition is aligned index-for-index with a WeatherSeries. Angles in degrees,
// azimuth measured clockwise from north.
type SolarPosition struct {
	ApparentZenith float64 `json:"apparent_zenith"`
	Azimuth        float64 `json:"azimuth"`
}

// ResolvedLocation is a coordinate together with its weather year, altitude and
// per-hour sun position.
type ResolvedLocation struct {
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	AltitudeM float64         `json:"altitude_m"`
	Source    string          `json:"source"`
	Weather   WeatherSeries   `json:"weather"`
	Positions []SolarPosition `json:"solar_position"`
}

// Orientation overrides the default array geometry. Nil fields keep the defaults:
// tilt equal to the site latitude, azimuth 180 (south).
type Orientation struct {
	TiltDeg    *float64 `json:"tilt_deg,omitempty"`
	AzimuthDeg *float64 `json:"azimuth_deg,omitempty"`
}
