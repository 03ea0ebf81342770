// Package weather resolves a coordinate into a representative weather year, the
// site altitude and the sun position for every hour of that year.
package weather

import (
	"context"
	"errors"
	"sort"
	"time"

	"pv-configurator/internal/data"
	"pv-configurator/internal/model"
	"pv-configurator/internal/solar"

	"github.com/rs/zerolog/log"
)

const op = "resolve_location"

// DefaultYear is the calendar year TMY hours are dated in.
const DefaultYear = 2010

// TMYSource provides typical meteorological year data for a coordinate.
type TMYSource interface {
	FetchTMY(ctx context.Context, lat, lon float64) (*data.TMY, error)
}

type Resolver struct {
	source  TMYSource
	timeout time.Duration
	year    int
}

type Option func(*Resolver)

// WithTimeout bounds each fetch. Zero leaves only the caller's context deadline.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithYear sets the calendar year the weather is dated in.
func WithYear(year int) Option {
	return func(r *Resolver) { r.year = year }
}

func NewResolver(src TMYSource, opts ...Option) *Resolver {
	r := &Resolver{source: src, timeout: data.DefaultPVGISTimeout, year: DefaultYear}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve validates the coordinate, fetches its TMY and computes solar positions.
// Any failure to obtain usable data is reported as LocationDataUnavailable.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) (*model.ResolvedLocation, error) {
	if err := model.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	tmy, err := r.source.FetchTMY(ctx, lat, lon)
	if err != nil {
		log.Warn().Str("component", "resolver").Float64("lat", lat).Float64("lon", lon).Err(err).Msg("weather fetch failed")
		return nil, model.LocationDataUnavailable(op, err, "no weather data for (%.4f, %.4f)", lat, lon)
	}

	w, err := CoerceYear(tmy, r.year)
	if err != nil {
		return nil, model.LocationDataUnavailable(op, err, "unusable weather data for (%.4f, %.4f)", lat, lon)
	}

	positions := solar.Positions(w, lat, lon)
	log.Info().Str("component", "resolver").Float64("lat", lat).Float64("lon", lon).
		Int("hours", len(w)).Float64("altitude_m", tmy.ElevationM).Dur("duration", time.Since(start)).Msg("resolved location")

	return &model.ResolvedLocation{
		Latitude:  lat,
		Longitude: lon,
		Weather:   w,
		AltitudeM: tmy.ElevationM,
		Positions: positions,
		Source:    tmy.Source,
	}, nil
}

// CoerceYear dates every TMY hour in one calendar year so the series is
// continuous. A TMY holding February 29 is placed in a leap year (year itself or
// the next leap year); one without it in a common year (year itself or the year
// before). The input is not modified.
func CoerceYear(tmy *data.TMY, year int) (model.WeatherSeries, error) {
	if tmy == nil || len(tmy.Hours) == 0 {
		return nil, errors.New("empty weather data")
	}
	target := targetYear(tmy.Hours, year)

	w := make(model.WeatherSeries, 0, len(tmy.Hours))
	for _, h := range tmy.Hours {
		t := h.Time.UTC()
		w = append(w, model.WeatherRecord{
			Time:      time.Date(target, t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC),
			TempAir:   h.TempAir,
			WindSpeed: h.WindSpeed,
			Pressure:  h.Pressure,
			DNI:       h.DNI,
			GHI:       h.GHI,
			DHI:       h.DHI,
		})
	}
	sort.SliceStable(w, func(i, j int) bool { return w[i].Time.Before(w[j].Time) })

	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func targetYear(hours []data.TMYHour, year int) int {
	hasLeapDay := false
	for _, h := range hours {
		t := h.Time.UTC()
		if t.Month() == time.February && t.Day() == 29 {
			hasLeapDay = true
			break
		}
	}
	switch {
	case hasLeapDay:
		for !isLeap(year) {
			year++
		}
	case isLeap(year):
		year--
	}
	return year
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
