// Package yield turns a weather year and a component pair into hourly AC output.
package yield

import (
	"math"
	"time"

	"pv-configurator/internal/model"
	"pv-configurator/internal/pvmodel"
	"pv-configurator/internal/solar"
)

const op = "simulate_yield"

// Options fixes the array geometry and the calendar year the output is dated in.
type Options struct {
	SurfaceTilt    float64 // deg from horizontal
	SurfaceAzimuth float64 // deg clockwise from north
	Albedo         float64
	Temperature    pvmodel.TemperatureModel
	BaseYear       int
}

// DefaultOptions tilts the array at the site latitude, facing south, on an open
// rack. For southern sites the negative tilt turns the array to face north.
func DefaultOptions(site model.SiteLocation, baseYear int) Options {
	return Options{
		SurfaceTilt:    site.Latitude,
		SurfaceAzimuth: 180,
		Albedo:         pvmodel.DefaultAlbedo,
		Temperature:    pvmodel.OpenRackGlassGlass,
		BaseYear:       baseYear,
	}
}

// HourRow records every intermediate value of one simulated hour.
type HourRow struct {
	Index int
	Time  time.Time

	ApparentZenith  float64
	Azimuth         float64
	AOI             float64
	AirmassAbsolute float64

	POAGlobal           float64
	POADirect           float64
	POADiffuse          float64
	EffectiveIrradiance float64
	TempCell            float64

	DCVoltage     float64 // V, one module
	DCPowerModule float64 // W
	ACModuleW     float64 // W, one module behind the inverter
	ACArrayW      float64 // W, every module behind the inverter
}

// Result is the outcome of one simulation plus its hourly ledger.
// ModuleEnergyKWh is the annual energy of a single module, truncated to whole kWh.
// Hours has one row per weather record. ArrayYield has one point per weather
// record too, except that February 29 is left out when BaseYear is a common year.
type Result struct {
	model.YieldResult
	Hours []HourRow
}

// ModuleCount is how many whole modules fit on the surface.
func ModuleCount(surfaceAreaM2, moduleAreaM2 float64) int {
	if !(moduleAreaM2 > 0) || !(surfaceAreaM2 > 0) {
		return 0
	}
	// The epsilon keeps exact multiples such as 2.6/1.3 from flooring down.
	return int(math.Floor(surfaceAreaM2/moduleAreaM2 + 1e-9))
}

// Simulate runs the irradiance, temperature, module and inverter chain for every
// hour of weather. positions must be aligned with weather by index.
func Simulate(weather model.WeatherSeries, positions []model.SolarPosition, site model.SiteLocation,
	module, inverter model.ComponentSpec, opts Options) (*Result, error) {
	if err := site.Validate(); err != nil {
		return nil, err
	}
	if err := weather.Validate(); err != nil {
		return nil, model.InvalidInput(op, "%v", err)
	}
	if len(positions) != len(weather) {
		return nil, model.InvalidInput(op, "%d solar positions for %d weather records", len(positions), len(weather))
	}
	if module.Module == nil || module.Kind != model.KindModule {
		return nil, model.InvalidInput(op, "module %q has no module parameters", module.CatalogName)
	}
	if inverter.Inverter == nil || inverter.Kind != model.KindInverter {
		return nil, model.InvalidInput(op, "inverter %q has no inverter parameters", inverter.CatalogName)
	}
	if !(module.Module.Area > 0) {
		return nil, model.InvalidInput(op, "module %q has no area", module.CatalogName)
	}
	if opts.BaseYear < 1 {
		return nil, model.InvalidInput(op, "base year must be set (got %d)", opts.BaseYear)
	}

	mod := module.Module
	inv := inverter.Inverter
	count := ModuleCount(site.SurfaceAreaM2, mod.Area)
	surface := pvmodel.Surface{Tilt: opts.SurfaceTilt, Azimuth: opts.SurfaceAzimuth, Albedo: opts.Albedo}

	rows := make([]HourRow, 0, len(weather))
	series := make(model.YieldSeries, 0, len(weather))
	moduleWh := 0.0

	for idx, rec := range weather {
		pos := positions[idx]
		pressure := rec.Pressure
		if !(pressure > 0) {
			pressure = 101325
		}

		dniExtra := solar.ExtraRadiation(rec.Time)
		amAbs := pvmodel.AbsoluteAirmass(pvmodel.RelativeAirmass(pos.ApparentZenith), pressure)
		aoi := pvmodel.AOI(surface.Tilt, surface.Azimuth, pos.ApparentZenith, pos.Azimuth)
		poa := surface.TotalIrradiance(pos.ApparentZenith, pos.Azimuth, rec.DNI, rec.GHI, rec.DHI, dniExtra)
		tCell := opts.Temperature.CellTemperature(poa.Global, rec.TempAir, rec.WindSpeed)
		ee := pvmodel.EffectiveIrradiance(mod, poa.Direct, poa.Diffuse, amAbs, aoi)
		dc := pvmodel.SAPM(mod, ee, tCell)

		acModule := nonNegative(pvmodel.SandiaInverter(inv, dc.Vmp, dc.Pmp))
		acArray := nonNegative(pvmodel.SandiaInverter(inv, dc.Vmp, dc.Pmp*float64(count)))
		moduleWh += acModule

		rows = append(rows, HourRow{
			Index: idx,
			Time:  rec.Time,

			ApparentZenith:  pos.ApparentZenith,
			Azimuth:         pos.Azimuth,
			AOI:             aoi,
			AirmassAbsolute: amAbs,

			POAGlobal:           poa.Global,
			POADirect:           poa.Direct,
			POADiffuse:          poa.Diffuse,
			EffectiveIrradiance: ee,
			TempCell:            tCell,

			DCVoltage:     dc.Vmp,
			DCPowerModule: dc.Pmp,
			ACModuleW:     acModule,
			ACArrayW:      acArray,
		})

		ts, ok := rebase(rec.Time, opts.BaseYear)
		if !ok {
			continue
		}
		series = append(series, model.YieldPoint{Time: ts, ACPowerKW: acArray / 1000})
	}

	return &Result{
		YieldResult: model.YieldResult{
			ModuleCount:     count,
			ModuleEnergyKWh: int(math.Trunc(moduleWh / 1000)),
			ArrayYield:      series,
		},
		Hours: rows,
	}, nil
}

// rebase moves t onto year, keeping month, day and clock time. February 29 has no
// counterpart in a common year and is reported as not ok.
func rebase(t time.Time, year int) (time.Time, bool) {
	t = t.UTC()
	if t.Month() == time.February && t.Day() == 29 && !isLeap(year) {
		return time.Time{}, false
	}
	return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), true
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func nonNegative(w float64) float64 {
	if math.IsNaN(w) || w < 0 {
		return 0
	}
	return w
}
