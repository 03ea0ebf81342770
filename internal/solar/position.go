// Package solar computes sun positions and the extraterrestrial irradiance for a site.
package solar

import (
	"math"
	"time"

	"pv-configurator/internal/model"
)

const (
	deg = math.Pi / 180
	rad = 180 / math.Pi

	// SolarConstant is the extraterrestrial irradiance at 1 AU, W/m².
	SolarConstant = 1366.1

	earthMeanRadiusKm   = 6371.01
	astronomicalUnitKm  = 149597890.0
	standardPressurePa  = 101325.0
	standardTemperature = 12.0

	// Sun below this apparent elevation (deg) gets no refraction correction.
	refractionLimit = -0.83337

	unixEpochJD = 2440587.5
	j2000JD     = 2451545.0
)

// daysSinceJ2000 returns the fractional days elapsed since 2000-01-01 12:00 TT.
func daysSinceJ2000(t time.Time) float64 {
	jd := float64(t.UnixNano())/1e9/86400 + unixEpochJD
	return jd - j2000JD
}

// Position returns the apparent zenith and azimuth (north=0, east=90) of the sun seen
// from lat/lon at t, using the PSA ephemeris, a parallax correction and the SPA
// refraction model with the given air pressure (Pa) and temperature (°C). Non-finite
// or non-positive pressure falls back to the standard atmosphere.
func Position(t time.Time, lat, lon, pressurePa, tempC float64) model.SolarPosition {
	t = t.UTC()
	n := daysSinceJ2000(t)
	hours := float64(t.Hour()) + float64(t.Minute())/60 + (float64(t.Second())+float64(t.Nanosecond())/1e9)/3600

	// Ecliptic coordinates.
	omega := 2.1429 - 0.0010394594*n
	meanLon := 4.8950630 + 0.017202791698*n
	meanAnomaly := 6.2400600 + 0.0172019699*n
	eclLon := meanLon + 0.03341607*math.Sin(meanAnomaly) + 0.00034894*math.Sin(2*meanAnomaly) -
		0.0001134 - 0.0000203*math.Sin(omega)
	obliquity := 0.4090928 - 6.2140e-9*n + 0.0000396*math.Cos(omega)

	// Celestial coordinates.
	sinLon := math.Sin(eclLon)
	ra := math.Atan2(math.Cos(obliquity)*sinLon, math.Cos(eclLon))
	if ra < 0 {
		ra += 2 * math.Pi
	}
	decl := math.Asin(math.Sin(obliquity) * sinLon)

	// Local coordinates.
	gmst := 6.6974243242 + 0.0657098283*n + hours
	lmst := (gmst*15 + lon) * deg
	ha := lmst - ra

	latR := lat * deg
	cosLat, sinLat := math.Cos(latR), math.Sin(latR)
	cosHA := math.Cos(ha)

	zenith := math.Acos(clamp(cosLat*cosHA*math.Cos(decl)+math.Sin(decl)*sinLat, -1, 1))
	azimuth := math.Atan2(-math.Sin(ha), math.Tan(decl)*cosLat-sinLat*cosHA)
	if azimuth < 0 {
		azimuth += 2 * math.Pi
	}
	zenith += earthMeanRadiusKm / astronomicalUnitKm * math.Sin(zenith)

	elevation := 90 - zenith*rad
	elevation += Refraction(elevation, pressurePa, tempC)

	return model.SolarPosition{
		ApparentZenith: 90 - elevation,
		Azimuth:        azimuth * rad,
	}
}

// Refraction returns the atmospheric refraction correction (deg) to add to a
// geometric elevation (deg). It is zero when the sun is well below the horizon.
func Refraction(elevation, pressurePa, tempC float64) float64 {
	if elevation < refractionLimit {
		return 0
	}
	if !(pressurePa > 0) || math.IsInf(pressurePa, 0) {
		pressurePa = standardPressurePa
	}
	if math.IsNaN(tempC) || math.IsInf(tempC, 0) {
		tempC = standardTemperature
	}
	pressureMbar := pressurePa / 100
	return (pressureMbar / 1010) * (283 / (273 + tempC)) *
		1.02 / (60 * math.Tan((elevation+10.3/(elevation+5.11))*deg))
}

// Positions computes one position per weather record, using each record's own
// pressure and temperature for the refraction term. The result is aligned by index.
func Positions(w model.WeatherSeries, lat, lon float64) []model.SolarPosition {
	out := make([]model.SolarPosition, len(w))
	for i, rec := range w {
		out[i] = Position(rec.Time, lat, lon, rec.Pressure, rec.TempAir)
	}
	return out
}

// EarthSunDistance returns the Earth-Sun distance in AU at t.
func EarthSunDistance(t time.Time) float64 {
	g := (357.529 + 0.98560028*daysSinceJ2000(t)) * deg
	return 1.00014 - 0.01671*math.Cos(g) - 0.00014*math.Cos(2*g)
}

// ExtraRadiation returns the extraterrestrial normal irradiance (W/m²) at t.
func ExtraRadiation(t time.Time) float64 {
	r := EarthSunDistance(t)
	return SolarConstant / (r * r)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
