// Package pvmodel implements the per-hour photovoltaic physics: airmass, plane of
// array irradiance, cell temperature, the Sandia module model and the Sandia
// inverter model. Functions operate on scalars; NaN marks an undefined result.
package pvmodel

import "math"

const (
	deg = math.Pi / 180
	rad = 180 / math.Pi

	// DefaultAlbedo is the ground reflectance used for the ground-reflected component.
	DefaultAlbedo = 0.25
)

// RelativeAirmass uses the Kasten & Young (1989) formula. It is NaN for a sun below
// the horizon (zenith > 90°).
func RelativeAirmass(zenith float64) float64 {
	if math.IsNaN(zenith) || zenith > 90 {
		return math.NaN()
	}
	return 1 / (math.Cos(zenith*deg) + 0.50572*math.Pow(6.07995+(90-zenith), -1.6364))
}

// AbsoluteAirmass scales a relative airmass to site pressure (Pa).
func AbsoluteAirmass(relative, pressurePa float64) float64 {
	return relative * pressurePa / 101325
}

// AOIProjection is the cosine of the angle of incidence, clipped to [-1, 1].
func AOIProjection(surfaceTilt, surfaceAzimuth, solarZenith, solarAzimuth float64) float64 {
	p := math.Cos(surfaceTilt*deg)*math.Cos(solarZenith*deg) +
		math.Sin(surfaceTilt*deg)*math.Sin(solarZenith*deg)*math.Cos((solarAzimuth-surfaceAzimuth)*deg)
	return math.Max(-1, math.Min(1, p))
}

// AOI returns the angle of incidence (deg) of direct sun on the surface.
func AOI(surfaceTilt, surfaceAzimuth, solarZenith, solarAzimuth float64) float64 {
	return math.Acos(AOIProjection(surfaceTilt, surfaceAzimuth, solarZenith, solarAzimuth)) * rad
}

// HayDavies returns the sky diffuse irradiance on a tilted surface, split into its
// isotropic and circumsolar parts.
func HayDavies(surfaceTilt, surfaceAzimuth, dhi, dni, dniExtra, solarZenith, solarAzimuth float64) (isotropic, circumsolar float64) {
	cosTT := math.Max(AOIProjection(surfaceTilt, surfaceAzimuth, solarZenith, solarAzimuth), 0)
	cosSolarZenith := math.Max(math.Cos(solarZenith*deg), 0.01745)
	rb := cosTT / cosSolarZenith

	ai := dni / dniExtra
	poaIsotropic := math.Max(dhi*(1-ai)*0.5*(1+math.Cos(surfaceTilt*deg)), 0)
	poaCircumsolar := math.Max(dhi*ai*rb, 0)
	return poaIsotropic, poaCircumsolar
}

// GroundDiffuse is the isotropic ground-reflected irradiance on a tilted surface.
func GroundDiffuse(surfaceTilt, ghi, albedo float64) float64 {
	return ghi * albedo * (1 - math.Cos(surfaceTilt*deg)) * 0.5
}

// POA is the irradiance in the plane of the array, W/m².
type POA struct {
	Global  float64
	Direct  float64
	Diffuse float64
	Sky     float64
	Ground  float64
}

// Surface is a fixed array orientation. Tilt from horizontal, azimuth clockwise
// from north (180 faces south).
type Surface struct {
	Tilt    float64
	Azimuth float64
	Albedo  float64
}

// TotalIrradiance combines beam, Hay-Davies sky diffuse and ground reflection on s.
func (s Surface) TotalIrradiance(solarZenith, solarAzimuth, dni, ghi, dhi, dniExtra float64) POA {
	aoi := AOI(s.Tilt, s.Azimuth, solarZenith, solarAzimuth)
	iso, circ := HayDavies(s.Tilt, s.Azimuth, dhi, dni, dniExtra, solarZenith, solarAzimuth)

	direct := math.Max(dni*math.Cos(aoi*deg), 0)
	ground := GroundDiffuse(s.Tilt, ghi, s.Albedo)
	sky := iso + circ
	return POA{
		Global:  direct + sky + ground,
		Direct:  direct,
		Diffuse: sky + ground,
		Sky:     sky,
		Ground:  ground,
	}
}
