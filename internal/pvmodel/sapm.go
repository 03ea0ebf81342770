package pvmodel

import (
	"math"

	"pv-configurator/internal/model"
)

const (
	boltzmann  = 1.38066e-23 // J/K
	elemCharge = 1.60218e-19 // C
	tempRef    = 25.0        // °C
	irradRef   = 1000.0      // W/m²
)

// SpectralLoss evaluates the module's airmass polynomial A4..A0. Undefined airmass
// (sun below the horizon) yields zero; the result is never negative.
func SpectralLoss(m *model.SandiaModule, airmassAbsolute float64) float64 {
	am := airmassAbsolute
	f := m.A[4]
	for i := 3; i >= 0; i-- {
		f = f*am + m.A[i]
	}
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(f, 0)
}

// IAMFactor evaluates the module's incidence angle polynomial B5..B0 at aoi (deg).
// It is zero for aoi < 0 and never negative.
func IAMFactor(m *model.SandiaModule, aoi float64) float64 {
	if aoi < 0 {
		return 0
	}
	f := m.B[5]
	for i := 4; i >= 0; i-- {
		f = f*aoi + m.B[i]
	}
	return math.Max(f, 0)
}

// EffectiveIrradiance is the irradiance (W/m²) the cells convert, after spectral and
// reflection losses.
func EffectiveIrradiance(m *model.SandiaModule, poaDirect, poaDiffuse, airmassAbsolute, aoi float64) float64 {
	f1 := SpectralLoss(m, airmassAbsolute)
	f2 := IAMFactor(m, aoi)
	return f1 * (poaDirect*f2 + m.FD*poaDiffuse)
}

// DCPoint is the module's maximum power operating point.
type DCPoint struct {
	Imp float64 // A
	Vmp float64 // V
	Pmp float64 // W
}

// SAPM computes the maximum power point of one module at the given effective
// irradiance (W/m²) and cell temperature (°C). No light gives the zero point.
func SAPM(m *model.SandiaModule, effectiveIrradiance, tempCell float64) DCPoint {
	ee := effectiveIrradiance / irradRef
	if !(ee > 0) {
		return DCPoint{}
	}

	delta := m.N * boltzmann * (tempCell + 273.15) / elemCharge
	logEe := math.Log(ee)
	dT := tempCell - tempRef
	bvmpo := m.Bvmpo + m.Mbvmp*(1-ee)

	imp := m.Impo * (m.C0*ee + m.C1*ee*ee) * (1 + m.Aimp*dT)
	vmp := m.Vmpo + m.C2*m.CellsInSeries*delta*logEe +
		m.C3*m.CellsInSeries*(delta*logEe)*(delta*logEe) + bvmpo*dT
	vmp = math.Max(vmp, 0)

	return DCPoint{Imp: imp, Vmp: vmp, Pmp: imp * vmp}
}
