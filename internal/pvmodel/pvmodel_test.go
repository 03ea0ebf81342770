package pvmodel

import (
	"math"
	"testing"

	"pv-configurator/internal/model"

	"github.com/stretchr/testify/assert"
)

// cs5p220m is the Canadian Solar CS5P-220M entry of the Sandia module library.
func cs5p220m() *model.SandiaModule {
	return &model.SandiaModule{
		Name: "Canadian Solar CS5P-220M [ 2009]", Area: 1.701, Material: "c-Si",
		CellsInSeries: 96, ParallelStrings: 1,
		Isco: 5.09115, Voco: 59.2608, Impo: 4.54629, Vmpo: 48.3156,
		Aisc: 0.000397, Aimp: 0.000181,
		C0: 1.01284, C1: -0.0128398, C2: 0.279317, C3: -7.24463,
		Bvoco: -0.21696, Mbvoc: 0, Bvmpo: -0.235488, Mbvmp: 0, N: 1.4032,
		A:  [5]float64{0.928385, 0.068093, -0.0157738, 0.0016606, -6.93e-05},
		B:  [6]float64{1, -0.002438, 0.0003103, -1.246e-05, 2.11e-07, -1.36e-09},
		FD: 1,
	}
}

func abbMicro() *model.SandiaInverter {
	return &model.SandiaInverter{
		Name: "ABB: MICRO-0.25-I-OUTD-US-208 [208V]", Vac: 208,
		Paco: 250, Pdco: 259.588593, Vdco: 40, Pso: 2.089607,
		C0: -4.1e-05, C1: -9.1e-05, C2: 0.000494, C3: -0.013171, Pnt: 0.075,
	}
}

func TestRelativeAirmass(t *testing.T) {
	assert.InDelta(t, 0.99975, RelativeAirmass(0), 1e-4)
	assert.InDelta(t, 1.9943, RelativeAirmass(60), 1e-3)
	assert.InDelta(t, 37.92, RelativeAirmass(90), 0.05)
	assert.True(t, math.IsNaN(RelativeAirmass(90.5)))
	assert.True(t, math.IsNaN(RelativeAirmass(math.NaN())))

	assert.InDelta(t, 1.0, AbsoluteAirmass(2, 101325/2.0), 1e-12)
}

func TestAOI(t *testing.T) {
	assert.InDelta(t, 40, AOI(0, 180, 40, 95), 1e-9, "horizontal surface sees the zenith angle")
	assert.InDelta(t, 0, AOI(30, 180, 30, 180), 1e-6, "sun normal to the surface")
	assert.InDelta(t, 60, AOI(30, 180, 30, 0), 1e-6)
	assert.InDelta(t, 90, AOI(90, 180, 0, 0), 1e-6)
}

func TestHayDaviesHorizontalKeepsDiffuse(t *testing.T) {
	iso, circ := HayDavies(0, 180, 120, 300, 1367, 50, 160)
	assert.InDelta(t, 120, iso+circ, 1e-9)
	assert.Greater(t, circ, 0.0)
}

func TestHayDaviesSunBehindPanel(t *testing.T) {
	// Sun in the north, panel facing south at a steep tilt: no circumsolar gain.
	iso, circ := HayDavies(80, 180, 100, 400, 1367, 60, 0)
	assert.Zero(t, circ)
	assert.InDelta(t, 100*(1-400.0/1367)*0.5*(1+math.Cos(80*deg)), iso, 1e-9)
}

func TestGroundDiffuse(t *testing.T) {
	assert.InDelta(t, 0, GroundDiffuse(0, 800, DefaultAlbedo), 1e-12)
	assert.InDelta(t, 100, GroundDiffuse(90, 800, DefaultAlbedo), 1e-9)
}

func TestTotalIrradiance(t *testing.T) {
	s := Surface{Tilt: 30, Azimuth: 180, Albedo: DefaultAlbedo}
	poa := s.TotalIrradiance(30, 180, 800, 900, 100, 1367)

	assert.InDelta(t, 800, poa.Direct, 1e-6, "normal incidence takes all of DNI")
	assert.InDelta(t, poa.Sky+poa.Ground, poa.Diffuse, 1e-12)
	assert.InDelta(t, poa.Direct+poa.Diffuse, poa.Global, 1e-12)

	night := s.TotalIrradiance(110, 0, 0, 0, 0, 1367)
	assert.Zero(t, night.Global)
}

func TestCellTemperature(t *testing.T) {
	m := OpenRackGlassGlass
	assert.InDelta(t, 12, m.CellTemperature(0, 12, 3), 1e-12)
	assert.InDelta(t, 52.32, m.CellTemperature(1000, 20, 1), 0.01)
	assert.Less(t, m.CellTemperature(800, 20, 8), m.CellTemperature(800, 20, 1), "wind cools the module")
}

func TestSpectralAndIAM(t *testing.T) {
	m := cs5p220m()
	assert.InDelta(t, 1.0, SpectralLoss(m, 1.5), 0.02)
	assert.Zero(t, SpectralLoss(m, math.NaN()))
	assert.InDelta(t, 1.0, IAMFactor(m, 0), 1e-12)
	assert.Less(t, IAMFactor(m, 80), IAMFactor(m, 30))
	assert.Zero(t, IAMFactor(m, -1))

	neg := cs5p220m()
	neg.A = [5]float64{-1, 0, 0, 0, 0}
	assert.Zero(t, SpectralLoss(neg, 1.5), "clipped at zero")
}

func TestEffectiveIrradiance(t *testing.T) {
	m := cs5p220m()
	m.A = [5]float64{1, 0, 0, 0, 0}
	assert.InDelta(t, 1000, EffectiveIrradiance(m, 800, 200, 1.5, 0), 1e-9)

	m.FD = 0.5
	assert.InDelta(t, 900, EffectiveIrradiance(m, 800, 200, 1.5, 0), 1e-9)
}

func TestSAPM(t *testing.T) {
	m := cs5p220m()

	ref := SAPM(m, 1000, 25)
	assert.InDelta(t, m.Vmpo, ref.Vmp, 1e-9, "reference conditions give the rated voltage")
	assert.InDelta(t, 219.66, ref.Pmp, 0.05)
	assert.InDelta(t, ref.Imp*ref.Vmp, ref.Pmp, 1e-9)

	hot := SAPM(m, 1000, 60)
	assert.Less(t, hot.Pmp, ref.Pmp, "output drops with temperature")

	dim := SAPM(m, 200, 25)
	assert.Less(t, dim.Pmp, ref.Pmp/4)
	assert.Greater(t, dim.Pmp, 0.0)

	assert.Equal(t, DCPoint{}, SAPM(m, 0, 25))
	assert.Equal(t, DCPoint{}, SAPM(m, -5, 25))
}

func TestSandiaInverter(t *testing.T) {
	inv := abbMicro()

	assert.InDelta(t, inv.Paco, SandiaInverter(inv, inv.Vdco, inv.Pdco), 1e-9, "rated DC input gives rated AC output")
	assert.InDelta(t, inv.Paco, SandiaInverter(inv, inv.Vdco, 2*inv.Pdco), 1e-9, "clipped at Paco")
	assert.InDelta(t, -inv.Pnt, SandiaInverter(inv, inv.Vdco, 1), 1e-12, "night tare below start-up power")
	assert.InDelta(t, -inv.Pnt, SandiaInverter(inv, 0, 0), 1e-12)

	half := SandiaInverter(inv, inv.Vdco, inv.Pdco/2)
	assert.Greater(t, half, 0.0)
	assert.Less(t, half, inv.Pdco/2, "conversion losses")
}
