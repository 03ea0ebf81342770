package pvmodel

import "math"

// TemperatureModel holds SAPM cell temperature parameters.
type TemperatureModel struct {
	A      float64
	B      float64
	DeltaT float64
}

// OpenRackGlassGlass is the SAPM parameter set for glass/glass modules on an open rack.
var OpenRackGlassGlass = TemperatureModel{A: -3.47, B: -0.0594, DeltaT: 3}

// CellTemperature returns the cell temperature (°C) from plane-of-array irradiance
// (W/m²), air temperature (°C) and wind speed (m/s).
func (m TemperatureModel) CellTemperature(poaGlobal, tempAir, windSpeed float64) float64 {
	module := poaGlobal*math.Exp(m.A+m.B*windSpeed) + tempAir
	return module + poaGlobal/1000*m.DeltaT
}
