package pvmodel

import (
	"math"

	"pv-configurator/internal/model"
)

// SandiaInverter returns the AC output (W) for DC input vdc (V) and pdc (W).
// Output is clipped at Paco; below the start-up power the inverter draws its night
// tare and the result is -Pnt.
func SandiaInverter(inv *model.SandiaInverter, vdc, pdc float64) float64 {
	dv := vdc - inv.Vdco
	a := inv.Pdco * (1 + inv.C1*dv)
	b := inv.Pso * (1 + inv.C2*dv)
	c := inv.C0 * (1 + inv.C3*dv)

	ac := (inv.Paco/(a-b)-c*(a-b))*(pdc-b) + c*(pdc-b)*(pdc-b)
	ac = math.Min(inv.Paco, ac)
	if pdc < inv.Pso {
		ac = -math.Abs(inv.Pnt)
	}
	return ac
}
