package model

import "github.com/shopspring/decimal"

// ComponentKind separates the module and inverter catalogs.
type ComponentKind string

const (
	KindModule   ComponentKind = "module"
	KindInverter ComponentKind = "inverter"
)

func (k ComponentKind) Valid() bool {
	return k == KindModule || k == KindInverter
}

// ComponentSpec is a resolved catalog entry. Exactly one of Module / Inverter is set,
// matching Kind.
type ComponentSpec struct {
	Catalog     string          `json:"catalog"`
	Kind        ComponentKind   `json:"kind"`
	CatalogName string          `json:"catalog_name"`
	CanonicalID string          `json:"canonical_id"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	AreaM2      float64         `json:"area_m2,omitempty"`

	Module   *SandiaModule   `json:"-"`
	Inverter *SandiaInverter `json:"-"`
}

// SandiaModule holds the Sandia Array Performance Model (SAPM) coefficients of one
// module, as published in the SAM "Sandia Modules" library.
type SandiaModule struct {
	Name            string
	Area            float64 // m²
	Material        string
	CellsInSeries   float64
	ParallelStrings float64

	Isco float64 // A
	Voco float64 // V
	Impo float64 // A
	Vmpo float64 // V
	Aisc float64 // 1/°C
	Aimp float64 // 1/°C

	C0, C1, C2, C3 float64

	Bvoco float64 // V/°C
	Mbvoc float64
	Bvmpo float64 // V/°C
	Mbvmp float64
	N     float64 // diode factor

	// Spectral (airmass) polynomial A0..A4 and AOI polynomial B0..B5.
	A [5]float64
	B [6]float64

	FD float64 // fraction of diffuse irradiance used
}

// SandiaInverter holds the Sandia inverter model coefficients (also published for
// CEC-listed inverters).
type SandiaInverter struct {
	Name     string
	Vac      float64
	Paco     float64 // W, max AC output
	Pdco     float64 // W, DC input at which Paco is reached
	Vdco     float64 // V, nominal DC voltage
	Pso      float64 // W, DC power to start inversion
	C0       float64 // 1/W
	C1       float64 // 1/V
	C2       float64 // 1/V
	C3       float64 // 1/V
	Pnt      float64 // W, night tare
	Vdcmax   float64
	Idcmax   float64
	MpptLow  float64
	MpptHigh float64
}
