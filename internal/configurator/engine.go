// Package configurator is the boundary of the energy engine. It wires the
// component registry, the location resolver, the yield simulator and the forecast
// projector behind four operations plus end-to-end evaluation helpers.
package configurator

import (
	"context"
	"time"

	"pv-configurator/internal/analysis"
	"pv-configurator/internal/forecast"
	"pv-configurator/internal/model"
	"pv-configurator/internal/pvmodel"
	"pv-configurator/internal/registry"
	"pv-configurator/internal/yield"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// LocationResolver turns a coordinate into weather and sun positions.
type LocationResolver interface {
	Resolve(ctx context.Context, lat, lon float64) (*model.ResolvedLocation, error)
}

type Engine struct {
	registry *registry.Registry
	resolver LocationResolver

	surfaceAzimuth float64
	albedo         float64
	temperature    pvmodel.TemperatureModel
	now            func() time.Time
}

type Option func(*Engine)

// WithClock sets the clock the simulation and forecast base year are read from.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSurfaceAzimuth sets the default array azimuth (deg clockwise from north).
func WithSurfaceAzimuth(az float64) Option {
	return func(e *Engine) { e.surfaceAzimuth = az }
}

func WithAlbedo(albedo float64) Option {
	return func(e *Engine) { e.albedo = albedo }
}

func New(reg *registry.Registry, res LocationResolver, opts ...Option) *Engine {
	e := &Engine{
		registry:       reg,
		resolver:       res,
		surfaceAzimuth: 180,
		albedo:         pvmodel.DefaultAlbedo,
		temperature:    pvmodel.OpenRackGlassGlass,
		now:            time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// BaseYear is the calendar year simulated output and the first forecast year are
// dated in.
func (e *Engine) BaseYear() int {
	return e.now().UTC().Year()
}

// LookupComponent resolves a display name within one catalog.
func (e *Engine) LookupComponent(catalog, displayName string) (model.ComponentSpec, error) {
	return e.registry.Lookup(catalog, displayName)
}

// ResolveLocation fetches the weather year and sun positions for a coordinate.
func (e *Engine) ResolveLocation(ctx context.Context, lat, lon float64) (*model.ResolvedLocation, error) {
	return e.resolver.Resolve(ctx, lat, lon)
}

// SimulateYield runs the physics chain for one module/inverter pair on the site.
func (e *Engine) SimulateYield(site model.SiteLocation, loc *model.ResolvedLocation, module, inverter model.ComponentSpec, orient model.Orientation) (model.YieldResult, error) {
	res, err := e.simulate(site, loc, module, inverter, orient)
	if err != nil {
		return model.YieldResult{}, err
	}
	return res.YieldResult, nil
}

// SimulateHours is SimulateYield with the hourly ledger of intermediate values.
func (e *Engine) SimulateHours(site model.SiteLocation, loc *model.ResolvedLocation, module, inverter model.ComponentSpec, orient model.Orientation) (*yield.Result, error) {
	return e.simulate(site, loc, module, inverter, orient)
}

func (e *Engine) simulate(site model.SiteLocation, loc *model.ResolvedLocation, module, inverter model.ComponentSpec, orient model.Orientation) (*yield.Result, error) {
	if loc == nil {
		return nil, model.InvalidInput("simulate_yield", "location has not been resolved")
	}
	opts := yield.Options{
		SurfaceTilt:    site.Latitude,
		SurfaceAzimuth: e.surfaceAzimuth,
		Albedo:         e.albedo,
		Temperature:    e.temperature,
		BaseYear:       e.BaseYear(),
	}
	if orient.TiltDeg != nil {
		opts.SurfaceTilt = *orient.TiltDeg
	}
	if orient.AzimuthDeg != nil {
		opts.SurfaceAzimuth = *orient.AzimuthDeg
	}
	return yield.Simulate(loc.Weather, loc.Positions, site, module, inverter, opts)
}

// ProjectForecast turns a yield year into a multi-year revenue projection starting
// in the current year.
func (e *Engine) ProjectForecast(y model.YieldSeries, pricePerKWh decimal.Decimal, years int, totalCost decimal.Decimal) (model.ForecastSeries, model.BreakEvenResult, error) {
	return forecast.Project(y, pricePerKWh, years, totalCost, e.BaseYear())
}

// EvaluationRequest names everything one configuration evaluation needs.
type EvaluationRequest struct {
	Site            model.SiteLocation
	ModuleCatalog   string
	Module          string
	InverterCatalog string
	Inverter        string
	PricePerKWh     decimal.Decimal
	ForecastYears   int
	Orientation     model.Orientation
}

// validate checks everything about req that needs no lookup or fetch.
func (r EvaluationRequest) validate(op string) error {
	if err := r.Site.Validate(); err != nil {
		return err
	}
	if r.ForecastYears < 1 {
		return model.InvalidInput(op, "forecast years must be >= 1 (got %d)", r.ForecastYears)
	}
	if r.PricePerKWh.IsNegative() {
		return model.InvalidInput(op, "price per kWh must be >= 0 (got %s)", r.PricePerKWh)
	}
	return nil
}

// CostBreakdown itemises the purchase price of a configuration.
type CostBreakdown struct {
	InverterPrice   decimal.Decimal `json:"inverter_price"`
	ModulePrice     decimal.Decimal `json:"module_price"`
	ModuleCount     int             `json:"module_count"`
	ModulesTotal    decimal.Decimal `json:"modules_total"`
	TotalSystemCost decimal.Decimal `json:"total_system_cost"`
}

func NewCostBreakdown(module, inverter model.ComponentSpec, moduleCount int) CostBreakdown {
	return CostBreakdown{
		InverterPrice:   inverter.UnitPrice,
		ModulePrice:     module.UnitPrice,
		ModuleCount:     moduleCount,
		ModulesTotal:    module.UnitPrice.Mul(decimal.NewFromInt(int64(moduleCount))),
		TotalSystemCost: model.SystemCost(module, inverter, moduleCount),
	}
}

// Evaluation is the full outcome of one configuration.
type Evaluation struct {
	ID              string                  `json:"id"`
	Site            model.SiteLocation      `json:"site"`
	Module          model.ComponentSpec     `json:"module"`
	Inverter        model.ComponentSpec     `json:"inverter"`
	ModuleCount     int                     `json:"module_count"`
	ModuleEnergyKWh int                     `json:"module_energy_kwh"`
	Cost            CostBreakdown           `json:"cost"`
	Yield           model.YieldSeries       `json:"yield"`
	Summary         analysis.YieldSummary   `json:"summary"`
	Forecast        model.ForecastSeries    `json:"forecast"`
	BreakEven       model.BreakEvenResult   `json:"break_even"`
	Location        *model.ResolvedLocation `json:"-"`
}

// Evaluate looks up both components, resolves the site, simulates and projects.
// The first failing step ends the evaluation with its error.
func (e *Engine) Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	if err := req.validate("evaluate"); err != nil {
		return nil, err
	}
	module, inverter, err := e.lookupPair(req.ModuleCatalog, req.Module, req.InverterCatalog, req.Inverter)
	if err != nil {
		return nil, err
	}
	loc, err := e.ResolveLocation(ctx, req.Site.Latitude, req.Site.Longitude)
	if err != nil {
		return nil, err
	}
	return e.evaluateAt(loc, req, module, inverter)
}

// Simulation is the yield half of an evaluation, without pricing.
type Simulation struct {
	Site     model.SiteLocation
	Module   model.ComponentSpec
	Inverter model.ComponentSpec
	Result   *yield.Result
}

// Simulate looks up both components, resolves the site and simulates its yield
// year. Price and horizon in req are ignored.
func (e *Engine) Simulate(ctx context.Context, req EvaluationRequest) (*Simulation, error) {
	if err := req.Site.Validate(); err != nil {
		return nil, err
	}
	module, inverter, err := e.lookupPair(req.ModuleCatalog, req.Module, req.InverterCatalog, req.Inverter)
	if err != nil {
		return nil, err
	}
	loc, err := e.ResolveLocation(ctx, req.Site.Latitude, req.Site.Longitude)
	if err != nil {
		return nil, err
	}
	site := req.Site
	site.AltitudeM = loc.AltitudeM
	res, err := e.SimulateHours(site, loc, module, inverter, req.Orientation)
	if err != nil {
		return nil, err
	}
	return &Simulation{Site: site, Module: module, Inverter: inverter, Result: res}, nil
}

func (e *Engine) lookupPair(moduleCatalog, moduleName, inverterCatalog, inverterName string) (model.ComponentSpec, model.ComponentSpec, error) {
	module, err := e.registry.LookupKind(moduleCatalog, moduleName, model.KindModule)
	if err != nil {
		return model.ComponentSpec{}, model.ComponentSpec{}, err
	}
	inverter, err := e.registry.LookupKind(inverterCatalog, inverterName, model.KindInverter)
	if err != nil {
		return model.ComponentSpec{}, model.ComponentSpec{}, err
	}
	return module, inverter, nil
}

func (e *Engine) evaluateAt(loc *model.ResolvedLocation, req EvaluationRequest, module, inverter model.ComponentSpec) (*Evaluation, error) {
	site := req.Site
	site.AltitudeM = loc.AltitudeM

	sim, err := e.SimulateYield(site, loc, module, inverter, req.Orientation)
	if err != nil {
		return nil, err
	}
	cost := NewCostBreakdown(module, inverter, sim.ModuleCount)
	fc, be, err := e.ProjectForecast(sim.ArrayYield, req.PricePerKWh, req.ForecastYears, cost.TotalSystemCost)
	if err != nil {
		return nil, err
	}

	ev := &Evaluation{
		ID:              uuid.NewString(),
		Site:            site,
		Module:          module,
		Inverter:        inverter,
		ModuleCount:     sim.ModuleCount,
		ModuleEnergyKWh: sim.ModuleEnergyKWh,
		Cost:            cost,
		Yield:           sim.ArrayYield,
		Summary:         analysis.Summarize(sim.ArrayYield),
		Forecast:        fc,
		BreakEven:       be,
		Location:        loc,
	}
	evt := log.Info().Str("component", "configurator").Str("evaluation_id", ev.ID).
		Str("module", module.CanonicalID).Str("inverter", inverter.CanonicalID).
		Int("module_count", ev.ModuleCount).Float64("annual_kwh", ev.Summary.TotalKWh).
		Str("total_cost", cost.TotalSystemCost.String())
	if be.Reached() {
		evt = evt.Float64("years_to_break_even", *be.YearsToBreakEven)
	}
	evt.Msg("evaluated configuration")
	return ev, nil
}

// Variant is one module/inverter pair to compare.
type Variant struct {
	Label           string `json:"label"`
	ModuleCatalog   string `json:"module_catalog"`
	Module          string `json:"module"`
	InverterCatalog string `json:"inverter_catalog"`
	Inverter        string `json:"inverter"`
}

// Comparison ranks several variants evaluated at one site.
type Comparison struct {
	Site        model.SiteLocation         `json:"site"`
	Evaluations []*Evaluation              `json:"-"`
	Ranking     []analysis.RankedCandidate `json:"ranking"`
}

// Compare resolves the site once and evaluates every variant against it, using
// base for the site, price and horizon. Any failing variant fails the comparison.
func (e *Engine) Compare(ctx context.Context, base EvaluationRequest, variants []Variant) (*Comparison, error) {
	if len(variants) == 0 {
		return nil, model.InvalidInput("compare", "no variants to compare")
	}
	if err := base.validate("compare"); err != nil {
		return nil, err
	}

	type pair struct{ module, inverter model.ComponentSpec }
	pairs := make([]pair, len(variants))
	for i, v := range variants {
		m, inv, err := e.lookupPair(v.ModuleCatalog, v.Module, v.InverterCatalog, v.Inverter)
		if err != nil {
			return nil, err
		}
		pairs[i] = pair{m, inv}
	}

	loc, err := e.ResolveLocation(ctx, base.Site.Latitude, base.Site.Longitude)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{Site: base.Site}
	cmp.Site.AltitudeM = loc.AltitudeM
	cands := make([]analysis.Candidate, 0, len(variants))
	for i, v := range variants {
		ev, err := e.evaluateAt(loc, base, pairs[i].module, pairs[i].inverter)
		if err != nil {
			return nil, err
		}
		cmp.Evaluations = append(cmp.Evaluations, ev)

		label := v.Label
		if label == "" {
			label = v.Module + " / " + v.Inverter
		}
		final := 0.0
		if n := len(ev.Forecast); n > 0 {
			final = ev.Forecast[n-1].CumulativeRevenue
		}
		cands = append(cands, analysis.Candidate{
			Label:           label,
			ModuleCount:     ev.ModuleCount,
			AnnualKWh:       ev.Summary.TotalKWh,
			TotalSystemCost: ev.Cost.TotalSystemCost,
			FinalRevenue:    final,
			BreakEven:       ev.BreakEven,
		})
	}
	cmp.Ranking = analysis.RankByBreakEven(cands)
	return cmp, nil
}
