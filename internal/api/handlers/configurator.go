package handlers

import (
	"fmt"
	"net/http"

	"pv-configurator/internal/analysis"
	"pv-configurator/internal/api/models"
	"pv-configurator/internal/config"
	"pv-configurator/internal/configurator"
	"pv-configurator/internal/forecast"
	"pv-configurator/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ConfiguratorHandler runs simulations and evaluations of PV configurations.
type ConfiguratorHandler struct {
	engine   *configurator.Engine
	defaults config.DefaultsConfig
}

func NewConfiguratorHandler(engine *configurator.Engine, defaults config.DefaultsConfig) *ConfiguratorHandler {
	return &ConfiguratorHandler{engine: engine, defaults: defaults}
}

// Simulate handles POST /api/v1/simulate
func (h *ConfiguratorHandler) Simulate(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	evalReq, _, err := h.buildRequest(req.ConfigurationRequest, req.Overrides())
	if err != nil {
		respondError(c, err)
		return
	}

	sim, err := h.engine.Simulate(c.Request.Context(), evalReq)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := models.SimulateResponse{
		Site:            sim.Site,
		Module:          sim.Module,
		Inverter:        sim.Inverter,
		ModuleCount:     sim.Result.ModuleCount,
		ModuleEnergyKWh: sim.Result.ModuleEnergyKWh,
		Summary:         analysis.Summarize(sim.Result.ArrayYield),
		Daily:           analysis.DailyTotals(sim.Result.ArrayYield),
	}
	if req.IncludeHourly {
		resp.Hourly = sim.Result.ArrayYield
	}
	c.JSON(http.StatusOK, resp)
}

// Evaluate handles POST /api/v1/evaluate
func (h *ConfiguratorHandler) Evaluate(c *gin.Context) {
	var req models.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	evalReq, d, err := h.buildRequest(req.ConfigurationRequest, req.Overrides())
	if err != nil {
		respondError(c, err)
		return
	}

	ev, err := h.engine.Evaluate(c.Request.Context(), evalReq)
	if err != nil {
		respondError(c, err)
		return
	}
	plot := forecast.Downsample(ev.Forecast, d.PlotStep)
	c.JSON(http.StatusOK, models.EvaluateResponse{
		ID:              ev.ID,
		Site:            ev.Site,
		Module:          ev.Module,
		Inverter:        ev.Inverter,
		ModuleCount:     ev.ModuleCount,
		ModuleEnergyKWh: ev.ModuleEnergyKWh,
		Cost:            ev.Cost,
		Summary:         ev.Summary,
		Daily:           analysis.DailyTotals(ev.Yield),
		BreakEven:       ev.BreakEven,
		PricePerKWh:     evalReq.PricePerKWh,
		ForecastYears:   evalReq.ForecastYears,
		PlotStep:        d.PlotStep,
		ForecastPoints:  len(ev.Forecast),
		Forecast:        plot,
	})
}

// ForecastCSV handles POST /api/v1/forecast/csv. The full hourly forecast is
// streamed as a CSV attachment.
func (h *ConfiguratorHandler) ForecastCSV(c *gin.Context) {
	var req models.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	evalReq, _, err := h.buildRequest(req.ConfigurationRequest, req.Overrides())
	if err != nil {
		respondError(c, err)
		return
	}

	ev, err := h.engine.Evaluate(c.Request.Context(), evalReq)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"forecast-%s.csv\"", ev.ID))
	c.Status(http.StatusOK)
	if err := forecast.Write(c.Writer, ev.Forecast); err != nil {
		_ = c.Error(err)
	}
}

// Compare handles POST /api/v1/compare
func (h *ConfiguratorHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	base, d, err := h.buildRequest(req.ConfigurationRequest, req.Overrides())
	if err != nil {
		respondError(c, err)
		return
	}

	variants := make([]configurator.Variant, 0, len(req.Variants))
	for _, v := range req.Variants {
		mc, ic, err := h.catalogs(d.Body, v.ModuleCatalog, v.InverterCatalog)
		if err != nil {
			respondError(c, err)
			return
		}
		variants = append(variants, configurator.Variant{
			Label:           v.Label,
			ModuleCatalog:   mc,
			Module:          v.Module,
			InverterCatalog: ic,
			Inverter:        v.Inverter,
		})
	}

	cmp, err := h.engine.Compare(c.Request.Context(), base, variants)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CompareResponse{Site: cmp.Site, Rankings: cmp.Ranking})
}

// buildRequest completes a request from the configured defaults and picks the
// catalogs of the chosen certifying body unless the request names them.
func (h *ConfiguratorHandler) buildRequest(req models.ConfigurationRequest, overrides config.DefaultsConfig) (configurator.EvaluationRequest, config.DefaultsConfig, error) {
	d := config.MergeDefaults(h.defaults, overrides)
	mc, ic, err := h.catalogs(d.Body, req.ModuleCatalog, req.InverterCatalog)
	if err != nil {
		return configurator.EvaluationRequest{}, d, err
	}
	return configurator.EvaluationRequest{
		Site: model.SiteLocation{
			Latitude:      d.Latitude,
			Longitude:     d.Longitude,
			SurfaceAreaM2: d.SurfaceAreaM2,
		},
		ModuleCatalog:   mc,
		Module:          d.Module,
		InverterCatalog: ic,
		Inverter:        d.Inverter,
		PricePerKWh:     decimal.NewFromFloat(d.PricePerKWh),
		ForecastYears:   d.ForecastYears,
		Orientation:     model.Orientation{TiltDeg: req.TiltDeg, AzimuthDeg: req.AzimuthDeg},
	}, d, nil
}

func (h *ConfiguratorHandler) catalogs(body, moduleCatalog, inverterCatalog string) (string, string, error) {
	reg := h.engine.Registry()
	var err error
	if moduleCatalog == "" {
		if moduleCatalog, err = reg.CatalogForBody(body, model.KindModule); err != nil {
			return "", "", err
		}
	}
	if inverterCatalog == "" {
		if inverterCatalog, err = reg.CatalogForBody(body, model.KindInverter); err != nil {
			return "", "", err
		}
	}
	return moduleCatalog, inverterCatalog, nil
}
