package handlers

import (
	"net/http"

	"pv-configurator/internal/api/models"
	"pv-configurator/internal/config"
	"pv-configurator/internal/configurator"

	"github.com/gin-gonic/gin"
)

// WeatherHandler exposes the resolved weather year of a location.
type WeatherHandler struct {
	engine   *configurator.Engine
	defaults config.DefaultsConfig
}

func NewWeatherHandler(engine *configurator.Engine, defaults config.DefaultsConfig) *WeatherHandler {
	return &WeatherHandler{engine: engine, defaults: defaults}
}

// GetWeather handles GET /api/v1/weather?lat=&lon=[&solar_position=true]
// Leaving out both coordinates selects the default site.
func (h *WeatherHandler) GetWeather(c *gin.Context) {
	var q models.WeatherQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalidRequest(c, err)
		return
	}
	d := config.MergeDefaults(h.defaults, config.DefaultsConfig{Latitude: q.Latitude, Longitude: q.Longitude})

	loc, err := h.engine.ResolveLocation(c.Request.Context(), d.Latitude, d.Longitude)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.WeatherResponse{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		AltitudeM: loc.AltitudeM,
		Source:    loc.Source,
		Count:     len(loc.Weather),
		Hours:     make([]models.WeatherHour, len(loc.Weather)),
	}
	for i, w := range loc.Weather {
		hr := models.WeatherHour{
			Time:      w.Time,
			TempAir:   w.TempAir,
			WindSpeed: w.WindSpeed,
			Pressure:  w.Pressure,
			DNI:       w.DNI,
			GHI:       w.GHI,
			DHI:       w.DHI,
		}
		if q.IncludeSolarPosition && i < len(loc.Positions) {
			p := loc.Positions[i]
			hr.ApparentZenith = &p.ApparentZenith
			hr.Azimuth = &p.Azimuth
		}
		resp.Hours[i] = hr
	}
	c.JSON(http.StatusOK, resp)
}
