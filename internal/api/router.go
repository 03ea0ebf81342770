// Package api is the HTTP boundary of the configurator.
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"pv-configurator/internal/api/handlers"
	"pv-configurator/internal/api/middleware"
	"pv-configurator/internal/api/models"
	"pv-configurator/internal/config"
	"pv-configurator/internal/configurator"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RouterConfig carries the server settings the routes depend on.
type RouterConfig struct {
	AllowedOrigins []string
	StaticDir      string
	Defaults       config.DefaultsConfig
}

// NewRouter wires middleware, API routes and, when StaticDir exists, the
// single-page front end.
func NewRouter(engine *configurator.Engine, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	catalogHandler := handlers.NewCatalogHandler(engine.Registry(), cfg.Defaults)
	weatherHandler := handlers.NewWeatherHandler(engine, cfg.Defaults)
	configHandler := handlers.NewConfiguratorHandler(engine, cfg.Defaults)

	router.GET("/health", handlers.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/defaults", catalogHandler.GetDefaults)
		v1.GET("/bodies", catalogHandler.ListBodies)
		v1.GET("/catalogs", catalogHandler.ListCatalogs)
		v1.GET("/catalogs/:catalog/components", catalogHandler.ListComponents)
		v1.GET("/catalogs/:catalog/components/:name", catalogHandler.GetComponent)

		v1.GET("/weather", weatherHandler.GetWeather)

		v1.POST("/simulate", configHandler.Simulate)
		v1.POST("/evaluate", configHandler.Evaluate)
		v1.POST("/forecast/csv", configHandler.ForecastCSV)
		v1.POST("/compare", configHandler.Compare)
	}

	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
		})
	}

	if cfg.StaticDir == "" {
		router.NoRoute(notFound)
		return router
	}
	if info, err := os.Stat(cfg.StaticDir); err != nil || !info.IsDir() {
		log.Warn().Str("component", "api").Str("static_dir", cfg.StaticDir).Msg("static directory not found, skipping static file serving")
		router.NoRoute(notFound)
		return router
	}

	router.Static("/assets", filepath.Join(cfg.StaticDir, "assets"))
	router.StaticFile("/favicon.ico", filepath.Join(cfg.StaticDir, "favicon.ico"))
	index := filepath.Join(cfg.StaticDir, "index.html")
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			notFound(c)
			return
		}
		c.File(index)
	})
	log.Info().Str("component", "api").Str("static_dir", cfg.StaticDir).Msg("serving static files")
	return router
}
