// Package app assembles the configurator from configuration for the binaries.
package app

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"pv-configurator/internal/config"
	"pv-configurator/internal/configurator"
	"pv-configurator/internal/data"
	"pv-configurator/internal/registry"
	"pv-configurator/internal/weather"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging configures the global logger: JSON when API_ENV=production, a
// console writer otherwise, at LOG_LEVEL (default info).
func SetupLogging(getenv func(string) string, out io.Writer) {
	if out == nil {
		out = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(strings.ToLower(getenv("LOG_LEVEL")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if getenv("API_ENV") == "production" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

// NewTMYCache builds the configured TMY cache. A Redis backend that does not answer
// a ping falls back to the in-memory cache. The returned func releases the cache.
func NewTMYCache(ctx context.Context, cfg config.CacheConfig) (data.TMYCache, func()) {
	switch cfg.Backend {
	case "none":
		return nil, func() {}
	case "redis":
		rc := data.NewRedisCache(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.TTL)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err := rc.Ping(pingCtx)
		if err == nil {
			log.Info().Str("component", "cache").Str("backend", "redis").Str("addr", cfg.RedisAddr).Dur("ttl", cfg.TTL).Msg("tmy cache ready")
			return rc, func() { _ = rc.Close() }
		}
		log.Warn().Str("component", "cache").Str("addr", cfg.RedisAddr).Err(err).Msg("redis unreachable, using in-memory tmy cache")
		_ = rc.Close()
	}
	mc := data.NewMemoryCache(cfg.TTL)
	log.Info().Str("component", "cache").Str("backend", "memory").Dur("ttl", cfg.TTL).Msg("tmy cache ready")
	return mc, mc.Close
}

// NewPVGISSource builds the PVGIS client with the configured cache.
func NewPVGISSource(ctx context.Context, cfg *config.Config) (*data.PVGISClient, func()) {
	client := data.NewPVGISClient(cfg.PVGIS.BaseURL, cfg.PVGIS.Timeout)
	cache, closeFn := NewTMYCache(ctx, cfg.Cache)
	client.Cache = cache
	return client, closeFn
}

// MissingComponents lists "catalog/display name" for every catalog entry whose
// library parameters cannot be found.
func MissingComponents(reg *registry.Registry) []string {
	var out []string
	for _, id := range reg.Catalogs("") {
		names, _ := reg.Names(id)
		for _, name := range names {
			if _, err := reg.Lookup(id, name); err != nil {
				out = append(out, id+"/"+name)
			}
		}
	}
	return out
}

// NewEngine loads the component libraries, builds the registry and wires the
// resolver over src.
func NewEngine(ctx context.Context, cfg *config.Config, src weather.TMYSource, opts ...configurator.Option) (*configurator.Engine, error) {
	db, err := data.LoadComponentDB(ctx, cfg.SAM.Dir, cfg.LibrarySpecs(), &http.Client{Timeout: 2 * time.Minute})
	if err != nil {
		return nil, err
	}
	reg, err := cfg.NewRegistry(db)
	if err != nil {
		return nil, err
	}
	if missing := MissingComponents(reg); len(missing) > 0 {
		log.Warn().Str("component", "sam").Strs("missing", missing).Msg("catalog components not found in the component libraries")
	}

	res := weather.NewResolver(src,
		weather.WithTimeout(cfg.PVGIS.Timeout),
		weather.WithYear(cfg.Simulation.WeatherYear),
	)
	base := []configurator.Option{
		configurator.WithSurfaceAzimuth(cfg.Simulation.SurfaceAzimuth),
		configurator.WithAlbedo(cfg.Simulation.Albedo),
	}
	return configurator.New(reg, res, append(base, opts...)...), nil
}
