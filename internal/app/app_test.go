package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"pv-configurator/internal/config"
	"pv-configurator/internal/data"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestSetupLogging(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	SetupLogging(envOf(map[string]string{"API_ENV": "production", "LOG_LEVEL": "DEBUG"}), &buf)
	log.Debug().Str("component", "test").Msg("hello")
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.Contains(t, buf.String(), `"component":"test"`)

	buf.Reset()
	SetupLogging(envOf(map[string]string{"LOG_LEVEL": "loud"}), &buf)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel(), "unknown level falls back to info")
	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
	log.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), `"level"`, "console output outside production")
}

func TestNewTMYCache(t *testing.T) {
	ctx := context.Background()

	c, closeFn := NewTMYCache(ctx, config.CacheConfig{Backend: "none"})
	assert.Nil(t, c)
	closeFn()

	c, closeFn = NewTMYCache(ctx, config.CacheConfig{Backend: "memory", TTL: time.Hour})
	assert.IsType(t, &data.MemoryCache{}, c)
	closeFn()

	c, closeFn = NewTMYCache(ctx, config.CacheConfig{Backend: "redis", TTL: time.Hour, RedisAddr: "127.0.0.1:1"})
	assert.IsType(t, &data.MemoryCache{}, c, "unreachable redis falls back to memory")
	closeFn()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.SAM.Dir = filepath.Join("..", "data", "testdata")
	cfg.SAM.Libraries = []config.LibraryConfig{
		{Name: "SandiaMod", Kind: "sandia_modules", File: "sandia_modules.csv"},
		{Name: "CECInverter", Kind: "inverters", File: "cec_inverters.csv"},
	}
	cfg.Catalogs = []config.CatalogConfig{
		{ID: "Modules", Kind: "module", Library: "SandiaMod", Components: []config.ComponentConfig{
			{DisplayName: "CS5P", Name: "Canadian Solar CS5P-220M [ 2009]", Price: 250},
			{DisplayName: "Missing", Name: "Nobody Solar X1", Price: 1},
		}},
		{ID: "Inverters", Kind: "inverter", Library: "CECInverter", Components: []config.ComponentConfig{
			{DisplayName: "PVI-3.0", Name: "ABB: PVI-3.0-OUTD-S-US-A [240V]", Price: 1200},
		}},
	}
	cfg.Bodies = []config.BodyConfig{{Name: "Sandia", ModuleCatalog: "Modules", InverterCatalog: "Inverters"}}
	cfg.Defaults.Body = "Sandia"
	cfg.Defaults.Module = "CS5P"
	cfg.Defaults.Inverter = "PVI-3.0"
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewEngine(t *testing.T) {
	cfg := testConfig(t)
	src := data.FileSource{Path: "unused.json"}

	engine, err := NewEngine(context.Background(), cfg, src)
	require.NoError(t, err)

	spec, err := engine.LookupComponent("Modules", "CS5P")
	require.NoError(t, err)
	require.NotNil(t, spec.Module)
	assert.InDelta(t, 1.701, spec.AreaM2, 1e-9)

	assert.Equal(t, []string{"Modules/Missing"}, MissingComponents(engine.Registry()))

	cfg.SAM.Dir = t.TempDir()
	_, err = NewEngine(context.Background(), cfg, src)
	assert.Error(t, err, "libraries without a file or url")
}

func TestNewPVGISSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = "memory"
	client, closeFn := NewPVGISSource(context.Background(), cfg)
	defer closeFn()
	assert.Equal(t, cfg.PVGIS.BaseURL, client.BaseURL)
	assert.Equal(t, cfg.PVGIS.Timeout, client.Client.Timeout)
	assert.NotNil(t, client.Cache)
}
