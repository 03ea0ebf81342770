package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pv-configurator/internal/data"
	"pv-configurator/internal/model"
	"pv-configurator/internal/registry"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load catalogs and bodies from a separate YAML. When set, it replaces
	// the catalogs and bodies of this file.
	CatalogFile string `yaml:"catalog_file"`

	Server     ServerConfig     `yaml:"server"`
	PVGIS      PVGISConfig      `yaml:"pvgis"`
	Cache      CacheConfig      `yaml:"tmy_cache"`
	SAM        SAMConfig        `yaml:"sam"`
	Simulation SimulationConfig `yaml:"simulation"`
	Defaults   DefaultsConfig   `yaml:"defaults"`
	Catalogs   []CatalogConfig  `yaml:"catalogs" validate:"required,dive"`
	Bodies     []BodyConfig     `yaml:"bodies" validate:"required,dive"`
}

type ServerConfig struct {
	Port           string   `yaml:"port" validate:"required,numeric"`
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type PVGISConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend" validate:"oneof=none memory redis"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
}

type SAMConfig struct {
	Dir       string          `yaml:"dir"`
	Libraries []LibraryConfig `yaml:"libraries" validate:"required,dive"`
}

type LibraryConfig struct {
	Name string `yaml:"name" validate:"required"`
	Kind string `yaml:"kind" validate:"oneof=sandia_modules inverters"`
	File string `yaml:"file" validate:"required_without=URL"`
	URL  string `yaml:"url" validate:"omitempty,url"`
}

type SimulationConfig struct {
	WeatherYear    int     `yaml:"weather_year" validate:"gte=1900,lte=2100"`
	SurfaceAzimuth float64 `yaml:"surface_azimuth" validate:"gte=0,lt=360"`
	Albedo         float64 `yaml:"albedo" validate:"gte=0,lte=1"`
}

// DefaultsConfig holds the values a request falls back to when it leaves a field out.
type DefaultsConfig struct {
	Latitude      float64 `yaml:"latitude" json:"latitude" validate:"gte=-90,lte=90"`
	Longitude     float64 `yaml:"longitude" json:"longitude" validate:"gte=-180,lte=180"`
	SurfaceAreaM2 float64 `yaml:"surface_area_m2" json:"surface_area_m2" validate:"gt=0"`
	ForecastYears int     `yaml:"forecast_years" json:"forecast_years" validate:"gte=1"`
	PricePerKWh   float64 `yaml:"price_per_kwh" json:"price_per_kwh" validate:"gte=0"`
	PlotStep      int     `yaml:"plot_step" json:"plot_step" validate:"gte=1"`
	Body          string  `yaml:"body" json:"body"`
	Module        string  `yaml:"module" json:"module"`
	Inverter      string  `yaml:"inverter" json:"inverter"`
}

type CatalogConfig struct {
	ID         string            `yaml:"id" validate:"required"`
	Kind       string            `yaml:"kind" validate:"oneof=module inverter"`
	Library    string            `yaml:"library" validate:"required"`
	Components []ComponentConfig `yaml:"components" validate:"required,dive"`
}

type ComponentConfig struct {
	DisplayName string  `yaml:"display_name" validate:"required"`
	Name        string  `yaml:"name" validate:"required"`
	Price       float64 `yaml:"price" validate:"gte=0"`
}

type BodyConfig struct {
	Name            string `yaml:"name" validate:"required"`
	ModuleCatalog   string `yaml:"module_catalog"`
	InverterCatalog string `yaml:"inverter_catalog"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(defaultYAML, &c); err != nil {
		return nil, fmt.Errorf("built-in config: %w", err)
	}
	return &c, nil
}

// Load reads path over the built-in configuration, applies environment overrides
// and validates the result. An empty path loads the built-in configuration alone.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	ApplyEnv(c, os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.CatalogFile != "" {
		catalogPath := c.CatalogFile
		if !filepath.IsAbs(catalogPath) {
			// Prefer interpreting relative paths as relative to the config file directory,
			// but fall back to the provided path (relative to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), catalogPath)
			if _, err := os.Stat(cand); err == nil {
				catalogPath = cand
			}
		}
		loaded, err := loadCatalogFile(catalogPath)
		if err != nil {
			return nil, err
		}
		c.Catalogs = loaded.Catalogs
		c.Bodies = loaded.Bodies
	}
	return c, nil
}

type catalogFile struct {
	Catalogs []CatalogConfig `yaml:"catalogs"`
	Bodies   []BodyConfig    `yaml:"bodies"`
}

func loadCatalogFile(path string) (catalogFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return catalogFile{}, err
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return catalogFile{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ApplyEnv overrides selected settings from the environment.
func ApplyEnv(c *Config, getenv func(string) string) {
	if v := getenv("API_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := getenv("STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := getenv("PVGIS_BASE_URL"); v != "" {
		c.PVGIS.BaseURL = v
	}
	if v := getenv("PVGIS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PVGIS.Timeout = d
		}
	}
	if v := getenv("TMY_CACHE"); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv("TMY_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.RedisDB = n
		}
	}
	if v := getenv("SAM_DIR"); v != "" {
		c.SAM.Dir = v
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	if c.PVGIS.Timeout <= 0 {
		return errors.New("pvgis.timeout must be > 0")
	}
	if c.Cache.Backend != "none" && c.Cache.TTL <= 0 {
		return errors.New("tmy_cache.ttl must be > 0")
	}

	libraries := map[string]string{}
	for _, l := range c.SAM.Libraries {
		if _, dup := libraries[l.Name]; dup {
			return fmt.Errorf("sam library %q defined twice", l.Name)
		}
		libraries[l.Name] = l.Kind
	}
	for _, cat := range c.Catalogs {
		kind, ok := libraries[cat.Library]
		if !ok {
			return fmt.Errorf("catalog %q: unknown sam library %q", cat.ID, cat.Library)
		}
		if (cat.Kind == string(model.KindModule)) != (kind == string(data.SandiaModules)) {
			return fmt.Errorf("catalog %q: %s catalog cannot use %s library %q", cat.ID, cat.Kind, kind, cat.Library)
		}
	}

	// Catalog and body cross-checks are the registry's own.
	if _, err := c.NewRegistry(nil); err != nil {
		return fmt.Errorf("catalogs invalid: %w", err)
	}

	if c.Defaults.Body != "" {
		if err := c.checkDefaults(); err != nil {
			return fmt.Errorf("defaults invalid: %w", err)
		}
	}
	return nil
}

func (c *Config) checkDefaults() error {
	reg, err := c.NewRegistry(nil)
	if err != nil {
		return err
	}
	if c.Defaults.Module != "" {
		id, err := reg.CatalogForBody(c.Defaults.Body, model.KindModule)
		if err != nil {
			return err
		}
		if _, err := reg.Lookup(id, c.Defaults.Module); err != nil {
			return err
		}
	}
	if c.Defaults.Inverter != "" {
		id, err := reg.CatalogForBody(c.Defaults.Body, model.KindInverter)
		if err != nil {
			return err
		}
		if _, err := reg.Lookup(id, c.Defaults.Inverter); err != nil {
			return err
		}
	}
	return nil
}

// RegistryCatalogs converts the configured catalogs.
func (c *Config) RegistryCatalogs() []registry.Catalog {
	out := make([]registry.Catalog, 0, len(c.Catalogs))
	for _, cat := range c.Catalogs {
		rc := registry.Catalog{
			ID:      cat.ID,
			Kind:    model.ComponentKind(cat.Kind),
			Library: cat.Library,
			Entries: make([]registry.Entry, 0, len(cat.Components)),
		}
		for _, comp := range cat.Components {
			rc.Entries = append(rc.Entries, registry.Entry{
				DisplayName: comp.DisplayName,
				Name:        comp.Name,
				Price:       decimal.NewFromFloat(comp.Price),
			})
		}
		out = append(out, rc)
	}
	return out
}

func (c *Config) RegistryBodies() []registry.Body {
	out := make([]registry.Body, 0, len(c.Bodies))
	for _, b := range c.Bodies {
		out = append(out, registry.Body{Name: b.Name, ModuleCatalog: b.ModuleCatalog, InverterCatalog: b.InverterCatalog})
	}
	return out
}

// NewRegistry builds the component registry, resolving parameters through src.
func (c *Config) NewRegistry(src registry.Source) (*registry.Registry, error) {
	return registry.New(c.RegistryCatalogs(), c.RegistryBodies(), src)
}

// LibrarySpecs lists the SAM libraries to load.
func (c *Config) LibrarySpecs() []data.LibrarySpec {
	out := make([]data.LibrarySpec, 0, len(c.SAM.Libraries))
	for _, l := range c.SAM.Libraries {
		out = append(out, data.LibrarySpec{
			Name: l.Name,
			Kind: data.LibraryKind(l.Kind),
			File: l.File,
			URL:  l.URL,
		})
	}
	return out
}

// MergeDefaults overlays non-zero fields from override onto base.
// This is used to complete a request from the configured defaults.
func MergeDefaults(base, override DefaultsConfig) DefaultsConfig {
	out := base
	// Coordinates are taken as a pair; leaving both at zero keeps the configured site.
	if override.Latitude != 0 || override.Longitude != 0 {
		out.Latitude = override.Latitude
		out.Longitude = override.Longitude
	}
	if override.SurfaceAreaM2 != 0 {
		out.SurfaceAreaM2 = override.SurfaceAreaM2
	}
	if override.ForecastYears != 0 {
		out.ForecastYears = override.ForecastYears
	}
	if override.PricePerKWh != 0 {
		out.PricePerKWh = override.PricePerKWh
	}
	if override.PlotStep != 0 {
		out.PlotStep = override.PlotStep
	}
	if override.Body != "" {
		out.Body = override.Body
	}
	if override.Module != "" {
		out.Module = override.Module
	}
	if override.Inverter != "" {
		out.Inverter = override.Inverter
	}
	return out
}
