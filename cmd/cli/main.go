package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pv-configurator/internal/app"
	"pv-configurator/internal/config"
	"pv-configurator/internal/configurator"
	"pv-configurator/internal/data"
	"pv-configurator/internal/forecast"
	"pv-configurator/internal/model"
	"pv-configurator/internal/weather"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	app.SetupLogging(os.Getenv, os.Stderr)

	switch os.Args[1] {
	case "components":
		cmdComponents(os.Args[2:])
	case "weather":
		cmdWeather(os.Args[2:])
	case "simulate":
		cmdSimulate(os.Args[2:])
	case "forecast":
		cmdForecast(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli components [--catalog SandiaModules] [--check]")
	fmt.Println("  cli weather --lat 51.9223 --lon 4.4697 [--out tmy.json]")
	fmt.Println("  cli simulate --lat 51.9223 --lon 4.4697 --area 20 --module \"AstroPower APX-120\"")
	fmt.Println("  cli forecast --years 5 --price 0.65 --out results/forecast.csv")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - unset options fall back to the defaults section of the config")
	fmt.Println("  - --tmy-file reads a saved PVGIS tmy JSON instead of calling PVGIS")
}

// commonFlags are shared by the commands that evaluate a configuration.
type commonFlags struct {
	fs       *flag.FlagSet
	cfgPath  *string
	tmyFile  *string
	lat, lon *float64
	area     *float64
	body     *string
	module   *string
	inverter *string
	tilt     *float64
	azimuth  *float64
}

func newCommonFlags(name string) *commonFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &commonFlags{
		fs:       fs,
		cfgPath:  fs.StringP("config", "c", os.Getenv("CONFIG_FILE"), "Path to YAML config (default: built-in)"),
		tmyFile:  fs.String("tmy-file", "", "Read weather from a saved PVGIS tmy JSON"),
		lat:      fs.Float64("lat", 0, "Latitude in degrees"),
		lon:      fs.Float64("lon", 0, "Longitude in degrees"),
		area:     fs.Float64("area", 0, "Usable surface area in m²"),
		body:     fs.String("body", "", "Certifying body selecting the catalogs"),
		module:   fs.String("module", "", "Module display name"),
		inverter: fs.String("inverter", "", "Inverter display name"),
		tilt:     fs.Float64("tilt", 0, "Surface tilt in degrees (default: latitude)"),
		azimuth:  fs.Float64("azimuth", 0, "Surface azimuth in degrees clockwise from north (default: config)"),
	}
}

func (f *commonFlags) overrides() config.DefaultsConfig {
	return config.DefaultsConfig{
		Latitude:      *f.lat,
		Longitude:     *f.lon,
		SurfaceAreaM2: *f.area,
		Body:          *f.body,
		Module:        *f.module,
		Inverter:      *f.inverter,
	}
}

func (f *commonFlags) orientation() model.Orientation {
	var o model.Orientation
	if f.fs.Changed("tilt") {
		o.TiltDeg = f.tilt
	}
	if f.fs.Changed("azimuth") {
		o.AzimuthDeg = f.azimuth
	}
	return o
}

// setup loads the config and builds the engine over PVGIS or the --tmy-file.
func (f *commonFlags) setup(ctx context.Context) (*config.Config, *configurator.Engine, func()) {
	cfg, err := config.Load(*f.cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var src weather.TMYSource
	cleanup := func() {}
	if *f.tmyFile != "" {
		src = data.FileSource{Path: *f.tmyFile}
	} else {
		src, cleanup = app.NewPVGISSource(ctx, cfg)
	}

	engine, err := app.NewEngine(ctx, cfg, src)
	if err != nil {
		cleanup()
		log.Fatal().Err(err).Msg("failed to build engine")
	}
	return cfg, engine, cleanup
}

func (f *commonFlags) request(engine *configurator.Engine, d config.DefaultsConfig) configurator.EvaluationRequest {
	reg := engine.Registry()
	mc, err := reg.CatalogForBody(d.Body, model.KindModule)
	if err != nil {
		log.Fatal().Err(err).Msg("no module catalog")
	}
	ic, err := reg.CatalogForBody(d.Body, model.KindInverter)
	if err != nil {
		log.Fatal().Err(err).Msg("no inverter catalog")
	}
	return configurator.EvaluationRequest{
		Site:            model.SiteLocation{Latitude: d.Latitude, Longitude: d.Longitude, SurfaceAreaM2: d.SurfaceAreaM2},
		ModuleCatalog:   mc,
		Module:          d.Module,
		InverterCatalog: ic,
		Inverter:        d.Inverter,
		PricePerKWh:     decimal.NewFromFloat(d.PricePerKWh),
		ForecastYears:   d.ForecastYears,
		Orientation:     f.orientation(),
	}
}

func cmdComponents(args []string) {
	fs := flag.NewFlagSet("components", flag.ExitOnError)
	cfgPath := fs.StringP("config", "c", os.Getenv("CONFIG_FILE"), "Path to YAML config (default: built-in)")
	catalogID := fs.String("catalog", "", "List the components of one catalog")
	check := fs.Bool("check", false, "Load the component libraries and report entries they do not carry")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	reg, err := cfg.NewRegistry(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid catalogs")
	}

	if *catalogID == "" {
		fmt.Printf("%-32s %-16s %-16s\n", "body", "modules", "inverters")
		for _, b := range reg.Bodies() {
			fmt.Printf("%-32s %-16s %-16s\n", b.Name, b.ModuleCatalog, b.InverterCatalog)
		}
		fmt.Println()
		fmt.Printf("%-16s %-9s %-12s %s\n", "catalog", "kind", "library", "count")
		for _, id := range reg.Catalogs("") {
			cat, _ := reg.Catalog(id)
			fmt.Printf("%-16s %-9s %-12s %d\n", cat.ID, cat.Kind, cat.Library, len(cat.Entries))
		}
	} else {
		cat, ok := reg.Catalog(*catalogID)
		if !ok {
			log.Fatal().Str("catalog", *catalogID).Msg("unknown catalog")
		}
		fmt.Printf("%-36s %-10s %s\n", "component", "price", "library id")
		for _, e := range cat.Entries {
			spec, _ := reg.Lookup(cat.ID, e.DisplayName)
			fmt.Printf("%-36s %-10s %s\n", e.DisplayName, e.Price.StringFixed(2), spec.CanonicalID)
		}
	}

	if *check {
		db, err := data.LoadComponentDB(context.Background(), cfg.SAM.Dir, cfg.LibrarySpecs(), nil)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load component libraries")
		}
		full, err := cfg.NewRegistry(db)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid catalogs")
		}
		missing := app.MissingComponents(full)
		fmt.Printf("\n%d catalog entries missing from the component libraries\n", len(missing))
		for _, m := range missing {
			fmt.Println("  " + m)
		}
		if len(missing) > 0 {
			os.Exit(1)
		}
	}
}

func cmdWeather(args []string) {
	f := newCommonFlags("weather")
	out := f.fs.String("out", "", "Write the resolved location (weather and sun positions) as JSON")
	_ = f.fs.Parse(args)

	ctx := context.Background()
	cfg, engine, cleanup := f.setup(ctx)
	defer cleanup()
	d := config.MergeDefaults(cfg.Defaults, f.overrides())

	loc, err := engine.ResolveLocation(ctx, d.Latitude, d.Longitude)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve location")
	}

	var ghi, temp float64
	for _, w := range loc.Weather {
		ghi += w.GHI
		temp += w.TempAir
	}
	fmt.Printf("Location (%.4f, %.4f) altitude=%.0fm source=%s\n", loc.Latitude, loc.Longitude, loc.AltitudeM, loc.Source)
	fmt.Printf("Hours=%d %s..%s\n", len(loc.Weather), loc.Weather[0].Time.Format(time.RFC3339), loc.Weather[len(loc.Weather)-1].Time.Format(time.RFC3339))
	fmt.Printf("Annual GHI=%.0f kWh/m² Mean temperature=%.1f°C\n", ghi/1000, temp/float64(len(loc.Weather)))

	if *out != "" {
		raw, err := json.MarshalIndent(loc, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to encode location")
		}
		writeFile(*out, raw)
		fmt.Printf("Wrote %s\n", *out)
	}
}

func cmdSimulate(args []string) {
	f := newCommonFlags("simulate")
	_ = f.fs.Parse(args)

	ctx := context.Background()
	cfg, engine, cleanup := f.setup(ctx)
	defer cleanup()
	d := config.MergeDefaults(cfg.Defaults, f.overrides())

	sim, err := engine.Simulate(ctx, f.request(engine, d))
	if err != nil {
		log.Fatal().Err(err).Msg("simulation failed")
	}
	res := sim.Result
	fmt.Printf("Module=%s Inverter=%s\n", sim.Module.CatalogName, sim.Inverter.CatalogName)
	fmt.Printf("Modules=%d Energy per module=%d kWh/yr Array=%.1f kWh/yr\n", res.ModuleCount, res.ModuleEnergyKWh, res.ArrayYield.TotalKWh())

	monthly := [12]float64{}
	for _, p := range res.ArrayYield {
		monthly[p.Time.Month()-1] += p.ACPowerKW
	}
	for m, kwh := range monthly {
		fmt.Printf("  %-9s %8.1f kWh\n", time.Month(m+1), kwh)
	}
}

func cmdForecast(args []string) {
	f := newCommonFlags("forecast")
	price := f.fs.Float64("price", 0, "Electricity price per kWh (default: config)")
	years := f.fs.Int("years", 0, "Forecast horizon in years (default: config)")
	outPath := f.fs.String("out", "results/forecast.csv", "Output CSV path")
	_ = f.fs.Parse(args)

	ctx := context.Background()
	cfg, engine, cleanup := f.setup(ctx)
	defer cleanup()
	o := f.overrides()
	o.PricePerKWh = *price
	o.ForecastYears = *years
	d := config.MergeDefaults(cfg.Defaults, o)

	ev, err := engine.Evaluate(ctx, f.request(engine, d))
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatal().Err(err).Msg("failed to create output directory")
	}
	if err := forecast.WriteCSV(*outPath, ev.Forecast); err != nil {
		log.Fatal().Err(err).Msg("failed to write forecast")
	}

	fmt.Printf("Wrote %d rows to %s\n", len(ev.Forecast), *outPath)
	fmt.Printf("Modules=%d Annual=%.1f kWh Cost=%s (inverter %s + %d × %s)\n",
		ev.ModuleCount, ev.Summary.TotalKWh, ev.Cost.TotalSystemCost.StringFixed(2),
		ev.Cost.InverterPrice.StringFixed(2), ev.Cost.ModuleCount, ev.Cost.ModulePrice.StringFixed(2))
	if ev.BreakEven.Reached() {
		fmt.Printf("Break-even %s after %.1f years\n", ev.BreakEven.BreakEven.Format("2006-01-02"), *ev.BreakEven.YearsToBreakEven)
	} else {
		last := ev.Forecast[len(ev.Forecast)-1].CumulativeRevenue
		fmt.Printf("No break-even within %d years (revenue %.2f)\n", d.ForecastYears, last)
	}
}

func writeFile(path string, raw []byte) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Msg("failed to create output directory")
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		log.Fatal().Err(err).Msg("failed to write file")
	}
}
