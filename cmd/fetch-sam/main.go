package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"pv-configurator/internal/app"
	"pv-configurator/internal/config"
	"pv-configurator/internal/data"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

func main() {
	var (
		cfgPath   = flag.StringP("config", "c", os.Getenv("CONFIG_FILE"), "Path to YAML config (default: built-in)")
		dir       = flag.StringP("dir", "d", "", "Directory to save the libraries to (default: sam.dir / SAM_DIR)")
		libraries = flag.StringSliceP("library", "l", nil, "Only fetch these libraries (default: all configured)")
		force     = flag.BoolP("force", "f", false, "Download even when the file already exists")
		timeout   = flag.Duration("timeout", 2*time.Minute, "Per-download timeout")
	)
	flag.Parse()

	_ = godotenv.Load()
	app.SetupLogging(os.Getenv, os.Stderr)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *dir == "" {
		*dir = cfg.SAM.Dir
	}

	wanted := map[string]bool{}
	for _, l := range *libraries {
		wanted[l] = true
	}

	client := &http.Client{Timeout: *timeout}
	fetched := 0
	for _, spec := range cfg.LibrarySpecs() {
		if len(wanted) > 0 && !wanted[spec.Name] {
			continue
		}
		delete(wanted, spec.Name)

		path := data.LibraryPath(*dir, spec)
		if _, err := os.Stat(path); err == nil && !*force {
			fmt.Printf("%s: %s exists, skipping (use --force to replace)\n", spec.Name, path)
			continue
		}
		if spec.URL == "" {
			log.Fatal().Str("library", spec.Name).Msg("no url configured")
		}

		fmt.Printf("Downloading %s from %s\n", spec.Name, spec.URL)
		body, err := data.DownloadLibrary(context.Background(), client, spec.URL)
		if err != nil {
			log.Fatal().Err(err).Str("library", spec.Name).Msg("download failed")
		}

		// Refuse to replace a working file with something that does not parse.
		db := data.NewComponentDB()
		if err := db.Parse(spec, bytes.NewReader(body)); err != nil {
			log.Fatal().Err(err).Str("library", spec.Name).Msg("downloaded library does not parse")
		}

		saved, err := data.SaveLibrary(*dir, spec, body)
		if err != nil {
			log.Fatal().Err(err).Str("library", spec.Name).Msg("failed to save library")
		}
		fmt.Printf("Saved %d components of %s to %s\n", db.Len(spec.Name), spec.Name, saved)
		fetched++
	}

	for name := range wanted {
		log.Fatal().Str("library", name).Msg("library is not configured")
	}
	fmt.Printf("Fetched %d libraries\n", fetched)
}
