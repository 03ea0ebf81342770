package data

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog/log"
)

// LoadPVGISJSON reads a PVGIS tmy document saved to disk.
func LoadPVGISJSON(path string) (*TMY, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tmy, err := DecodePVGISTMY(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tmy.Source = "file:" + path
	return tmy, nil
}

// FileSource serves one saved TMY for every coordinate, for offline runs.
type FileSource struct {
	Path string
}

func (s FileSource) FetchTMY(_ context.Context, lat, lon float64) (*TMY, error) {
	tmy, err := LoadPVGISJSON(s.Path)
	if err != nil {
		return nil, err
	}
	if math.Abs(tmy.Latitude-lat) > 0.01 || math.Abs(tmy.Longitude-lon) > 0.01 {
		log.Warn().Str("component", "tmy_file").Str("path", s.Path).
			Float64("file_lat", tmy.Latitude).Float64("file_lon", tmy.Longitude).
			Float64("lat", lat).Float64("lon", lon).Msg("tmy file was recorded for another location")
	}
	return tmy, nil
}
