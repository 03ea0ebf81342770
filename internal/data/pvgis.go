package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPVGISBaseURL = "https://re.jrc.ec.europa.eu/api/v5_2/"
	DefaultPVGISTimeout = 30 * time.Second

	pvgisTimeLayout = "20060102:1504"
)

// TMY is one typical meteorological year as delivered by the data source, before it
// is coerced onto a single calendar year. Hours keep their source timestamps, which
// mix years month by month.
type TMY struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ElevationM float64   `json:"elevation_m"`
	Source     string    `json:"source"`
	Hours      []TMYHour `json:"hours"`
}

// TMYHour units: TempAir °C, WindSpeed m/s, Pressure Pa, irradiance W/m².
type TMYHour struct {
	Time      time.Time `json:"time"`
	TempAir   float64   `json:"temp_air"`
	WindSpeed float64   `json:"wind_speed"`
	Pressure  float64   `json:"pressure"`
	GHI       float64   `json:"ghi"`
	DNI       float64   `json:"dni"`
	DHI       float64   `json:"dhi"`
}

// PVGISTMYResponse matches the JSON returned by the PVGIS "tmy" endpoint with
// outputformat=json.
type PVGISTMYResponse struct {
	Inputs struct {
		Location struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Elevation float64 `json:"elevation"`
		} `json:"location"`
	} `json:"inputs"`
	Outputs struct {
		MonthsSelected []struct {
			Month int `json:"month"`
			Year  int `json:"year"`
		} `json:"months_selected"`
		TMYHourly []PVGISHour `json:"tmy_hourly"`
	} `json:"outputs"`
}

// PVGISHour is one row of outputs.tmy_hourly.
type PVGISHour struct {
	Time  string  `json:"time(UTC)"`
	T2m   float64 `json:"T2m"`
	RH    float64 `json:"RH"`
	GHI   float64 `json:"G(h)"`
	DNI   float64 `json:"Gb(n)"`
	DHI   float64 `json:"Gd(h)"`
	IR    float64 `json:"IR(h)"`
	WS10m float64 `json:"WS10m"`
	WD10m float64 `json:"WD10m"`
	SP    float64 `json:"SP"`
}

// ToTMY maps PVGIS variable names onto the engine's names.
func (r *PVGISTMYResponse) ToTMY() (*TMY, error) {
	t := &TMY{
		Latitude:   r.Inputs.Location.Latitude,
		Longitude:  r.Inputs.Location.Longitude,
		ElevationM: r.Inputs.Location.Elevation,
		Source:     "pvgis",
		Hours:      make([]TMYHour, 0, len(r.Outputs.TMYHourly)),
	}
	for i, h := range r.Outputs.TMYHourly {
		ts, err := time.ParseInLocation(pvgisTimeLayout, h.Time, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("tmy_hourly[%d]: invalid time %q: %w", i, h.Time, err)
		}
		t.Hours = append(t.Hours, TMYHour{
			Time:      ts,
			TempAir:   h.T2m,
			WindSpeed: h.WS10m,
			Pressure:  h.SP,
			GHI:       h.GHI,
			DNI:       h.DNI,
			DHI:       h.DHI,
		})
	}
	return t, nil
}

// PVGISError represents an error answer from PVGIS.
type PVGISError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *PVGISError) Error() string {
	return e.Message
}

// PVGISClient fetches TMY data from the EU JRC PVGIS service.
type PVGISClient struct {
	BaseURL string
	Client  *http.Client
	Cache   TMYCache
}

// NewPVGISClient creates a client. Empty baseURL and non-positive timeout fall back
// to the defaults.
func NewPVGISClient(baseURL string, timeout time.Duration) *PVGISClient {
	if baseURL == "" {
		baseURL = DefaultPVGISBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultPVGISTimeout
	}
	return &PVGISClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// FetchTMY returns the TMY for a coordinate, from the cache when one is attached.
func (c *PVGISClient) FetchTMY(ctx context.Context, lat, lon float64) (*TMY, error) {
	key := CacheKey(lat, lon)
	if c.Cache != nil {
		if cached, found := c.Cache.Get(ctx, key); found {
			log.Debug().Str("component", "pvgis").Float64("lat", lat).Float64("lon", lon).
				Int("hours", len(cached.Hours)).Msg("cache hit")
			return cached, nil
		}
	}

	u, err := url.Parse(strings.TrimRight(c.BaseURL, "/") + "/tmy")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("outputformat", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	log.Info().Str("component", "pvgis").Str("path", u.Path).Float64("lat", lat).Float64("lon", lon).Msg("request")

	start := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Warn().Str("component", "pvgis").Err(err).Dur("duration", duration).Msg("request failed")
		code := "REQUEST_FAILED"
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			code = "TIMEOUT"
		}
		return nil, &PVGISError{Code: code, Message: fmt.Sprintf("pvgis request failed: %v", err)}
	}
	defer resp.Body.Close()

	log.Info().Str("component", "pvgis").Int("status", resp.StatusCode).Dur("duration", duration).
		Float64("lat", lat).Float64("lon", lon).Msg("response")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &PVGISError{StatusCode: resp.StatusCode, Code: "READ_FAILED", Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &PVGISError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    "PVGIS rate limit exceeded",
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// PVGIS answers 400 with {"message": "...", "status": 400} for coordinates it
		// has no data for (open sea, outside the radiation databases).
		return nil, &PVGISError{
			StatusCode: resp.StatusCode,
			Code:       "NO_COVERAGE",
			Message:    upstreamMessage(body, resp.Status),
		}
	default:
		return nil, &PVGISError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("PVGIS returned status %d: %s", resp.StatusCode, upstreamMessage(body, resp.Status)),
		}
	}

	tmy, err := DecodePVGISTMY(body)
	if err != nil {
		log.Warn().Str("component", "pvgis").Err(err).Msg("decode failed")
		return nil, &PVGISError{StatusCode: resp.StatusCode, Code: "DECODE_FAILED", Message: err.Error()}
	}

	log.Info().Str("component", "pvgis").Int("hours", len(tmy.Hours)).Float64("elevation_m", tmy.ElevationM).Msg("received tmy")

	if c.Cache != nil {
		c.Cache.Set(ctx, key, tmy)
	}
	return tmy, nil
}

// DecodePVGISTMY parses a PVGIS tmy JSON document.
func DecodePVGISTMY(raw []byte) (*TMY, error) {
	var resp PVGISTMYResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(resp.Outputs.TMYHourly) == 0 {
		return nil, fmt.Errorf("response has no tmy_hourly data")
	}
	return resp.ToTMY()
}

func upstreamMessage(body []byte, fallback string) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return fallback
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
