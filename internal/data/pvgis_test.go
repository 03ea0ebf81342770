package data

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pvgisSample = `{
  "inputs": {"location": {"latitude": 51.922, "longitude": 4.47, "elevation": 4.0}},
  "outputs": {
    "months_selected": [{"month": 1, "year": 2007}, {"month": 2, "year": 2012}],
    "tmy_hourly": [
      {"time(UTC)": "20070101:0000", "T2m": 6.5, "RH": 90.1, "G(h)": 0.0, "Gb(n)": 0.0, "Gd(h)": 0.0, "IR(h)": 300.2, "WS10m": 5.1, "WD10m": 220, "SP": 101200},
      {"time(UTC)": "20070101:1200", "T2m": 8.25, "RH": 80.0, "G(h)": 120.5, "Gb(n)": 210.0, "Gd(h)": 60.0, "IR(h)": 310.0, "WS10m": 4.0, "WD10m": 230, "SP": 101150},
      {"time(UTC)": "20120201:0000", "T2m": 2.0, "RH": 85.0, "G(h)": 0.0, "Gb(n)": 0.0, "Gd(h)": 0.0, "IR(h)": 280.0, "WS10m": 3.2, "WD10m": 90, "SP": 101900}
    ]
  }
}`

func TestDecodePVGISTMY(t *testing.T) {
	tmy, err := DecodePVGISTMY([]byte(pvgisSample))
	require.NoError(t, err)

	assert.InDelta(t, 4.0, tmy.ElevationM, 1e-9)
	assert.Equal(t, "pvgis", tmy.Source)
	require.Len(t, tmy.Hours, 3)

	h := tmy.Hours[1]
	assert.Equal(t, time.Date(2007, 1, 1, 12, 0, 0, 0, time.UTC), h.Time)
	assert.InDelta(t, 8.25, h.TempAir, 1e-9)
	assert.InDelta(t, 4.0, h.WindSpeed, 1e-9)
	assert.InDelta(t, 101150, h.Pressure, 1e-9)
	assert.InDelta(t, 120.5, h.GHI, 1e-9)
	assert.InDelta(t, 210.0, h.DNI, 1e-9)
	assert.InDelta(t, 60.0, h.DHI, 1e-9)
	assert.Equal(t, 2012, tmy.Hours[2].Time.Year(), "source years are kept")
}

func TestDecodePVGISTMYErrors(t *testing.T) {
	_, err := DecodePVGISTMY([]byte(`{"outputs": {"tmy_hourly": []}}`))
	assert.ErrorContains(t, err, "no tmy_hourly")

	_, err = DecodePVGISTMY([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodePVGISTMY([]byte(`{"outputs": {"tmy_hourly": [{"time(UTC)": "2007-01-01T00:00"}]}}`))
	assert.ErrorContains(t, err, "invalid time")
}

func TestPVGISClientFetchTMY(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5_2/tmy", r.URL.Path)
		gotQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pvgisSample))
	}))
	defer srv.Close()

	c := NewPVGISClient(srv.URL+"/api/v5_2/", time.Second)
	tmy, err := c.FetchTMY(context.Background(), 51.9223, 4.4697)
	require.NoError(t, err)
	assert.Len(t, tmy.Hours, 3)

	q := gotQuery.Load().(interface{ Get(string) string })
	assert.Equal(t, "51.9223", q.Get("lat"))
	assert.Equal(t, "4.4697", q.Get("lon"))
	assert.Equal(t, "json", q.Get("outputformat"))
}

func TestPVGISClientUpstreamErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "location over the sea",
			status:   http.StatusBadRequest,
			body:     `{"message": "Location over the sea. Please, select another location", "status": 400}`,
			wantCode: "NO_COVERAGE",
			wantMsg:  "Location over the sea. Please, select another location",
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     ``,
			wantCode: "RATE_LIMIT_EXCEEDED",
		},
		{
			name:     "server error",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			wantCode: "API_ERROR",
		},
		{
			name:     "undecodable body",
			status:   http.StatusOK,
			body:     `{"outputs": {}}`,
			wantCode: "DECODE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewPVGISClient(srv.URL, time.Second).FetchTMY(context.Background(), 30, -40)
			var pe *PVGISError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.wantCode, pe.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, pe.Message)
			}
		})
	}
}

func TestPVGISClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewPVGISClient(srv.URL, 50*time.Millisecond).FetchTMY(context.Background(), 51.9, 4.4)
	var pe *PVGISError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "TIMEOUT", pe.Code)
}

func TestPVGISClientUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(pvgisSample))
	}))
	defer srv.Close()

	cache := NewMemoryCache(time.Hour)
	defer cache.Close()
	c := NewPVGISClient(srv.URL, time.Second)
	c.Cache = cache

	ctx := context.Background()
	_, err := c.FetchTMY(ctx, 51.92231, 4.46971)
	require.NoError(t, err)
	_, err = c.FetchTMY(ctx, 51.922312, 4.469708)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "same rounded coordinate is served from cache")

	_, err = c.FetchTMY(ctx, 52.3676, 4.9041)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "a different coordinate is fetched")
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tmy.json")
	require.NoError(t, os.WriteFile(path, []byte(pvgisSample), 0o644))

	tmy, err := FileSource{Path: path}.FetchTMY(context.Background(), 51.92, 4.47)
	require.NoError(t, err)
	assert.Equal(t, "file:"+path, tmy.Source)
	assert.Len(t, tmy.Hours, 3)

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.FetchTMY(context.Background(), 0, 0)
	assert.Error(t, err)
}
