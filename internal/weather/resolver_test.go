package weather

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"pv-configurator/internal/data"
	"pv-configurator/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	tmy   *data.TMY
	err   error
	wait  bool
	calls atomic.Int32
}

func (f *fakeSource) FetchTMY(ctx context.Context, lat, lon float64) (*data.TMY, error) {
	f.calls.Add(1)
	if f.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.tmy, f.err
}

// mixedYearTMY mimics a PVGIS TMY: each month comes from a different source year.
// With leapDay the February month keeps its 29th.
func mixedYearTMY(leapDay bool) *data.TMY {
	years := [12]int{2007, 2012, 2016, 2009, 2011, 2013, 2006, 2015, 2010, 2008, 2014, 2005}
	tmy := &data.TMY{ElevationM: 4, Source: "fake"}
	for m := time.January; m <= time.December; m++ {
		y := years[m-1]
		start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		for ts := start; ts.Before(end); ts = ts.Add(time.Hour) {
			if ts.Month() == time.February && ts.Day() == 29 && !leapDay {
				continue
			}
			tmy.Hours = append(tmy.Hours, data.TMYHour{Time: ts, TempAir: 10, WindSpeed: 3, Pressure: 101300, GHI: 0})
		}
	}
	return tmy
}

func TestResolve(t *testing.T) {
	src := &fakeSource{tmy: mixedYearTMY(false)}
	r := NewResolver(src)

	res, err := r.Resolve(context.Background(), 51.9223, 4.4697)
	require.NoError(t, err)

	require.Len(t, res.Weather, model.HoursPerYear)
	require.Len(t, res.Positions, model.HoursPerYear)
	assert.InDelta(t, 4, res.AltitudeM, 1e-12)
	assert.Equal(t, "fake", res.Source)
	assert.Equal(t, time.Date(DefaultYear, 1, 1, 0, 0, 0, 0, time.UTC), res.Weather[0].Time)
	assert.Equal(t, time.Date(DefaultYear, 12, 31, 23, 0, 0, 0, time.UTC), res.Weather[len(res.Weather)-1].Time)
	assert.NoError(t, res.Weather.Validate())
	assert.Less(t, res.Positions[12].ApparentZenith, 90.0)
	assert.Greater(t, res.Positions[0].ApparentZenith, 90.0)
}

func TestResolveLeapYearData(t *testing.T) {
	res, err := NewResolver(&fakeSource{tmy: mixedYearTMY(true)}).Resolve(context.Background(), 51.9, 4.4)
	require.NoError(t, err)
	require.Len(t, res.Weather, model.HoursPerLeapYear)
	assert.Equal(t, 2012, res.Weather[0].Time.Year())
}

func TestCoerceYear(t *testing.T) {
	tmy := mixedYearTMY(false)
	first := tmy.Hours[len(tmy.Hours)-1].Time

	w, err := CoerceYear(tmy, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2023, w[0].Time.Year(), "data without Feb 29 goes to a common year")
	assert.Equal(t, first, tmy.Hours[len(tmy.Hours)-1].Time, "input untouched")

	w, err = CoerceYear(mixedYearTMY(true), 2021)
	require.NoError(t, err)
	assert.Equal(t, 2024, w[0].Time.Year())

	_, err = CoerceYear(&data.TMY{}, 2010)
	require.Error(t, err)
	assert.False(t, errors.Is(err, model.ErrInvalidInput), "bad upstream data is not a caller error")
}

func TestResolveInvalidCoordinates(t *testing.T) {
	src := &fakeSource{tmy: mixedYearTMY(false)}
	r := NewResolver(src)

	for _, c := range [][2]float64{{91, 0}, {-91, 0}, {0, 181}, {0, -180.5}} {
		_, err := r.Resolve(context.Background(), c[0], c[1])
		assert.True(t, errors.Is(err, model.ErrInvalidInput), "%v", c)
	}
	assert.Equal(t, int32(0), src.calls.Load(), "validated before fetching")
}

func TestResolveUnavailable(t *testing.T) {
	overSea := &data.PVGISError{StatusCode: 400, Code: "NO_COVERAGE", Message: "Location over the sea. Please, select another location"}
	short := mixedYearTMY(false)
	short.Hours = short.Hours[:1000]

	tests := []struct {
		name string
		src  *fakeSource
		opts []Option
	}{
		{"upstream error", &fakeSource{err: overSea}, nil},
		{"timeout", &fakeSource{wait: true}, []Option{WithTimeout(20 * time.Millisecond)}},
		{"incomplete year", &fakeSource{tmy: short}, nil},
		{"empty year", &fakeSource{tmy: &data.TMY{}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(tt.src, tt.opts...).Resolve(context.Background(), 30, -40)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrLocationDataUnavailable))
			assert.False(t, errors.Is(err, model.ErrInvalidInput))
			assert.True(t, model.IsRetryable(err))
		})
	}

	_, err := NewResolver(&fakeSource{err: overSea}).Resolve(context.Background(), 30, -40)
	var pe *data.PVGISError
	require.True(t, errors.As(err, &pe), "cause is kept")
	assert.Equal(t, "NO_COVERAGE", pe.Code)
}
