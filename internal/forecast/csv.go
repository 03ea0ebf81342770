package forecast

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"pv-configurator/internal/model"
)

// WriteCSV writes the forecast ledger to path.
func WriteCSV(path string, s model.ForecastSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Write(f, s); err != nil {
		return err
	}
	return f.Close()
}

// Write streams the forecast ledger as CSV.
func Write(out io.Writer, s model.ForecastSeries) error {
	w := csv.NewWriter(out)

	header := []string{
		"index",
		"time_utc",
		"revenue",
		"cumulative_revenue",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, p := range s {
		row := []string{
			strconv.Itoa(i),
			fmtTime(p.Time),
			fmtFloat(p.Revenue),
			fmtFloat(p.CumulativeRevenue),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
