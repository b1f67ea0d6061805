package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"stock_go/internal/domain"
)

// CSVExporter writes bars as CSV (header: t,o,h,l,c,v)
type CSVExporter struct{}

func (CSVExporter) Extension() string { return "csv" }

func (CSVExporter) Save(bars []domain.Bar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"t", "o", "h", "l", "c", "v"}); err != nil {
		return err
	}
	for _, row := range toRows(bars) {
		if err := w.Write([]string{
			strconv.FormatInt(row.Timestamp, 10),
			floatStr(row.Open),
			floatStr(row.High),
			floatStr(row.Low),
			floatStr(row.Close),
			strconv.FormatInt(row.Volume, 10),
		}); err != nil {
			return err
		}
	}
	return nil
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
