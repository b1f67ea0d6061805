package export

import (
	"strings"

	"stock_go/internal/domain"
)

// barRow is the flat serialization row shared by every output format
type barRow struct {
	Timestamp int64   `json:"t" parquet:"t"` // Unix milliseconds, session close
	Open      float64 `json:"o" parquet:"o"`
	High      float64 `json:"h" parquet:"h"`
	Low       float64 `json:"l" parquet:"l"`
	Close     float64 `json:"c" parquet:"c"`
	Volume    int64   `json:"v" parquet:"v"`
}

// Exporter persists one instrument's bar sequence to a file
type Exporter interface {
	Save(bars []domain.Bar, path string) error
	Extension() string
}

// NewExporter creates an implementation by format (csv, json, parquet).
// Returns nil if the format is not supported.
func NewExporter(format string) Exporter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVExporter{}
	case "json":
		return JSONExporter{}
	case "parquet":
		return ParquetExporter{}
	default:
		return nil
	}
}

func toRows(bars []domain.Bar) []barRow {
	rows := make([]barRow, len(bars))
	for i, b := range bars {
		rows[i] = barRow{
			Timestamp: b.Timestamp.UnixMilli(),
			Open:      b.Open.InexactFloat64(),
			High:      b.High.InexactFloat64(),
			Low:       b.Low.InexactFloat64(),
			Close:     b.Close.InexactFloat64(),
			Volume:    b.Volume,
		}
	}
	return rows
}
