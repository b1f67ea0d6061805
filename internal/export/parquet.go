package export

import (
	"stock_go/internal/domain"

	"github.com/parquet-go/parquet-go"
)

// ParquetExporter writes bars as a Parquet file
type ParquetExporter struct{}

func (ParquetExporter) Extension() string { return "parquet" }

func (ParquetExporter) Save(bars []domain.Bar, path string) error {
	return parquet.WriteFile(path, toRows(bars))
}
