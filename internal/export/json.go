package export

import (
	"encoding/json"
	"os"

	"stock_go/internal/domain"
)

// JSONExporter writes bars as an indented JSON array
type JSONExporter struct{}

func (JSONExporter) Extension() string { return "json" }

func (JSONExporter) Save(bars []domain.Bar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(toRows(bars))
}
