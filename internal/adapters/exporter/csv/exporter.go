// Package csv exports translations as key,source,translation rows.
package csv

import (
	"bytes"
	"encoding/csv"
	"strings"

	"rimloc/internal/ports"
)

type Exporter struct{}

func New() *Exporter { return &Exporter{} }

func (e *Exporter) Format() string { return "csv" }

func (e *Exporter) Extension() string { return ".csv" }

// Export writes a header and one row per item. A language of the form
// "sep:semicolon" or "sep:tab" selects the separator.
func (e *Exporter) Export(language string, items []ports.ExportItem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if strings.HasPrefix(strings.ToLower(language), "sep:") {
		switch strings.TrimSpace(strings.ToLower(strings.TrimPrefix(language, "sep:"))) {
		case "semicolon":
			w.Comma = ';'
		case "tab":
			w.Comma = '\t'
		}
	}
	if err := w.Write([]string{"key", "source", "translation", "comment"}); err != nil {
		return nil, err
	}
	for _, it := range items {
		if err := w.Write([]string{it.Key, it.SourceText, it.Translation, it.Comment}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
