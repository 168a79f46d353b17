// Package jsonmap exports translations as a flat {"key": "translation"} object.
package jsonmap

import (
	"bytes"
	"encoding/json"

	"rimloc/internal/ports"
)

type Exporter struct{}

func New() *Exporter { return &Exporter{} }

func (e *Exporter) Format() string { return "json" }

func (e *Exporter) Extension() string { return ".json" }

func (e *Exporter) Export(_ string, items []ports.ExportItem) ([]byte, error) {
	out := make(map[string]string, len(items))
	for _, it := range items {
		v := it.Translation
		if v == "" {
			v = it.SourceText
		}
		out[it.Key] = v
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
