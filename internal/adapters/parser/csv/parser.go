// Package csvparser reads translation exchange files with a header row.
package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Format() string { return "csv" }

// Parse needs a key column and a translation column. A source column is
// optional and, when present, lets the importer detect stale rows.
func (p *Parser) Parse(data []byte) (ports.ParseResult, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return ports.ParseResult{}, fmt.Errorf("%w: csv header: %v", domain.ErrValidation, err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	keyIdx, ok := idx["key"]
	if !ok {
		return ports.ParseResult{}, fmt.Errorf("%w: csv missing 'key' column", domain.ErrValidation)
	}
	trIdx := column(idx, "translation", "target", "zh")
	if trIdx == -1 {
		return ports.ParseResult{}, fmt.Errorf("%w: csv missing translation column (translation/target/zh)", domain.ErrValidation)
	}
	srcIdx := column(idx, "source", "original", "en")

	var pairs []ports.Pair
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ports.ParseResult{}, fmt.Errorf("%w: csv: %v", domain.ErrValidation, err)
		}
		key := strings.TrimSpace(field(rec, keyIdx))
		if key == "" {
			continue
		}
		pairs = append(pairs, ports.Pair{Key: key, Source: field(rec, srcIdx), Translation: field(rec, trIdx)})
	}
	return ports.ParseResult{Pairs: pairs}, nil
}

func column(idx map[string]int, names ...string) int {
	for _, n := range names {
		if i, ok := idx[n]; ok {
			return i
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
