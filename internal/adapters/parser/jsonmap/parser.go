// Package jsonmap reads a flat {"key": "translation"} object.
package jsonmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Format() string { return "json" }

func (p *Parser) Parse(data []byte) (ports.ParseResult, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return ports.ParseResult{}, fmt.Errorf("%w: invalid json: %v", domain.ErrValidation, err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		// $schema and similar metadata
		if len(k) > 0 && k[0] == '$' {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]ports.Pair, 0, len(keys))
	for _, k := range keys {
		s, ok := m[k].(string)
		if !ok {
			continue
		}
		pairs = append(pairs, ports.Pair{Key: k, Translation: s})
	}
	return ports.ParseResult{Pairs: pairs}, nil
}
