// Package glossaryfile reads and writes glossary exchange files: CSV with a
// term_en,term_zh,category,priority,note header, and YAML.
package glossaryfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"rimloc/internal/domain"
)

// Columns is the CSV header written by WriteCSV.
var Columns = []string{"term_en", "term_zh", "category", "priority", "note"}

var bom = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a glossary CSV. The header must name term_en and term_zh;
// category, priority, note and source are optional. Rows with a blank term
// are skipped and an unparsable priority reads as 0.
func ReadCSV(r io.Reader) ([]*domain.GlossaryEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, bom)))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty glossary file", domain.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: csv header: %v", domain.ErrValidation, err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"term_en", "term_zh"} {
		if _, ok := col[req]; !ok {
			return nil, fmt.Errorf("%w: csv missing %q column", domain.ErrValidation, req)
		}
	}
	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []*domain.GlossaryEntry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: %v", domain.ErrValidation, line, err)
		}
		g := &domain.GlossaryEntry{
			TermEN:   get(rec, "term_en"),
			TermZH:   get(rec, "term_zh"),
			Category: get(rec, "category"),
			Note:     get(rec, "note"),
			Source:   normalizeSource(get(rec, "source")),
		}
		if g.TermEN == "" || g.TermZH == "" {
			continue
		}
		g.Priority, _ = strconv.Atoi(get(rec, "priority"))
		out = append(out, g)
	}
	return out, nil
}

// WriteCSV writes a UTF-8 BOM, the header and one row per entry.
func WriteCSV(w io.Writer, entries []*domain.GlossaryEntry) error {
	if _, err := w.Write(bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, g := range entries {
		if err := cw.Write([]string{g.TermEN, g.TermZH, g.Category, strconv.Itoa(g.Priority), g.Note}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type yamlDoc struct {
	Terms []*domain.GlossaryEntry `yaml:"terms"`
}

func ReadYAML(r io.Reader) ([]*domain.GlossaryEntry, error) {
	var doc yamlDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: yaml: %v", domain.ErrValidation, err)
	}
	out := doc.Terms[:0]
	for _, g := range doc.Terms {
		if g == nil {
			continue
		}
		g.TermEN = strings.TrimSpace(g.TermEN)
		g.TermZH = strings.TrimSpace(g.TermZH)
		if g.TermEN == "" || g.TermZH == "" {
			continue
		}
		g.Source = normalizeSource(g.Source)
		out = append(out, g)
	}
	return out, nil
}

func WriteYAML(w io.Writer, entries []*domain.GlossaryEntry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlDoc{Terms: entries}); err != nil {
		return err
	}
	return enc.Close()
}

func normalizeSource(s string) string {
	if strings.EqualFold(s, domain.SourceOfficial) {
		return domain.SourceOfficial
	}
	return domain.SourceUser
}
