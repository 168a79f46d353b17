// Package languagedata writes RimWorld <LanguageData> XML files.
package languagedata

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

type Exporter struct{}

func New() *Exporter { return &Exporter{} }

func (e *Exporter) Format() string { return "languagedata" }

func (e *Exporter) Extension() string { return ".xml" }

// Export renders items in order. An item's Comment becomes a preceding
// <!-- EN: ... --> line and an item with List renders as <li> children.
// The language argument is unused; the target language is carried by the
// output path.
func (e *Exporter) Export(_ string, items []ports.ExportItem) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n<LanguageData>\n")
	for _, it := range items {
		if !validTag(it.Key) {
			return nil, fmt.Errorf("%w: invalid element name %q", domain.ErrValidation, it.Key)
		}
		if it.Comment != "" {
			fmt.Fprintf(&b, "  <!-- EN: %s -->\n", commentSafe(it.Comment))
		}
		if it.List != nil {
			if err := writeList(&b, it.Key, it.List); err != nil {
				return nil, err
			}
			continue
		}
		v := it.Translation
		if v == "" {
			v = it.SourceText
		}
		fmt.Fprintf(&b, "  <%s>", it.Key)
		if err := xml.EscapeText(&b, []byte(v)); err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "</%s>\n", it.Key)
	}
	b.WriteString("</LanguageData>\n")
	return b.Bytes(), nil
}

func writeList(b *bytes.Buffer, key string, items []string) error {
	fmt.Fprintf(b, "  <%s>\n", key)
	for _, v := range items {
		b.WriteString("    <li>")
		if err := xml.EscapeText(b, []byte(v)); err != nil {
			return err
		}
		b.WriteString("</li>\n")
	}
	fmt.Fprintf(b, "  </%s>\n", key)
	return nil
}

// "--" may not appear inside an XML comment.
func commentSafe(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "- -")
	}
	return strings.TrimSuffix(s, "-")
}

func validTag(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == ':' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r > 0x7F:
		case i > 0 && (r == '-' || r == '.' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}
