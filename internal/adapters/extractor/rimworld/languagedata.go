package rimworld

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rimloc/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Element is one translatable child of a <LanguageData> document.
type Element struct {
	Tag     string
	Text    string
	Comment string // text of a directly preceding "EN:" comment, without the prefix
}

// ParseLanguageData reads the direct children of the document root.
// List fields (<li> children) are flattened to Tag.0, Tag.1 and so on.
// Elements without text are dropped.
func ParseLanguageData(data []byte) ([]Element, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		out     []Element
		depth   int
		comment string
		cur     *elementState
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrXMLParse, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 2:
				cur = &elementState{tag: t.Name.Local, comment: comment}
				comment = ""
			case 3:
				if cur != nil && t.Name.Local == "li" {
					cur.inItem = true
					cur.items = append(cur.items, "")
				}
			}
		case xml.EndElement:
			if depth == 2 && cur != nil {
				out = append(out, cur.elements()...)
				cur = nil
			}
			if depth == 3 && cur != nil {
				cur.inItem = false
			}
			depth--
		case xml.CharData:
			if cur == nil {
				if depth == 1 && len(bytes.TrimSpace(t)) > 0 {
					comment = ""
				}
				continue
			}
			switch {
			case depth == 2:
				cur.text.Write(t)
			case depth == 3 && cur.inItem:
				cur.items[len(cur.items)-1] += string(t)
			}
		case xml.Comment:
			if depth == 1 {
				comment = parseENComment(string(t))
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unexpected end of document", domain.ErrXMLParse)
	}
	return out, nil
}

type elementState struct {
	tag     string
	comment string
	text    strings.Builder
	items   []string
	inItem  bool
}

func (s *elementState) elements() []Element {
	if len(s.items) > 0 {
		out := make([]Element, 0, len(s.items))
		for i, it := range s.items {
			it = strings.TrimSpace(it)
			if it == "" {
				continue
			}
			out = append(out, Element{Tag: s.tag + "." + strconv.Itoa(i), Text: it})
		}
		return out
	}
	text := strings.TrimSpace(s.text.String())
	if text == "" {
		return nil
	}
	return []Element{{Tag: s.tag, Text: text, Comment: s.comment}}
}

func parseENComment(c string) string {
	c = strings.TrimSpace(c)
	if !strings.HasPrefix(c, "EN:") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(c, "EN:"))
}
