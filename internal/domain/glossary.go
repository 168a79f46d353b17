package domain

import "time"

const (
	SourceUser     = "user"
	SourceOfficial = "official"
)

type GlossaryEntry struct {
	ID        int64     `json:"id" yaml:"-"`
	TermEN    string    `json:"term_en" yaml:"term_en"`
	TermZH    string    `json:"term_zh" yaml:"term_zh"`
	Category  string    `json:"category" yaml:"category,omitempty"`
	Note      string    `json:"note" yaml:"note,omitempty"`
	Priority  int       `json:"priority" yaml:"priority,omitempty"`
	Source    string    `json:"source" yaml:"source,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// Hint is a glossary pair passed to a provider alongside the source text.
type Hint struct {
	EN string `json:"en"`
	ZH string `json:"zh"`
}

type GlossaryStats struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
	BySource   map[string]int `json:"by_source"`
}

// TermCandidate is a translation of a term suggested by an online source.
type TermCandidate struct {
	TermZH     string   `json:"term_zh"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"` // 0..1
	Note       string   `json:"note"`
}
