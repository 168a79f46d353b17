package domain

import "time"

type MemoryEntry struct {
	ID         int64     `json:"id"`
	SourceText string    `json:"source_text"`
	TargetText string    `json:"target_text"`
	SourceHash string    `json:"source_hash"`
	Context    string    `json:"context"`
	UseCount   int       `json:"use_count"`
	LastUsed   time.Time `json:"last_used"`
	CreatedAt  time.Time `json:"created_at"`
}

// Match kinds.
const (
	MatchExact    = "exact"
	MatchFuzzy    = "fuzzy"
	MatchGlossary = "glossary"
)

// Match is a translation-memory hit for a source string.
type Match struct {
	Kind       string  `json:"kind"`
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Similarity float64 `json:"similarity"`
	UseCount   int     `json:"use_count"`
}

type MemoryStats struct {
	TotalEntries int     `json:"total_entries"`
	TotalUses    int     `json:"total_uses"`
	AvgUses      float64 `json:"avg_uses"`
}
