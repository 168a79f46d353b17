package domain

import "time"

// Entry statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusSkipped    = "skipped"
	StatusFailed     = "failed"
)

// ValidStatus reports whether s is a known entry status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusSkipped, StatusFailed:
		return true
	}
	return false
}

// Entry is one translatable string extracted from a mod's language files.
type Entry struct {
	ID             int64     `json:"id"`
	ModName        string    `json:"mod_name"`
	FilePath       string    `json:"file_path"` // relative to mod root, forward slashes
	XMLPath        string    `json:"xml_path"`  // element tag, e.g. Beer.label
	OriginalText   string    `json:"original_text"`
	TranslatedText string    `json:"translated_text"`
	Comment        string    `json:"comment"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Translated reports whether the entry carries a non-blank translation.
func (e *Entry) Translated() bool {
	for _, r := range e.TranslatedText {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}

type EntryFilter struct {
	ModName string
	Status  string // empty means any
	Search  string // substring of original or translated text
	Limit   int
	Offset  int
}

type Statistics struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Percent returns completed/total in percent, 0 when empty.
func (s Statistics) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total) * 100
}

// ModInfo describes a scanned mod directory.
type ModInfo struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	PackageID string   `json:"package_id"`
	Author    string   `json:"author"`
	Languages []string `json:"languages"`
}

// ModRecord is a mod remembered in the recent list.
type ModRecord struct {
	ID           int64     `json:"id"`
	ModName      string    `json:"mod_name"`
	ModPath      string    `json:"mod_path"`
	RootPath     string    `json:"root_path"`
	AddedAt      time.Time `json:"added_at"`
	LastAccessed time.Time `json:"last_accessed"`
}
