package domain

import "time"

// Session tracks where a translator stopped working on a mod.
type Session struct {
	ID                int64     `json:"id"`
	ModName           string    `json:"mod_name"`
	ModPath           string    `json:"mod_path"`
	TotalEntries      int       `json:"total_entries"`
	TranslatedEntries int       `json:"translated_entries"`
	CurrentPage       int       `json:"current_page"`
	LastSave          time.Time `json:"last_save"`
	CreatedAt         time.Time `json:"created_at"`
}

func (s *Session) Progress() float64 {
	if s.TotalEntries == 0 {
		return 0
	}
	return float64(s.TranslatedEntries) / float64(s.TotalEntries) * 100
}
