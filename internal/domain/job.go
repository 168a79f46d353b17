package domain

import "time"

// Job records one background batch run.
type Job struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`   // translate_mod, translate_entries
	Status    string    `json:"status"` // queued, running, done, failed, canceled
	ModName   string    `json:"mod_name"`
	Provider  string    `json:"provider"`
	ParamsRaw string    `json:"params_json"`
	Progress  int       `json:"progress"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type JobItem struct {
	ID        int64     `json:"id"`
	JobID     int64     `json:"job_id"`
	EntryID   *int64    `json:"entry_id"`
	Status    string    `json:"status"`
	Source    string    `json:"source"` // memory, provider
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type JobLog struct {
	ID      int64     `json:"id"`
	JobID   int64     `json:"job_id"`
	Time    time.Time `json:"ts"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}
