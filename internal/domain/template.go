package domain

import "time"

type Template struct {
	ID        int64     `json:"id"`
	Scope     string    `json:"scope"` // global | provider
	Ref       string    `json:"ref"`   // provider name when scope is provider
	Type      string    `json:"type"`  // translate_single
	Role      string    `json:"role"`  // system | user
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}
