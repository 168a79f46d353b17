package session

import (
	"context"
	"sync"
)

// Position is where the user currently is inside a mod.
type Position struct {
	ModName string `json:"mod_name"`
	ModPath string `json:"mod_path"`
	Page    int    `json:"page"`
}

// Tracker holds the current position and persists it through a Manager.
// Its Save method is the callback handed to AutoSaver.
type Tracker struct {
	m *Manager

	mu    sync.Mutex
	pos   Position
	dirty bool
}

func NewTracker(m *Manager) *Tracker { return &Tracker{m: m} }

// Track records the position without writing it.
func (t *Tracker) Track(p Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.Page < 0 {
		p.Page = 0
	}
	if p != t.pos {
		t.pos = p
		t.dirty = true
	}
}

func (t *Tracker) Current() Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

// Save writes the tracked position if it changed since the last save.
// Nothing is written while no mod is tracked.
func (t *Tracker) Save(ctx context.Context) error {
	t.mu.Lock()
	p, dirty := t.pos, t.dirty
	t.mu.Unlock()
	if !dirty || p.ModName == "" {
		return nil
	}
	if _, err := t.m.Save(ctx, p.ModName, p.ModPath, p.Page); err != nil {
		return err
	}
	t.mu.Lock()
	if t.pos == p {
		t.dirty = false
	}
	t.mu.Unlock()
	return nil
}

// Flush saves the tracked position regardless of whether it changed.
func (t *Tracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	t.dirty = true
	t.mu.Unlock()
	return t.Save(ctx)
}
