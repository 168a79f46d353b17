// Package session remembers where a translator stopped on each mod and
// saves that position periodically.
package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rimloc/internal/domain"
	"rimloc/internal/logging"
	"rimloc/internal/ports"
)

const DefaultPageSize = 100

type Manager struct {
	sessions ports.SessionRepository
	entries  ports.EntryRepository
	pageSize int
	log      *zap.SugaredLogger
}

func NewManager(sessions ports.SessionRepository, entries ports.EntryRepository, pageSize int, log *zap.SugaredLogger) *Manager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Manager{sessions: sessions, entries: entries, pageSize: pageSize, log: logging.OrNop(log)}
}

func (m *Manager) PageSize() int { return m.pageSize }

// Save records the current page of a mod. Totals are recomputed from the
// stored entries rather than trusted from the caller.
func (m *Manager) Save(ctx context.Context, modName, modPath string, page int) (*domain.Session, error) {
	if strings.TrimSpace(modName) == "" {
		return nil, fmt.Errorf("%w: session needs a mod name", domain.ErrValidation)
	}
	if page < 0 {
		page = 0
	}
	st, err := m.entries.Statistics(ctx, modName)
	if err != nil {
		return nil, err
	}
	s := &domain.Session{
		ModName:           modName,
		ModPath:           modPath,
		TotalEntries:      st.Total,
		TranslatedEntries: st.Completed,
		CurrentPage:       page,
	}
	if err := m.sessions.Upsert(ctx, s); err != nil {
		return nil, fmt.Errorf("%w: save session: %v", domain.ErrDatabase, err)
	}
	m.log.Debugw("session saved", "mod", modName, "page", page, "translated", st.Completed, "total", st.Total)
	return s, nil
}

type Resumed struct {
	Session *domain.Session `json:"session"`
	Entries []*domain.Entry `json:"entries"`
}

// Resume loads a session and the page of entries it points at.
func (m *Manager) Resume(ctx context.Context, modName string) (*Resumed, error) {
	s, err := m.sessions.Get(ctx, modName)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: no session for %s", domain.ErrNotFound, modName)
	}
	entries, err := m.entries.List(ctx, domain.EntryFilter{
		ModName: modName,
		Limit:   m.pageSize,
		Offset:  s.CurrentPage * m.pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &Resumed{Session: s, Entries: entries}, nil
}

// Latest returns the most recently saved session, or nil.
func (m *Manager) Latest(ctx context.Context) (*domain.Session, error) {
	all, err := m.sessions.List(ctx)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (m *Manager) List(ctx context.Context) ([]*domain.Session, error) {
	return m.sessions.List(ctx)
}

func (m *Manager) Delete(ctx context.Context, modName string) error {
	return m.sessions.Delete(ctx, modName)
}
