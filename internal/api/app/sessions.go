package app

import (
	"context"

	"rimloc/internal/domain"
	"rimloc/internal/usecase/session"
)

type SessionAPI struct {
	m       *session.Manager
	tracker *session.Tracker
	auto    *session.AutoSaver
}

func NewSessionAPI(m *session.Manager, tracker *session.Tracker, auto *session.AutoSaver) *SessionAPI {
	return &SessionAPI{m: m, tracker: tracker, auto: auto}
}

// Track tells the auto saver where the user is. The frontend calls it on
// every page change.
func (a *SessionAPI) Track(p session.Position) { a.tracker.Track(p) }

func (a *SessionAPI) Current() session.Position { return a.tracker.Current() }

// Save writes a position immediately and makes it the tracked one.
func (a *SessionAPI) Save(p session.Position) (*domain.Session, error) {
	a.tracker.Track(p)
	return a.m.Save(context.Background(), p.ModName, p.ModPath, p.Page)
}

// Resume loads a mod's session and starts tracking from it.
func (a *SessionAPI) Resume(modName string) (*session.Resumed, error) {
	r, err := a.m.Resume(context.Background(), modName)
	if err != nil {
		return nil, err
	}
	a.tracker.Track(session.Position{ModName: r.Session.ModName, ModPath: r.Session.ModPath, Page: r.Session.CurrentPage})
	return r, nil
}

func (a *SessionAPI) Latest() (*domain.Session, error) { return a.m.Latest(context.Background()) }

func (a *SessionAPI) List() ([]*domain.Session, error) { return a.m.List(context.Background()) }

func (a *SessionAPI) Delete(modName string) error { return a.m.Delete(context.Background(), modName) }

func (a *SessionAPI) PageSize() int { return a.m.PageSize() }

type AutoSaveDTO struct {
	Active          bool `json:"active"`
	IntervalSeconds int  `json:"interval_seconds"`
}

func (a *SessionAPI) AutoSave() AutoSaveDTO {
	return AutoSaveDTO{Active: a.auto.Active(), IntervalSeconds: int(a.auto.Interval().Seconds())}
}
