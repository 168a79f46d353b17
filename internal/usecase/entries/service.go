// Package entries covers manual work on extracted strings: browsing,
// editing, skipping, and housekeeping of the mods they belong to.
package entries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rimloc/internal/domain"
	"rimloc/internal/logging"
	"rimloc/internal/ports"
)

type MemoryWriter interface {
	Save(ctx context.Context, source, target, origin string) error
}

type Deps struct {
	Entries  ports.EntryRepository
	Mods     ports.ModListRepository
	Sessions ports.SessionRepository
	Memory   MemoryWriter // optional; manual edits are remembered when set
	Log      *zap.SugaredLogger
}

type Service struct {
	d   Deps
	log *zap.SugaredLogger
}

func New(d Deps) *Service { return &Service{d: d, log: logging.OrNop(d.Log)} }

type Page struct {
	Entries []*domain.Entry `json:"entries"`
	Total   int             `json:"total"`
}

// List returns one page of entries plus the total matching the filter.
func (s *Service) List(ctx context.Context, f domain.EntryFilter) (Page, error) {
	if f.Status != "" && !domain.ValidStatus(f.Status) {
		return Page{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, f.Status)
	}
	total, err := s.d.Entries.Count(ctx, f)
	if err != nil {
		return Page{}, err
	}
	list, err := s.d.Entries.List(ctx, f)
	if err != nil {
		return Page{}, err
	}
	return Page{Entries: list, Total: total}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Entry, error) {
	e, err := s.d.Entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: entry %d", domain.ErrNotFound, id)
	}
	return e, nil
}

// Edit stores a manual translation. Blank text puts the entry back to
// pending; anything else completes it and feeds translation memory.
func (s *Service) Edit(ctx context.Context, id int64, text string) (*domain.Entry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if err := s.d.Entries.UpdateTranslation(ctx, id, text, ""); err != nil {
		return nil, err
	}
	if text != "" && s.d.Memory != nil {
		if err := s.d.Memory.Save(ctx, e.OriginalText, text, e.XMLPath); err != nil {
			s.log.Warnw("memory save failed", "id", id, "err", err)
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) Skip(ctx context.Context, id int64) error {
	return s.d.Entries.UpdateStatus(ctx, id, domain.StatusSkipped)
}

// Reset clears the translation and returns the entry to pending.
func (s *Service) Reset(ctx context.Context, id int64) error {
	return s.d.Entries.UpdateTranslation(ctx, id, "", domain.StatusPending)
}

func (s *Service) SetStatus(ctx context.Context, id int64, status string) error {
	return s.d.Entries.UpdateStatus(ctx, id, status)
}

func (s *Service) Progress(ctx context.Context, modName string) (domain.Statistics, error) {
	return s.d.Entries.Statistics(ctx, modName)
}

type ModSummary struct {
	Name   string            `json:"name"`
	Record *domain.ModRecord `json:"record,omitempty"` // nil for mods with entries but no list record
	Stats  domain.Statistics `json:"stats"`
}

// Mods lists remembered mods, most recently used first, followed by any
// mod that has entries but was never added to the list.
func (s *Service) Mods(ctx context.Context) ([]ModSummary, error) {
	var out []ModSummary
	seen := map[string]bool{}
	if s.d.Mods != nil {
		recs, err := s.d.Mods.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			seen[r.ModName] = true
			out = append(out, ModSummary{Name: r.ModName, Record: r})
		}
	}
	names, err := s.d.Entries.ModNames(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if !seen[n] {
			out = append(out, ModSummary{Name: n})
		}
	}
	for i := range out {
		if out[i].Stats, err = s.d.Entries.Statistics(ctx, out[i].Name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Open marks a mod as just used and returns its record.
func (s *Service) Open(ctx context.Context, modName string) (*domain.ModRecord, error) {
	if s.d.Mods == nil {
		return nil, fmt.Errorf("%w: mod list", domain.ErrNotFound)
	}
	rec, err := s.d.Mods.Get(ctx, modName)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, modName)
	}
	if err := s.d.Mods.Touch(ctx, modName); err != nil {
		return nil, err
	}
	return rec, nil
}

// RemoveMod drops a mod from the recent list. With purge its entries and
// session are deleted too; translation memory is kept either way.
func (s *Service) RemoveMod(ctx context.Context, modName string, purge bool) (int64, error) {
	if s.d.Mods != nil {
		if err := s.d.Mods.Remove(ctx, modName); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return 0, err
		}
	}
	if !purge {
		return 0, nil
	}
	n, err := s.d.Entries.DeleteByMod(ctx, modName)
	if err != nil {
		return 0, err
	}
	if s.d.Sessions != nil {
		if err := s.d.Sessions.Delete(ctx, modName); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return n, err
		}
	}
	s.log.Infow("mod removed", "mod", modName, "entries", n)
	return n, nil
}
