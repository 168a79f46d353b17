// Package batch translates many entries through one provider, consulting
// translation memory first and persisting each result as it completes.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rimloc/internal/domain"
	"rimloc/internal/logging"
	"rimloc/internal/usecase/glossary"
	"rimloc/internal/usecase/translator"
)

// Where a translation came from.
const (
	SourceExisting = "existing"
	SourceMemory   = "memory"
	SourceProvider = "provider"
)

// ItemTimeout bounds a single provider call.
const ItemTimeout = 60 * time.Second

type Translator interface {
	Translate(ctx context.Context, providerName string, u translator.Unit) (translator.Output, error)
}

type Memory interface {
	Find(ctx context.Context, text string, fuzzy bool) (*domain.Match, error)
	Save(ctx context.Context, source, target, origin string) error
}

type EntryStore interface {
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateTranslation(ctx context.Context, id int64, text, status string) error
}

type Deps struct {
	Entries         EntryStore
	Translator      Translator
	Providers       translator.ProviderLookup
	Memory          Memory // optional
	DefaultProvider string // empty defers to the lookup's own default
	Log             *zap.SugaredLogger
}

type Service struct {
	d   Deps
	log *zap.SugaredLogger
}

func New(d Deps) *Service { return &Service{d: d, log: logging.OrNop(d.Log)} }

// Progress is reported once per finished entry.
type Progress struct {
	Done   int
	Total  int
	Entry  *domain.Entry
	Source string
	Err    error
}

type Options struct {
	Provider    string // empty means the configured default
	UseMemory   bool
	Concurrency int // <= 0 means 1
	OnStart     func(e *domain.Entry)
	OnProgress  func(p Progress)
}

type Result struct {
	Success    int             `json:"success"`
	Failed     int             `json:"failed"`
	MemoryHits int             `json:"memory_hits"`
	Entries    []*domain.Entry `json:"entries"`
}

// Run translates entries in place and returns them in input order. An
// unknown provider fails every entry without calling anything.
func (s *Service) Run(ctx context.Context, entries []*domain.Entry, o Options) (Result, error) {
	res := Result{Entries: entries}
	name := o.Provider
	if name == "" {
		name = s.d.DefaultProvider
	}
	prov, err := s.d.Providers.Lookup(name)
	if err != nil {
		res.Failed = len(entries)
		return res, err
	}
	name = prov.Name()
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}

	var (
		mu   sync.Mutex
		done int
	)
	report := func(e *domain.Entry, source string, err error) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if err != nil {
			res.Failed++
		} else {
			res.Success++
			if source == SourceMemory {
				res.MemoryHits++
			}
		}
		if o.OnProgress != nil {
			o.OnProgress(Progress{Done: done, Total: len(entries), Entry: e, Source: source, Err: err})
		}
	}

	var g errgroup.Group
	g.SetLimit(o.Concurrency)
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if o.OnStart != nil {
				o.OnStart(e)
			}
			source, err := s.one(ctx, name, e, o.UseMemory)
			report(e, source, err)
			return nil
		})
	}
	_ = g.Wait()
	s.log.Infow("batch finished", "provider", name, "success", res.Success, "failed", res.Failed, "memory_hits", res.MemoryHits)
	return res, ctx.Err()
}

func (s *Service) one(ctx context.Context, providerName string, e *domain.Entry, useMemory bool) (string, error) {
	if e.Translated() {
		if e.Status != domain.StatusCompleted {
			e.Status = domain.StatusCompleted
			if err := s.persistStatus(ctx, e); err != nil {
				return SourceExisting, err
			}
		}
		return SourceExisting, nil
	}
	if useMemory && s.d.Memory != nil {
		m, err := s.d.Memory.Find(ctx, e.OriginalText, false)
		if err != nil {
			s.log.Warnw("memory lookup failed", "key", e.XMLPath, "err", err)
		} else if m != nil {
			e.TranslatedText = m.Target
			e.Status = domain.StatusCompleted
			return SourceMemory, s.persist(ctx, e)
		}
	}

	ictx, cancel := context.WithTimeout(ctx, ItemTimeout)
	out, err := s.d.Translator.Translate(ictx, providerName, translator.UnitOf(e))
	cancel()
	if err != nil {
		e.Status = domain.StatusFailed
		if perr := s.persistStatus(ctx, e); perr != nil {
			s.log.Warnw("status update failed", "id", e.ID, "err", perr)
		}
		s.log.Warnw("translation failed", "provider", providerName, "key", e.XMLPath, "err", err)
		return SourceProvider, err
	}
	e.TranslatedText = out.Text
	e.Status = domain.StatusCompleted
	if v := glossary.Violations(out.Hints, out.Text); len(v) > 0 {
		s.log.Warnw("glossary terms not used", "key", e.XMLPath, "terms", v)
	}
	if err := s.persist(ctx, e); err != nil {
		return SourceProvider, err
	}
	if s.d.Memory != nil {
		if err := s.d.Memory.Save(ctx, e.OriginalText, e.TranslatedText, e.XMLPath); err != nil {
			s.log.Warnw("memory save failed", "key", e.XMLPath, "err", err)
		}
	}
	return SourceProvider, nil
}

func (s *Service) persist(ctx context.Context, e *domain.Entry) error {
	if e.ID == 0 || s.d.Entries == nil {
		return nil
	}
	if err := s.d.Entries.UpdateTranslation(ctx, e.ID, e.TranslatedText, e.Status); err != nil {
		return fmt.Errorf("save entry %d: %w", e.ID, err)
	}
	return nil
}

func (s *Service) persistStatus(ctx context.Context, e *domain.Entry) error {
	if e.ID == 0 || s.d.Entries == nil {
		return nil
	}
	return s.d.Entries.UpdateStatus(ctx, e.ID, e.Status)
}
