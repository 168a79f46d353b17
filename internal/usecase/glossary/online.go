package glossary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"rimloc/internal/adapters/llm/ratelimit"
	"rimloc/internal/domain"
)

// TermSource suggests translations of one English term.
type TermSource interface {
	Name() string
	Search(ctx context.Context, term string) ([]domain.TermCandidate, error)
}

// availability is implemented by sources that can be switched off, such as
// providers that are not configured.
type availability interface {
	Available() bool
}

// SetOnlineSources installs the sources used by LookupOnline, in order.
func (s *Service) SetOnlineSources(src ...TermSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = src
}

// OnlineSources lists the installed source names and whether each can be used now.
func (s *Service) OnlineSources() map[string]bool {
	s.mu.Lock()
	src := s.online
	s.mu.Unlock()
	out := make(map[string]bool, len(src))
	for _, so := range src {
		out[so.Name()] = usable(so)
	}
	return out
}

func usable(so TermSource) bool {
	a, ok := so.(availability)
	return !ok || a.Available()
}

type OnlineResult struct {
	Term       string                 `json:"term"`
	Existing   *domain.GlossaryEntry  `json:"existing,omitempty"` // already in the glossary
	Candidates []domain.TermCandidate `json:"candidates"`
	Errors     map[string]string      `json:"errors,omitempty"` // by source
}

// LookupOnline asks the named sources, or every usable one when names is
// empty, for translations of term. Sources run concurrently; a failing
// source is reported in Errors and does not fail the lookup. Candidates
// with the same translation are merged.
func (s *Service) LookupOnline(ctx context.Context, term string, names []string) (OnlineResult, error) {
	term = strings.TrimSpace(term)
	res := OnlineResult{Term: term}
	if term == "" {
		return res, fmt.Errorf("%w: empty term", domain.ErrValidation)
	}
	src, err := s.pickSources(names)
	if err != nil {
		return res, err
	}
	if existing, err := s.repo.FindByTerm(ctx, term); err == nil {
		res.Existing = existing
	}

	found := make([][]domain.TermCandidate, len(src))
	errs := make([]error, len(src))
	var g errgroup.Group
	for i, so := range src {
		g.Go(func() error {
			found[i], errs[i] = so.Search(ctx, term)
			return nil
		})
	}
	_ = g.Wait()

	var all []domain.TermCandidate
	for i, so := range src {
		if errs[i] != nil {
			if res.Errors == nil {
				res.Errors = map[string]string{}
			}
			res.Errors[so.Name()] = errs[i].Error()
			s.log.Debugw("term source failed", "source", so.Name(), "term", term, "err", errs[i])
			continue
		}
		for _, c := range found[i] {
			c.Sources = []string{so.Name()}
			all = append(all, c)
		}
	}
	res.Candidates = mergeCandidates(all)
	return res, ctx.Err()
}

// LookupOnlineBatch looks up terms one after another, starting a new term
// at most once per delay.
func (s *Service) LookupOnlineBatch(ctx context.Context, terms []string, names []string, delay time.Duration) ([]OnlineResult, error) {
	qps := 0.0
	if delay > 0 {
		qps = float64(time.Second) / float64(delay)
	}
	pace := ratelimit.New(qps)
	out := make([]OnlineResult, 0, len(terms))
	for _, t := range terms {
		if strings.TrimSpace(t) == "" {
			continue
		}
		if err := pace.Wait(ctx); err != nil {
			return out, err
		}
		r, err := s.LookupOnline(ctx, t, names)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Service) pickSources(names []string) ([]TermSource, error) {
	s.mu.Lock()
	all := s.online
	s.mu.Unlock()
	if len(names) == 0 {
		var out []TermSource
		for _, so := range all {
			if usable(so) {
				out = append(out, so)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: no online term sources available", domain.ErrConfiguration)
		}
		return out, nil
	}
	byName := make(map[string]TermSource, len(all))
	for _, so := range all {
		byName[so.Name()] = so
	}
	out := make([]TermSource, 0, len(names))
	seen := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		so, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: unknown term source %q", domain.ErrValidation, n)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, so)
		}
	}
	return out, nil
}

// mergeCandidates folds equal translations together. Translations more
// sources agree on sort first, then by confidence.
func mergeCandidates(all []domain.TermCandidate) []domain.TermCandidate {
	idx := map[string]int{}
	out := make([]domain.TermCandidate, 0, len(all))
	for _, c := range all {
		key := strings.TrimSpace(c.TermZH)
		if key == "" {
			continue
		}
		i, ok := idx[key]
		if !ok {
			c.TermZH = key
			idx[key] = len(out)
			out = append(out, c)
			continue
		}
		m := &out[i]
		m.Sources = append(m.Sources, c.Sources...)
		if c.Confidence > m.Confidence {
			m.Confidence, m.Note = c.Confidence, c.Note
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].Sources) != len(out[j].Sources) {
			return len(out[i].Sources) > len(out[j].Sources)
		}
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
