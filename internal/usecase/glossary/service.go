// Package glossary keeps term translations consistent: lookup of terms in a
// source string, prompt hints, replacement, and CSV/YAML/official imports.
package glossary

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"rimloc/internal/adapters/glossaryfile"
	"rimloc/internal/domain"
	"rimloc/internal/logging"
	"rimloc/internal/ports"
)

const (
	DefaultMaxHints = 5
	cacheSize       = 1024
)

// OfficialSource yields glossary terms from a game installation.
type OfficialSource interface {
	Terms(gamePath string) ([]*domain.GlossaryEntry, error)
}

type Service struct {
	repo     ports.GlossaryRepository
	official OfficialSource
	log      *zap.SugaredLogger

	mu    sync.Mutex
	terms []*domain.GlossaryEntry // nil until loaded
	gen   uint64                  // bumped by every invalidate
	cache *lru.Cache[string, []*domain.GlossaryEntry]

	online []TermSource
}

func New(repo ports.GlossaryRepository, official OfficialSource, log *zap.SugaredLogger) *Service {
	cache, _ := lru.New[string, []*domain.GlossaryEntry](cacheSize)
	return &Service{repo: repo, official: official, log: logging.OrNop(log), cache: cache}
}

// invalidate drops the term list and every cached lookup.
func (s *Service) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms = nil
	s.gen++
	s.cache.Purge()
}

// allTerms returns the sorted term list and the generation it belongs to.
func (s *Service) allTerms(ctx context.Context) ([]*domain.GlossaryEntry, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terms != nil {
		return s.terms, s.gen, nil
	}
	terms, err := s.repo.List(ctx, "")
	if err != nil {
		return nil, 0, err
	}
	sortTerms(terms)
	if terms == nil {
		terms = []*domain.GlossaryEntry{}
	}
	s.terms = terms
	return terms, s.gen, nil
}

// sortTerms orders by priority, then longer terms first.
func sortTerms(terms []*domain.GlossaryEntry) {
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].Priority != terms[j].Priority {
			return terms[i].Priority > terms[j].Priority
		}
		return len(terms[i].TermEN) > len(terms[j].TermEN)
	})
}

// TermsIn returns the glossary terms that occur in text as whole words,
// ignoring case.
func (s *Service) TermsIn(ctx context.Context, text string) ([]*domain.GlossaryEntry, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if hit, ok := s.cache.Get(text); ok {
		return hit, nil
	}
	terms, gen, err := s.allTerms(ctx)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(text)
	var found []*domain.GlossaryEntry
	for _, t := range terms {
		if !strings.Contains(lower, strings.ToLower(t.TermEN)) {
			continue
		}
		if len(wordIndexes(text, t.TermEN)) > 0 {
			found = append(found, t)
		}
	}
	s.mu.Lock()
	if s.gen == gen {
		s.cache.Add(text, found)
	}
	s.mu.Unlock()
	return found, nil
}

// Hints returns up to limit term pairs found in text. limit <= 0 means DefaultMaxHints.
func (s *Service) Hints(ctx context.Context, text string, limit int) ([]domain.Hint, error) {
	if limit <= 0 {
		limit = DefaultMaxHints
	}
	terms, err := s.TermsIn(ctx, text)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Hint, 0, min(len(terms), limit))
	for _, t := range terms {
		if len(out) == limit {
			break
		}
		out = append(out, domain.Hint{EN: t.TermEN, ZH: t.TermZH})
	}
	return out, nil
}

type ApplyResult struct {
	Text  string                  `json:"text"`
	Terms []*domain.GlossaryEntry `json:"terms"`
}

// Apply finds the terms in text and, with autoReplace, substitutes each
// occurrence by its Chinese translation, longest terms first.
func (s *Service) Apply(ctx context.Context, text string, autoReplace bool) (ApplyResult, error) {
	terms, err := s.TermsIn(ctx, text)
	if err != nil {
		return ApplyResult{}, err
	}
	res := ApplyResult{Text: text, Terms: terms}
	if !autoReplace || len(terms) == 0 {
		return res, nil
	}
	ordered := append([]*domain.GlossaryEntry(nil), terms...)
	sort.SliceStable(ordered, func(i, j int) bool { return len(ordered[i].TermEN) > len(ordered[j].TermEN) })
	for _, t := range ordered {
		res.Text = replaceWord(res.Text, t.TermEN, t.TermZH)
	}
	return res, nil
}

// Violations lists hints whose Chinese term is missing from translation.
func Violations(hints []domain.Hint, translation string) []domain.Hint {
	var out []domain.Hint
	for _, h := range hints {
		if h.ZH != "" && !strings.Contains(translation, h.ZH) {
			out = append(out, h)
		}
	}
	return out
}

func (s *Service) Add(ctx context.Context, g *domain.GlossaryEntry) error {
	g.TermEN = strings.TrimSpace(g.TermEN)
	g.TermZH = strings.TrimSpace(g.TermZH)
	if g.TermEN == "" || g.TermZH == "" {
		return fmt.Errorf("%w: term_en and term_zh are required", domain.ErrValidation)
	}
	if err := s.repo.Save(ctx, g); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *Service) Search(ctx context.Context, keyword, category string, limit int) ([]*domain.GlossaryEntry, error) {
	return s.repo.Search(ctx, keyword, category, limit)
}

func (s *Service) List(ctx context.Context, category string) ([]*domain.GlossaryEntry, error) {
	return s.repo.List(ctx, category)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) { return s.repo.Categories(ctx) }

func (s *Service) Stats(ctx context.Context) (domain.GlossaryStats, error) { return s.repo.Stats(ctx) }

// ImportCSV loads a glossary CSV. With replace, existing user terms are
// deleted first; official terms are kept.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader, replace bool) (int, error) {
	terms, err := glossaryfile.ReadCSV(r)
	if err != nil {
		return 0, err
	}
	return s.importTerms(ctx, terms, replace)
}

func (s *Service) ImportYAML(ctx context.Context, r io.Reader, replace bool) (int, error) {
	terms, err := glossaryfile.ReadYAML(r)
	if err != nil {
		return 0, err
	}
	return s.importTerms(ctx, terms, replace)
}

func (s *Service) importTerms(ctx context.Context, terms []*domain.GlossaryEntry, replace bool) (int, error) {
	if len(terms) == 0 {
		return 0, fmt.Errorf("%w: no glossary terms found", domain.ErrValidation)
	}
	defer s.invalidate()
	if replace {
		n, err := s.repo.DeleteBySource(ctx, domain.SourceUser)
		if err != nil {
			return 0, err
		}
		s.log.Infow("glossary user terms cleared", "deleted", n)
	}
	n, err := s.repo.SaveBatch(ctx, terms)
	if err != nil {
		return 0, err
	}
	s.log.Infow("glossary imported", "terms", n, "replace", replace)
	return n, nil
}

func (s *Service) ExportCSV(ctx context.Context, w io.Writer, category string) (int, error) {
	terms, err := s.repo.List(ctx, category)
	if err != nil {
		return 0, err
	}
	return len(terms), glossaryfile.WriteCSV(w, terms)
}

func (s *Service) ExportYAML(ctx context.Context, w io.Writer, category string) (int, error) {
	terms, err := s.repo.List(ctx, category)
	if err != nil {
		return 0, err
	}
	return len(terms), glossaryfile.WriteYAML(w, terms)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ImportFile reads a glossary file, YAML for .yaml/.yml and CSV otherwise.
func (s *Service) ImportFile(ctx context.Context, path string, replace bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	defer f.Close()
	if isYAML(path) {
		return s.ImportYAML(ctx, f, replace)
	}
	return s.ImportCSV(ctx, f, replace)
}

// ExportFile writes the glossary to path in the format its extension names.
func (s *Service) ExportFile(ctx context.Context, path, category string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFilePermission, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFilePermission, err)
	}
	var n int
	if isYAML(path) {
		n, err = s.ExportYAML(ctx, f, category)
	} else {
		n, err = s.ExportCSV(ctx, f, category)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

type OfficialResult struct {
	Found      int            `json:"found"`
	Imported   int            `json:"imported"`
	Skipped    int            `json:"skipped"`
	Categories map[string]int `json:"categories"`
}

// ImportOfficial stores the game's own term translations as official
// terms. Terms the user already defined are left alone.
func (s *Service) ImportOfficial(ctx context.Context, gamePath string) (OfficialResult, error) {
	res := OfficialResult{Categories: map[string]int{}}
	if s.official == nil {
		return res, fmt.Errorf("%w: official loader not configured", domain.ErrConfiguration)
	}
	if strings.TrimSpace(gamePath) == "" {
		return res, fmt.Errorf("%w: rimworld_path is not set", domain.ErrConfiguration)
	}
	terms, err := s.official.Terms(gamePath)
	if err != nil {
		return res, err
	}
	res.Found = len(terms)
	existing, err := s.repo.List(ctx, "")
	if err != nil {
		return res, err
	}
	userTerms := map[string]struct{}{}
	for _, g := range existing {
		if g.Source == domain.SourceUser {
			userTerms[strings.ToLower(g.TermEN)] = struct{}{}
		}
	}
	keep := terms[:0]
	for _, t := range terms {
		if _, ok := userTerms[strings.ToLower(t.TermEN)]; ok {
			res.Skipped++
			continue
		}
		keep = append(keep, t)
		res.Categories[t.Category]++
	}
	if len(keep) > 0 {
		if res.Imported, err = s.repo.SaveBatch(ctx, keep); err != nil {
			return res, err
		}
	}
	s.invalidate()
	s.log.Infow("official glossary imported", "found", res.Found, "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

// wordIndexes returns the byte offsets where term occurs in text as a whole
// word, ignoring case.
func wordIndexes(text, term string) []int {
	n := len(term)
	if n == 0 {
		return nil
	}
	var out []int
	for i := 0; i+n <= len(text); i++ {
		if !strings.EqualFold(text[i:i+n], term) {
			continue
		}
		if boundaryBefore(text, i) && boundaryAfter(text, i+n) {
			out = append(out, i)
			i += n - 1
		}
	}
	return out
}

func replaceWord(text, term, with string) string {
	idx := wordIndexes(text, term)
	if len(idx) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, i := range idx {
		b.WriteString(text[last:i])
		b.WriteString(with)
		last = i + len(term)
	}
	b.WriteString(text[last:])
	return b.String()
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, j int) bool {
	if j >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[j:])
	return !isWordRune(r)
}
