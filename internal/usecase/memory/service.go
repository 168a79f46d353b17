// Package memory is the translation-memory matcher: exact lookups by
// normalised source hash and fuzzy lookups by edit distance.
package memory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/xrash/smetrics"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"rimloc/internal/domain"
	"rimloc/internal/logging"
	"rimloc/internal/ports"
)

const (
	FuzzyThreshold   = 0.70
	SuggestThreshold = 0.50

	candidateLimit = 200
	maxQueryWords  = 5
	minWordLen     = 3
)

// TermFinder reports glossary terms contained in a text.
type TermFinder interface {
	TermsIn(ctx context.Context, text string) ([]*domain.GlossaryEntry, error)
}

type Service struct {
	repo  ports.MemoryRepository
	terms TermFinder
	log   *zap.SugaredLogger
	now   func() time.Time
}

// New wires the matcher. terms may be nil, in which case suggestions carry
// no glossary matches.
func New(repo ports.MemoryRepository, terms TermFinder, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, terms: terms, log: logging.OrNop(log), now: time.Now}
}

// Normalize applies NFC and trims surrounding whitespace.
func Normalize(s string) string { return norm.NFC.String(strings.TrimSpace(s)) }

// Hash is the hex md5 of the normalised text.
func Hash(s string) string {
	sum := md5.Sum([]byte(Normalize(s)))
	return hex.EncodeToString(sum[:])
}

// Similarity is 1 - levenshtein(a, b) / max(len(a), len(b)) over the
// normalised, lower-cased strings.
func Similarity(a, b string) float64 {
	a = strings.ToLower(Normalize(a))
	b = strings.ToLower(Normalize(b))
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	d := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return 1 - float64(d)/float64(longest)
}

// Find returns the best match for text: an exact hash hit or, when fuzzy
// is set, the most similar stored source at or above FuzzyThreshold.
// It returns nil when nothing qualifies.
func (s *Service) Find(ctx context.Context, text string, fuzzy bool) (*domain.Match, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	m, err := s.repo.FindExact(ctx, Hash(text))
	if err != nil {
		return nil, fmt.Errorf("%w: memory lookup: %v", domain.ErrDatabase, err)
	}
	if m != nil {
		return &domain.Match{Kind: domain.MatchExact, Source: m.SourceText, Target: m.TargetText, Similarity: 1, UseCount: m.UseCount}, nil
	}
	if !fuzzy {
		return nil, nil
	}
	matches, err := s.fuzzy(ctx, text, FuzzyThreshold)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return &matches[0], nil
}

// fuzzy scores candidates against text and returns those at or above
// threshold, best first.
func (s *Service) fuzzy(ctx context.Context, text string, threshold float64) ([]domain.Match, error) {
	n := len([]rune(Normalize(text)))
	minLen, maxLen := n/2, n+n/2
	cands, err := s.repo.Candidates(ctx, queryWords(text), minLen, maxLen, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: memory candidates: %v", domain.ErrDatabase, err)
	}
	var out []domain.Match
	for _, c := range cands {
		sim := Similarity(text, c.SourceText)
		if sim < threshold {
			continue
		}
		kind := domain.MatchFuzzy
		if sim == 1 {
			kind = domain.MatchExact
		}
		out = append(out, domain.Match{Kind: kind, Source: c.SourceText, Target: c.TargetText, Similarity: sim, UseCount: c.UseCount})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].UseCount > out[j].UseCount
	})
	return out, nil
}

// queryWords picks the longest distinct words of text for the candidate
// prefilter.
func queryWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := map[string]struct{}{}
	var words []string
	for _, f := range fields {
		if len([]rune(f)) < minWordLen {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		words = append(words, f)
	}
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	if len(words) > maxQueryWords {
		words = words[:maxQueryWords]
	}
	return words
}

// Suggestions merges memory matches at or above SuggestThreshold with
// glossary terms found in text, best first, at most n.
func (s *Service) Suggestions(ctx context.Context, text string, n int) ([]domain.Match, error) {
	if n <= 0 {
		n = 5
	}
	var out []domain.Match
	if exact, err := s.Find(ctx, text, false); err != nil {
		return nil, err
	} else if exact != nil {
		out = append(out, *exact)
	}
	fz, err := s.fuzzy(ctx, text, SuggestThreshold)
	if err != nil {
		return nil, err
	}
	for _, m := range fz {
		if len(out) > 0 && out[0].Kind == domain.MatchExact && m.Source == out[0].Source {
			continue
		}
		out = append(out, m)
	}
	if s.terms != nil {
		terms, err := s.terms.TermsIn(ctx, text)
		if err != nil {
			s.log.Warnw("glossary lookup failed", "err", err)
		}
		for _, t := range terms {
			out = append(out, domain.Match{Kind: domain.MatchGlossary, Source: t.TermEN, Target: t.TermZH, Similarity: 1})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Save stores a pair. Blank sources or targets are ignored.
func (s *Service) Save(ctx context.Context, source, target, origin string) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(target) == "" {
		return nil
	}
	m := &domain.MemoryEntry{
		SourceText: Normalize(source),
		TargetText: strings.TrimSpace(target),
		SourceHash: Hash(source),
		Context:    origin,
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return fmt.Errorf("%w: memory save: %v", domain.ErrDatabase, err)
	}
	return nil
}

// SaveEntries stores every translated entry, using xml_path as context.
func (s *Service) SaveEntries(ctx context.Context, entries []*domain.Entry) (int, error) {
	n := 0
	for _, e := range entries {
		if !e.Translated() {
			continue
		}
		if err := s.Save(ctx, e.OriginalText, e.TranslatedText, e.XMLPath); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *Service) Stats(ctx context.Context) (domain.MemoryStats, error) { return s.repo.Stats(ctx) }

func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.MemoryEntry, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id int64) error { return s.repo.Delete(ctx, id) }

// Cleanup removes pairs not used in the last days days.
func (s *Service) Cleanup(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: days must be positive", domain.ErrValidation)
	}
	n, err := s.repo.DeleteOlderThan(ctx, s.now().AddDate(0, 0, -days))
	if err != nil {
		return 0, err
	}
	s.log.Infow("memory cleanup", "days", days, "deleted", n)
	return n, nil
}
