// Package translator sends one string to a provider with RimWorld markup
// protected, glossary hints attached and prompts rendered from templates.
package translator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"rimloc/internal/adapters/llm/httpclient"
	"rimloc/internal/adapters/prompt"
	"rimloc/internal/domain"
	"rimloc/internal/logging"
	"rimloc/internal/ports"
)

const (
	SourceLang = "en"
	TargetLang = "zh"

	maxAttempts = 3
)

// ErrTokenLost marks a translation that dropped a masked placeholder or tag.
var ErrTokenLost = errors.New("token missing in translation")

type ProviderLookup interface {
	Lookup(name string) (ports.Provider, error)
}

type HintSource interface {
	Hints(ctx context.Context, text string, limit int) ([]domain.Hint, error)
}

type MemoryStore interface {
	Find(ctx context.Context, text string, fuzzy bool) (*domain.Match, error)
	Save(ctx context.Context, source, target, origin string) error
}

type Deps struct {
	Providers ProviderLookup
	Prompt    ports.PromptRenderer
	Glossary  HintSource  // optional
	Memory    MemoryStore // optional
	Log       *zap.SugaredLogger
}

type Service struct {
	d       Deps
	log     *zap.SugaredLogger
	backoff time.Duration
}

func New(d Deps) *Service {
	return &Service{d: d, log: logging.OrNop(d.Log), backoff: 200 * time.Millisecond}
}

// Unit is what gets translated: the text plus where it came from.
type Unit struct {
	Mod      string
	FilePath string
	Key      string
	Text     string
	Comment  string
}

func UnitOf(e *domain.Entry) Unit {
	return Unit{Mod: e.ModName, FilePath: e.FilePath, Key: e.XMLPath, Text: e.OriginalText, Comment: e.Comment}
}

type Output struct {
	Text  string        `json:"text"`
	Hints []domain.Hint `json:"hints,omitempty"`
}

// Translate runs one provider call. Output-format failures are retried up
// to three times with a growing pause.
func (s *Service) Translate(ctx context.Context, providerName string, u Unit) (Output, error) {
	if strings.TrimSpace(u.Text) == "" {
		return Output{}, fmt.Errorf("%w: empty source text", domain.ErrValidation)
	}
	prov, err := s.d.Providers.Lookup(providerName)
	if err != nil {
		return Output{}, err
	}
	var hints []domain.Hint
	if s.d.Glossary != nil {
		if hints, err = s.d.Glossary.Hints(ctx, u.Text, prompt.MaxHints); err != nil {
			s.log.Warnw("glossary hints unavailable", "key", u.Key, "err", err)
		}
	}

	placeholders := ExtractPlaceholders(u.Text)
	tags := ExtractTags(u.Text)
	masked, tokens := Mask(u.Text, placeholders, tags)

	data := ports.PromptData{
		SrcLang:      "English",
		TgtLang:      "Simplified Chinese",
		Mod:          u.Mod,
		FilePath:     u.FilePath,
		Key:          u.Key,
		Text:         masked,
		Context:      u.Comment,
		Placeholders: tokenNames(tokens, "__PH_"),
		Tags:         tokenNames(tokens, "__TAG_"),
		Hints:        hints,
	}
	system, err := s.d.Prompt.Render(ctx, prompt.ScopeProvider, prov.Name(), prompt.TypeTranslate, prompt.RoleSystem, data)
	if err != nil {
		return Output{}, err
	}
	user, err := s.d.Prompt.Render(ctx, prompt.ScopeProvider, prov.Name(), prompt.TypeTranslate, prompt.RoleUser, data)
	if err != nil {
		return Output{}, err
	}
	req := ports.TranslateRequest{
		Text:         masked,
		Key:          u.Key,
		Context:      u.Comment,
		SourceLang:   SourceLang,
		TargetLang:   TargetLang,
		Hints:        hints,
		SystemPrompt: system,
		UserPrompt:   user,
	}

	var out string
	for attempt := 1; ; attempt++ {
		out, err = s.once(ctx, prov, req, tokens)
		if err == nil {
			break
		}
		if !retryable(err) || attempt == maxAttempts {
			return Output{}, err
		}
		s.log.Debugw("retrying translation", "provider", prov.Name(), "key", u.Key, "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return Output{}, ctx.Err()
		case <-time.After(time.Duration(attempt) * s.backoff):
		}
	}
	return Output{Text: out, Hints: hints}, nil
}

func (s *Service) once(ctx context.Context, prov ports.Provider, req ports.TranslateRequest, tokens []Token) (string, error) {
	res, err := prov.Translate(ctx, req)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(res.Translation)
	if text == "" {
		return "", fmt.Errorf("%w: empty translation", httpclient.ErrBadOutput)
	}
	for _, t := range tokens {
		if !strings.Contains(text, t.Mask) {
			return "", fmt.Errorf("%w: %w: %s", domain.ErrTranslationAPI, ErrTokenLost, t.Orig)
		}
	}
	return Unmask(text, tokens), nil
}

func retryable(err error) bool {
	return errors.Is(err, httpclient.ErrBadOutput) || errors.Is(err, ErrTokenLost)
}

type SingleResult struct {
	Text     string        `json:"text"`
	Source   string        `json:"source"` // memory | provider
	Match    *domain.Match `json:"match,omitempty"`
	Provider string        `json:"provider,omitempty"`
}

// TranslateSingle translates free text: memory first when useMemory is set
// (exact or fuzzy), the provider otherwise. Provider results are remembered.
func (s *Service) TranslateSingle(ctx context.Context, text, providerName string, useMemory bool) (SingleResult, error) {
	if useMemory && s.d.Memory != nil {
		m, err := s.d.Memory.Find(ctx, text, true)
		if err != nil {
			return SingleResult{}, err
		}
		if m != nil {
			return SingleResult{Text: m.Target, Source: "memory", Match: m}, nil
		}
	}
	out, err := s.Translate(ctx, providerName, Unit{Key: "single", Text: text})
	if err != nil {
		return SingleResult{}, err
	}
	if s.d.Memory != nil {
		if err := s.d.Memory.Save(ctx, text, out.Text, ""); err != nil {
			s.log.Warnw("memory save failed", "err", err)
		}
	}
	return SingleResult{Text: out.Text, Source: "provider", Provider: providerName}, nil
}

var (
	// {0}, {PAWN_label}, [PAWN_nameDef] and literal \n sequences.
	placeholderRE = regexp.MustCompile(`\{[^{}\s]+\}|\[[A-Za-z_][A-Za-z0-9_]*\]|\\n`)
	// <color=#ff0000>, </color>, <b>, <i> and similar rich-text tags.
	tagRE = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9_]*(=[^<>]*)?>`)
)

func ExtractPlaceholders(s string) []string { return uniqueSorted(placeholderRE.FindAllString(s, -1)) }

func ExtractTags(s string) []string { return uniqueSorted(tagRE.FindAllString(s, -1)) }

func uniqueSorted(m []string) []string {
	if len(m) == 0 {
		return nil
	}
	uniq := make(map[string]struct{}, len(m))
	for _, v := range m {
		uniq[v] = struct{}{}
	}
	out := make([]string, 0, len(uniq))
	for v := range uniq {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Token pairs a mask with the text it hides.
type Token struct{ Mask, Orig string }

// Mask replaces placeholders with __PH_i__ and tags with __TAG_i__.
// Token order follows the arguments; tokens nested inside a longer one are
// dropped.
func Mask(s string, placeholders, tags []string) (string, []Token) {
	var tokens []Token
	for i, ph := range placeholders {
		tokens = append(tokens, Token{Mask: fmt.Sprintf("__PH_%d__", i), Orig: ph})
	}
	for i, tg := range tags {
		tokens = append(tokens, Token{Mask: fmt.Sprintf("__TAG_%d__", i), Orig: tg})
	}
	// Longer originals first so a token inside another, such as \n in
	// {a\nb} or {0} in <color={0}>, is not masked before its container.
	order := slices.Clone(tokens)
	sort.SliceStable(order, func(i, j int) bool { return len(order[i].Orig) > len(order[j].Orig) })
	masked := s
	for _, t := range order {
		masked = strings.ReplaceAll(masked, t.Orig, t.Mask)
	}
	// Tokens swallowed by a longer one travel inside it.
	kept := tokens[:0]
	for _, t := range tokens {
		if strings.Contains(masked, t.Mask) {
			kept = append(kept, t)
		}
	}
	return masked, kept
}

// Unmask restores the originals.
func Unmask(s string, tokens []Token) string {
	for i := len(tokens) - 1; i >= 0; i-- {
		s = strings.ReplaceAll(s, tokens[i].Mask, tokens[i].Orig)
	}
	return s
}

func tokenNames(tokens []Token, prefix string) []string {
	var out []string
	for _, t := range tokens {
		if strings.HasPrefix(t.Mask, prefix) {
			out = append(out, t.Mask)
		}
	}
	return out
}
