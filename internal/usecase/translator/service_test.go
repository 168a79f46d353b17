package translator_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/llm/httpclient"
	"rimloc/internal/adapters/llm/registry"
	"rimloc/internal/adapters/prompt"
	"rimloc/internal/domain"
	"rimloc/internal/ports"
	"rimloc/internal/usecase/translator"
)

// scripted answers each call with the next function in replies; the last
// one repeats.
type scripted struct {
	mu      sync.Mutex
	replies []func(ports.TranslateRequest) (string, error)
	calls   int
	reqs    []ports.TranslateRequest
}

func (s *scripted) Name() string { return "fake" }
func (s *scripted) Translate(_ context.Context, req ports.TranslateRequest) (ports.TranslateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := min(s.calls, len(s.replies)-1)
	s.calls++
	s.reqs = append(s.reqs, req)
	out, err := s.replies[i](req)
	return ports.TranslateResult{Translation: out}, err
}
func (s *scripted) ListModels(context.Context) ([]ports.ModelInfo, error) { return nil, nil }
func (s *scripted) Test(context.Context) error { return nil }

// echoZH "translates" by prefixing, keeping every masked token.
func echoZH(req ports.TranslateRequest) (string, error) { return "译:" + req.Text, nil }

type hintsStub []domain.Hint

func (h hintsStub) Hints(context.Context, string, int) ([]domain.Hint, error) { return h, nil }

type memStub struct {
	match *domain.Match
	saved map[string]string
}

func (m *memStub) Find(context.Context, string, bool) (*domain.Match, error) { return m.match, nil }
func (m *memStub) Save(_ context.Context, source, target, _ string) error {
	if m.saved == nil {
		m.saved = map[string]string{}
	}
	m.saved[source] = target
	return nil
}

func newService(p ports.Provider, d translator.Deps) *translator.Service {
	reg := registry.New()
	reg.Register(p)
	d.Providers = reg
	d.Prompt = prompt.New(nil)
	return translator.New(d)
}

func TestMaskRoundTrip(t *testing.T) {
	src := `<color=#FF0000>{PAWN_label}</color> drank {0} beers\n[PAWN_nameDef] is {0}x happy`
	ph := translator.ExtractPlaceholders(src)
	tags := translator.ExtractTags(src)
	require.Equal(t, []string{`[PAWN_nameDef]`, `\n`, `{0}`, `{PAWN_label}`}, ph)
	require.Equal(t, []string{`</color>`, `<color=#FF0000>`}, tags)

	masked, tokens := translator.Mask(src, ph, tags)
	require.Equal(t, `__TAG_1____PH_3____TAG_0__ drank __PH_2__ beers__PH_1____PH_0__ is __PH_2__x happy`, masked)
	require.Equal(t, src, translator.Unmask(masked, tokens))
}

func TestMask_NestedTokens(t *testing.T) {
	src := `Hi {PAWN_label\nfull}, line\nbreak <color={0}>x</color>`
	ph := translator.ExtractPlaceholders(src)
	tags := translator.ExtractTags(src)
	require.Equal(t, []string{`\n`, `{0}`, `{PAWN_label\nfull}`}, ph)
	require.Equal(t, []string{`</color>`, `<color={0}>`}, tags)

	masked, tokens := translator.Mask(src, ph, tags)
	require.Equal(t, `Hi __PH_2__, line__PH_0__break __TAG_1__x__TAG_0__`, masked)
	require.Equal(t, []translator.Token{
		{Mask: "__PH_0__", Orig: `\n`},
		{Mask: "__PH_2__", Orig: `{PAWN_label\nfull}`},
		{Mask: "__TAG_0__", Orig: `</color>`},
		{Mask: "__TAG_1__", Orig: `<color={0}>`},
	}, tokens)
	require.Equal(t, src, translator.Unmask(masked, tokens))
}

func TestTranslate_NestedPlaceholder(t *testing.T) {
	p := &scripted{replies: []func(ports.TranslateRequest) (string, error){echoZH}}
	s := newService(p, translator.Deps{})

	src := `{PAWN_label\nfull} drank\n<color={0}>beer</color>`
	out, err := s.Translate(context.Background(), "fake", translator.Unit{Key: "BeerDrunk", Text: src})
	require.NoError(t, err)
	require.Equal(t, "译:"+src, out.Text)
	require.Equal(t, 1, p.calls)
	require.Equal(t, "__PH_2__ drank__PH_0____TAG_1__beer__TAG_0__", p.reqs[0].Text)
}

func TestTranslate_MasksAndHints(t *testing.T) {
	p := &scripted{replies: []func(ports.TranslateRequest) (string, error){echoZH}}
	s := newService(p, translator.Deps{Glossary: hintsStub{{EN: "beer", ZH: "啤酒"}}})

	out, err := s.Translate(context.Background(), "fake", translator.Unit{Mod: "Beer", Key: "BeerDrunk", Text: "{0} drank <b>beer</b>"})
	require.NoError(t, err)
	require.Equal(t, "译:{0} drank <b>beer</b>", out.Text)
	require.Equal(t, []domain.Hint{{EN: "beer", ZH: "啤酒"}}, out.Hints)

	req := p.reqs[0]
	require.Equal(t, "__PH_0__ drank __TAG_1__beer__TAG_0__", req.Text)
	require.Equal(t, "en", req.SourceLang)
	require.Contains(t, req.SystemPrompt, "- beer => 啤酒")
	require.Contains(t, req.UserPrompt, "key: BeerDrunk")
}

func TestTranslate_RetriesFormatErrors(t *testing.T) {
	p := &scripted{replies: []func(ports.TranslateRequest) (string, error){
		func(ports.TranslateRequest) (string, error) { return "", httpclient.ErrBadOutput },
		func(ports.TranslateRequest) (string, error) { return "丢了占位符", nil },
		echoZH,
	}}
	s := newService(p, translator.Deps{})

	out, err := s.Translate(context.Background(), "fake", translator.Unit{Text: "{0} is drunk"})
	require.NoError(t, err)
	require.Equal(t, "译:{0} is drunk", out.Text)
	require.Equal(t, 3, p.calls)
}

func TestTranslate_GivesUp(t *testing.T) {
	p := &scripted{replies: []func(ports.TranslateRequest) (string, error){
		func(ports.TranslateRequest) (string, error) { return "没有", nil },
	}}
	s := newService(p, translator.Deps{})

	_, err := s.Translate(context.Background(), "fake", translator.Unit{Text: "{0} is drunk"})
	require.ErrorIs(t, err, translator.ErrTokenLost)
	require.ErrorIs(t, err, domain.ErrTranslationAPI)
	require.Equal(t, 3, p.calls)
}

func TestTranslate_NoRetryOnAPIError(t *testing.T) {
	apiErr := errors.New("401")
	p := &scripted{replies: []func(ports.TranslateRequest) (string, error){
		func(ports.TranslateRequest) (string, error) { return "", apiErr },
	}}
	s := newService(p, translator.Deps{})

	_, err := s.Translate(context.Background(), "fake", translator.Unit{Text: "beer"})
	require.ErrorIs(t, err, apiErr)
	require.Equal(t, 1, p.calls)

	_, err = s.Translate(context.Background(), "google", translator.Unit{Text: "beer"})
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)

	_, err = s.Translate(context.Background(), "fake", translator.Unit{Text: "  "})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestTranslateSingle(t *testing.T) {
	p := &scripted{replies: []func(ports.TranslateRequest) (string, error){echoZH}}
	mem := &memStub{match: &domain.Match{Kind: domain.MatchFuzzy, Target: "啤酒!", Similarity: 0.8}}
	s := newService(p, translator.Deps{Memory: mem})
	ctx := context.Background()

	res, err := s.TranslateSingle(ctx, "beer", "fake", true)
	require.NoError(t, err)
	require.Equal(t, "memory", res.Source)
	require.Equal(t, "啤酒!", res.Text)
	require.Zero(t, p.calls)

	res, err = s.TranslateSingle(ctx, "beer", "fake", false)
	require.NoError(t, err)
	require.Equal(t, "provider", res.Source)
	require.True(t, strings.HasPrefix(res.Text, "译:"))
	require.Equal(t, "译:beer", mem.saved["beer"])
}
