package termsearch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/termsearch"
	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

func serve(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestWiki(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api.php", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "search", q.Get("list"))
		require.Equal(t, "beer", q.Get("srsearch"))
		require.Equal(t, "json", q.Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":{"search":[
			{"title":"Beer"},
			{"title":"啤酒"},
			{"title":"啤酒桶"},
			{"title":"酿造台"}
		]}}`))
	})
	wiki := termsearch.NewWiki(termsearch.Options{BaseURL: url, Limit: 2})
	require.Equal(t, "wiki", wiki.Name())

	got, err := wiki.Search(context.Background(), "beer")
	require.NoError(t, err)
	require.Len(t, got, 2, "English titles are skipped, the limit applies")
	require.Equal(t, "啤酒", got[0].TermZH)
	require.Equal(t, termsearch.WikiConfidence, got[0].Confidence)
	require.Equal(t, "啤酒桶", got[1].TermZH)
}

func TestWiki_ServerError(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	_, err := termsearch.NewWiki(termsearch.Options{BaseURL: url}).Search(context.Background(), "beer")
	require.ErrorIs(t, err, domain.ErrTranslationAPI)
}

func TestBaiduSuggest(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sug", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "beer", r.PostForm.Get("kw"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`{"errno":0,"data":[
			{"k":"beer","v":"n. 啤酒; 一杯啤酒"},
			{"k":"beer keg","v":"啤酒桶；酒桶"},
			{"k":"beerhouse","v":"n. 啤酒店"}
		]}`))
	})
	got, err := termsearch.NewBaiduSuggest(termsearch.Options{BaseURL: url}).Search(context.Background(), "beer")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "啤酒", got[0].TermZH)
	require.Equal(t, "beer: n. 啤酒; 一杯啤酒", got[0].Note)
	require.Equal(t, "啤酒桶", got[1].TermZH)
	require.Equal(t, termsearch.SuggestConfidence, got[1].Confidence)
}

func TestBaiduSuggest_Errno(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errno":1001}`))
	})
	_, err := termsearch.NewBaiduSuggest(termsearch.Options{BaseURL: url}).Search(context.Background(), "beer")
	require.ErrorIs(t, err, domain.ErrTranslationAPI)
}

type stubProvider struct {
	out string
	got ports.TranslateRequest
}

func (p *stubProvider) Name() string { return "deepseek" }
func (p *stubProvider) Translate(_ context.Context, req ports.TranslateRequest) (ports.TranslateResult, error) {
	p.got = req
	return ports.TranslateResult{Translation: p.out}, nil
}
func (p *stubProvider) ListModels(context.Context) ([]ports.ModelInfo, error) { return nil, nil }
func (p *stubProvider) Test(context.Context) error                            { return nil }

func TestProvider(t *testing.T) {
	stub := &stubProvider{out: " 啤酒 "}
	registered := true
	lookup := func(name string) (ports.Provider, error) {
		if !registered {
			return nil, domain.ErrProviderUnavailable
		}
		require.Equal(t, "deepseek", name)
		return stub, nil
	}
	src := termsearch.NewProvider("deepseek", lookup)
	require.True(t, src.Available())

	got, err := src.Search(context.Background(), "beer")
	require.NoError(t, err)
	require.Equal(t, []domain.TermCandidate{{TermZH: "啤酒", Confidence: termsearch.ProviderConfidence, Note: "machine translation"}}, got)
	require.Equal(t, "beer", stub.got.Text)
	require.Contains(t, stub.got.UserPrompt, "beer")
	require.NotEmpty(t, stub.got.SystemPrompt)

	stub.out = "Beer"
	got, err = src.Search(context.Background(), "beer")
	require.NoError(t, err)
	require.Empty(t, got, "an untranslated echo is no candidate")

	registered = false
	require.False(t, src.Available())
	_, err = src.Search(context.Background(), "beer")
	require.True(t, errors.Is(err, domain.ErrProviderUnavailable))
}
