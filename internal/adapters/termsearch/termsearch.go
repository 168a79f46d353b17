// Package termsearch looks up Chinese translations of single game terms
// online: the RimWorld wiki, Baidu's dictionary suggestions, and the
// configured translation providers.
package termsearch

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"

	"rimloc/internal/adapters/llm/httpclient"
	"rimloc/internal/adapters/llm/ratelimit"
	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

// Confidence given to each kind of source.
const (
	WikiConfidence     = 0.9
	ProviderConfidence = 0.85
	SuggestConfidence  = 0.75
)

const (
	DefaultWikiURL    = "https://rimworldwiki.com/zh"
	DefaultSuggestURL = "https://fanyi.baidu.com"
	defaultTimeout    = 10 * time.Second
)

// Options configures the web sources. QPS paces each source on its own.
type Options struct {
	BaseURL string
	Timeout time.Duration
	QPS     float64
	Limit   int // results kept per search
}

func (o *Options) defaults(url string, limit int) {
	if o.BaseURL == "" {
		o.BaseURL = url
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.QPS == 0 {
		o.QPS = 1
	}
	if o.Limit <= 0 {
		o.Limit = limit
	}
}

// Wiki searches the Chinese RimWorld wiki and keeps page titles written in Chinese.
type Wiki struct {
	http    *resty.Client
	limiter *ratelimit.Limiter
	limit   int
}

func NewWiki(o Options) *Wiki {
	o.defaults(DefaultWikiURL, 3)
	return &Wiki{http: httpclient.New(o.BaseURL, o.Timeout), limiter: ratelimit.New(o.QPS), limit: o.Limit}
}

func (w *Wiki) Name() string { return "wiki" }

func (w *Wiki) Search(ctx context.Context, term string) ([]domain.TermCandidate, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var resp struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	r, err := w.http.R().SetContext(ctx).
		SetQueryParams(map[string]string{
			"action":   "query",
			"list":     "search",
			"srsearch": term,
			"srlimit":  fmt.Sprint(w.limit),
			"format":   "json",
		}).
		ForceContentType("application/json").
		SetResult(&resp).
		Get("/api.php")
	if err != nil {
		return nil, fmt.Errorf("%w: wiki: %v", domain.ErrTranslationAPI, err)
	}
	if r.IsError() {
		return nil, httpclient.StatusError("wiki search", r)
	}
	var out []domain.TermCandidate
	for _, hit := range resp.Query.Search {
		title := strings.TrimSpace(hit.Title)
		if !hasHan(title) {
			continue
		}
		out = append(out, domain.TermCandidate{TermZH: title, Confidence: WikiConfidence, Note: "wiki page: " + title})
		if len(out) == w.limit {
			break
		}
	}
	return out, nil
}

// BaiduSuggest queries the dictionary suggestions of fanyi.baidu.com. It
// needs no credentials.
type BaiduSuggest struct {
	http    *resty.Client
	limiter *ratelimit.Limiter
	limit   int
}

func NewBaiduSuggest(o Options) *BaiduSuggest {
	o.defaults(DefaultSuggestURL, 2)
	return &BaiduSuggest{http: httpclient.New(o.BaseURL, o.Timeout), limiter: ratelimit.New(o.QPS), limit: o.Limit}
}

func (b *BaiduSuggest) Name() string { return "baidu_suggest" }

// "n. 啤酒; 一杯啤酒" -> "啤酒"
var partOfSpeechRE = regexp.MustCompile(`^(?:[a-z]+\.\s*)+`)

func (b *BaiduSuggest) Search(ctx context.Context, term string) ([]domain.TermCandidate, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var resp struct {
		Errno int `json:"errno"`
		Data  []struct {
			K string `json:"k"`
			V string `json:"v"`
		} `json:"data"`
	}
	r, err := b.http.R().SetContext(ctx).
		SetFormData(map[string]string{"kw": term}).
		ForceContentType("application/json").
		SetResult(&resp).
		Post("/sug")
	if err != nil {
		return nil, fmt.Errorf("%w: baidu suggest: %v", domain.ErrTranslationAPI, err)
	}
	if r.IsError() {
		return nil, httpclient.StatusError("baidu suggest", r)
	}
	if resp.Errno != 0 {
		return nil, fmt.Errorf("%w: baidu suggest errno %d", domain.ErrTranslationAPI, resp.Errno)
	}
	var out []domain.TermCandidate
	for _, d := range resp.Data {
		if len(out) == b.limit {
			break
		}
		first, _, _ := strings.Cut(d.V, ";")
		first, _, _ = strings.Cut(first, "；")
		zh := strings.TrimSpace(partOfSpeechRE.ReplaceAllString(strings.TrimSpace(first), ""))
		if zh == "" {
			continue
		}
		out = append(out, domain.TermCandidate{TermZH: zh, Confidence: SuggestConfidence, Note: d.K + ": " + d.V})
	}
	return out, nil
}

// Lookup resolves a provider by name at search time, so config reloads apply.
type Lookup func(name string) (ports.Provider, error)

// Provider asks a translation provider for the term alone.
type Provider struct {
	name   string
	lookup Lookup
}

func NewProvider(name string, lookup Lookup) *Provider {
	return &Provider{name: name, lookup: lookup}
}

func (p *Provider) Name() string { return p.name }

// Available reports whether the provider is currently registered.
func (p *Provider) Available() bool {
	_, err := p.lookup(p.name)
	return err == nil
}

const termSystemPrompt = "You translate single RimWorld game terms into Simplified Chinese as used by the official translation. " +
	`Return only JSON: {"translation":"..."}.`

func (p *Provider) Search(ctx context.Context, term string) ([]domain.TermCandidate, error) {
	prov, err := p.lookup(p.name)
	if err != nil {
		return nil, err
	}
	res, err := prov.Translate(ctx, ports.TranslateRequest{
		Text:         term,
		Context:      "RimWorld game term",
		SourceLang:   "en",
		TargetLang:   "zh",
		SystemPrompt: termSystemPrompt,
		UserPrompt:   "Term: " + term,
	})
	if err != nil {
		return nil, err
	}
	zh := strings.TrimSpace(res.Translation)
	if zh == "" || strings.EqualFold(zh, term) {
		return nil, nil
	}
	return []domain.TermCandidate{{TermZH: zh, Confidence: ProviderConfidence, Note: "machine translation"}}, nil
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
