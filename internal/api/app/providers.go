package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"rimloc/internal/adapters/llm/factory"
	"rimloc/internal/adapters/llm/registry"
	"rimloc/internal/config"
	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

var knownProviders = []string{config.DeepSeek, config.Baidu, config.Ollama}

type ProviderAPI struct {
	cfg    *config.Config
	reg    *registry.Registry
	reload func()
}

// NewProviderAPI binds the provider settings. reload is called after every
// saved change so the registry picks it up.
func NewProviderAPI(cfg *config.Config, reg *registry.Registry, reload func()) *ProviderAPI {
	return &ProviderAPI{cfg: cfg, reg: reg, reload: reload}
}

type ProviderDTO struct {
	Name      string  `json:"name"`
	Enabled   bool    `json:"enabled"`
	Usable    bool    `json:"usable"`
	Default   bool    `json:"default"`
	APIKey    string  `json:"api_key"`
	SecretKey string  `json:"secret_key"`
	BaseURL   string  `json:"base_url"`
	Model     string  `json:"model"`
	QPSLimit  float64 `json:"qps_limit"`
	Timeout   int     `json:"timeout"`
}

func (a *ProviderAPI) List() []ProviderDTO {
	names := map[string]bool{}
	for _, n := range knownProviders {
		names[n] = true
	}
	for n := range a.cfg.Providers {
		names[n] = true
	}
	registered := map[string]bool{}
	for _, n := range a.reg.Names() {
		registered[n] = true
	}
	out := make([]ProviderDTO, 0, len(names))
	for n := range names {
		pc, _ := a.cfg.Provider(n)
		out = append(out, ProviderDTO{
			Name:      n,
			Enabled:   pc.Enabled,
			Usable:    a.cfg.Usable(n) && registered[n],
			Default:   a.cfg.DefaultProvider == n,
			APIKey:    mask(pc.APIKey),
			SecretKey: mask(pc.SecretKey),
			BaseURL:   pc.BaseURL,
			Model:     pc.Model,
			QPSLimit:  pc.QPSLimit,
			Timeout:   pc.Timeout,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Update stores a provider section. Masked or empty secrets keep the
// stored value.
func (a *ProviderAPI) Update(p ProviderDTO) (ProviderDTO, error) {
	if _, ok := factory.New(p.Name, config.ProviderConfig{}); !ok {
		return ProviderDTO{}, fmt.Errorf("%w: unknown provider %q", domain.ErrValidation, p.Name)
	}
	existing, _ := a.cfg.Provider(p.Name)
	pc := existing
	pc.Enabled = p.Enabled
	pc.BaseURL = strings.TrimSpace(p.BaseURL)
	pc.Model = strings.TrimSpace(p.Model)
	pc.QPSLimit = p.QPSLimit
	pc.Timeout = p.Timeout
	if keep(p.APIKey) {
		pc.APIKey = strings.TrimSpace(p.APIKey)
	}
	if keep(p.SecretKey) {
		pc.SecretKey = strings.TrimSpace(p.SecretKey)
	}
	a.cfg.Providers[p.Name] = pc
	if p.Default {
		a.cfg.DefaultProvider = p.Name
	}
	if err := a.save(); err != nil {
		return ProviderDTO{}, err
	}
	for _, d := range a.List() {
		if d.Name == p.Name {
			return d, nil
		}
	}
	return ProviderDTO{}, nil
}

func (a *ProviderAPI) SetDefault(name string) error {
	if _, ok := factory.New(name, config.ProviderConfig{}); !ok {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrValidation, name)
	}
	a.cfg.DefaultProvider = name
	return a.save()
}

func (a *ProviderAPI) save() error {
	if err := a.cfg.Save(); err != nil {
		return err
	}
	if a.reload != nil {
		a.reload()
	}
	return nil
}

type ModelInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListModels asks the provider for its models, building a transient
// client from the saved settings when the provider is not active.
func (a *ProviderAPI) ListModels(name string) ([]ModelInfo, error) {
	prov, err := a.provider(name)
	if err != nil {
		return nil, err
	}
	models, err := prov.ListModels(context.Background())
	if err != nil {
		return nil, err
	}
	out := make([]ModelInfo, 0, len(models))
	for _, m := range models {
		out = append(out, ModelInfo{Name: m.Name, Description: m.Description})
	}
	return out, nil
}

func (a *ProviderAPI) provider(name string) (ports.Provider, error) {
	if p, ok := a.reg.Get(name); ok {
		return p, nil
	}
	pc, _ := a.cfg.Provider(name)
	p, ok := factory.New(name, pc)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrProviderUnavailable, name)
	}
	return p, nil
}

// ProviderTestResult contains details of a connectivity/translate test.
type ProviderTestResult struct {
	Ok          bool   `json:"ok"`
	Translation string `json:"translation,omitempty"`
	Raw         string `json:"raw,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Test translates a short phrase to check credentials and reachability.
// Failures are reported in the result, not as an error.
func (a *ProviderAPI) Test(name string) (ProviderTestResult, error) {
	prov, err := a.provider(name)
	if err != nil {
		return ProviderTestResult{}, err
	}
	ctx := context.Background()
	if err := prov.Test(ctx); err != nil {
		return ProviderTestResult{Error: err.Error()}, nil
	}
	res, err := prov.Translate(ctx, ports.TranslateRequest{
		Text:         "Hello, colonist.",
		Key:          "test",
		SourceLang:   "en",
		TargetLang:   "zh",
		SystemPrompt: `You are a professional game localization translator. Translate from English to Simplified Chinese. Return only JSON: {"translation":"..."}.`,
		UserPrompt:   "source: Hello, colonist.",
	})
	if err != nil {
		return ProviderTestResult{Error: err.Error()}, nil
	}
	return ProviderTestResult{Ok: true, Translation: res.Translation, Raw: res.Raw}, nil
}

// Health tests every active provider; an empty string means healthy.
func (a *ProviderAPI) Health() map[string]string {
	out := map[string]string{}
	for name, err := range a.reg.HealthCheck(context.Background()) {
		out[name] = ""
		if err != nil {
			out[name] = err.Error()
		}
	}
	return out
}

func keep(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.HasPrefix(s, "****")
}

func mask(s string) string {
	if len(s) <= 4 {
		return s
	}
	return "****" + s[len(s)-4:]
}
