package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"rimloc/internal/adapters/llm/httpclient"
	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "qwen2.5:7b"
	DefaultTimeout = 60 * time.Second
)

type Options struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client talks to a local Ollama server through its chat API.
type Client struct {
	model       string
	temperature float64
	http        *resty.Client
}

func New(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return &Client{model: o.Model, temperature: o.Temperature, http: httpclient.New(o.BaseURL, o.Timeout)}
}

func (c *Client) Name() string { return "ollama" }

func (c *Client) Translate(ctx context.Context, req ports.TranslateRequest) (ports.TranslateResult, error) {
	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": req.UserPrompt},
		},
		"stream":  false,
		"format":  "json",
		"options": map[string]any{"temperature": c.temperature},
	}
	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	rr, err := c.http.R().SetContext(ctx).ForceContentType("application/json").SetBody(body).SetResult(&resp).Post("/api/chat")
	if err != nil {
		return ports.TranslateResult{}, fmt.Errorf("%w: ollama: %v", domain.ErrTranslationAPI, err)
	}
	if rr.IsError() {
		return ports.TranslateResult{}, httpclient.StatusError("ollama translate", rr)
	}
	content := strings.TrimSpace(resp.Message.Content)
	tr, err := httpclient.ExtractTranslation(content)
	if err != nil {
		return ports.TranslateResult{}, err
	}
	return ports.TranslateResult{Translation: tr, Raw: content}, nil
}

func (c *Client) ListModels(ctx context.Context) ([]ports.ModelInfo, error) {
	var resp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	r, err := c.http.R().SetContext(ctx).ForceContentType("application/json").SetResult(&resp).Get("/api/tags")
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: %v", domain.ErrProviderUnavailable, err)
	}
	if r.IsError() {
		return nil, httpclient.StatusError("ollama list models", r)
	}
	out := make([]ports.ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		out = append(out, ports.ModelInfo{Name: m.Name})
	}
	return out, nil
}

// Test succeeds when the server answers /api/tags.
func (c *Client) Test(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}
