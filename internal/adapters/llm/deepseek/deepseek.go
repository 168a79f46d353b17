// Package deepseek translates through DeepSeek's OpenAI-compatible chat API.
package deepseek

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"rimloc/internal/adapters/llm/httpclient"
	"rimloc/internal/adapters/llm/ratelimit"
	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

const (
	DefaultBaseURL     = "https://api.deepseek.com/v1"
	DefaultModel       = "deepseek-chat"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 1000
	DefaultTimeout     = 30 * time.Second
	DefaultQPS         = 10
)

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	QPS         float64
	MaxRetries  int
}

type Client struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	limiter     *ratelimit.Limiter
}

func New(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.Temperature <= 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.QPS <= 0 {
		o.QPS = DefaultQPS
	}
	client := openai.NewClient(
		option.WithAPIKey(o.APIKey),
		option.WithBaseURL(strings.TrimRight(o.BaseURL, "/")+"/"),
		option.WithRequestTimeout(o.Timeout),
		option.WithMaxRetries(o.MaxRetries),
	)
	return &Client{
		client:      client,
		model:       o.Model,
		temperature: o.Temperature,
		maxTokens:   o.MaxTokens,
		limiter:     ratelimit.New(o.QPS),
	}
}

func (c *Client) Name() string { return "deepseek" }

func (c *Client) Translate(ctx context.Context, req ports.TranslateRequest) (ports.TranslateResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return ports.TranslateResult{}, err
	}
	system, user := req.SystemPrompt, req.UserPrompt
	if system == "" || user == "" {
		system, user = fallbackPrompts(req)
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return ports.TranslateResult{}, fmt.Errorf("%w: deepseek: %d %s", domain.ErrTranslationAPI, apiErr.StatusCode, httpclient.Abbreviate(apiErr.Error(), 500))
		}
		return ports.TranslateResult{}, fmt.Errorf("%w: deepseek: %v", domain.ErrTranslationAPI, err)
	}
	if len(resp.Choices) == 0 {
		return ports.TranslateResult{}, fmt.Errorf("%w: no choices returned", httpclient.ErrBadOutput)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	tr, err := httpclient.ExtractTranslation(content)
	if err != nil {
		return ports.TranslateResult{}, err
	}
	return ports.TranslateResult{Translation: tr, Raw: content}, nil
}

func (c *Client) ListModels(ctx context.Context) ([]ports.ModelInfo, error) {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: deepseek: %v", domain.ErrProviderUnavailable, err)
	}
	out := make([]ports.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		out = append(out, ports.ModelInfo{Name: m.ID, Description: m.OwnedBy})
	}
	return out, nil
}

func (c *Client) Test(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}

func fallbackPrompts(req ports.TranslateRequest) (string, string) {
	var sys strings.Builder
	sys.WriteString("You are a professional game localization translator for RimWorld mods. ")
	sys.WriteString("Translate the user's text into Simplified Chinese. Keep tokens like __PH_0__ and __TAG_0__ unchanged. ")
	if len(req.Hints) > 0 {
		sys.WriteString("Use this terminology: ")
		for i, h := range req.Hints {
			if i > 0 {
				sys.WriteString("; ")
			}
			sys.WriteString(h.EN + " = " + h.ZH)
		}
		sys.WriteString(". ")
	}
	sys.WriteString(`Return only JSON: {"translation":"..."}.`)
	return sys.String(), req.Text
}
