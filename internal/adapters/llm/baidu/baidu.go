// Package baidu calls the Baidu general translation API.
package baidu

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"rimloc/internal/adapters/llm/httpclient"
	"rimloc/internal/adapters/llm/ratelimit"
	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

const (
	DefaultBaseURL = "https://fanyi-api.baidu.com"
	DefaultQPS     = 10
	DefaultTimeout = 30 * time.Second
	translatePath  = "/api/trans/vip/translate"
)

var langCodes = map[string]string{
	"en":   "en",
	"zh":   "zh",
	"auto": "auto",
	"ja":   "jp",
	"jp":   "jp",
	"ko":   "kor",
	"kor":  "kor",
	"fr":   "fra",
	"fra":  "fra",
	"es":   "spa",
	"spa":  "spa",
	"de":   "de",
	"ru":   "ru",
}

// LangCode maps an ISO-style language code onto Baidu's code. Unknown
// codes pass through unchanged.
func LangCode(l string) string {
	l = strings.ToLower(strings.TrimSpace(l))
	if l == "" {
		return "auto"
	}
	if i := strings.IndexAny(l, "-_"); i > 0 {
		l = l[:i]
	}
	if c, ok := langCodes[l]; ok {
		return c
	}
	return l
}

// Sign computes md5(appid + q + salt + secret) as lower-case hex.
func Sign(appID, q, salt, secret string) string {
	sum := md5.Sum([]byte(appID + q + salt + secret))
	return hex.EncodeToString(sum[:])
}

type Options struct {
	AppID     string
	SecretKey string
	BaseURL   string
	QPS       float64
	Timeout   time.Duration
}

type Client struct {
	appID   string
	secret  string
	limiter *ratelimit.Limiter
	http    *resty.Client
	salt    func() string
}

func New(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.QPS <= 0 {
		o.QPS = DefaultQPS
	}
	return &Client{
		appID:   o.AppID,
		secret:  o.SecretKey,
		limiter: ratelimit.New(o.QPS),
		http:    httpclient.New(o.BaseURL, o.Timeout),
		salt:    func() string { return strconv.Itoa(32768 + rand.IntN(65536-32768+1)) },
	}
}

func (c *Client) Name() string { return "baidu" }

type translateResponse struct {
	ErrorCode   string `json:"error_code"`
	ErrorMsg    string `json:"error_msg"`
	TransResult []struct {
		Src string `json:"src"`
		Dst string `json:"dst"`
	} `json:"trans_result"`
}

// Translate sends req.Text as-is; Baidu ignores the prompts. Multi-line
// input comes back as one result per line and is joined again.
func (c *Client) Translate(ctx context.Context, req ports.TranslateRequest) (ports.TranslateResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return ports.TranslateResult{}, err
	}
	from, to := LangCode(req.SourceLang), LangCode(req.TargetLang)
	if req.TargetLang == "" {
		to = "zh"
	}
	salt := c.salt()
	var resp translateResponse
	rr, err := c.http.R().SetContext(ctx).
		ForceContentType("application/json").
		SetQueryParams(map[string]string{
			"q":     req.Text,
			"from":  from,
			"to":    to,
			"appid": c.appID,
			"salt":  salt,
			"sign":  Sign(c.appID, req.Text, salt, c.secret),
		}).
		SetResult(&resp).
		Get(translatePath)
	if err != nil {
		return ports.TranslateResult{}, fmt.Errorf("%w: baidu: %v", domain.ErrTranslationAPI, err)
	}
	if rr.IsError() {
		return ports.TranslateResult{}, httpclient.StatusError("baidu translate", rr)
	}
	if resp.ErrorCode != "" && resp.ErrorCode != "52000" {
		return ports.TranslateResult{}, fmt.Errorf("%w: baidu error %s: %s", domain.ErrTranslationAPI, resp.ErrorCode, resp.ErrorMsg)
	}
	if len(resp.TransResult) == 0 {
		return ports.TranslateResult{}, fmt.Errorf("%w: baidu returned no result", domain.ErrTranslationAPI)
	}
	lines := make([]string, 0, len(resp.TransResult))
	for _, tr := range resp.TransResult {
		lines = append(lines, tr.Dst)
	}
	out := strings.Join(lines, "\n")
	return ports.TranslateResult{Translation: out, Raw: rr.String()}, nil
}

func (c *Client) ListModels(ctx context.Context) ([]ports.ModelInfo, error) {
	return []ports.ModelInfo{{Name: "general", Description: "Baidu general translation"}}, nil
}

// Test checks credentials are present; it does not spend quota.
func (c *Client) Test(ctx context.Context) error {
	if c.appID == "" || c.secret == "" {
		return fmt.Errorf("%w: baidu app id and secret key are required", domain.ErrConfiguration)
	}
	return nil
}
