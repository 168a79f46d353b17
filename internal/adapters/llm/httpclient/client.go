// Package httpclient holds the resty client setup and the model-output
// parsing shared by the HTTP translation providers.
package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"rimloc/internal/domain"
)

// ErrBadOutput marks model responses that could not be parsed. Callers may retry.
var ErrBadOutput = errors.New("failed to parse translation output")

// New returns a resty client for baseURL with the given timeout.
func New(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", "rimloc")
}

// StatusError formats a non-2xx response the same way for every provider.
func StatusError(what string, r *resty.Response) error {
	return fmt.Errorf("%w: %s: %s; body: %s", domain.ErrTranslationAPI, what, r.Status(), Abbreviate(r.String(), 500))
}

var translationRE = regexp.MustCompile(`(?s)"translation"\s*:\s*"((?:[^"\\]|\\.)*)"`)

// ExtractTranslation pulls the translation out of a model answer. It accepts
// {"translation": "..."}, the same inside a code fence or surrounding prose,
// or a plain-text answer with an optional leading label.
func ExtractTranslation(content string) (string, error) {
	s := strings.TrimSpace(content)
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := strings.TrimPrefix(s[idx+3:], "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			s = strings.TrimSpace(rest[:j])
		}
	}
	var obj struct {
		Translation string `json:"translation"`
	}
	if err := json.Unmarshal([]byte(s), &obj); err == nil && obj.Translation != "" {
		return obj.Translation, nil
	}
	if m := translationRE.FindStringSubmatch(s); len(m) == 2 {
		return strings.ReplaceAll(m[1], `\"`, `"`), nil
	}
	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			if err := json.Unmarshal([]byte(s[i:j+1]), &obj); err == nil && obj.Translation != "" {
				return obj.Translation, nil
			}
		}
	}
	if !strings.Contains(s, "{") {
		lower := strings.ToLower(s)
		for _, k := range []string{"translation:", "translated:", "result:", "output:", "译文：", "译文:"} {
			if pos := strings.Index(lower, k); pos >= 0 && pos < 80 {
				if cand := strings.TrimSpace(s[pos+len(k):]); cand != "" {
					return cand, nil
				}
			}
		}
		if s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w; content: %s", ErrBadOutput, Abbreviate(s, 2000))
}

func Abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
