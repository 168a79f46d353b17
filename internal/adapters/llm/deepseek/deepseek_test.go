package deepseek_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/llm/deepseek"
	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

func newServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test-0123456789", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/models"):
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"deepseek-chat","object":"model","created":0,"owned_by":"deepseek"}]}`))
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "deepseek-chat", body["model"])
			require.InDelta(t, 0.3, body["temperature"], 1e-9)
			msgs := body["messages"].([]any)
			require.Len(t, msgs, 2)
			sys := msgs[0].(map[string]any)["content"].(string)
			if strings.Contains(sys, "terminology") {
				require.Contains(t, sys, "Colonist = 殖民者")
			}
			resp := map[string]any{
				"id": "cmpl-1", "object": "chat.completion", "created": 1, "model": "deepseek-chat",
				"choices": []any{map[string]any{
					"index": 0, "finish_reason": "stop",
					"message": map[string]any{"role": "assistant", "content": answer},
				}},
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"not found","type":"invalid_request_error"}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTranslate(t *testing.T) {
	srv := newServer(t, `{"translation":"殖民者喝醉了"}`)
	p := deepseek.New(deepseek.Options{APIKey: "sk-test-0123456789", BaseURL: srv.URL + "/v1", QPS: 100})

	res, err := p.Translate(context.Background(), ports.TranslateRequest{
		Text:  "The colonist is drunk",
		Hints: []domain.Hint{{EN: "Colonist", ZH: "殖民者"}},
	})
	require.NoError(t, err)
	require.Equal(t, "殖民者喝醉了", res.Translation)
}

func TestListModels(t *testing.T) {
	srv := newServer(t, "")
	p := deepseek.New(deepseek.Options{APIKey: "sk-test-0123456789", BaseURL: srv.URL + "/v1"})

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	require.Equal(t, "deepseek-chat", models[0].Name)
	require.NoError(t, p.Test(context.Background()))
}

func TestTranslate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"authentication_error"}}`))
	}))
	defer srv.Close()

	p := deepseek.New(deepseek.Options{APIKey: "sk-bad", BaseURL: srv.URL})
	_, err := p.Translate(context.Background(), ports.TranslateRequest{Text: "beer"})
	require.ErrorIs(t, err, domain.ErrTranslationAPI)
	require.Contains(t, err.Error(), "401")
}
