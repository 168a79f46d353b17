package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/llm/ollama"
	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5:7b"},{"name":"llama3"}]}`))
		case "/api/chat":
			var body struct {
				Model    string              `json:"model"`
				Format   string              `json:"format"`
				Messages []map[string]string `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "qwen2.5:7b", body.Model)
			require.Equal(t, "json", body.Format)
			require.Equal(t, "sys", body.Messages[0]["content"])
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{\"translation\":\"啤酒\"}"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := ollama.New(ollama.Options{BaseURL: srv.URL})
	ctx := context.Background()

	require.NoError(t, c.Test(ctx))
	models, err := c.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)

	res, err := c.Translate(ctx, ports.TranslateRequest{Text: "beer", SystemPrompt: "sys", UserPrompt: "beer"})
	require.NoError(t, err)
	require.Equal(t, "啤酒", res.Translation)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := ollama.New(ollama.Options{BaseURL: srv.URL, Model: "missing"})
	_, err := c.Translate(context.Background(), ports.TranslateRequest{Text: "beer"})
	require.ErrorIs(t, err, domain.ErrTranslationAPI)
	require.Contains(t, err.Error(), "model not found")

	srv.Close()
	require.ErrorIs(t, c.Test(context.Background()), domain.ErrProviderUnavailable)
}
