package factory_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/llm/factory"
	"rimloc/internal/config"
)

func ollamaServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5:7b"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFromConfig(t *testing.T) {
	srv := ollamaServer(t)
	cfg := config.Default("")
	cfg.Providers = map[string]config.ProviderConfig{
		config.DeepSeek: {Enabled: true, APIKey: "sk-0123456789abcdef"},
		config.Baidu:    {Enabled: true, APIKey: "YOUR_BAIDU_APP_ID", SecretKey: "x"},
		config.Ollama:   {Enabled: true, BaseURL: srv.URL},
		"google":        {Enabled: true},
	}

	reg := factory.FromConfig(cfg, nil)
	require.Equal(t, []string{"deepseek", "ollama"}, reg.Names())
}

func TestFromConfig_OllamaDown(t *testing.T) {
	srv := ollamaServer(t)
	url := srv.URL
	srv.Close()

	cfg := config.Default("")
	cfg.Providers = map[string]config.ProviderConfig{
		config.Ollama: {Enabled: true, BaseURL: url},
	}
	cfg.DefaultProvider = config.Ollama

	reg := factory.FromConfig(cfg, nil)
	require.Empty(t, reg.Names())
	_, err := reg.Lookup("")
	require.Error(t, err, "an unreachable server leaves nothing to call")
}

func TestNew_Unknown(t *testing.T) {
	_, ok := factory.New("google", config.ProviderConfig{})
	require.False(t, ok)
}

func TestReload(t *testing.T) {
	srv := ollamaServer(t)
	cfg := config.Default("")
	cfg.Providers = map[string]config.ProviderConfig{config.Ollama: {Enabled: true, BaseURL: srv.URL}}
	reg := factory.FromConfig(cfg, nil)
	require.Equal(t, []string{"ollama"}, reg.Names())

	cfg.Providers[config.Ollama] = config.ProviderConfig{Enabled: false}
	cfg.Providers[config.DeepSeek] = config.ProviderConfig{Enabled: true, APIKey: "sk-0123456789abcdef"}
	cfg.DefaultProvider = config.DeepSeek
	factory.Reload(reg, cfg, nil)
	require.Equal(t, []string{"deepseek"}, reg.Names())

	p, ok := reg.Get("")
	require.True(t, ok)
	require.Equal(t, config.DeepSeek, p.Name())
}
