package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/config"
	"rimloc/internal/domain"
)

const sample = `{
  "default_provider": "baidu",
  "providers": {
    "deepseek": {"enabled": true, "api_key": "YOUR_DEEPSEEK_API_KEY_HERE"},
    "baidu": {"enabled": true, "api_key": "2024000000", "secret_key": "s3cret"},
    "ollama": {"enabled": false, "base_url": "http://localhost:11434", "model": "qwen2.5:7b"}
  },
  "rimworld_path": "/games/RimWorld",
  "auto_save_interval": 45
}`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config", "translation_api.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sample)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "baidu", cfg.DefaultProvider)
	require.Equal(t, 45, cfg.AutoSaveInterval)
	require.Equal(t, config.DefaultPageSize, cfg.PageSize)
	require.Equal(t, config.DefaultDatabasePath, cfg.DatabasePath)
	require.Equal(t, "/games/RimWorld", cfg.RimWorldPath)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `{}`))
	require.NoError(t, err)
	require.Equal(t, config.DefaultProvider, cfg.DefaultProvider)
	require.Equal(t, 30, cfg.AutoSaveInterval)
	require.Equal(t, 1, cfg.Concurrency)
	require.Empty(t, cfg.AvailableProviders())
}

func TestLoad_Invalid(t *testing.T) {
	_, err := config.Load(writeConfig(t, `{"providers": [`))
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoad_MissingWithoutTemplate(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoad_CopiesTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "translation_api.json")
	require.NoError(t, os.WriteFile(path+".template", []byte(sample), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "baidu", cfg.DefaultProvider)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestUsable(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sample))
	require.NoError(t, err)

	require.False(t, cfg.Usable(config.DeepSeek), "placeholder key")
	require.True(t, cfg.Usable(config.Baidu))
	require.False(t, cfg.Usable(config.Ollama), "disabled")
	require.Equal(t, []string{"baidu"}, cfg.AvailableProviders())

	require.NoError(t, cfg.Set("providers.deepseek.api_key", "sk-0123456789abcdef"))
	require.True(t, cfg.Usable(config.DeepSeek))

	require.NoError(t, cfg.Set("providers.deepseek.api_key", "sk-short"))
	require.False(t, cfg.Usable(config.DeepSeek))
}

func TestGetSet(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sample))
	require.NoError(t, err)

	v, ok := cfg.Get("providers.ollama.model")
	require.True(t, ok)
	require.Equal(t, "qwen2.5:7b", v)

	_, ok = cfg.Get("providers.missing.model")
	require.False(t, ok)

	require.NoError(t, cfg.Set("auto_save_interval", 90))
	require.Equal(t, 90, cfg.AutoSaveInterval)

	require.NoError(t, cfg.Set("providers.ollama.enabled", true))
	require.True(t, cfg.Usable(config.Ollama))

	require.ErrorIs(t, cfg.Set("auto_save_interval", "soon"), domain.ErrValidation)
	require.Equal(t, 90, cfg.AutoSaveInterval)
}

func TestSave(t *testing.T) {
	path := writeConfig(t, sample)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Set("rimworld_path", "D:/Steam/RimWorld"))
	require.NoError(t, cfg.Save())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "\n  \"default_provider\": \"baidu\"")

	again, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "D:/Steam/RimWorld", again.RimWorldPath)
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, sample)
	t.Setenv("RIMLOC_DEEPSEEK_API_KEY", "sk-from-environment")
	t.Setenv("RIMLOC_DB", "/tmp/rimloc/test.db")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Usable(config.DeepSeek))
	require.Equal(t, "/tmp/rimloc/test.db", cfg.DatabasePath)
}

func TestSave_KeepsEnvOverridesOutOfFile(t *testing.T) {
	path := writeConfig(t, sample)
	t.Setenv("RIMLOC_DEEPSEEK_API_KEY", "sk-secret-from-env-123456")
	t.Setenv("RIMLOC_DB", "/tmp/rimloc/env.db")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Set("rimworld_path", "/games/RimWorld2"))
	require.True(t, cfg.Usable(config.DeepSeek), "env key survives Set")
	require.NoError(t, cfg.Save())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(b), "sk-secret-from-env-123456")
	require.NotContains(t, string(b), "env.db")
	require.Contains(t, string(b), "YOUR_DEEPSEEK_API_KEY_HERE")
	require.Contains(t, string(b), "/games/RimWorld2")

	require.NoError(t, cfg.Set("providers.deepseek.api_key", "sk-typed-by-user-7890"))
	require.NoError(t, cfg.Save())
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "sk-typed-by-user-7890", "explicit edits are saved")
}
