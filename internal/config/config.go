// Package config loads and saves the translation API configuration file
// (config/translation_api.json by default).
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rimloc/internal/domain"
)

const (
	DefaultPath             = "config/translation_api.json"
	DefaultProvider         = "deepseek"
	DefaultAutoSaveInterval = 30
	DefaultPageSize         = 100
	DefaultDatabasePath     = "data/translations.db"
	DefaultLogLevel         = "info"
)

// Provider names known to the application.
const (
	DeepSeek = "deepseek"
	Baidu    = "baidu"
	Ollama   = "ollama"
)

var placeholderKeys = map[string]struct{}{
	"":                           {},
	"YOUR_API_KEY":               {},
	"YOUR_DEEPSEEK_API_KEY_HERE": {},
	"YOUR_BAIDU_APP_ID":          {},
	"YOUR_BAIDU_SECRET_KEY":      {},
}

type ProviderConfig struct {
	Enabled     bool    `json:"enabled"`
	APIKey      string  `json:"api_key,omitempty"`
	SecretKey   string  `json:"secret_key,omitempty"`
	BaseURL     string  `json:"base_url,omitempty"`
	Model       string  `json:"model,omitempty"`
	Timeout     int     `json:"timeout,omitempty"` // seconds
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	QPSLimit    float64 `json:"qps_limit,omitempty"`
}

type Config struct {
	DefaultProvider  string                    `json:"default_provider"`
	Providers        map[string]ProviderConfig `json:"providers"`
	RimWorldPath     string                    `json:"rimworld_path"`
	AutoSaveInterval int                       `json:"auto_save_interval"`
	PageSize         int                       `json:"page_size,omitempty"`
	Concurrency      int                       `json:"concurrency,omitempty"`
	DatabasePath     string                    `json:"database_path,omitempty"`
	LogLevel         string                    `json:"log_level,omitempty"`

	path string
	env  []override
}

// override records a value taken from the environment together with the
// value the file held, so Save can write the file value back.
type override struct {
	key      string // "database_path", "log_level" or "api_key"
	provider string
	file     string
	env      string
}

// Load reads the config at path. A missing file is created from
// "<path>.template" when that exists.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		b, err = copyTemplate(path)
	}
	if err != nil {
		return nil, err
	}
	c := &Config{path: path}
	if err := json.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrConfiguration, path, err)
	}
	c.applyDefaults()
	c.applyEnv()
	return c, nil
}

// Default returns a config with defaults only, bound to path.
func Default(path string) *Config {
	if path == "" {
		path = DefaultPath
	}
	c := &Config{path: path}
	c.applyDefaults()
	return c
}

func copyTemplate(path string) ([]byte, error) {
	tpl := path + ".template"
	b, err := os.ReadFile(tpl)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s not found and no template at %s", domain.ErrConfiguration, path, tpl)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read template: %v", domain.ErrConfiguration, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFilePermission, err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFilePermission, err)
	}
	return b, nil
}

func (c *Config) applyDefaults() {
	if c.DefaultProvider == "" {
		c.DefaultProvider = DefaultProvider
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	if c.AutoSaveInterval <= 0 {
		c.AutoSaveInterval = DefaultAutoSaveInterval
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabasePath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// applyEnv overlays RIMLOC_DB, RIMLOC_LOG_LEVEL and RIMLOC_<PROVIDER>_API_KEY.
// The overlay is visible to readers of the config but never saved.
func (c *Config) applyEnv() {
	if v := os.Getenv("RIMLOC_DB"); v != "" {
		v = filepath.Clean(v)
		c.env = append(c.env, override{key: "database_path", file: c.DatabasePath, env: v})
		c.DatabasePath = v
	}
	if v := os.Getenv("RIMLOC_LOG_LEVEL"); v != "" {
		c.env = append(c.env, override{key: "log_level", file: c.LogLevel, env: v})
		c.LogLevel = v
	}
	for name, pc := range c.Providers {
		if v := os.Getenv("RIMLOC_" + strings.ToUpper(name) + "_API_KEY"); v != "" {
			c.env = append(c.env, override{key: "api_key", provider: name, file: pc.APIKey, env: v})
			pc.APIKey = v
			c.Providers[name] = pc
		}
	}
}

// persisted returns the config as it belongs on disk: every value still
// equal to its environment override gets the file value back.
func (c *Config) persisted() Config {
	out := *c
	out.Providers = make(map[string]ProviderConfig, len(c.Providers))
	for k, v := range c.Providers {
		out.Providers[k] = v
	}
	for _, o := range c.env {
		switch o.key {
		case "database_path":
			if out.DatabasePath == o.env {
				out.DatabasePath = o.file
			}
		case "log_level":
			if out.LogLevel == o.env {
				out.LogLevel = o.file
			}
		case "api_key":
			if pc, ok := out.Providers[o.provider]; ok && pc.APIKey == o.env {
				pc.APIKey = o.file
				out.Providers[o.provider] = pc
			}
		}
	}
	return out
}

func (c *Config) Path() string { return c.path }

// Save writes the config back to its file with two-space indentation.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFilePermission, err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	disk := c.persisted()
	if err := enc.Encode(&disk); err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrConfiguration, err)
	}
	if err := os.WriteFile(c.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFilePermission, err)
	}
	return nil
}

// Provider returns the named provider section and whether it exists.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	pc, ok := c.Providers[name]
	return pc, ok
}

// Usable reports whether the provider is enabled and has credentials that
// are not template placeholders.
func (c *Config) Usable(name string) bool {
	pc, ok := c.Providers[name]
	if !ok || !pc.Enabled {
		return false
	}
	switch name {
	case DeepSeek:
		return !isPlaceholder(pc.APIKey) && len(pc.APIKey) > 10
	case Baidu:
		return !isPlaceholder(pc.APIKey) && !isPlaceholder(pc.SecretKey)
	default:
		return true
	}
}

// AvailableProviders lists usable providers sorted by name.
func (c *Config) AvailableProviders() []string {
	var out []string
	for name := range c.Providers {
		if c.Usable(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func isPlaceholder(s string) bool {
	_, ok := placeholderKeys[strings.TrimSpace(s)]
	return ok
}

// Get returns the value at a dotted key such as "providers.deepseek.model".
func (c *Config) Get(key string) (any, bool) {
	m, err := c.asMap()
	if err != nil {
		return nil, false
	}
	var cur any = m
	for _, part := range strings.Split(key, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set assigns value at a dotted key. Intermediate objects are created.
// The result must still decode into Config.
func (c *Config) Set(key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", domain.ErrValidation)
	}
	m, err := c.asMap()
	if err != nil {
		return err
	}
	parts := strings.Split(key, ".")
	cur := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	next := Config{path: c.path}
	if err := json.Unmarshal(b, &next); err != nil {
		return fmt.Errorf("%w: set %s: %v", domain.ErrValidation, key, err)
	}
	next.applyDefaults()
	next.env = c.env
	*c = next
	return nil
}

func (c *Config) asMap() (map[string]any, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return m, nil
}
