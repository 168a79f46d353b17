// Package factory builds translation providers from the configuration file.
package factory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rimloc/internal/adapters/llm/baidu"
	"rimloc/internal/adapters/llm/deepseek"
	"rimloc/internal/adapters/llm/ollama"
	"rimloc/internal/adapters/llm/registry"
	"rimloc/internal/config"
	"rimloc/internal/logging"
	"rimloc/internal/ports"
)

// New returns the provider for one config section. Unknown names report false.
func New(name string, pc config.ProviderConfig) (ports.Provider, bool) {
	timeout := time.Duration(pc.Timeout) * time.Second
	switch name {
	case config.DeepSeek:
		return deepseek.New(deepseek.Options{
			APIKey:      pc.APIKey,
			BaseURL:     pc.BaseURL,
			Model:       pc.Model,
			Temperature: pc.Temperature,
			MaxTokens:   pc.MaxTokens,
			Timeout:     timeout,
			QPS:         pc.QPSLimit,
			MaxRetries:  2,
		}), true
	case config.Baidu:
		return baidu.New(baidu.Options{
			AppID:     pc.APIKey,
			SecretKey: pc.SecretKey,
			BaseURL:   pc.BaseURL,
			QPS:       pc.QPSLimit,
			Timeout:   timeout,
		}), true
	case config.Ollama:
		return ollama.New(ollama.Options{
			BaseURL:     pc.BaseURL,
			Model:       pc.Model,
			Temperature: pc.Temperature,
			Timeout:     timeout,
		}), true
	}
	return nil, false
}

// ProbeTimeout bounds the reachability check of providers that have no
// credentials to validate.
var ProbeTimeout = 3 * time.Second

// needsProbe lists providers whose availability only a live server can tell.
var needsProbe = map[string]bool{config.Ollama: true}

// FromConfig registers every usable provider of cfg.
func FromConfig(cfg *config.Config, log *zap.SugaredLogger) *registry.Registry {
	reg := registry.New()
	Reload(reg, cfg, log)
	return reg
}

// Reload replaces the providers held by reg with the usable ones of cfg.
// Ollama counts as usable only while its server answers.
func Reload(reg *registry.Registry, cfg *config.Config, log *zap.SugaredLogger) {
	log = logging.OrNop(log)
	var ps []ports.Provider
	for name, pc := range cfg.Providers {
		if !cfg.Usable(name) {
			log.Debugw("provider skipped", "provider", name, "enabled", pc.Enabled)
			continue
		}
		p, ok := New(name, pc)
		if !ok {
			log.Warnw("unknown provider in config", "provider", name)
			continue
		}
		if needsProbe[name] {
			if err := probe(p); err != nil {
				log.Warnw("provider unreachable, not registered", "provider", name, "err", err)
				continue
			}
		}
		ps = append(ps, p)
	}
	reg.Replace(ps...)
	reg.SetDefault(cfg.DefaultProvider)
}

func probe(p ports.Provider) error {
	ctx, cancel := context.WithTimeout(context.Background(), ProbeTimeout)
	defer cancel()
	return p.Test(ctx)
}
