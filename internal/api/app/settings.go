package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rimloc/internal/config"
	"rimloc/internal/domain"
	"rimloc/internal/usecase/session"
)

type SettingsAPI struct {
	cfg    *config.Config
	auto   *session.AutoSaver
	reload func()
	backup func(ctx context.Context, dest string) (string, error)
}

func NewSettingsAPI(cfg *config.Config, auto *session.AutoSaver, reload func(), backup func(context.Context, string) (string, error)) *SettingsAPI {
	return &SettingsAPI{cfg: cfg, auto: auto, reload: reload, backup: backup}
}

// SettingsDTO is the non-provider part of the config. Provider sections are
// served by ProviderAPI with secrets masked.
type SettingsDTO struct {
	ConfigPath       string `json:"config_path"`
	DefaultProvider  string `json:"default_provider"`
	RimWorldPath     string `json:"rimworld_path"`
	AutoSaveInterval int    `json:"auto_save_interval"`
	PageSize         int    `json:"page_size"`
	Concurrency      int    `json:"concurrency"`
	DatabasePath     string `json:"database_path"`
	LogLevel         string `json:"log_level"`
}

func (a *SettingsAPI) Get() SettingsDTO {
	return SettingsDTO{
		ConfigPath:       a.cfg.Path(),
		DefaultProvider:  a.cfg.DefaultProvider,
		RimWorldPath:     a.cfg.RimWorldPath,
		AutoSaveInterval: a.cfg.AutoSaveInterval,
		PageSize:         a.cfg.PageSize,
		Concurrency:      a.cfg.Concurrency,
		DatabasePath:     a.cfg.DatabasePath,
		LogLevel:         a.cfg.LogLevel,
	}
}

// Set assigns a dotted config key and saves the file. Keys under
// providers reload the provider registry; auto_save_interval retunes the
// auto saver. Secrets cannot be read back through this call.
func (a *SettingsAPI) Set(key string, value any) (SettingsDTO, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return SettingsDTO{}, fmt.Errorf("%w: empty key", domain.ErrValidation)
	}
	if err := a.cfg.Set(key, value); err != nil {
		return SettingsDTO{}, err
	}
	if err := a.cfg.Save(); err != nil {
		return SettingsDTO{}, err
	}
	switch {
	case key == "auto_save_interval":
		a.auto.SetInterval(time.Duration(a.cfg.AutoSaveInterval) * time.Second)
	case key == "default_provider" || strings.HasPrefix(key, "providers"):
		if a.reload != nil {
			a.reload()
		}
	}
	return a.Get(), nil
}

// SetAutoSaveInterval stores a new period in seconds and applies it.
func (a *SettingsAPI) SetAutoSaveInterval(seconds int) (SettingsDTO, error) {
	if seconds <= 0 {
		return SettingsDTO{}, fmt.Errorf("%w: interval must be positive", domain.ErrValidation)
	}
	return a.Set("auto_save_interval", seconds)
}

// Backup copies the database, to dest or a timestamped default, and
// returns the path written.
func (a *SettingsAPI) Backup(dest string) (string, error) {
	return a.backup(context.Background(), strings.TrimSpace(dest))
}
