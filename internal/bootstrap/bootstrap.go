// Package bootstrap opens the database and wires every service from the
// configuration file. Both the GUI and the CLI start from here.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"rimloc/internal/adapters/db/sqlite"
	exreg "rimloc/internal/adapters/exporter/registry"
	"rimloc/internal/adapters/extractor/rimworld"
	"rimloc/internal/adapters/llm/factory"
	"rimloc/internal/adapters/llm/registry"
	"rimloc/internal/adapters/official"
	parreg "rimloc/internal/adapters/parser/registry"
	"rimloc/internal/adapters/prompt"
	"rimloc/internal/adapters/termsearch"
	"rimloc/internal/config"
	"rimloc/internal/domain"
	"rimloc/internal/logging"
	"rimloc/internal/usecase/batch"
	"rimloc/internal/usecase/entries"
	"rimloc/internal/usecase/exporter"
	"rimloc/internal/usecase/extraction"
	"rimloc/internal/usecase/glossary"
	"rimloc/internal/usecase/importer"
	"rimloc/internal/usecase/jobs"
	"rimloc/internal/usecase/memory"
	"rimloc/internal/usecase/session"
	"rimloc/internal/usecase/translator"
)

// ConfigEnv overrides the config path when no explicit path is given.
const ConfigEnv = "RIMLOC_CONFIG"

type Services struct {
	Config *config.Config
	Log    *zap.SugaredLogger
	DB     *sql.DB

	EntryRepo    *sqlite.EntryRepo
	MemoryRepo   *sqlite.MemoryRepo
	GlossaryRepo *sqlite.GlossaryRepo
	SessionRepo  *sqlite.SessionRepo
	ModRepo      *sqlite.ModListRepo
	JobRepo      *sqlite.JobRepo
	TemplateRepo *sqlite.TemplateRepo

	Providers  *registry.Registry
	Prompt     *prompt.Renderer
	Glossary   *glossary.Service
	Memory     *memory.Service
	Translator *translator.Service
	Batch      *batch.Service
	Jobs       *jobs.Runner
	Extraction *extraction.Service
	Entries    *entries.Service
	Exporter   *exporter.Service
	Importer   *importer.Service
	Sessions   *session.Manager
	AutoSave   *session.AutoSaver
	Tracker    *session.Tracker
}

// ConfigPath resolves the config file location: explicit flag first, then
// RIMLOC_CONFIG, then the default.
func ConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(ConfigEnv); v != "" {
		return v
	}
	return config.DefaultPath
}

// Open loads the config at cfgPath and builds all services. A nil log is
// replaced by one at the configured level.
func Open(cfgPath string, log *zap.SugaredLogger) (*Services, error) {
	cfg, err := config.Load(ConfigPath(cfgPath))
	if err != nil {
		return nil, err
	}
	if log == nil {
		if log, err = logging.New(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
	}
	db, err := sqlite.Init(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	s := Build(cfg, db, log)
	log.Debugw("services ready", "config", cfg.Path(), "db", cfg.DatabasePath, "providers", s.Providers.Names())
	return s, nil
}

// Build wires services over an already open database.
func Build(cfg *config.Config, db *sql.DB, log *zap.SugaredLogger) *Services {
	log = logging.OrNop(log)
	s := &Services{
		Config:       cfg,
		Log:          log,
		DB:           db,
		EntryRepo:    sqlite.NewEntryRepo(db),
		MemoryRepo:   sqlite.NewMemoryRepo(db),
		GlossaryRepo: sqlite.NewGlossaryRepo(db),
		SessionRepo:  sqlite.NewSessionRepo(db),
		ModRepo:      sqlite.NewModListRepo(db),
		JobRepo:      sqlite.NewJobRepo(db),
		TemplateRepo: sqlite.NewTemplateRepo(db),
	}
	s.Providers = factory.FromConfig(cfg, log.Named("providers"))
	s.Prompt = prompt.New(s.TemplateRepo)
	s.Glossary = glossary.New(s.GlossaryRepo, official.New(log.Named("official")), log.Named("glossary"))
	s.Glossary.SetOnlineSources(
		termsearch.NewWiki(termsearch.Options{}),
		termsearch.NewBaiduSuggest(termsearch.Options{}),
		termsearch.NewProvider(config.DeepSeek, s.Providers.Lookup),
		termsearch.NewProvider(config.Baidu, s.Providers.Lookup),
		termsearch.NewProvider(config.Ollama, s.Providers.Lookup),
	)
	s.Memory = memory.New(s.MemoryRepo, s.Glossary, log.Named("memory"))
	s.Translator = translator.New(translator.Deps{
		Providers: s.Providers,
		Prompt:    s.Prompt,
		Glossary:  s.Glossary,
		Memory:    s.Memory,
		Log:       log.Named("translator"),
	})
	s.Batch = batch.New(batch.Deps{
		Entries:    s.EntryRepo,
		Translator: s.Translator,
		Providers:  s.Providers,
		Memory:     s.Memory,
		Log:        log.Named("batch"),
	})
	s.Jobs = jobs.NewRunner(jobs.Deps{Jobs: s.JobRepo, Entries: s.EntryRepo, Batch: s.Batch, Log: log.Named("jobs")})
	s.Extraction = extraction.New(rimworld.New(log.Named("extractor")), s.EntryRepo, s.ModRepo, log.Named("extraction"))
	s.Entries = entries.New(entries.Deps{
		Entries:  s.EntryRepo,
		Mods:     s.ModRepo,
		Sessions: s.SessionRepo,
		Memory:   s.Memory,
		Log:      log.Named("entries"),
	})
	s.Exporter = exporter.New(s.EntryRepo, exreg.Default(), log.Named("exporter"))
	s.Importer = importer.New(s.EntryRepo, parreg.Default(), log.Named("importer"))
	s.Sessions = session.NewManager(s.SessionRepo, s.EntryRepo, cfg.PageSize, log.Named("session"))
	s.AutoSave = session.NewAutoSaver(time.Duration(cfg.AutoSaveInterval)*time.Second, log.Named("autosave"))
	s.Tracker = session.NewTracker(s.Sessions)
	return s
}

// ReloadProviders rebuilds the provider set after the config changed.
func (s *Services) ReloadProviders() {
	factory.Reload(s.Providers, s.Config, s.Log.Named("providers"))
}

// Backup copies the database to dest, or to a timestamped file under
// data/backups when dest is empty.
func (s *Services) Backup(ctx context.Context, dest string) (string, error) {
	if dest == "" {
		dest = sqlite.BackupName(DefaultBackupDir, time.Now())
	}
	if err := sqlite.Backup(ctx, s.DB, dest); err != nil {
		return "", err
	}
	s.Log.Infow("database backed up", "path", dest)
	return dest, nil
}

const DefaultBackupDir = "data/backups"

// StartAutoSave begins periodic saving of the tracked position.
func (s *Services) StartAutoSave(ctx context.Context) bool {
	return s.AutoSave.Start(ctx, s.Tracker.Save)
}

// Close stops background work, writes the last position and closes the
// database.
func (s *Services) Close() error {
	s.AutoSave.Stop()
	if err := s.Tracker.Save(context.Background()); err != nil {
		s.Log.Warnw("final session save failed", "err", err)
	}
	s.Jobs.Shutdown()
	_ = s.Log.Sync()
	return s.DB.Close()
}
