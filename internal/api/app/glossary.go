package app

import (
	"context"
	"strings"

	"rimloc/internal/config"
	"rimloc/internal/domain"
	"rimloc/internal/usecase/glossary"
)

type GlossaryAPI struct {
	svc *glossary.Service
	cfg *config.Config
}

func NewGlossaryAPI(svc *glossary.Service, cfg *config.Config) *GlossaryAPI {
	return &GlossaryAPI{svc: svc, cfg: cfg}
}

type GlossarySearchRequest struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

func (a *GlossaryAPI) Search(req GlossarySearchRequest) ([]*domain.GlossaryEntry, error) {
	if req.Limit <= 0 {
		req.Limit = 200
	}
	return a.svc.Search(context.Background(), req.Keyword, req.Category, req.Limit)
}

func (a *GlossaryAPI) Add(g domain.GlossaryEntry) (*domain.GlossaryEntry, error) {
	if g.Source == "" {
		g.Source = domain.SourceUser
	}
	if err := a.svc.Add(context.Background(), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (a *GlossaryAPI) Delete(id int64) error { return a.svc.Delete(context.Background(), id) }

func (a *GlossaryAPI) Categories() ([]string, error) { return a.svc.Categories(context.Background()) }

func (a *GlossaryAPI) Stats() (domain.GlossaryStats, error) { return a.svc.Stats(context.Background()) }

func (a *GlossaryAPI) ImportFile(path string, replace bool) (int, error) {
	return a.svc.ImportFile(context.Background(), strings.TrimSpace(path), replace)
}

func (a *GlossaryAPI) ExportFile(path, category string) (int, error) {
	return a.svc.ExportFile(context.Background(), strings.TrimSpace(path), category)
}

// ImportOfficial reads the game's own translations. An empty gamePath uses
// rimworld_path from the config.
func (a *GlossaryAPI) ImportOfficial(gamePath string) (glossary.OfficialResult, error) {
	if strings.TrimSpace(gamePath) == "" {
		gamePath = a.cfg.RimWorldPath
	}
	return a.svc.ImportOfficial(context.Background(), gamePath)
}

// Apply replaces known terms in text, or only reports them when
// autoReplace is false.
func (a *GlossaryAPI) Apply(text string, autoReplace bool) (glossary.ApplyResult, error) {
	return a.svc.Apply(context.Background(), text, autoReplace)
}

// LookupOnline asks the online sources for translations of term. An empty
// sources list uses every source that is available.
func (a *GlossaryAPI) LookupOnline(term string, sources []string) (glossary.OnlineResult, error) {
	return a.svc.LookupOnline(context.Background(), term, sources)
}

// OnlineSources reports the online sources and whether each is usable now.
func (a *GlossaryAPI) OnlineSources() map[string]bool {
	return a.svc.OnlineSources()
}
