// Package app exposes the services to the desktop frontend. Every exported
// method of the API structs is bound into JavaScript by wails.
package app

import (
	"context"

	"rimloc/internal/domain"
	"rimloc/internal/usecase/entries"
	"rimloc/internal/usecase/extraction"
)

type ModAPI struct {
	ext *extraction.Service
	ent *entries.Service
}

func NewModAPI(ext *extraction.Service, ent *entries.Service) *ModAPI {
	return &ModAPI{ext: ext, ent: ent}
}

func (a *ModAPI) Scan(path string) (*domain.ModInfo, error) { return a.ext.Scan(path) }

func (a *ModAPI) ScanRoot(root string) ([]*domain.ModInfo, error) { return a.ext.ScanRoot(root) }

type ExtractRequest struct {
	Path           string `json:"path"`
	SourceLanguage string `json:"source_language"`
}

func (a *ModAPI) Extract(req ExtractRequest) (*extraction.Result, error) {
	return a.ext.Extract(context.Background(), req.Path, req.SourceLanguage)
}

func (a *ModAPI) List() ([]entries.ModSummary, error) {
	return a.ent.Mods(context.Background())
}

func (a *ModAPI) Open(name string) (*domain.ModRecord, error) {
	return a.ent.Open(context.Background(), name)
}

func (a *ModAPI) Progress(name string) (domain.Statistics, error) {
	return a.ent.Progress(context.Background(), name)
}

// Remove forgets a mod; purge also deletes its entries and session.
func (a *ModAPI) Remove(name string, purge bool) (int64, error) {
	return a.ent.RemoveMod(context.Background(), name, purge)
}
