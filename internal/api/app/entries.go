package app

import (
	"context"

	"rimloc/internal/domain"
	"rimloc/internal/usecase/entries"
	"rimloc/internal/usecase/memory"
	"rimloc/internal/usecase/translator"
)

type EntryAPI struct {
	ent   *entries.Service
	trans *translator.Service
	mem   *memory.Service
}

func NewEntryAPI(ent *entries.Service, trans *translator.Service, mem *memory.Service) *EntryAPI {
	return &EntryAPI{ent: ent, trans: trans, mem: mem}
}

type ListEntriesRequest struct {
	ModName string `json:"mod_name"`
	Status  string `json:"status"`
	Search  string `json:"search"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

func (a *EntryAPI) List(req ListEntriesRequest) (entries.Page, error) {
	if req.PerPage <= 0 {
		req.PerPage = 100
	}
	if req.Page < 0 {
		req.Page = 0
	}
	return a.ent.List(context.Background(), domain.EntryFilter{
		ModName: req.ModName,
		Status:  req.Status,
		Search:  req.Search,
		Limit:   req.PerPage,
		Offset:  req.Page * req.PerPage,
	})
}

func (a *EntryAPI) Get(id int64) (*domain.Entry, error) { return a.ent.Get(context.Background(), id) }

func (a *EntryAPI) Save(id int64, text string) (*domain.Entry, error) {
	return a.ent.Edit(context.Background(), id, text)
}

func (a *EntryAPI) Skip(id int64) error { return a.ent.Skip(context.Background(), id) }

func (a *EntryAPI) Reset(id int64) error { return a.ent.Reset(context.Background(), id) }

// Suggest lists memory and glossary matches for an entry's source text.
func (a *EntryAPI) Suggest(id int64, limit int) ([]domain.Match, error) {
	ctx := context.Background()
	e, err := a.ent.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	return a.mem.Suggestions(ctx, e.OriginalText, limit)
}

// Translate asks a provider for one entry without saving the result; the
// user accepts it through Save.
func (a *EntryAPI) Translate(id int64, provider string) (translator.Output, error) {
	ctx := context.Background()
	e, err := a.ent.Get(ctx, id)
	if err != nil {
		return translator.Output{}, err
	}
	return a.trans.Translate(ctx, provider, translator.UnitOf(e))
}

// TranslateText translates free text, consulting translation memory first.
func (a *EntryAPI) TranslateText(text, provider string, useMemory bool) (translator.SingleResult, error) {
	return a.trans.TranslateSingle(context.Background(), text, provider, useMemory)
}
