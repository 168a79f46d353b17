package app

import (
	"context"

	"rimloc/internal/domain"
	"rimloc/internal/usecase/memory"
)

type MemoryAPI struct {
	svc *memory.Service
}

func NewMemoryAPI(svc *memory.Service) *MemoryAPI { return &MemoryAPI{svc: svc} }

func (a *MemoryAPI) Stats() (domain.MemoryStats, error) { return a.svc.Stats(context.Background()) }

func (a *MemoryAPI) List(page, perPage int) ([]*domain.MemoryEntry, error) {
	if perPage <= 0 {
		perPage = 100
	}
	if page < 0 {
		page = 0
	}
	return a.svc.List(context.Background(), perPage, page*perPage)
}

func (a *MemoryAPI) Delete(id int64) error { return a.svc.Delete(context.Background(), id) }

// Cleanup drops pairs unused for the given number of days and reports how
// many went.
func (a *MemoryAPI) Cleanup(days int) (int64, error) {
	return a.svc.Cleanup(context.Background(), days)
}

func (a *MemoryAPI) Suggest(text string, limit int) ([]domain.Match, error) {
	if limit <= 0 {
		limit = 5
	}
	return a.svc.Suggestions(context.Background(), text, limit)
}

// Lookup returns the best match for text, or nil.
func (a *MemoryAPI) Lookup(text string, fuzzy bool) (*domain.Match, error) {
	return a.svc.Find(context.Background(), text, fuzzy)
}

func (a *MemoryAPI) Save(source, target string) error {
	return a.svc.Save(context.Background(), source, target, "manual")
}
