package ports

import (
	"context"
	"time"

	"rimloc/internal/domain"
)

type EntryRepository interface {
	SaveBatch(ctx context.Context, entries []*domain.Entry) (int, error)
	Save(ctx context.Context, e *domain.Entry) error
	Get(ctx context.Context, id int64) (*domain.Entry, error)
	List(ctx context.Context, f domain.EntryFilter) ([]*domain.Entry, error)
	Count(ctx context.Context, f domain.EntryFilter) (int, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateTranslation(ctx context.Context, id int64, text, status string) error
	DeleteByMod(ctx context.Context, modName string) (int64, error)
	ModNames(ctx context.Context) ([]string, error)
	Statistics(ctx context.Context, modName string) (domain.Statistics, error)
}

type MemoryRepository interface {
	Save(ctx context.Context, m *domain.MemoryEntry) error
	FindExact(ctx context.Context, hash string) (*domain.MemoryEntry, error)
	Candidates(ctx context.Context, words []string, minLen, maxLen, limit int) ([]*domain.MemoryEntry, error)
	List(ctx context.Context, limit, offset int) ([]*domain.MemoryEntry, error)
	Delete(ctx context.Context, id int64) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Stats(ctx context.Context) (domain.MemoryStats, error)
}

type GlossaryRepository interface {
	Save(ctx context.Context, g *domain.GlossaryEntry) error
	SaveBatch(ctx context.Context, items []*domain.GlossaryEntry) (int, error)
	Get(ctx context.Context, id int64) (*domain.GlossaryEntry, error)
	FindByTerm(ctx context.Context, termEN string) (*domain.GlossaryEntry, error)
	List(ctx context.Context, category string) ([]*domain.GlossaryEntry, error)
	Search(ctx context.Context, keyword, category string, limit int) ([]*domain.GlossaryEntry, error)
	Categories(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (domain.GlossaryStats, error)
	Delete(ctx context.Context, id int64) error
	DeleteBySource(ctx context.Context, source string) (int64, error)
}

type SessionRepository interface {
	Upsert(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, modName string) (*domain.Session, error)
	List(ctx context.Context) ([]*domain.Session, error)
	Delete(ctx context.Context, modName string) error
}

type ModListRepository interface {
	Add(ctx context.Context, m *domain.ModRecord) error
	Get(ctx context.Context, modName string) (*domain.ModRecord, error)
	List(ctx context.Context) ([]*domain.ModRecord, error)
	Touch(ctx context.Context, modName string) error
	Remove(ctx context.Context, modName string) error
	Clear(ctx context.Context) error
}

type JobRepository interface {
	Create(ctx context.Context, j *domain.Job) (int64, error)
	UpdateProgress(ctx context.Context, jobID int64, done, total int, status string) error
	AddItem(ctx context.Context, ji *domain.JobItem) (int64, error)
	UpdateItem(ctx context.Context, itemID int64, status, source, errMsg string) error
	AddLog(ctx context.Context, jl *domain.JobLog) error
	Get(ctx context.Context, jobID int64) (*domain.Job, error)
	List(ctx context.Context, limit int) ([]*domain.Job, error)
	ListItems(ctx context.Context, jobID int64) ([]*domain.JobItem, error)
	ListLogs(ctx context.Context, jobID int64, limit int) ([]*domain.JobLog, error)
	Delete(ctx context.Context, jobID int64) error
}

type TemplateRepository interface {
	GetEffective(ctx context.Context, scope, ref, typ, role string) (*domain.Template, error)
	Upsert(ctx context.Context, t *domain.Template) error
	List(ctx context.Context) ([]*domain.Template, error)
}
