// Package jobs runs batch translations in the background for the GUI,
// recording every item and log line so a run can be inspected afterwards.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"rimloc/internal/domain"
	"rimloc/internal/logging"
	"rimloc/internal/ports"
	"rimloc/internal/usecase/batch"
)

// Job statuses.
const (
	StatusQueued   = "queued"
	StatusRunning  = "running"
	StatusDone     = "done"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// Event names sent to the EventEmitter.
const (
	EventStarted   = "job.started"
	EventItemStart = "job.item.start"
	EventItemDone  = "job.item.done"
	EventProgress  = "job.progress"
	EventLog       = "job.log"
)

type Deps struct {
	Jobs    ports.JobRepository
	Entries ports.EntryRepository
	Batch   *batch.Service
	Log     *zap.SugaredLogger
}

type Runner struct {
	d      Deps
	log    *zap.SugaredLogger
	mu     sync.Mutex
	active map[int64]context.CancelFunc
	wg     sync.WaitGroup
	em     EventEmitter
}

func NewRunner(d Deps) *Runner {
	return &Runner{d: d, log: logging.OrNop(d.Log), active: map[int64]context.CancelFunc{}}
}

type EventEmitter interface {
	Emit(name string, payload any)
}

func (r *Runner) SetEmitter(em EventEmitter) { r.em = em }

// TranslateModParams selects what a job translates. With EntryIDs set only
// those entries are considered, otherwise every untranslated entry of ModName.
type TranslateModParams struct {
	ModName     string  `json:"mod_name"`
	Provider    string  `json:"provider"`
	UseMemory   bool    `json:"use_memory"`
	Concurrency int     `json:"concurrency"`
	EntryIDs    []int64 `json:"entry_ids,omitempty"`
}

// StartTranslateMod creates a job and runs it in the background. The
// returned id can be passed to Cancel.
func (r *Runner) StartTranslateMod(ctx context.Context, p TranslateModParams) (int64, error) {
	entries, err := r.pending(ctx, p)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: nothing to translate in %s", domain.ErrValidation, p.ModName)
	}
	typ := "translate_mod"
	if len(p.EntryIDs) > 0 {
		typ = "translate_entries"
	}
	paramsJSON, _ := json.Marshal(p)
	job := &domain.Job{Type: typ, Status: StatusQueued, ModName: p.ModName, Provider: p.Provider, ParamsRaw: string(paramsJSON), Total: len(entries)}
	id, err := r.d.Jobs.Create(ctx, job)
	if err != nil {
		return 0, err
	}
	_ = r.d.Jobs.UpdateProgress(ctx, id, 0, len(entries), StatusRunning)
	r.emit(EventStarted, map[string]any{"job_id": id, "total": len(entries), "mod_name": p.ModName, "provider": p.Provider})
	r.logf(id, "info", "job started: mod=%s provider=%s entries=%d", p.ModName, p.Provider, len(entries))

	cctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.active[id] = cancel
	r.mu.Unlock()
	r.wg.Add(1)
	go r.run(cctx, id, p, entries)
	return id, nil
}

func (r *Runner) pending(ctx context.Context, p TranslateModParams) ([]*domain.Entry, error) {
	var all []*domain.Entry
	if len(p.EntryIDs) > 0 {
		for _, id := range p.EntryIDs {
			e, err := r.d.Entries.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			if e != nil {
				all = append(all, e)
			}
		}
	} else {
		var err error
		all, err = r.d.Entries.List(ctx, domain.EntryFilter{ModName: p.ModName})
		if err != nil {
			return nil, err
		}
	}
	out := all[:0]
	for _, e := range all {
		if e.Status == domain.StatusSkipped || e.Translated() {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *Runner) run(ctx context.Context, jobID int64, p TranslateModParams, entries []*domain.Entry) {
	defer r.wg.Done()
	defer r.forget(jobID)
	// Bookkeeping outlives a canceled run.
	bg := context.Background()

	var (
		mu    sync.Mutex
		items = make(map[*domain.Entry]int64, len(entries))
	)
	total := len(entries)
	res, err := r.d.Batch.Run(ctx, entries, batch.Options{
		Provider:    p.Provider,
		UseMemory:   p.UseMemory,
		Concurrency: p.Concurrency,
		OnStart: func(e *domain.Entry) {
			entryID := e.ID
			itemID, aerr := r.d.Jobs.AddItem(bg, &domain.JobItem{JobID: jobID, EntryID: &entryID, Status: StatusRunning})
			if aerr != nil {
				r.log.Warnw("job item not recorded", "job", jobID, "entry", e.ID, "err", aerr)
			}
			mu.Lock()
			items[e] = itemID
			mu.Unlock()
			r.emit(EventItemStart, map[string]any{"job_id": jobID, "entry_id": e.ID, "key": e.XMLPath})
		},
		OnProgress: func(pr batch.Progress) {
			mu.Lock()
			itemID := items[pr.Entry]
			mu.Unlock()
			e := pr.Entry
			if pr.Err != nil {
				_ = r.d.Jobs.UpdateItem(bg, itemID, StatusFailed, pr.Source, pr.Err.Error())
				r.logf(jobID, "error", "%s: %v", e.XMLPath, pr.Err)
				r.emit(EventItemDone, map[string]any{"job_id": jobID, "entry_id": e.ID, "key": e.XMLPath, "error": pr.Err.Error()})
			} else {
				_ = r.d.Jobs.UpdateItem(bg, itemID, StatusDone, pr.Source, "")
				r.emit(EventItemDone, map[string]any{"job_id": jobID, "entry_id": e.ID, "key": e.XMLPath, "text": e.TranslatedText, "source": pr.Source})
			}
			_ = r.d.Jobs.UpdateProgress(bg, jobID, pr.Done, total, StatusRunning)
			r.emit(EventProgress, map[string]any{"job_id": jobID, "done": pr.Done, "total": total, "status": StatusRunning})
		},
	})

	status := StatusDone
	switch {
	case errors.Is(err, context.Canceled):
		status = StatusCanceled
		r.logf(jobID, "warn", "job canceled")
	case err != nil:
		status = StatusFailed
		r.logf(jobID, "error", "job failed: %v", err)
	default:
		r.logf(jobID, "info", "job finished: success=%d failed=%d memory=%d", res.Success, res.Failed, res.MemoryHits)
	}
	done := res.Success + res.Failed
	_ = r.d.Jobs.UpdateProgress(bg, jobID, done, total, status)
	r.emit(EventProgress, map[string]any{"job_id": jobID, "done": done, "total": total, "status": status})
}

func (r *Runner) logf(jobID int64, level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if err := r.d.Jobs.AddLog(context.Background(), &domain.JobLog{JobID: jobID, Level: level, Message: msg}); err != nil {
		r.log.Warnw("job log not recorded", "job", jobID, "err", err)
	}
	r.emit(EventLog, map[string]any{"job_id": jobID, "level": level, "message": msg, "ts": time.Now().UTC().Format(time.RFC3339)})
}

func (r *Runner) emit(name string, payload any) {
	if r.em != nil {
		r.em.Emit(name, payload)
	}
}

func (r *Runner) forget(jobID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.active[jobID]; ok {
		cancel()
		delete(r.active, jobID)
	}
}

// Cancel stops a running job. It reports false for unknown or finished jobs.
func (r *Runner) Cancel(jobID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.active[jobID]; ok {
		cancel()
		delete(r.active, jobID)
		return true
	}
	return false
}

// Running reports whether jobID is still in flight.
func (r *Runner) Running(jobID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[jobID]
	return ok
}

// Wait blocks until every started job has finished.
func (r *Runner) Wait() { r.wg.Wait() }

// Shutdown cancels all running jobs and waits for them.
func (r *Runner) Shutdown() {
	r.mu.Lock()
	for id, cancel := range r.active {
		cancel()
		delete(r.active, id)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) Get(ctx context.Context, jobID int64) (*domain.Job, error) {
	return r.d.Jobs.Get(ctx, jobID)
}

func (r *Runner) List(ctx context.Context, limit int) ([]*domain.Job, error) {
	return r.d.Jobs.List(ctx, limit)
}

func (r *Runner) Items(ctx context.Context, jobID int64) ([]*domain.JobItem, error) {
	return r.d.Jobs.ListItems(ctx, jobID)
}

func (r *Runner) Logs(ctx context.Context, jobID int64, limit int) ([]*domain.JobLog, error) {
	return r.d.Jobs.ListLogs(ctx, jobID, limit)
}

// Delete removes a finished job and its history.
func (r *Runner) Delete(ctx context.Context, jobID int64) error {
	if r.Running(jobID) {
		return fmt.Errorf("%w: job %d is still running", domain.ErrValidation, jobID)
	}
	return r.d.Jobs.Delete(ctx, jobID)
}
