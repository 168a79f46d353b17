package app

import (
	"context"
	"time"

	"rimloc/internal/usecase/jobs"
)

type JobsAPI struct{ r *jobs.Runner }

func NewJobsAPI(r *jobs.Runner) *JobsAPI { return &JobsAPI{r: r} }

type StartTranslateModRequest struct {
	ModName     string  `json:"mod_name"`
	Provider    string  `json:"provider"`
	UseMemory   bool    `json:"use_memory"`
	Concurrency int     `json:"concurrency"`
	EntryIDs    []int64 `json:"entry_ids"`
}

type StartJobResponse struct {
	JobID int64 `json:"job_id"`
}

func (a *JobsAPI) StartTranslateMod(req StartTranslateModRequest) (StartJobResponse, error) {
	jid, err := a.r.StartTranslateMod(context.Background(), jobs.TranslateModParams{
		ModName:     req.ModName,
		Provider:    req.Provider,
		UseMemory:   req.UseMemory,
		Concurrency: req.Concurrency,
		EntryIDs:    req.EntryIDs,
	})
	if err != nil {
		return StartJobResponse{}, err
	}
	return StartJobResponse{JobID: jid}, nil
}

func (a *JobsAPI) Cancel(jobID int64) bool { return a.r.Cancel(jobID) }

type JobDTO struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	ModName  string `json:"mod_name"`
	Provider string `json:"provider"`
	Progress int    `json:"progress"`
	Total    int    `json:"total"`
	Updated  string `json:"updated_at"`
}

func (a *JobsAPI) Get(jobID int64) (*JobDTO, error) {
	j, err := a.r.Get(context.Background(), jobID)
	if err != nil || j == nil {
		return nil, err
	}
	return &JobDTO{ID: j.ID, Type: j.Type, Status: j.Status, ModName: j.ModName, Provider: j.Provider, Progress: j.Progress, Total: j.Total, Updated: j.UpdatedAt.Format(time.RFC3339)}, nil
}

func (a *JobsAPI) List(limit int) ([]*JobDTO, error) {
	js, err := a.r.List(context.Background(), limit)
	if err != nil {
		return nil, err
	}
	out := make([]*JobDTO, 0, len(js))
	for _, j := range js {
		out = append(out, &JobDTO{ID: j.ID, Type: j.Type, Status: j.Status, ModName: j.ModName, Provider: j.Provider, Progress: j.Progress, Total: j.Total, Updated: j.UpdatedAt.Format(time.RFC3339)})
	}
	return out, nil
}

type JobItemDTO struct {
	ID      int64  `json:"id"`
	EntryID *int64 `json:"entry_id"`
	Status  string `json:"status"`
	Source  string `json:"source"`
	Error   string `json:"error"`
}

func (a *JobsAPI) Items(jobID int64) ([]*JobItemDTO, error) {
	items, err := a.r.Items(context.Background(), jobID)
	if err != nil {
		return nil, err
	}
	out := make([]*JobItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, &JobItemDTO{ID: it.ID, EntryID: it.EntryID, Status: it.Status, Source: it.Source, Error: it.Error})
	}
	return out, nil
}

type JobLogDTO struct {
	ID      int64  `json:"id"`
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

func (a *JobsAPI) Logs(jobID int64, limit int) ([]*JobLogDTO, error) {
	logs, err := a.r.Logs(context.Background(), jobID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*JobLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, &JobLogDTO{ID: l.ID, Time: l.Time.Format(time.RFC3339), Level: l.Level, Message: l.Message})
	}
	return out, nil
}

func (a *JobsAPI) Delete(jobID int64) (bool, error) {
	if err := a.r.Delete(context.Background(), jobID); err != nil {
		return false, err
	}
	return true, nil
}
