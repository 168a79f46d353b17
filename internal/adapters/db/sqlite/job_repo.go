package sqlite

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"rimloc/internal/domain"
)

type JobRepo struct{ *Repo }

func NewJobRepo(db *sql.DB) *JobRepo { return &JobRepo{NewRepo(db)} }

var jobColumns = []string{"id", "type", "status", "mod_name", "provider", "params_json", "progress", "total", "created_at", "updated_at"}

func (r *JobRepo) Create(ctx context.Context, j *domain.Job) (int64, error) {
	ts := now()
	if j.ParamsRaw == "" {
		j.ParamsRaw = "{}"
	}
	q := r.SQ.Insert("jobs").Columns("type", "status", "mod_name", "provider", "params_json", "progress", "total", "created_at", "updated_at").
		Values(j.Type, j.Status, j.ModName, j.Provider, j.ParamsRaw, j.Progress, j.Total, ts, ts)
	res, err := r.exec(ctx, q)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	j.ID = id
	j.CreatedAt = parseTime(ts)
	j.UpdatedAt = j.CreatedAt
	return id, nil
}

func (r *JobRepo) UpdateProgress(ctx context.Context, jobID int64, done, total int, status string) error {
	q := r.SQ.Update("jobs").Set("progress", done).Set("total", total).Set("status", status).Set("updated_at", now()).Where(sq.Eq{"id": jobID})
	_, err := r.exec(ctx, q)
	return err
}

func (r *JobRepo) AddItem(ctx context.Context, ji *domain.JobItem) (int64, error) {
	ts := now()
	q := r.SQ.Insert("job_items").Columns("job_id", "entry_id", "status", "source", "error", "created_at", "updated_at").
		Values(ji.JobID, ji.EntryID, ji.Status, ji.Source, ji.Error, ts, ts)
	res, err := r.exec(ctx, q)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	ji.ID = id
	return id, nil
}

func (r *JobRepo) UpdateItem(ctx context.Context, itemID int64, status, source, errMsg string) error {
	q := r.SQ.Update("job_items").Set("status", status).Set("source", source).Set("error", errMsg).Set("updated_at", now()).Where(sq.Eq{"id": itemID})
	_, err := r.exec(ctx, q)
	return err
}

func (r *JobRepo) AddLog(ctx context.Context, jl *domain.JobLog) error {
	q := r.SQ.Insert("job_logs").Columns("job_id", "ts", "level", "message").Values(jl.JobID, now(), jl.Level, jl.Message)
	_, err := r.exec(ctx, q)
	return err
}

func (r *JobRepo) Get(ctx context.Context, jobID int64) (*domain.Job, error) {
	q := r.SQ.Select(jobColumns...).From("jobs").Where(sq.Eq{"id": jobID}).Limit(1)
	sqlStr, args, _ := q.ToSql()
	j, err := scanJob(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func (r *JobRepo) List(ctx context.Context, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.SQ.Select(jobColumns...).From("jobs").OrderBy("id DESC").Limit(uint64(limit))
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *JobRepo) ListItems(ctx context.Context, jobID int64) ([]*domain.JobItem, error) {
	q := r.SQ.Select("id", "job_id", "entry_id", "status", "source", "error", "created_at", "updated_at").From("job_items").Where(sq.Eq{"job_id": jobID}).OrderBy("id")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.JobItem
	for rows.Next() {
		var ji domain.JobItem
		var entry sql.NullInt64
		var created, updated string
		if err := rows.Scan(&ji.ID, &ji.JobID, &entry, &ji.Status, &ji.Source, &ji.Error, &created, &updated); err != nil {
			return nil, err
		}
		if entry.Valid {
			v := entry.Int64
			ji.EntryID = &v
		}
		ji.CreatedAt = parseTime(created)
		ji.UpdatedAt = parseTime(updated)
		out = append(out, &ji)
	}
	return out, rows.Err()
}

// ListLogs returns the newest limit log lines in chronological order.
func (r *JobRepo) ListLogs(ctx context.Context, jobID int64, limit int) ([]*domain.JobLog, error) {
	if limit <= 0 {
		limit = 200
	}
	q := r.SQ.Select("id", "job_id", "ts", "level", "message").From("job_logs").Where(sq.Eq{"job_id": jobID}).OrderBy("id DESC").Limit(uint64(limit))
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.JobLog
	for rows.Next() {
		var jl domain.JobLog
		var ts string
		if err := rows.Scan(&jl.ID, &jl.JobID, &ts, &jl.Level, &jl.Message); err != nil {
			return nil, err
		}
		jl.Time = parseTime(ts)
		out = append(out, &jl)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

// Delete removes a job; items and logs go with it.
func (r *JobRepo) Delete(ctx context.Context, jobID int64) error {
	_, err := r.exec(ctx, r.SQ.Delete("jobs").Where(sq.Eq{"id": jobID}))
	return err
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var j domain.Job
	var created, updated string
	if err := row.Scan(&j.ID, &j.Type, &j.Status, &j.ModName, &j.Provider, &j.ParamsRaw, &j.Progress, &j.Total, &created, &updated); err != nil {
		return nil, err
	}
	j.CreatedAt = parseTime(created)
	j.UpdatedAt = parseTime(updated)
	return &j, nil
}
