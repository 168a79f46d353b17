package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"rimloc/internal/domain"
)

// MemoryRepo stores translation-memory pairs keyed by source hash.
type MemoryRepo struct{ *Repo }

func NewMemoryRepo(db *sql.DB) *MemoryRepo { return &MemoryRepo{NewRepo(db)} }

var memoryColumns = []string{
	"id", "source_text", "target_text", "source_hash", "context", "use_count", "last_used", "created_at",
}

// Save inserts a pair or, when the hash is known, replaces the target and
// counts one more use.
func (r *MemoryRepo) Save(ctx context.Context, m *domain.MemoryEntry) error {
	ts := now()
	q := r.SQ.
		Insert("translation_memory").
		Columns("source_text", "target_text", "source_hash", "context", "use_count", "last_used", "created_at").
		Values(m.SourceText, m.TargetText, m.SourceHash, m.Context, 1, ts, ts).
		Suffix(`ON CONFLICT(source_hash) DO UPDATE SET
            target_text = excluded.target_text,
            context = CASE WHEN excluded.context = '' THEN translation_memory.context ELSE excluded.context END,
            use_count = translation_memory.use_count + 1,
            last_used = excluded.last_used
        RETURNING id, use_count`)
	sqlStr, args, _ := q.ToSql()
	return r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&m.ID, &m.UseCount)
}

// FindExact returns the pair for hash and records the use.
func (r *MemoryRepo) FindExact(ctx context.Context, hash string) (*domain.MemoryEntry, error) {
	q := r.SQ.Update("translation_memory").
		Set("use_count", sq.Expr("use_count + 1")).
		Set("last_used", now()).
		Where(sq.Eq{"source_hash": hash}).
		Suffix("RETURNING " + strings.Join(memoryColumns, ", "))
	sqlStr, args, _ := q.ToSql()
	m, err := scanMemory(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// Candidates returns pairs whose source length lies in [minLen, maxLen] and
// that contain at least one of words, most used first.
func (r *MemoryRepo) Candidates(ctx context.Context, words []string, minLen, maxLen, limit int) ([]*domain.MemoryEntry, error) {
	q := r.SQ.Select(memoryColumns...).From("translation_memory").
		Where("LENGTH(source_text) BETWEEN ? AND ?", minLen, maxLen)
	if len(words) > 0 {
		or := sq.Or{}
		for _, w := range words {
			or = append(or, sq.Like{"source_text": "%" + w + "%"})
		}
		q = q.Where(or)
	}
	if limit <= 0 {
		limit = 200
	}
	q = q.OrderBy("use_count DESC", "id DESC").Limit(uint64(limit))
	return r.query(ctx, q)
}

func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]*domain.MemoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.SQ.Select(memoryColumns...).From("translation_memory").
		OrderBy("last_used DESC", "id DESC").Limit(uint64(limit)).Offset(uint64(max(offset, 0)))
	return r.query(ctx, q)
}

func (r *MemoryRepo) query(ctx context.Context, q sq.SelectBuilder) ([]*domain.MemoryEntry, error) {
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.MemoryEntry
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.exec(ctx, r.SQ.Delete("translation_memory").Where(sq.Eq{"id": id}))
	return err
}

// DeleteOlderThan removes pairs not used since cutoff.
func (r *MemoryRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.exec(ctx, r.SQ.Delete("translation_memory").
		Where(sq.Lt{"last_used": cutoff.UTC().Format(time.RFC3339)}))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *MemoryRepo) Stats(ctx context.Context) (domain.MemoryStats, error) {
	q := r.SQ.Select("COUNT(*)", "COALESCE(SUM(use_count), 0)", "COALESCE(AVG(use_count), 0)").From("translation_memory")
	sqlStr, args, _ := q.ToSql()
	var s domain.MemoryStats
	err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&s.TotalEntries, &s.TotalUses, &s.AvgUses)
	return s, err
}

func scanMemory(row rowScanner) (*domain.MemoryEntry, error) {
	var m domain.MemoryEntry
	var lastUsed, created string
	if err := row.Scan(&m.ID, &m.SourceText, &m.TargetText, &m.SourceHash, &m.Context, &m.UseCount, &lastUsed, &created); err != nil {
		return nil, err
	}
	m.LastUsed = parseTime(lastUsed)
	m.CreatedAt = parseTime(created)
	return &m, nil
}
