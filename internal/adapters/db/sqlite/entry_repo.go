package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"rimloc/internal/domain"
)

type EntryRepo struct{ *Repo }

func NewEntryRepo(db *sql.DB) *EntryRepo { return &EntryRepo{NewRepo(db)} }

var entryColumns = []string{
	"id", "mod_name", "file_path", "xml_path", "original_text", "translated_text",
	"comment", "status", "created_at", "updated_at",
}

// Re-extracting a file keeps the existing translation as long as the
// original text did not change.
const entryUpsertSuffix = `ON CONFLICT(mod_name, file_path, xml_path) DO UPDATE SET
    translated_text = CASE WHEN translations.original_text = excluded.original_text
        THEN translations.translated_text ELSE excluded.translated_text END,
    status = CASE WHEN translations.original_text = excluded.original_text
        THEN translations.status ELSE excluded.status END,
    original_text = excluded.original_text,
    comment = excluded.comment,
    updated_at = excluded.updated_at`

// SaveBatch upserts entries in a single transaction and returns how many were written.
func (r *EntryRepo) SaveBatch(ctx context.Context, entries []*domain.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	sqlStr, _, err := r.SQ.Insert("translations").
		Columns("mod_name", "file_path", "xml_path", "original_text", "translated_text", "comment", "status", "created_at", "updated_at").
		Values("", "", "", "", "", "", "", "", "").
		Suffix(entryUpsertSuffix).
		ToSql()
	if err != nil {
		return 0, err
	}
	n := 0
	err = WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, sqlStr)
		if err != nil {
			return err
		}
		defer stmt.Close()
		ts := now()
		for _, e := range entries {
			status := e.Status
			if status == "" {
				status = domain.StatusPending
			}
			if _, err := stmt.ExecContext(ctx, e.ModName, e.FilePath, e.XMLPath, e.OriginalText, e.TranslatedText, e.Comment, status, ts, ts); err != nil {
				return fmt.Errorf("save %s/%s: %w", e.FilePath, e.XMLPath, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrDatabase, err)
	}
	return n, nil
}

// Save inserts or overwrites a single entry, including its translation.
func (r *EntryRepo) Save(ctx context.Context, e *domain.Entry) error {
	if e.Status == "" {
		e.Status = domain.StatusPending
	}
	ts := now()
	q := r.SQ.Insert("translations").
		Columns("mod_name", "file_path", "xml_path", "original_text", "translated_text", "comment", "status", "created_at", "updated_at").
		Values(e.ModName, e.FilePath, e.XMLPath, e.OriginalText, e.TranslatedText, e.Comment, e.Status, ts, ts).
		Suffix(`ON CONFLICT(mod_name, file_path, xml_path) DO UPDATE SET
            original_text = excluded.original_text,
            translated_text = excluded.translated_text,
            comment = excluded.comment,
            status = excluded.status,
            updated_at = excluded.updated_at
        RETURNING id`)
	sqlStr, args, _ := q.ToSql()
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&e.ID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDatabase, err)
	}
	return nil
}

func (r *EntryRepo) Get(ctx context.Context, id int64) (*domain.Entry, error) {
	q := r.SQ.Select(entryColumns...).From("translations").Where(sq.Eq{"id": id}).Limit(1)
	sqlStr, args, _ := q.ToSql()
	e, err := scanEntry(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *EntryRepo) List(ctx context.Context, f domain.EntryFilter) ([]*domain.Entry, error) {
	q := applyEntryFilter(r.SQ.Select(entryColumns...).From("translations"), f).OrderBy("id")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EntryRepo) Count(ctx context.Context, f domain.EntryFilter) (int, error) {
	return r.count(ctx, applyEntryFilter(r.SQ.Select("COUNT(*)").From("translations"), f))
}

func applyEntryFilter(q sq.SelectBuilder, f domain.EntryFilter) sq.SelectBuilder {
	if f.ModName != "" {
		q = q.Where(sq.Eq{"mod_name": f.ModName})
	}
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": f.Status})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where(sq.Or{
			sq.Like{"original_text": like},
			sq.Like{"translated_text": like},
			sq.Like{"xml_path": like},
		})
	}
	return q
}

func (r *EntryRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !domain.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	q := r.SQ.Update("translations").Set("status", status).Set("updated_at", now()).Where(sq.Eq{"id": id})
	return r.execOne(ctx, q)
}

// UpdateTranslation stores text for an entry. An empty status is derived
// from the text: completed when non-blank, pending otherwise.
func (r *EntryRepo) UpdateTranslation(ctx context.Context, id int64, text, status string) error {
	if status == "" {
		status = domain.StatusPending
		if strings.TrimSpace(text) != "" {
			status = domain.StatusCompleted
		}
	}
	if !domain.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	q := r.SQ.Update("translations").
		Set("translated_text", text).
		Set("status", status).
		Set("updated_at", now()).
		Where(sq.Eq{"id": id})
	return r.execOne(ctx, q)
}

func (r *EntryRepo) execOne(ctx context.Context, q sq.Sqlizer) error {
	res, err := r.exec(ctx, q)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDatabase, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EntryRepo) DeleteByMod(ctx context.Context, modName string) (int64, error) {
	res, err := r.exec(ctx, r.SQ.Delete("translations").Where(sq.Eq{"mod_name": modName}))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *EntryRepo) ModNames(ctx context.Context) ([]string, error) {
	q := r.SQ.Select("DISTINCT mod_name").From("translations").OrderBy("mod_name")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Statistics counts entries by status. An empty modName covers all mods.
func (r *EntryRepo) Statistics(ctx context.Context, modName string) (domain.Statistics, error) {
	q := r.SQ.Select(
		"COUNT(*)",
		"COALESCE(SUM(status = 'completed'), 0)",
		"COALESCE(SUM(status = 'pending'), 0)",
		"COALESCE(SUM(status = 'skipped'), 0)",
		"COALESCE(SUM(status = 'failed'), 0)",
	).From("translations")
	if modName != "" {
		q = q.Where(sq.Eq{"mod_name": modName})
	}
	sqlStr, args, _ := q.ToSql()
	var s domain.Statistics
	err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&s.Total, &s.Completed, &s.Pending, &s.Skipped, &s.Failed)
	return s, err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanEntry(row rowScanner) (*domain.Entry, error) {
	var e domain.Entry
	var created, updated string
	if err := row.Scan(&e.ID, &e.ModName, &e.FilePath, &e.XMLPath, &e.OriginalText, &e.TranslatedText,
		&e.Comment, &e.Status, &created, &updated); err != nil {
		return nil, err
	}
	e.CreatedAt = parseTime(created)
	e.UpdatedAt = parseTime(updated)
	return &e, nil
}
