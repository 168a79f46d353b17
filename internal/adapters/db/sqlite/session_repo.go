package sqlite

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"rimloc/internal/domain"
)

type SessionRepo struct{ *Repo }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{NewRepo(db)} }

var sessionColumns = []string{
	"id", "mod_name", "mod_path", "total_entries", "translated_entries", "current_page", "last_save", "created_at",
}

// Upsert saves the session for s.ModName, stamping last_save.
func (r *SessionRepo) Upsert(ctx context.Context, s *domain.Session) error {
	ts := now()
	q := r.SQ.Insert("translation_sessions").
		Columns("mod_name", "mod_path", "total_entries", "translated_entries", "current_page", "last_save", "created_at").
		Values(s.ModName, s.ModPath, s.TotalEntries, s.TranslatedEntries, s.CurrentPage, ts, ts).
		Suffix(`ON CONFLICT(mod_name) DO UPDATE SET
            mod_path = excluded.mod_path,
            total_entries = excluded.total_entries,
            translated_entries = excluded.translated_entries,
            current_page = excluded.current_page,
            last_save = excluded.last_save
        RETURNING id, created_at`)
	sqlStr, args, _ := q.ToSql()
	var created string
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&s.ID, &created); err != nil {
		return err
	}
	s.CreatedAt = parseTime(created)
	s.LastSave = parseTime(ts)
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, modName string) (*domain.Session, error) {
	q := r.SQ.Select(sessionColumns...).From("translation_sessions").Where(sq.Eq{"mod_name": modName}).Limit(1)
	sqlStr, args, _ := q.ToSql()
	s, err := scanSession(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *SessionRepo) List(ctx context.Context) ([]*domain.Session, error) {
	q := r.SQ.Select(sessionColumns...).From("translation_sessions").OrderBy("last_save DESC", "id DESC")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SessionRepo) Delete(ctx context.Context, modName string) error {
	res, err := r.exec(ctx, r.SQ.Delete("translation_sessions").Where(sq.Eq{"mod_name": modName}))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var lastSave, created string
	if err := row.Scan(&s.ID, &s.ModName, &s.ModPath, &s.TotalEntries, &s.TranslatedEntries, &s.CurrentPage, &lastSave, &created); err != nil {
		return nil, err
	}
	s.LastSave = parseTime(lastSave)
	s.CreatedAt = parseTime(created)
	return &s, nil
}
