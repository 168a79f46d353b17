package sqlite

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"rimloc/internal/domain"
)

// ModListRepo keeps the list of recently opened mods.
type ModListRepo struct{ *Repo }

func NewModListRepo(db *sql.DB) *ModListRepo { return &ModListRepo{NewRepo(db)} }

var modColumns = []string{"id", "mod_name", "mod_path", "root_path", "added_at", "last_accessed"}

// Add records a mod; re-adding an existing name updates its paths and access time.
func (r *ModListRepo) Add(ctx context.Context, m *domain.ModRecord) error {
	ts := now()
	q := r.SQ.Insert("mod_list").Columns("mod_name", "mod_path", "root_path", "added_at", "last_accessed").
		Values(m.ModName, m.ModPath, m.RootPath, ts, ts).
		Suffix(`ON CONFLICT(mod_name) DO UPDATE SET
            mod_path = excluded.mod_path,
            root_path = excluded.root_path,
            last_accessed = excluded.last_accessed
        RETURNING id, added_at`)
	sqlStr, args, _ := q.ToSql()
	var added string
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&m.ID, &added); err != nil {
		return err
	}
	m.AddedAt = parseTime(added)
	m.LastAccessed = parseTime(ts)
	return nil
}

func (r *ModListRepo) Get(ctx context.Context, modName string) (*domain.ModRecord, error) {
	q := r.SQ.Select(modColumns...).From("mod_list").Where(sq.Eq{"mod_name": modName}).Limit(1)
	sqlStr, args, _ := q.ToSql()
	m, err := scanMod(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *ModListRepo) List(ctx context.Context) ([]*domain.ModRecord, error) {
	q := r.SQ.Select(modColumns...).From("mod_list").OrderBy("last_accessed DESC", "id DESC")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.ModRecord
	for rows.Next() {
		m, err := scanMod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ModListRepo) Touch(ctx context.Context, modName string) error {
	_, err := r.exec(ctx, r.SQ.Update("mod_list").Set("last_accessed", now()).Where(sq.Eq{"mod_name": modName}))
	return err
}

func (r *ModListRepo) Remove(ctx context.Context, modName string) error {
	res, err := r.exec(ctx, r.SQ.Delete("mod_list").Where(sq.Eq{"mod_name": modName}))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ModListRepo) Clear(ctx context.Context) error {
	_, err := r.exec(ctx, r.SQ.Delete("mod_list"))
	return err
}

func scanMod(row rowScanner) (*domain.ModRecord, error) {
	var m domain.ModRecord
	var added, accessed string
	if err := row.Scan(&m.ID, &m.ModName, &m.ModPath, &m.RootPath, &added, &accessed); err != nil {
		return nil, err
	}
	m.AddedAt = parseTime(added)
	m.LastAccessed = parseTime(accessed)
	return &m, nil
}
