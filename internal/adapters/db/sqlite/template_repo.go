package sqlite

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"rimloc/internal/domain"
)

type TemplateRepo struct{ *Repo }

func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{NewRepo(db)} }

// GetEffective returns the provider template, then the global one, or nil
// when neither is stored.
func (r *TemplateRepo) GetEffective(ctx context.Context, scope, ref, typ, role string) (*domain.Template, error) {
	if scope == "provider" && ref != "" {
		t, err := r.getOne(ctx, scope, ref, typ, role)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}
	}
	return r.getOne(ctx, "global", "", typ, role)
}

func (r *TemplateRepo) getOne(ctx context.Context, scope, ref, typ, role string) (*domain.Template, error) {
	q := r.SQ.Select("id", "scope", "ref", "type", "role", "body", "updated_at").From("templates").
		Where(sq.Eq{"scope": scope, "ref": ref, "type": typ, "role": role}).
		Limit(1)
	sqlStr, args, _ := q.ToSql()
	t, err := scanTemplate(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *TemplateRepo) Upsert(ctx context.Context, t *domain.Template) error {
	if t.Scope == "" {
		t.Scope = "global"
	}
	q := r.SQ.Insert("templates").Columns("scope", "ref", "type", "role", "body", "updated_at").
		Values(t.Scope, t.Ref, t.Type, t.Role, t.Body, now()).
		Suffix("ON CONFLICT(scope, ref, type, role) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at")
	_, err := r.exec(ctx, q)
	return err
}

func (r *TemplateRepo) List(ctx context.Context) ([]*domain.Template, error) {
	q := r.SQ.Select("id", "scope", "ref", "type", "role", "body", "updated_at").From("templates").OrderBy("scope", "ref", "type", "role")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTemplate(row rowScanner) (*domain.Template, error) {
	var t domain.Template
	var updated string
	if err := row.Scan(&t.ID, &t.Scope, &t.Ref, &t.Type, &t.Role, &t.Body, &updated); err != nil {
		return nil, err
	}
	t.UpdatedAt = parseTime(updated)
	return &t, nil
}
