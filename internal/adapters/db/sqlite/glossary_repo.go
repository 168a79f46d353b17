package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"rimloc/internal/domain"
)

type GlossaryRepo struct{ *Repo }

func NewGlossaryRepo(db *sql.DB) *GlossaryRepo { return &GlossaryRepo{NewRepo(db)} }

var glossaryColumns = []string{"id", "term_en", "term_zh", "category", "note", "priority", "source", "created_at"}

const glossaryUpsertSuffix = `ON CONFLICT(term_en) DO UPDATE SET
    term_zh = excluded.term_zh,
    category = excluded.category,
    note = excluded.note,
    priority = excluded.priority,
    source = excluded.source`

func (r *GlossaryRepo) insert() sq.InsertBuilder {
	return r.SQ.Insert("glossary").Columns("term_en", "term_zh", "category", "note", "priority", "source", "created_at")
}

func (r *GlossaryRepo) Save(ctx context.Context, g *domain.GlossaryEntry) error {
	if g.Source == "" {
		g.Source = domain.SourceUser
	}
	q := r.insert().
		Values(g.TermEN, g.TermZH, g.Category, g.Note, g.Priority, g.Source, now()).
		Suffix(glossaryUpsertSuffix + " RETURNING id")
	sqlStr, args, _ := q.ToSql()
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&g.ID); err != nil {
		return fmt.Errorf("%w: save term %q: %v", domain.ErrDatabase, g.TermEN, err)
	}
	return nil
}

// SaveBatch upserts all items in one transaction.
func (r *GlossaryRepo) SaveBatch(ctx context.Context, items []*domain.GlossaryEntry) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	sqlStr, _, err := r.insert().Values("", "", "", "", 0, "", "").Suffix(glossaryUpsertSuffix).ToSql()
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
		for _, g := range items {
			if g.Source == "" {
				g.Source = domain.SourceUser
			}
			if _, err := stmt.ExecContext(ctx, g.TermEN, g.TermZH, g.Category, g.Note, g.Priority, g.Source, ts); err != nil {
				return fmt.Errorf("save term %q: %w", g.TermEN, err)
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

func (r *GlossaryRepo) Get(ctx context.Context, id int64) (*domain.GlossaryEntry, error) {
	return r.one(ctx, sq.Eq{"id": id})
}

// FindByTerm looks a term up case-insensitively.
func (r *GlossaryRepo) FindByTerm(ctx context.Context, termEN string) (*domain.GlossaryEntry, error) {
	return r.one(ctx, sq.Eq{"term_en": termEN})
}

func (r *GlossaryRepo) one(ctx context.Context, where sq.Sqlizer) (*domain.GlossaryEntry, error) {
	q := r.SQ.Select(glossaryColumns...).From("glossary").Where(where).Limit(1)
	sqlStr, args, _ := q.ToSql()
	g, err := scanGlossary(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return g, err
}

// List returns all terms, optionally limited to a category, highest priority first.
func (r *GlossaryRepo) List(ctx context.Context, category string) ([]*domain.GlossaryEntry, error) {
	q := r.SQ.Select(glossaryColumns...).From("glossary")
	if category != "" {
		q = q.Where(sq.Eq{"category": category})
	}
	return r.query(ctx, q.OrderBy("priority DESC", "LENGTH(term_en) DESC", "term_en"))
}

func (r *GlossaryRepo) Search(ctx context.Context, keyword, category string, limit int) ([]*domain.GlossaryEntry, error) {
	like := "%" + keyword + "%"
	q := r.SQ.Select(glossaryColumns...).From("glossary").
		Where(sq.Or{sq.Like{"term_en": like}, sq.Like{"term_zh": like}})
	if category != "" {
		q = q.Where(sq.Eq{"category": category})
	}
	q = q.OrderBy("priority DESC", "term_en")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return r.query(ctx, q)
}

func (r *GlossaryRepo) query(ctx context.Context, q sq.SelectBuilder) ([]*domain.GlossaryEntry, error) {
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.GlossaryEntry
	for rows.Next() {
		g, err := scanGlossary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GlossaryRepo) Categories(ctx context.Context) ([]string, error) {
	q := r.SQ.Select("DISTINCT category").From("glossary").Where(sq.NotEq{"category": ""}).OrderBy("category")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *GlossaryRepo) Stats(ctx context.Context) (domain.GlossaryStats, error) {
	s := domain.GlossaryStats{ByCategory: map[string]int{}, BySource: map[string]int{}}
	for _, g := range []struct {
		col string
		dst map[string]int
	}{{"category", s.ByCategory}, {"source", s.BySource}} {
		q := r.SQ.Select(g.col, "COUNT(*)").From("glossary").GroupBy(g.col)
		sqlStr, args, _ := q.ToSql()
		rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
		if err != nil {
			return s, err
		}
		for rows.Next() {
			var k string
			var n int
			if err := rows.Scan(&k, &n); err != nil {
				rows.Close()
				return s, err
			}
			if k == "" {
				k = "uncategorized"
			}
			g.dst[k] += n
		}
		rows.Close()
	}
	for _, n := range s.BySource {
		s.Total += n
	}
	return s, nil
}

func (r *GlossaryRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.exec(ctx, r.SQ.Delete("glossary").Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GlossaryRepo) DeleteBySource(ctx context.Context, source string) (int64, error) {
	res, err := r.exec(ctx, r.SQ.Delete("glossary").Where(sq.Eq{"source": source}))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanGlossary(row rowScanner) (*domain.GlossaryEntry, error) {
	var g domain.GlossaryEntry
	var created string
	if err := row.Scan(&g.ID, &g.TermEN, &g.TermZH, &g.Category, &g.Note, &g.Priority, &g.Source, &created); err != nil {
		return nil, err
	}
	g.CreatedAt = parseTime(created)
	return &g, nil
}
