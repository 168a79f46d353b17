package glossary_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/db/sqlite"
	"rimloc/internal/adapters/db/sqlite/testutil"
	"rimloc/internal/domain"
	"rimloc/internal/ports"
	"rimloc/internal/usecase/glossary"
)

type fakeOfficial struct {
	terms []*domain.GlossaryEntry
	err   error
}

func (f fakeOfficial) Terms(string) ([]*domain.GlossaryEntry, error) { return f.terms, f.err }

func newService(t *testing.T, off glossary.OfficialSource) *glossary.Service {
	t.Helper()
	return glossary.New(sqlite.NewGlossaryRepo(testutil.NewTestDB(t)), off, nil)
}

func seed(t *testing.T, s *glossary.Service) {
	t.Helper()
	ctx := context.Background()
	for _, g := range []*domain.GlossaryEntry{
		{TermEN: "beer", TermZH: "啤酒", Category: "Item", Priority: 1},
		{TermEN: "colonist", TermZH: "殖民者", Category: "Pawn", Priority: 5},
		{TermEN: "beer keg", TermZH: "啤酒桶", Category: "Item", Priority: 1},
		{TermEN: "ale", TermZH: "麦酒", Category: "Item"},
	} {
		require.NoError(t, s.Add(ctx, g))
	}
}

func TestTermsIn(t *testing.T) {
	s := newService(t, nil)
	seed(t, s)
	ctx := context.Background()

	terms, err := s.TermsIn(ctx, "The Colonist opened a Beer keg. Tale of beer.")
	require.NoError(t, err)
	var got []string
	for _, g := range terms {
		got = append(got, g.TermEN)
	}
	require.Equal(t, []string{"colonist", "beer keg", "beer"}, got, "priority first, then longer terms; 'ale' inside 'Tale' is not a word match")

	hints, err := s.Hints(ctx, "colonist drinks beer", 1)
	require.NoError(t, err)
	require.Equal(t, []domain.Hint{{EN: "colonist", ZH: "殖民者"}}, hints)

	none, err := s.TermsIn(ctx, "   ")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestCacheInvalidatedOnMutation(t *testing.T) {
	s := newService(t, nil)
	ctx := context.Background()
	const text = "a cold beer"

	terms, err := s.TermsIn(ctx, text)
	require.NoError(t, err)
	require.Empty(t, terms)

	g := &domain.GlossaryEntry{TermEN: "beer", TermZH: "啤酒"}
	require.NoError(t, s.Add(ctx, g))
	terms, err = s.TermsIn(ctx, text)
	require.NoError(t, err)
	require.Len(t, terms, 1)

	require.NoError(t, s.Delete(ctx, g.ID))
	terms, err = s.TermsIn(ctx, text)
	require.NoError(t, err)
	require.Empty(t, terms)
}

func TestApply(t *testing.T) {
	s := newService(t, nil)
	seed(t, s)
	ctx := context.Background()

	res, err := s.Apply(ctx, "Beer keg and BEER for the colonist", true)
	require.NoError(t, err)
	require.Equal(t, "啤酒桶 and 啤酒 for the 殖民者", res.Text)
	require.Len(t, res.Terms, 3)

	res, err = s.Apply(ctx, "beer", false)
	require.NoError(t, err)
	require.Equal(t, "beer", res.Text)
	require.Len(t, res.Terms, 1)
}

func TestViolations(t *testing.T) {
	hints := []domain.Hint{{EN: "beer", ZH: "啤酒"}, {EN: "colonist", ZH: "殖民者"}}
	require.Equal(t, []domain.Hint{{EN: "colonist", ZH: "殖民者"}}, glossary.Violations(hints, "小人喝了啤酒"))
	require.Empty(t, glossary.Violations(hints, "殖民者喝了啤酒"))
}

func TestImportCSV(t *testing.T) {
	s := newService(t, nil)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, &domain.GlossaryEntry{TermEN: "old", TermZH: "旧"}))
	require.NoError(t, s.Add(ctx, &domain.GlossaryEntry{TermEN: "psylink", TermZH: "灵能链接", Source: domain.SourceOfficial}))

	csv := "term_en,term_zh,category,priority,note\nbeer,啤酒,Item,3,\ncolonist,殖民者,Pawn,x,\n"
	n, err := s.ImportCSV(ctx, strings.NewReader(csv), true)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Total, "user term 'old' replaced, official kept")
	require.Equal(t, 1, stats.BySource[domain.SourceOfficial])

	_, err = s.ImportCSV(ctx, strings.NewReader("term_en,term_zh\n"), false)
	require.ErrorIs(t, err, domain.ErrValidation)

	var buf bytes.Buffer
	n, err = s.ExportCSV(ctx, &buf, "Item")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Contains(t, buf.String(), "beer,啤酒,Item,3,")
}

func TestYAMLRoundTrip(t *testing.T) {
	src := newService(t, nil)
	seed(t, src)
	ctx := context.Background()

	var buf bytes.Buffer
	n, err := src.ExportYAML(ctx, &buf, "")
	require.NoError(t, err)
	require.Equal(t, 4, n)

	dst := newService(t, nil)
	n, err = dst.ImportYAML(ctx, &buf, false)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	cats, err := dst.Categories(ctx)
	require.NoError(t, err)
	require.Contains(t, cats, "Pawn")
}

func TestImportOfficial(t *testing.T) {
	off := fakeOfficial{terms: []*domain.GlossaryEntry{
		{TermEN: "Beer", TermZH: "啤酒(官方)", Category: "ThingDef", Priority: 60, Source: domain.SourceOfficial},
		{TermEN: "psylink", TermZH: "灵能链接", Category: "ThingDef", Priority: 60, Source: domain.SourceOfficial},
		{TermEN: "Cancel", TermZH: "取消", Category: "Keyed", Priority: 50, Source: domain.SourceOfficial},
	}}
	s := newService(t, off)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, &domain.GlossaryEntry{TermEN: "beer", TermZH: "啤酒"}))

	res, err := s.ImportOfficial(ctx, "/games/RimWorld")
	require.NoError(t, err)
	require.Equal(t, 3, res.Found)
	require.Equal(t, 2, res.Imported)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, map[string]int{"ThingDef": 1, "Keyed": 1}, res.Categories)

	terms, err := s.TermsIn(ctx, "beer")
	require.NoError(t, err)
	require.Equal(t, "啤酒", terms[0].TermZH)

	_, err = s.ImportOfficial(ctx, "")
	require.ErrorIs(t, err, domain.ErrConfiguration)

	boom := errors.New("boom")
	_, err = newService(t, fakeOfficial{err: boom}).ImportOfficial(ctx, "/x")
	require.ErrorIs(t, err, boom)
}

func TestFileRoundTrip(t *testing.T) {
	src := newService(t, nil)
	seed(t, src)
	ctx := context.Background()
	dir := t.TempDir()

	for _, name := range []string{"terms.csv", "out/terms.yml"} {
		path := filepath.Join(dir, name)
		n, err := src.ExportFile(ctx, path, "Item")
		require.NoError(t, err)
		require.Equal(t, 3, n)

		dst := newService(t, nil)
		n, err = dst.ImportFile(ctx, path, false)
		require.NoError(t, err, name)
		require.Equal(t, 3, n, name)
	}

	_, err := src.ImportFile(ctx, filepath.Join(dir, "missing.csv"), false)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// slowList returns the term list it read before being released, the way a
// long query would while a write lands.
type slowList struct {
	ports.GlossaryRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *slowList) List(ctx context.Context, category string) ([]*domain.GlossaryEntry, error) {
	list, err := r.GlossaryRepository.List(ctx, category)
	r.once.Do(func() {
		close(r.entered)
		<-r.release
	})
	return list, err
}

func TestTermsIn_WriteDuringLookup(t *testing.T) {
	ctx := context.Background()
	repo := &slowList{
		GlossaryRepository: sqlite.NewGlossaryRepo(testutil.NewTestDB(t)),
		entered:            make(chan struct{}),
		release:            make(chan struct{}),
	}
	s := glossary.New(repo, nil, nil)
	require.NoError(t, s.Add(ctx, &domain.GlossaryEntry{TermEN: "beer", TermZH: "啤酒"}))

	const text = "cold beer"
	lookup := make(chan []*domain.GlossaryEntry, 1)
	go func() {
		found, _ := s.TermsIn(ctx, text)
		lookup <- found
	}()
	<-repo.entered

	added := make(chan error, 1)
	go func() { added <- s.Add(ctx, &domain.GlossaryEntry{TermEN: "cold", TermZH: "冰镇"}) }()
	time.Sleep(20 * time.Millisecond)
	close(repo.release)

	require.Len(t, <-lookup, 1, "the lookup raced the write")
	require.NoError(t, <-added)

	found, err := s.TermsIn(ctx, text)
	require.NoError(t, err)
	require.Len(t, found, 2, "a result computed before the write is not cached")
}
