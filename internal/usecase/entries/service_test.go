package entries_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/db/sqlite"
	"rimloc/internal/adapters/db/sqlite/testutil"
	"rimloc/internal/domain"
	"rimloc/internal/usecase/entries"
	"rimloc/internal/usecase/memory"
)

type fixture struct {
	svc      *entries.Service
	mods     *sqlite.ModListRepo
	sessions *sqlite.SessionRepo
	memory   *memory.Service
	seeded   []*domain.Entry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &fixture{
		mods:     sqlite.NewModListRepo(db),
		sessions: sqlite.NewSessionRepo(db),
		memory:   memory.New(sqlite.NewMemoryRepo(db), nil, nil),
	}
	f.svc = entries.New(entries.Deps{
		Entries:  sqlite.NewEntryRepo(db),
		Mods:     f.mods,
		Sessions: f.sessions,
		Memory:   f.memory,
	})
	f.seeded = testutil.SeedEntries(t, db, "Beer",
		&domain.Entry{XMLPath: "Ale", OriginalText: "ale"},
		&domain.Entry{XMLPath: "Bock", OriginalText: "bock"},
		&domain.Entry{XMLPath: "Cider", OriginalText: "cider"},
	)
	testutil.SeedEntries(t, db, "Wine", &domain.Entry{XMLPath: "Red", OriginalText: "red"})
	return f
}

func TestEditSkipReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seeded[0].ID

	e, err := f.svc.Edit(ctx, id, "  艾尔 ")
	require.NoError(t, err)
	require.Equal(t, "艾尔", e.TranslatedText)
	require.Equal(t, domain.StatusCompleted, e.Status)

	m, err := f.memory.Find(ctx, "ale", false)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "艾尔", m.Target)

	require.NoError(t, f.svc.Reset(ctx, id))
	e, err = f.svc.Get(ctx, id)
	require.NoError(t, err)
	require.Empty(t, e.TranslatedText)
	require.Equal(t, domain.StatusPending, e.Status)

	require.NoError(t, f.svc.Skip(ctx, f.seeded[1].ID))
	st, err := f.svc.Progress(ctx, "Beer")
	require.NoError(t, err)
	require.Equal(t, domain.Statistics{Total: 3, Pending: 2, Skipped: 1}, st)

	require.ErrorIs(t, f.svc.SetStatus(ctx, id, "bogus"), domain.ErrValidation)
	_, err = f.svc.Edit(ctx, 9999, "x")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	page, err := f.svc.List(ctx, domain.EntryFilter{ModName: "Beer", Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Entries, 2)

	_, err = f.svc.List(ctx, domain.EntryFilter{ModName: "Beer", Status: "nope"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestModsAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mods.Add(ctx, &domain.ModRecord{ModName: "Beer", ModPath: "/mods/Beer", RootPath: "/mods"}))
	require.NoError(t, f.sessions.Upsert(ctx, &domain.Session{ModName: "Beer", TotalEntries: 3}))

	mods, err := f.svc.Mods(ctx)
	require.NoError(t, err)
	require.Len(t, mods, 2)
	require.Equal(t, "Beer", mods[0].Name)
	require.NotNil(t, mods[0].Record)
	require.Equal(t, 3, mods[0].Stats.Total)
	require.Equal(t, "Wine", mods[1].Name)
	require.Nil(t, mods[1].Record)

	rec, err := f.svc.Open(ctx, "Beer")
	require.NoError(t, err)
	require.Equal(t, "/mods/Beer", rec.ModPath)
	_, err = f.svc.Open(ctx, "Wine")
	require.ErrorIs(t, err, domain.ErrNotFound)

	n, err := f.svc.RemoveMod(ctx, "Wine", false)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = f.svc.RemoveMod(ctx, "Beer", true)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	s, err := f.sessions.Get(ctx, "Beer")
	require.NoError(t, err)
	require.Nil(t, s)

	mods, err = f.svc.Mods(ctx)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	require.Equal(t, "Wine", mods[0].Name)
}
