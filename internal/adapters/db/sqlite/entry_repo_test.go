package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/db/sqlite"
	"rimloc/internal/adapters/db/sqlite/testutil"
	"rimloc/internal/domain"
)

func TestEntryRepo_SaveBatchAndList(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := sqlite.NewEntryRepo(db)
	ctx := context.Background()

	n, err := repo.SaveBatch(ctx, []*domain.Entry{
		{ModName: "Beer", FilePath: "Languages/English/DefInjected/ThingDef/Items.xml", XMLPath: "Beer.label", OriginalText: "beer", Comment: "beer"},
		{ModName: "Beer", FilePath: "Languages/English/Keyed/Misc.xml", XMLPath: "BeerDrunk", OriginalText: "Drunk"},
		{ModName: "Other", FilePath: "Languages/English/Keyed/Misc.xml", XMLPath: "Hello", OriginalText: "Hello"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	list, err := repo.List(ctx, domain.EntryFilter{ModName: "Beer"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Beer.label", list[0].XMLPath)
	require.Equal(t, domain.StatusPending, list[0].Status)
	require.Equal(t, "beer", list[0].Comment)

	page, err := repo.List(ctx, domain.EntryFilter{ModName: "Beer", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "BeerDrunk", page[0].XMLPath)

	found, err := repo.List(ctx, domain.EntryFilter{Search: "drunk"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	names, err := repo.ModNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Beer", "Other"}, names)
}

func TestEntryRepo_ReextractKeepsTranslation(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := sqlite.NewEntryRepo(db)
	ctx := context.Background()

	seeded := testutil.SeedEntries(t, db, "Beer",
		&domain.Entry{XMLPath: "A", OriginalText: "apple"},
		&domain.Entry{XMLPath: "B", OriginalText: "banana"},
	)
	require.NoError(t, repo.UpdateTranslation(ctx, seeded[0].ID, "苹果", ""))
	require.NoError(t, repo.UpdateTranslation(ctx, seeded[1].ID, "香蕉", ""))

	_, err := repo.SaveBatch(ctx, []*domain.Entry{
		{ModName: "Beer", FilePath: seeded[0].FilePath, XMLPath: "A", OriginalText: "apple"},
		{ModName: "Beer", FilePath: seeded[1].FilePath, XMLPath: "B", OriginalText: "bananas"},
	})
	require.NoError(t, err)

	a, err := repo.Get(ctx, seeded[0].ID)
	require.NoError(t, err)
	require.Equal(t, "苹果", a.TranslatedText)
	require.Equal(t, domain.StatusCompleted, a.Status)

	b, err := repo.Get(ctx, seeded[1].ID)
	require.NoError(t, err)
	require.Equal(t, "bananas", b.OriginalText)
	require.Empty(t, b.TranslatedText)
	require.Equal(t, domain.StatusPending, b.Status)
}

func TestEntryRepo_UpdatesAndStatistics(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := sqlite.NewEntryRepo(db)
	ctx := context.Background()

	seeded := testutil.SeedEntries(t, db, "Beer",
		&domain.Entry{XMLPath: "A", OriginalText: "a"},
		&domain.Entry{XMLPath: "B", OriginalText: "b"},
		&domain.Entry{XMLPath: "C", OriginalText: "c"},
		&domain.Entry{XMLPath: "D", OriginalText: "d"},
	)
	require.NoError(t, repo.UpdateTranslation(ctx, seeded[0].ID, "甲", ""))
	require.NoError(t, repo.UpdateStatus(ctx, seeded[1].ID, domain.StatusSkipped))
	require.NoError(t, repo.UpdateStatus(ctx, seeded[2].ID, domain.StatusFailed))

	require.ErrorIs(t, repo.UpdateStatus(ctx, seeded[0].ID, "bogus"), domain.ErrValidation)
	require.ErrorIs(t, repo.UpdateTranslation(ctx, 9999, "x", ""), domain.ErrNotFound)

	stats, err := repo.Statistics(ctx, "Beer")
	require.NoError(t, err)
	require.Equal(t, domain.Statistics{Total: 4, Completed: 1, Pending: 1, Skipped: 1, Failed: 1}, stats)
	require.InDelta(t, 25.0, stats.Percent(), 0.001)

	n, err := repo.Count(ctx, domain.EntryFilter{ModName: "Beer", Status: domain.StatusPending})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	empty, err := repo.Statistics(ctx, "Nothing")
	require.NoError(t, err)
	require.Zero(t, empty.Total)

	deleted, err := repo.DeleteByMod(ctx, "Beer")
	require.NoError(t, err)
	require.Equal(t, int64(4), deleted)
}

func TestEntryRepo_SaveOverwrites(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := sqlite.NewEntryRepo(db)
	ctx := context.Background()

	e := &domain.Entry{ModName: "M", FilePath: "Languages/English/Keyed/K.xml", XMLPath: "K", OriginalText: "Key"}
	require.NoError(t, repo.Save(ctx, e))
	require.NotZero(t, e.ID)

	e.TranslatedText = "钥匙"
	e.Status = domain.StatusCompleted
	id := e.ID
	require.NoError(t, repo.Save(ctx, e))
	require.Equal(t, id, e.ID)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "钥匙", got.TranslatedText)

	missing, err := repo.Get(ctx, id+100)
	require.NoError(t, err)
	require.Nil(t, missing)
}
