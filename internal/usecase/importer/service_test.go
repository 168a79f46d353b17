package importer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/db/sqlite"
	"rimloc/internal/adapters/db/sqlite/testutil"
	"rimloc/internal/domain"
	"rimloc/internal/usecase/importer"
)

func setup(t *testing.T) (*importer.Service, *sqlite.EntryRepo, map[string]int64) {
	t.Helper()
	db := testutil.NewTestDB(t)
	seeded := testutil.SeedEntries(t, db, "Beer",
		&domain.Entry{XMLPath: "Ale", OriginalText: "ale"},
		&domain.Entry{XMLPath: "Bock", OriginalText: "bock", TranslatedText: "博克", Status: domain.StatusCompleted},
		&domain.Entry{XMLPath: "Cider", OriginalText: "cider"},
		&domain.Entry{XMLPath: "Dunkel", OriginalText: "dunkel"},
	)
	ids := map[string]int64{}
	for _, e := range seeded {
		ids[e.XMLPath] = e.ID
	}
	repo := sqlite.NewEntryRepo(db)
	return importer.New(repo, nil, nil), repo, ids
}

const exchangeCSV = "key,source,translation\n" +
	"Ale,ale,艾尔\n" +
	"Bock,bock,新博克\n" +
	"Cider,changed,苹果酒\n" +
	"Dunkel,dunkel,dunkel\n" +
	"Zwickel,,x\n"

func TestImportTranslations(t *testing.T) {
	svc, repo, ids := setup(t)
	ctx := context.Background()

	res, err := svc.ImportTranslations(ctx, importer.ImportArgs{ModName: "Beer", Filename: "beer.csv", Content: []byte(exchangeCSV)})
	require.NoError(t, err)
	require.Equal(t, importer.ImportResult{Matched: 4, Updated: 1, Kept: 1, Stale: 1, Unknown: 1}, res)

	ale, err := repo.Get(ctx, ids["Ale"])
	require.NoError(t, err)
	require.Equal(t, "艾尔", ale.TranslatedText)
	require.Equal(t, domain.StatusCompleted, ale.Status)

	dunkel, err := repo.Get(ctx, ids["Dunkel"])
	require.NoError(t, err)
	require.Empty(t, dunkel.TranslatedText, "untranslated rows are ignored")

	res, err = svc.ImportTranslations(ctx, importer.ImportArgs{ModName: "Beer", Format: "csv", Content: []byte(exchangeCSV), Overwrite: true})
	require.NoError(t, err)
	require.Equal(t, 2, res.Updated)
	bock, err := repo.Get(ctx, ids["Bock"])
	require.NoError(t, err)
	require.Equal(t, "新博克", bock.TranslatedText)
}

func TestImportTranslations_JSON(t *testing.T) {
	svc, repo, ids := setup(t)
	ctx := context.Background()

	res, err := svc.ImportTranslations(ctx, importer.ImportArgs{
		ModName:  "Beer",
		Filename: "Beer.json",
		Content:  []byte(`{"Cider": "苹果酒", "Nope": "x"}`),
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)
	require.Equal(t, 1, res.Unknown)

	cider, err := repo.Get(ctx, ids["Cider"])
	require.NoError(t, err)
	require.Equal(t, "苹果酒", cider.TranslatedText)
}

func TestImportTranslations_Errors(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.ImportTranslations(ctx, importer.ImportArgs{ModName: "Beer", Filename: "beer.po", Content: []byte("x")})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ImportTranslations(ctx, importer.ImportArgs{ModName: "Wine", Format: "json", Content: []byte(`{}`)})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ImportTranslations(ctx, importer.ImportArgs{ModName: "Beer", Format: "csv", Content: []byte("id,text\n1,a\n")})
	require.ErrorIs(t, err, domain.ErrValidation)
}
