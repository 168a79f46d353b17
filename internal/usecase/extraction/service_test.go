package extraction_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/db/sqlite"
	"rimloc/internal/adapters/db/sqlite/testutil"
	"rimloc/internal/domain"
	"rimloc/internal/usecase/extraction"
)

func write(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

const keyed = `<?xml version="1.0" encoding="utf-8"?>
<LanguageData>
  <BeerDrunk>{0} is drunk</BeerDrunk>
  <BeerSober>sober</BeerSober>
</LanguageData>`

func TestExtract(t *testing.T) {
	db := testutil.NewTestDB(t)
	entries := sqlite.NewEntryRepo(db)
	mods := sqlite.NewModListRepo(db)
	svc := extraction.New(nil, entries, mods, nil)
	ctx := context.Background()

	root := t.TempDir()
	modPath := filepath.Join(root, "BeerMod")
	write(t, modPath, "About/About.xml", `<ModMetaData><name>Better Beer</name></ModMetaData>`)
	write(t, modPath, "Languages/English/Keyed/Misc.xml", keyed)

	res, err := svc.Extract(ctx, modPath, "")
	require.NoError(t, err)
	require.Equal(t, "Better Beer", res.Mod.Name)
	require.Equal(t, 2, res.Extracted)
	require.Equal(t, 2, res.Stats.Total)
	require.Equal(t, 2, res.Stats.Pending)

	rec, err := mods.Get(ctx, "Better Beer")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, filepath.Base(root), filepath.Base(rec.RootPath))

	list, err := entries.List(ctx, domain.EntryFilter{ModName: "Better Beer", Limit: 1})
	require.NoError(t, err)
	require.NoError(t, entries.UpdateTranslation(ctx, list[0].ID, "{0}喝醉了", domain.StatusCompleted))

	res, err = svc.Extract(ctx, modPath, "English")
	require.NoError(t, err)
	require.Equal(t, 1, res.Stats.Completed, "re-extraction keeps translations")
}

func TestExtract_Errors(t *testing.T) {
	svc := extraction.New(nil, sqlite.NewEntryRepo(testutil.NewTestDB(t)), nil, nil)

	_, err := svc.Extract(context.Background(), filepath.Join(t.TempDir(), "nope"), "")
	require.ErrorIs(t, err, domain.ErrModNotFound)

	bare := t.TempDir()
	_, err = svc.Extract(context.Background(), bare, "")
	require.ErrorIs(t, err, domain.ErrInvalidModStructure)
}

func TestScanRoot(t *testing.T) {
	svc := extraction.New(nil, nil, nil, nil)
	root := t.TempDir()
	write(t, filepath.Join(root, "Zeta"), "Languages/English/Keyed/A.xml", keyed)
	write(t, filepath.Join(root, "Alpha"), "Languages/English/Keyed/A.xml", keyed)
	write(t, filepath.Join(root, "Textures"), "a.png", "x")
	write(t, root, "readme.txt", "x")

	mods, err := svc.ScanRoot(root)
	require.NoError(t, err)
	require.Len(t, mods, 2)
	require.Equal(t, "Alpha", mods[0].Name)
	require.Equal(t, "Zeta", mods[1].Name)

	_, err = svc.ScanRoot(filepath.Join(root, "missing"))
	require.ErrorIs(t, err, domain.ErrModNotFound)
}
