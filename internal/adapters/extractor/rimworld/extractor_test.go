package rimworld_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/extractor/rimworld"
	"rimloc/internal/domain"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func fixtureMod(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "BeerMod")
	writeFile(t, root, "About/About.xml", `<?xml version="1.0" encoding="utf-8"?>
<ModMetaData>
  <name>Better Beer</name>
  <packageId>brewer.betterbeer</packageId>
  <author>Brewer</author>
</ModMetaData>`)
	writeFile(t, root, "Languages/English/DefInjected/ThingDef/Items.xml", "\xEF\xBB\xBF"+`<?xml version="1.0" encoding="utf-8"?>
<LanguageData>
  <!-- EN: beer -->
  <Beer.label>beer</Beer.label>
  <!-- some note -->
  <Beer.description>A fermented drink.</Beer.description>
  <Beer.rulesStrings>
    <li>sent->[PAWN_nameDef] drank</li>
    <li>sent->cheers</li>
  </Beer.rulesStrings>
  <Empty.label></Empty.label>
</LanguageData>`)
	writeFile(t, root, "Languages/English/Keyed/Sub/Misc.xml", `<?xml version="1.0" encoding="utf-8"?>
<LanguageData>
  <!-- EN: ignored for keyed -->
  <BeerDrunk>{0} is drunk</BeerDrunk>
</LanguageData>`)
	writeFile(t, root, "Languages/English/Keyed/Broken.xml", `<LanguageData><Oops></LanguageData>`)
	writeFile(t, root, "Languages/English/Keyed/readme.txt", `not xml`)
	writeFile(t, root, "Languages/ChineseSimplified/Keyed/Misc.xml", `<LanguageData><BeerDrunk>{0}喝醉了</BeerDrunk></LanguageData>`)
	return root
}

func TestScanMod(t *testing.T) {
	root := fixtureMod(t)
	x := rimworld.New(nil)

	info, err := x.ScanMod(root)
	require.NoError(t, err)
	require.Equal(t, "Better Beer", info.Name)
	require.Equal(t, "brewer.betterbeer", info.PackageID)
	require.Equal(t, "Brewer", info.Author)
	require.Equal(t, []string{"ChineseSimplified", "English"}, info.Languages)
}

func TestScanMod_Errors(t *testing.T) {
	x := rimworld.New(nil)

	_, err := x.ScanMod(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, domain.ErrModNotFound)

	noLang := t.TempDir()
	writeFile(t, noLang, "About/About.xml", `<ModMetaData><name>X</name></ModMetaData>`)
	_, err = x.ScanMod(noLang)
	require.ErrorIs(t, err, domain.ErrInvalidModStructure)

	badAbout := t.TempDir()
	writeFile(t, badAbout, "About/About.xml", `<ModMetaData><name>`)
	require.NoError(t, os.MkdirAll(filepath.Join(badAbout, "Languages"), 0o755))
	info, err := x.ScanMod(badAbout)
	require.NoError(t, err)
	require.Equal(t, filepath.Base(badAbout), info.Name)
}

func TestExtract(t *testing.T) {
	root := fixtureMod(t)
	x := rimworld.New(nil)

	entries, err := x.Extract(root, "Better Beer", "")
	require.NoError(t, err)

	byPath := map[string]*domain.Entry{}
	for _, e := range entries {
		require.Equal(t, "Better Beer", e.ModName)
		require.Equal(t, domain.StatusPending, e.Status)
		byPath[e.XMLPath] = e
	}
	require.Len(t, byPath, 5)

	label := byPath["Beer.label"]
	require.Equal(t, "beer", label.OriginalText)
	require.Equal(t, "beer", label.Comment)
	require.Equal(t, "Languages/English/DefInjected/ThingDef/Items.xml", label.FilePath)

	require.Empty(t, byPath["Beer.description"].Comment)
	require.Equal(t, "sent->[PAWN_nameDef] drank", byPath["Beer.rulesStrings.0"].OriginalText)
	require.Equal(t, "sent->cheers", byPath["Beer.rulesStrings.1"].OriginalText)

	drunk := byPath["BeerDrunk"]
	require.Equal(t, "{0} is drunk", drunk.OriginalText)
	require.Empty(t, drunk.Comment)
	require.Equal(t, "Languages/English/Keyed/Sub/Misc.xml", drunk.FilePath)
}

func TestExtract_MissingLanguage(t *testing.T) {
	root := fixtureMod(t)
	entries, err := rimworld.New(nil).Extract(root, "Better Beer", "German")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestParseLanguageData(t *testing.T) {
	_, err := rimworld.ParseLanguageData([]byte(`<LanguageData><A>x</B></LanguageData>`))
	require.ErrorIs(t, err, domain.ErrXMLParse)

	els, err := rimworld.ParseLanguageData([]byte(`<LanguageData>
  <!-- EN: dropped -->
  text
  <A>a &amp; b</A>
</LanguageData>`))
	require.NoError(t, err)
	require.Equal(t, []rimworld.Element{{Tag: "A", Text: "a & b"}}, els)
}

func TestTargetPath(t *testing.T) {
	p, err := rimworld.TargetPath("Languages/English/DefInjected/ThingDef/Items.xml", "ChineseSimplified")
	require.NoError(t, err)
	require.Equal(t, "Languages/ChineseSimplified/DefInjected/ThingDef/Items.xml", p)

	_, err = rimworld.TargetPath("Defs/Items.xml", "ChineseSimplified")
	require.ErrorIs(t, err, domain.ErrValidation)
}
