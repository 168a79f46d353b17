package prompt_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/db/sqlite"
	"rimloc/internal/adapters/db/sqlite/testutil"
	"rimloc/internal/adapters/prompt"
	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

func sampleData() ports.PromptData {
	return ports.PromptData{
		SrcLang:      "English",
		TgtLang:      "Simplified Chinese",
		Mod:          "Better Beer",
		FilePath:     "Languages/English/Keyed/Misc.xml",
		Key:          "BeerDrunk",
		Text:         "__PH_0__ is drunk",
		Placeholders: []string{"__PH_0__"},
		Hints: []domain.Hint{
			{EN: "a", ZH: "1"}, {EN: "b", ZH: "2"}, {EN: "c", ZH: "3"},
			{EN: "d", ZH: "4"}, {EN: "e", ZH: "5"}, {EN: "f", ZH: "6"},
		},
	}
}

func TestRender_Builtin(t *testing.T) {
	r := prompt.New(nil)
	ctx := context.Background()

	sys, err := r.Render(ctx, prompt.ScopeProvider, "deepseek", prompt.TypeTranslate, prompt.RoleSystem, sampleData())
	require.NoError(t, err)
	require.Contains(t, sys, "from English to Simplified Chinese")
	require.Contains(t, sys, "Placeholders in this text: __PH_0__.")
	require.NotContains(t, sys, "Markup tags")
	require.Contains(t, sys, "- e => 5")
	require.NotContains(t, sys, "- f => 6")

	user, err := r.Render(ctx, prompt.ScopeProvider, "deepseek", prompt.TypeTranslate, prompt.RoleUser, sampleData())
	require.NoError(t, err)
	require.Equal(t, "mod: Better Beer\nfile: Languages/English/Keyed/Misc.xml\nkey: BeerDrunk\nsource: __PH_0__ is drunk", user)

	_, err = r.Render(ctx, prompt.ScopeGlobal, "", "detect_language", prompt.RoleUser, sampleData())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRender_StoredOverride(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := sqlite.NewTemplateRepo(db)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &domain.Template{
		Scope: prompt.ScopeProvider, Ref: "ollama", Type: prompt.TypeTranslate, Role: prompt.RoleUser,
		Body: "[{{.Key}}] {{.Text}}",
	}))
	r := prompt.New(repo)

	out, err := r.Render(ctx, prompt.ScopeProvider, "ollama", prompt.TypeTranslate, prompt.RoleUser, sampleData())
	require.NoError(t, err)
	require.Equal(t, "[BeerDrunk] __PH_0__ is drunk", out)

	out, err = r.Render(ctx, prompt.ScopeProvider, "deepseek", prompt.TypeTranslate, prompt.RoleUser, sampleData())
	require.NoError(t, err)
	require.Contains(t, out, "mod: Better Beer")

	require.NoError(t, repo.Upsert(ctx, &domain.Template{Type: prompt.TypeTranslate, Role: prompt.RoleUser, Body: "{{.Missing"}))
	_, err = r.Render(ctx, prompt.ScopeProvider, "deepseek", prompt.TypeTranslate, prompt.RoleUser, sampleData())
	require.ErrorIs(t, err, domain.ErrValidation)
}
