package glossaryfile_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/glossaryfile"
	"rimloc/internal/domain"
)

func TestReadCSV(t *testing.T) {
	in := "\xEF\xBB\xBFterm_en,term_zh,category,priority,note,source\n" +
		"Colonist,殖民者,Pawn,10,core term,\n" +
		"Beer,啤酒,Item,high,,official\n" +
		",空,,,,\n" +
		"Psycast,心灵施法\n"
	got, err := glossaryfile.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, &domain.GlossaryEntry{TermEN: "Colonist", TermZH: "殖民者", Category: "Pawn", Priority: 10, Note: "core term", Source: domain.SourceUser}, got[0])
	require.Equal(t, 0, got[1].Priority)
	require.Equal(t, domain.SourceOfficial, got[1].Source)
	require.Equal(t, "Psycast", got[2].TermEN)
	require.Empty(t, got[2].Category)
}

func TestReadCSV_Header(t *testing.T) {
	_, err := glossaryfile.ReadCSV(strings.NewReader("en,zh\nA,甲\n"))
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = glossaryfile.ReadCSV(strings.NewReader(""))
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestCSVRoundTrip(t *testing.T) {
	terms := []*domain.GlossaryEntry{
		{TermEN: "Colonist", TermZH: "殖民者", Category: "Pawn", Priority: 10, Note: "a, b"},
	}
	var buf bytes.Buffer
	require.NoError(t, glossaryfile.WriteCSV(&buf, terms))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\xEF\xBB\xBFterm_en,term_zh,category,priority,note\n")))

	back, err := glossaryfile.ReadCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, "a, b", back[0].Note)
	require.Equal(t, 10, back[0].Priority)
}

func TestYAML(t *testing.T) {
	in := `terms:
  - term_en: Colonist
    term_zh: 殖民者
    category: Pawn
    priority: 5
  - term_en: ""
    term_zh: 空
  - term_en: Beer
    term_zh: 啤酒
    source: official
`
	got, err := glossaryfile.ReadYAML(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 5, got[0].Priority)
	require.Equal(t, domain.SourceUser, got[0].Source)
	require.Equal(t, domain.SourceOfficial, got[1].Source)

	var buf bytes.Buffer
	require.NoError(t, glossaryfile.WriteYAML(&buf, got))
	require.Contains(t, buf.String(), "  - term_en: Colonist\n")
	require.NotContains(t, buf.String(), "id:")

	_, err = glossaryfile.ReadYAML(strings.NewReader("terms: [unclosed"))
	require.ErrorIs(t, err, domain.ErrValidation)
}
