package httpclient_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/llm/httpclient"
)

func TestExtractTranslation(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"json", `{"translation":"啤酒"}`, "啤酒"},
		{"fenced", "```json\n{\"translation\": \"啤酒\"}\n```", "啤酒"},
		{"prose", `Sure! {"translation": "__PH_0__喝醉了"} hope it helps`, "__PH_0__喝醉了"},
		{"broken json", `{"translation": "说 \"你好\"", }`, `说 "你好"`},
		{"label", "Translation: 啤酒", "啤酒"},
		{"chinese label", "译文：啤酒", "啤酒"},
		{"plain", "啤酒", "啤酒"},
		{"keeps escapes", `{"translation":"第一行\\n第二行"}`, `第一行\n第二行`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := httpclient.ExtractTranslation(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestExtractTranslation_Bad(t *testing.T) {
	_, err := httpclient.ExtractTranslation(`{"text": 1}`)
	require.ErrorIs(t, err, httpclient.ErrBadOutput)

	_, err = httpclient.ExtractTranslation("   ")
	require.ErrorIs(t, err, httpclient.ErrBadOutput)
}

func TestAbbreviate(t *testing.T) {
	require.Equal(t, "abc", httpclient.Abbreviate("abc", 5))
	require.Equal(t, "ab...", httpclient.Abbreviate("abcdefgh", 5))
	require.Equal(t, "ab", httpclient.Abbreviate("abcdefgh", 2))
}
