package baidu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

func TestSign(t *testing.T) {
	// Example from the Baidu API documentation.
	require.Equal(t, "f89f9594663708c1605f3d736d01d2d4", Sign("2015063000000001", "apple", "1435660288", "12345678"))
}

func TestLangCode(t *testing.T) {
	require.Equal(t, "zh", LangCode("zh-CN"))
	require.Equal(t, "jp", LangCode("ja"))
	require.Equal(t, "kor", LangCode("ko"))
	require.Equal(t, "auto", LangCode(""))
	require.Equal(t, "it", LangCode("it"))
}

func TestTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, translatePath, r.URL.Path)
		require.Equal(t, "app", q.Get("appid"))
		require.Equal(t, "en", q.Get("from"))
		require.Equal(t, "zh", q.Get("to"))
		require.Equal(t, "40000", q.Get("salt"))
		require.Equal(t, Sign("app", q.Get("q"), "40000", "secret"), q.Get("sign"))
		w.Header().Set("Content-Type", "application/json")
		if q.Get("q") == "fail" {
			_, _ = w.Write([]byte(`{"error_code":"54001","error_msg":"Invalid Sign"}`))
			return
		}
		_, _ = w.Write([]byte(`{"from":"en","to":"zh","trans_result":[{"src":"line one","dst":"第一行"},{"src":"line two","dst":"第二行"}]}`))
	}))
	defer srv.Close()

	c := New(Options{AppID: "app", SecretKey: "secret", BaseURL: srv.URL, QPS: 100})
	c.salt = func() string { return "40000" }
	ctx := context.Background()

	res, err := c.Translate(ctx, ports.TranslateRequest{Text: "line one\nline two", SourceLang: "en", TargetLang: "zh"})
	require.NoError(t, err)
	require.Equal(t, "第一行\n第二行", res.Translation)

	_, err = c.Translate(ctx, ports.TranslateRequest{Text: "fail", SourceLang: "en", TargetLang: "zh"})
	require.ErrorIs(t, err, domain.ErrTranslationAPI)
	require.Contains(t, err.Error(), "54001")
}

func TestTest(t *testing.T) {
	require.NoError(t, New(Options{AppID: "a", SecretKey: "b"}).Test(context.Background()))
	require.ErrorIs(t, New(Options{AppID: "a"}).Test(context.Background()), domain.ErrConfiguration)
}
