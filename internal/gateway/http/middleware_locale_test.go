package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	gatewayhttp "github.com/inkwellhq/apigate/internal/gateway/http"
	"github.com/stretchr/testify/require"
)

func TestLocaleResolver(t *testing.T) {
	resolver := &gatewayhttp.LocaleResolver{Supported: []string{"en", "de", "fr"}}

	resolve := func(t *testing.T, acceptLanguage string) *gatewayhttp.CacheContext {
		t.Helper()

		r := httptest.NewRequest(http.MethodGet, "/v1/pages", nil)
		if acceptLanguage != "" {
			r.Header.Set("Accept-Language", acceptLanguage)
		}
		r, cc := gatewayhttp.WithCacheContext(r)

		w := httptest.NewRecorder()
		resolver.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(w, r)
		return cc
	}

	t.Run("exact match", func(t *testing.T) {
		cc := resolve(t, "de")
		require.True(t, cc.VaryLanguage)
		require.Equal(t, "de", cc.ContentLanguage)
	})

	t.Run("region tag falls back to base", func(t *testing.T) {
		cc := resolve(t, "de-AT,en;q=0.8")
		require.Equal(t, "de", cc.ContentLanguage)
	})

	t.Run("client ordering wins", func(t *testing.T) {
		cc := resolve(t, "fr,de;q=0.9")
		require.Equal(t, "fr", cc.ContentLanguage)
	})

	t.Run("unsupported language falls back to default", func(t *testing.T) {
		cc := resolve(t, "ja")
		require.Equal(t, "en", cc.ContentLanguage)
	})

	t.Run("missing header falls back to default", func(t *testing.T) {
		cc := resolve(t, "")
		require.True(t, cc.VaryLanguage)
		require.Equal(t, "en", cc.ContentLanguage)
	})
}

func TestLocaleResolverDisabled(t *testing.T) {
	resolver := &gatewayhttp.LocaleResolver{}

	r := httptest.NewRequest(http.MethodGet, "/v1/pages", nil)
	r.Header.Set("Accept-Language", "de")
	r, cc := gatewayhttp.WithCacheContext(r)

	w := httptest.NewRecorder()
	resolver.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(w, r)

	require.False(t, cc.VaryLanguage)
	require.Empty(t, cc.ContentLanguage)
}
