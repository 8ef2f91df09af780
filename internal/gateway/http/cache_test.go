package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	gatewayhttp "github.com/inkwellhq/apigate/internal/gateway/http"
	"github.com/stretchr/testify/require"
)

func newCacheRequest(t *testing.T, method string, mutate func(*gatewayhttp.CacheContext)) *http.Request {
	t.Helper()

	r := httptest.NewRequest(method, "/v1/pages", nil)
	r, cc := gatewayhttp.WithCacheContext(r)
	if mutate != nil {
		mutate(cc)
	}
	return r
}

func TestCacheDecide(t *testing.T) {
	policy := gatewayhttp.CachePolicy{TTLMinutes: 5, ClientCacheAllowed: true}

	tests := []struct {
		name         string
		method       string
		minutes      int
		mutate       func(*gatewayhttp.CacheContext)
		wantCachable bool
	}{
		{name: "plain GET is cachable", method: http.MethodGet, minutes: 5, wantCachable: true},
		{name: "HEAD is cachable", method: http.MethodHead, minutes: 5, wantCachable: true},
		{name: "POST is not", method: http.MethodPost, minutes: 5, wantCachable: false},
		{name: "zero TTL is not", method: http.MethodGet, minutes: 0, wantCachable: false},
		{
			name: "preview context is not", method: http.MethodGet, minutes: 5,
			mutate: func(cc *gatewayhttp.CacheContext) { cc.Preview = true }, wantCachable: false,
		},
		{
			name: "debug mode is not", method: http.MethodGet, minutes: 5,
			mutate: func(cc *gatewayhttp.CacheContext) { cc.Debug = true }, wantCachable: false,
		},
		{
			name: "subrequest is not", method: http.MethodGet, minutes: 5,
			mutate: func(cc *gatewayhttp.CacheContext) { cc.Subrequest = true }, wantCachable: false,
		},
		{
			name: "maintenance mode is not", method: http.MethodGet, minutes: 5,
			mutate: func(cc *gatewayhttp.CacheContext) { cc.Maintenance = true }, wantCachable: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newCacheRequest(t, tc.method, tc.mutate)
			d := policy.Decide(r, tc.minutes)
			require.Equal(t, tc.wantCachable, d.Cachable)
			if !tc.wantCachable {
				require.Zero(t, d.Minutes)
			}
		})
	}
}

func TestCacheApplyHeaders(t *testing.T) {
	t.Run("uncacheable still sets Vary, never Cache-Control", func(t *testing.T) {
		policy := gatewayhttp.CachePolicy{}
		w := httptest.NewRecorder()
		r := newCacheRequest(t, http.MethodGet, nil)

		policy.Apply(w, policy.Decide(r, 0))

		require.Equal(t, "Accept-Encoding, Accept, Authorization, x-api-key", w.Header().Get("Vary"))
		require.Empty(t, w.Header().Get("Cache-Control"))
	})

	t.Run("shared cache only", func(t *testing.T) {
		policy := gatewayhttp.CachePolicy{TTLMinutes: 5, ClientCacheAllowed: false}
		w := httptest.NewRecorder()
		r := newCacheRequest(t, http.MethodGet, nil)

		policy.Apply(w, policy.Decide(r, 5))

		require.Equal(t,
			"s-maxage=300, must-revalidate, stale-while-revalidate=30",
			w.Header().Get("Cache-Control"))
	})

	t.Run("client cache allowed adds max-age", func(t *testing.T) {
		policy := gatewayhttp.CachePolicy{TTLMinutes: 5, ClientCacheAllowed: true}
		w := httptest.NewRecorder()
		r := newCacheRequest(t, http.MethodGet, nil)

		policy.Apply(w, policy.Decide(r, 5))

		require.Equal(t,
			"max-age=300, s-maxage=300, must-revalidate, stale-while-revalidate=30",
			w.Header().Get("Cache-Control"))
	})

	t.Run("vary extends with origin and language flags", func(t *testing.T) {
		policy := gatewayhttp.CachePolicy{}
		w := httptest.NewRecorder()
		r := newCacheRequest(t, http.MethodGet, func(cc *gatewayhttp.CacheContext) {
			cc.VaryOrigin = true
			cc.VaryLanguage = true
			cc.ContentLanguage = "en"
		})

		policy.Apply(w, policy.Decide(r, 0))

		require.Equal(t,
			"Accept-Encoding, Accept, Authorization, x-api-key, Origin, Accept-Language",
			w.Header().Get("Vary"))
		require.Equal(t, "en", w.Header().Get("Content-Language"))
	})

	t.Run("pre-existing headers are stripped", func(t *testing.T) {
		policy := gatewayhttp.CachePolicy{}
		w := httptest.NewRecorder()
		w.Header().Set("Vary", "Cookie")
		w.Header().Set("Cache-Control", "public, max-age=9999")
		r := newCacheRequest(t, http.MethodGet, nil)

		policy.Apply(w, policy.Decide(r, 0))

		require.Equal(t, "Accept-Encoding, Accept, Authorization, x-api-key", w.Header().Get("Vary"))
		require.Empty(t, w.Header().Get("Cache-Control"))
	})
}
