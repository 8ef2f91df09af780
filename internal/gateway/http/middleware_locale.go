package http

import (
	"net/http"
	"strings"
)

// LocaleResolver negotiates the response language from Accept-Language
// against the deployment's supported locales and records the outcome on
// the cache context so downstream caches key on the header.
type LocaleResolver struct {
	// Supported locales in preference order; the first is the default.
	Supported []string
}

// Middleware returns the resolver in middleware form.
func (l *LocaleResolver) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(l.Supported) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			cc := CacheContextFrom(r.Context())
			cc.VaryLanguage = true
			cc.ContentLanguage = l.resolve(r.Header.Get("Accept-Language"))
			next.ServeHTTP(w, r)
		})
	}
}

// resolve picks the first requested language tag with a supported base,
// falling back to the default. Quality values are ignored beyond the
// client's stated ordering.
func (l *LocaleResolver) resolve(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" {
			continue
		}
		base := strings.SplitN(tag, "-", 2)[0]
		for _, supported := range l.Supported {
			if strings.EqualFold(base, supported) || strings.EqualFold(tag, supported) {
				return supported
			}
		}
	}
	return l.Supported[0]
}
