package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
)

// baseVary is always emitted: responses differ per encoding, content
// negotiation and credential, regardless of endpoint.
var baseVary = []string{"Accept-Encoding", "Accept", "Authorization", "x-api-key"}

// staleWhileRevalidateSeconds is the grace window during which a shared
// cache may serve a stale response while refreshing in the background.
const staleWhileRevalidateSeconds = 30

// CachePolicy decides cacheability and writes Cache-Control, Vary and
// Content-Language for every API response. Construction-time values are
// the deployment defaults; the per-request cache context supplies the
// dynamic facts.
type CachePolicy struct {
	// TTLMinutes is the default shared-cache TTL for cachable responses.
	TTLMinutes int

	// ClientCacheAllowed additionally permits browser caching via max-age.
	ClientCacheAllowed bool
}

// Decide computes the cache directive for the current request. A response
// is cachable only when every gate passes: safe method, top-level request,
// no preview or debug context, positive TTL and no maintenance mode. Any
// single failure forces the uncacheable directive.
func (p CachePolicy) Decide(r *http.Request, minutes int) domain.CacheDirective {
	cc := CacheContextFrom(r.Context())

	d := domain.CacheDirective{
		Cachable:        true,
		Minutes:         minutes,
		ClientCache:     p.ClientCacheAllowed,
		VaryOrigin:      cc.VaryOrigin,
		VaryLanguage:    cc.VaryLanguage,
		ContentLanguage: cc.ContentLanguage,
	}

	safeMethod := r.Method == http.MethodGet || r.Method == http.MethodHead
	if cc.Preview || cc.Debug || cc.Subrequest || cc.Maintenance || !safeMethod || minutes <= 0 {
		d.Cachable = false
		d.Minutes = 0
	}
	return d
}

// Apply mutates the outgoing headers per the directive. Pre-existing Vary
// and Cache-Control values are stripped first so upstream defaults cannot
// leak through; Vary is always set even for uncacheable responses.
func (p CachePolicy) Apply(w http.ResponseWriter, d domain.CacheDirective) {
	h := w.Header()
	h.Del("Vary")
	h.Del("Cache-Control")

	vary := make([]string, 0, len(baseVary)+2)
	vary = append(vary, baseVary...)
	if d.VaryOrigin {
		vary = append(vary, "Origin")
	}
	if d.VaryLanguage {
		vary = append(vary, "Accept-Language")
	}
	h.Set("Vary", strings.Join(vary, ", "))

	if d.ContentLanguage != "" {
		h.Set("Content-Language", d.ContentLanguage)
	}

	if !d.Cachable || d.Minutes <= 0 {
		return
	}

	seconds := d.Minutes * 60
	directives := make([]string, 0, 4)
	if d.ClientCache {
		directives = append(directives, fmt.Sprintf("max-age=%d", seconds))
	}
	directives = append(directives,
		fmt.Sprintf("s-maxage=%d", seconds),
		"must-revalidate",
		fmt.Sprintf("stale-while-revalidate=%d", staleWhileRevalidateSeconds),
	)
	h.Set("Cache-Control", strings.Join(directives, ", "))
}
