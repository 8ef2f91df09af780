package domain

// CacheDirective is the per-response cacheability decision. Computed fresh
// for every response, never persisted.
type CacheDirective struct {
	// Cachable permits shared-cache storage at all.
	Cachable bool

	// Minutes is the shared-cache TTL. Zero or negative means uncacheable.
	Minutes int

	// ClientCache additionally exposes the TTL to browsers via max-age.
	ClientCache bool

	// VaryOrigin is set when a referer allow-list was enforced for the
	// resolving client, so caches must key on Origin.
	VaryOrigin bool

	// VaryLanguage is set when locale resolution influenced the response.
	VaryLanguage bool

	// ContentLanguage is the negotiated response language, if any.
	ContentLanguage string
}
