// Package productlink resolves replacement model numbers to product page URLs.
package productlink

import (
	"net/url"
	"strings"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/matching"
)

// DefaultBaseURL is the product site root.
const DefaultBaseURL = "https://www.axis.com"

// Resolver maps models to URLs through a cascade: verified table, alias
// table, generated slug, then the site search page.
type Resolver struct {
	baseURL  string
	verified map[string]string
	aliases  map[string]string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithVerified adds known-good URLs keyed by model.
func WithVerified(links map[string]string) Option {
	return func(r *Resolver) {
		for model, link := range links {
			r.verified[matching.NormalizeStrict(matching.StripBrand(model))] = link
		}
	}
}

// WithAliases maps alternative model spellings to a canonical model.
func WithAliases(aliases map[string]string) Option {
	return func(r *Resolver) {
		for alias, model := range aliases {
			r.aliases[matching.NormalizeStrict(matching.StripBrand(alias))] = model
		}
	}
}

// NewResolver creates a resolver rooted at baseURL.
func NewResolver(baseURL string, opts ...Option) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	r := &Resolver{
		baseURL:  strings.TrimRight(baseURL, "/"),
		verified: make(map[string]string),
		aliases:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the product page URL for model.
func (r *Resolver) Resolve(model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return r.SearchURL("")
	}

	key := matching.NormalizeStrict(matching.StripBrand(model))
	if link, ok := r.verified[key]; ok {
		return link
	}
	if canonical, ok := r.aliases[key]; ok {
		model = canonical
		if link, ok := r.verified[matching.NormalizeStrict(matching.StripBrand(canonical))]; ok {
			return link
		}
	}

	if slug := Slug(model); slug != "" {
		return r.baseURL + "/products/axis-" + slug
	}
	return r.SearchURL(model)
}

// SearchURL is the fallback search page for a model.
func (r *Resolver) SearchURL(model string) string {
	if model == "" {
		return r.baseURL + "/products"
	}
	return r.baseURL + "/search?q=" + url.QueryEscape(model)
}

// Slug turns a model into the site's URL slug: lowercase, brand removed,
// runs of other characters collapsed to single hyphens.
func Slug(model string) string {
	s := strings.ToLower(matching.StripBrand(strings.TrimSpace(model)))
	var b strings.Builder
	pendingHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}
