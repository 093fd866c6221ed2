package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

const (
	corsAllowHeaders = "Content-Type, Authorization, X-Session-Id, X-Request-ID"
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsMaxAge       = "600"
)

// OriginPolicy decides which Access-Control-Allow-Origin value a request gets.
// Listed origins and origins matching a preview pattern are reflected; every
// other caller receives the default origin.
type OriginPolicy struct {
	allow         map[string]struct{}
	patterns      []*regexp.Regexp
	defaultOrigin string
}

// NewOriginPolicy builds a policy. Patterns use "*" for one host label
// fragment, e.g. "https://*--renovations.netlify.app".
func NewOriginPolicy(allowed, previewPatterns []string, defaultOrigin string) *OriginPolicy {
	p := &OriginPolicy{
		allow:         make(map[string]struct{}),
		defaultOrigin: strings.TrimSpace(defaultOrigin),
	}
	for _, origin := range allowed {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			p.allow[origin] = struct{}{}
		}
	}
	for _, pattern := range previewPatterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, `[A-Za-z0-9-]+`) + "$"
		p.patterns = append(p.patterns, regexp.MustCompile(expr))
	}
	if p.defaultOrigin == "" {
		for origin := range p.allow {
			if p.defaultOrigin == "" || origin < p.defaultOrigin {
				p.defaultOrigin = origin
			}
		}
	}
	return p
}

// Allowed reports whether origin is listed or matches a preview pattern.
func (p *OriginPolicy) Allowed(origin string) bool {
	if _, ok := p.allow[origin]; ok {
		return true
	}
	for _, re := range p.patterns {
		if re.MatchString(origin) {
			return true
		}
	}
	return false
}

// Resolve returns the Access-Control-Allow-Origin value for origin.
func (p *OriginPolicy) Resolve(origin string) string {
	origin = strings.TrimSpace(origin)
	if origin != "" && p.Allowed(origin) {
		return origin
	}
	return p.defaultOrigin
}

// Headers returns the CORS response headers for origin.
func (p *OriginPolicy) Headers(origin string) map[string]string {
	h := map[string]string{
		"Access-Control-Allow-Headers": corsAllowHeaders,
		"Access-Control-Allow-Methods": corsAllowMethods,
		"Access-Control-Max-Age":       corsMaxAge,
		"Vary":                         "Origin",
	}
	if allowed := p.Resolve(origin); allowed != "" {
		h["Access-Control-Allow-Origin"] = allowed
	}
	return h
}

// CORS applies the policy to every response and answers preflight requests
// with 204.
func CORS(policy *OriginPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range policy.Headers(r.Header.Get("Origin")) {
				w.Header().Set(k, v)
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
