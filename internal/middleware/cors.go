// Package middleware provides HTTP middleware for the Shelfdesk API.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	// AllowedOrigins lists exact origins ("https://desk.example.org") or
	// subdomain wildcards ("*.example.org"). Empty denies every cross-origin call.
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds; 0 omits the header.
	MaxAge int
}

// DefaultCORSConfig returns the defaults used by the API server. Origins are
// filled in from CORS_ALLOWED_ORIGINS.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept", "Accept-Language", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID",
		},
		ExposedHeaders: []string{
			"Location", "Retry-After", "X-Request-ID",
			"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset",
		},
		MaxAge: 86400,
	}
}

type corsPolicy struct {
	exact    map[string]struct{}
	suffixes []string // ".example.org" for "*.example.org"

	methods string
	headers string
	exposed string
	maxAge  string
	creds   bool
}

func newCORSPolicy(cfg CORSConfig) *corsPolicy {
	p := &corsPolicy{
		exact:   make(map[string]struct{}, len(cfg.AllowedOrigins)),
		methods: strings.Join(cfg.AllowedMethods, ", "),
		headers: strings.Join(cfg.AllowedHeaders, ", "),
		exposed: strings.Join(cfg.ExposedHeaders, ", "),
		creds:   cfg.AllowCredentials,
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.ToLower(strings.TrimSpace(origin))
		if rest, ok := strings.CutPrefix(origin, "*"); ok && strings.HasPrefix(rest, ".") {
			p.suffixes = append(p.suffixes, rest)
			continue
		}
		p.exact[origin] = struct{}{}
	}
	return p
}

// allows reports whether origin is listed or is a subdomain of a wildcard
// entry. "*.example.org" matches "https://a.example.org" but not
// "https://badexample.org".
func (p *corsPolicy) allows(origin string) bool {
	origin = strings.ToLower(origin)
	if _, ok := p.exact[origin]; ok {
		return true
	}

	host := origin
	if _, after, found := strings.Cut(origin, "://"); found {
		host = after
	}
	for _, suffix := range p.suffixes {
		if sub, ok := strings.CutSuffix(host, suffix); ok && sub != "" {
			return true
		}
	}
	return false
}

// CORS answers preflight requests and decorates responses to allowed
// origins. Requests without an Origin header pass through untouched;
// disallowed preflights get 403.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			preflight := r.Method == http.MethodOptions
			if !policy.allows(origin) {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			if policy.creds {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if policy.exposed != "" {
				h.Set("Access-Control-Expose-Headers", policy.exposed)
			}

			if !preflight {
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Methods", policy.methods)
			h.Set("Access-Control-Allow-Headers", policy.headers)
			if policy.maxAge != "" {
				h.Set("Access-Control-Max-Age", policy.maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
