package model

// Authentication methods recorded on AuthContext.
const (
	AuthMethodAPIKey = "api_key"
	AuthMethodBasic  = "basic"
)

// AuthContext is the resolved caller of a request. KeyID and KeyPrefix are
// empty for Basic-authenticated callers.
type AuthContext struct {
	Method        string   `json:"method"`
	KeyID         string   `json:"key_id,omitempty"`
	KeyPrefix     string   `json:"key_prefix,omitempty"`
	UserID        string   `json:"user_id"`
	Scopes        []string `json:"scopes"`
	RateLimitTier string   `json:"rate_limit_tier"`
}

// RateLimitKey names the caller's rate limit bucket: the key id, or
// "user:<id>" for Basic auth so all of a user's password requests share one.
func (a *AuthContext) RateLimitKey() string {
	if a.KeyID != "" {
		return a.KeyID
	}
	return "user:" + a.UserID
}

// HasScope reports whether the caller holds scope; admin holds every scope.
func (a *AuthContext) HasScope(scope string) bool {
	return scopeAllows(a.Scopes, scope)
}
