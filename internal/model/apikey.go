// Package model defines the entities shared by the store, services and
// handlers.
package model

import (
	"slices"
	"time"
)

// Scopes. Read covers the catalog and the caller's own checkouts, write
// covers borrow and return, admin implies both and unlocks catalog and user
// maintenance.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// ValidScopes lists every scope a key may carry.
var ValidScopes = []string{ScopeRead, ScopeWrite, ScopeAdmin}

func scopeAllows(held []string, scope string) bool {
	return slices.Contains(held, ScopeAdmin) || slices.Contains(held, scope)
}

// Rate limit tiers.
const (
	TierFree      = "free"
	TierPro       = "pro"
	TierUnlimited = "unlimited"
)

// RateLimitConfig is a token bucket size; a zero rate means unlimited.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// TierConfigs maps each tier to its bucket.
var TierConfigs = map[string]RateLimitConfig{
	TierFree:      {RequestsPerMinute: 60, Burst: 10},
	TierPro:       {RequestsPerMinute: 600, Burst: 50},
	TierUnlimited: {},
}

// LimitsForTier returns the bucket for tier, falling back to the free tier
// for unknown names.
func LimitsForTier(tier string) RateLimitConfig {
	if cfg, ok := TierConfigs[tier]; ok {
		return cfg
	}
	return TierConfigs[TierFree]
}

// APIKey is a stored key. Only the argon2id hash of the secret is kept.
type APIKey struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	KeyHash       string     `json:"-"`
	KeyPrefix     string     `json:"key_prefix"`
	Scopes        []string   `json:"scopes"`
	RateLimitTier string     `json:"rate_limit_tier"`
	Name          string     `json:"name,omitempty"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsRevoked reports whether the key has been revoked.
func (k *APIKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// HasScope reports whether the key grants scope.
func (k *APIKey) HasScope(scope string) bool {
	return scopeAllows(k.Scopes, scope)
}

// GetRateLimitConfig returns the bucket for the key's tier.
func (k *APIKey) GetRateLimitConfig() RateLimitConfig {
	return LimitsForTier(k.RateLimitTier)
}

// ToResponse strips the secret hash for listing.
func (k *APIKey) ToResponse() APIKeyResponse {
	return APIKeyResponse{
		ID:            k.ID,
		Name:          k.Name,
		KeyPrefix:     k.KeyPrefix,
		Scopes:        k.Scopes,
		RateLimitTier: k.RateLimitTier,
		CreatedAt:     k.CreatedAt,
		LastUsedAt:    k.LastUsedAt,
		Revoked:       k.IsRevoked(),
	}
}

// APIKeyCreateRequest is the body of POST /api/v1/api-keys.
type APIKeyCreateRequest struct {
	Name   string   `json:"name,omitempty"`
	Scopes []string `json:"scopes"`
}

// APIKeyResponse describes a key without its secret.
type APIKeyResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name,omitempty"`
	KeyPrefix     string     `json:"key_prefix"`
	Scopes        []string   `json:"scopes"`
	RateLimitTier string     `json:"rate_limit_tier"`
	CreatedAt     time.Time  `json:"created_at"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
	Revoked       bool       `json:"revoked"`
}

// APIKeyCreateResponse carries the plaintext key, which is never shown again.
type APIKeyCreateResponse struct {
	ID            string    `json:"id"`
	Key           string    `json:"key"`
	Name          string    `json:"name,omitempty"`
	KeyPrefix     string    `json:"key_prefix"`
	Scopes        []string  `json:"scopes"`
	RateLimitTier string    `json:"rate_limit_tier"`
	CreatedAt     time.Time `json:"created_at"`
}

// APIKeyRotateResponse pairs the revoked key with its replacement.
type APIKeyRotateResponse struct {
	OldKeyID        string               `json:"old_key_id"`
	OldKeyRevokedAt time.Time            `json:"old_key_revoked_at"`
	NewKey          APIKeyCreateResponse `json:"new_key"`
}
