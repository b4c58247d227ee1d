package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shelfdesk/shelfdesk/internal/auth"
	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/repository"
)

// KeyService issues, lists, revokes and rotates API keys.
type KeyService struct {
	store  KeyStore
	logger *slog.Logger
	now    func() time.Time
}

// NewKeyService creates a new KeyService.
func NewKeyService(store KeyStore, logger *slog.Logger) *KeyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeyService{store: store, logger: logger, now: time.Now}
}

// IssueKeyInput defines input for issuing an API key.
type IssueKeyInput struct {
	UserID string
	Name   string
	Scopes []string
	Tier   string
}

// Issue creates a key for an existing user. The plaintext key is only
// available in the returned response.
func (s *KeyService) Issue(ctx context.Context, input IssueKeyInput) (*model.APIKeyCreateResponse, error) {
	scopes, err := normalizeScopes(input.Scopes)
	if err != nil {
		return nil, err
	}

	tier := input.Tier
	if tier == "" {
		tier = model.TierFree
	}
	if _, ok := model.TierConfigs[tier]; !ok {
		return nil, invalidInput("unknown rate limit tier %q", tier)
	}

	if _, err := s.store.GetUserByID(ctx, input.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	key, plaintext, err := s.create(ctx, input.UserID, input.Name, scopes, tier)
	if err != nil {
		return nil, err
	}

	s.logger.Info("API key created",
		slog.String("key_id", key.ID),
		slog.String("key_prefix", key.KeyPrefix),
		slog.String("user_id", key.UserID),
	)

	return createResponse(key, plaintext), nil
}

// List returns the user's keys without secrets.
func (s *KeyService) List(ctx context.Context, userID string) ([]model.APIKeyResponse, error) {
	keys, err := s.store.ListAPIKeysByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	responses := make([]model.APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, key.ToResponse())
	}
	return responses, nil
}

// Revoke revokes one of the user's active keys. Keys owned by someone else
// are reported as not found.
func (s *KeyService) Revoke(ctx context.Context, userID, keyID string) error {
	if _, err := s.ownedActiveKey(ctx, userID, keyID); err != nil {
		return err
	}

	if err := s.store.RevokeAPIKey(ctx, keyID); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("revoke api key: %w", err)
	}

	s.logger.Info("API key revoked",
		slog.String("key_id", keyID),
		slog.String("user_id", userID),
	)
	return nil
}

// Rotate issues a replacement carrying the old key's scopes, tier and name,
// then revokes the old key.
func (s *KeyService) Rotate(ctx context.Context, userID, keyID string) (*model.APIKeyRotateResponse, error) {
	oldKey, err := s.ownedActiveKey(ctx, userID, keyID)
	if err != nil {
		return nil, err
	}

	newKey, plaintext, err := s.create(ctx, oldKey.UserID, oldKey.Name, oldKey.Scopes, oldKey.RateLimitTier)
	if err != nil {
		return nil, err
	}

	if err := s.store.RevokeAPIKey(ctx, oldKey.ID); err != nil {
		// The new key already exists; the old one stays valid until revoked again.
		s.logger.Error("failed to revoke old API key during rotation",
			slog.String("key_id", oldKey.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("API key rotated",
		slog.String("old_key_id", oldKey.ID),
		slog.String("new_key_id", newKey.ID),
		slog.String("user_id", userID),
	)

	return &model.APIKeyRotateResponse{
		OldKeyID:        oldKey.ID,
		OldKeyRevokedAt: newKey.CreatedAt,
		NewKey:          *createResponse(newKey, plaintext),
	}, nil
}

func (s *KeyService) ownedActiveKey(ctx context.Context, userID, keyID string) (*model.APIKey, error) {
	if keyID == "" {
		return nil, ErrKeyNotFound
	}

	key, err := s.store.GetAPIKeyByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}

	if key.UserID != userID || key.IsRevoked() {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

func (s *KeyService) create(ctx context.Context, userID, name string, scopes []string, tier string) (*model.APIKey, string, error) {
	generated, err := auth.GenerateAPIKey(auth.EnvLive)
	if err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}

	key := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        userID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        scopes,
		RateLimitTier: tier,
		Name:          strings.TrimSpace(name),
		CreatedAt:     s.now().UTC(),
	}

	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return nil, "", fmt.Errorf("create api key: %w", err)
	}
	return key, generated.Plaintext, nil
}

// normalizeScopes validates scopes, drops duplicates and defaults to read.
func normalizeScopes(scopes []string) ([]string, error) {
	if len(scopes) == 0 {
		return []string{model.ScopeRead}, nil
	}

	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		scope = strings.ToLower(strings.TrimSpace(scope))
		if !slices.Contains(model.ValidScopes, scope) {
			return nil, invalidInput("invalid scope %q, valid scopes: %s", scope, strings.Join(model.ValidScopes, ", "))
		}
		if !slices.Contains(out, scope) {
			out = append(out, scope)
		}
	}
	return out, nil
}

func createResponse(key *model.APIKey, plaintext string) *model.APIKeyCreateResponse {
	return &model.APIKeyCreateResponse{
		ID:            key.ID,
		Key:           plaintext,
		Name:          key.Name,
		KeyPrefix:     key.KeyPrefix,
		Scopes:        key.Scopes,
		RateLimitTier: key.RateLimitTier,
		CreatedAt:     key.CreatedAt,
	}
}
