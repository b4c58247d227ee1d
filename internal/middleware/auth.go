package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shelfdesk/shelfdesk/internal/auth"
	"github.com/shelfdesk/shelfdesk/internal/cache"
	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/service"
)

const (
	// DefaultMinAuthDuration pads every authentication attempt so success
	// and failure take the same time.
	DefaultMinAuthDuration = 200 * time.Millisecond

	lastUsedTimeout = 5 * time.Second
)

// KeyLookup finds API keys for verification.
type KeyLookup interface {
	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
}

// PasswordAuthenticator verifies email and password pairs.
type PasswordAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

// AuthCache caches resolved API keys and throttles password attempts.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error
	CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Keys     KeyLookup
	Accounts PasswordAuthenticator // nil disables Basic auth
	Cache    AuthCache

	MinDuration time.Duration

	// BasicRPS and BasicBurst throttle Basic attempts per client IP.
	// Zero disables throttling.
	BasicRPS   int
	BasicBurst int
}

// authFailure is a 401 with a reason that only goes to the log.
type authFailure struct {
	reason string
}

func (f *authFailure) Error() string { return "authentication failed: " + f.reason }

// throttled is a Basic attempt refused by the per-IP bucket.
type throttled struct {
	ip         string
	retryAfter time.Duration
}

func (t *throttled) Error() string { return "too many attempts from " + t.ip }

// Auth resolves the caller from an API key ("Authorization: Bearer" or
// "X-API-Key") or HTTP Basic email and password, and stores the result in
// the request context. Every failure gets the same 401 body.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	a := authenticator{cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deadline := time.Now().Add(cfg.MinDuration)
			defer func() { time.Sleep(time.Until(deadline)) }()

			var (
				caller *model.AuthContext
				err    error
			)
			if creds, ok := auth.BasicFromRequest(r); ok && cfg.Accounts != nil {
				caller, err = a.basic(r, creds)
			} else {
				caller, err = a.apiKey(r)
			}

			var (
				fail *authFailure
				slow *throttled
			)
			switch {
			case errors.As(err, &slow):
				rejectRateLimited(cfg.Logger, w, r, "basic_auth", slow.ip, slow.retryAfter)
				return
			case errors.As(err, &fail):
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", fail.reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			case err != nil:
				cfg.Logger.Error("auth lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			setRequestUser(r.Context(), caller.UserID)
			next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(r.Context(), caller)))
		})
	}
}

type authenticator struct {
	cfg AuthConfig
}

func (a authenticator) apiKey(r *http.Request) (*model.AuthContext, error) {
	ctx := r.Context()
	plaintext := extractAPIKey(r)
	if plaintext == "" {
		return nil, &authFailure{"missing_credentials"}
	}
	parsed, err := auth.ParseAPIKey(plaintext)
	if err != nil {
		return nil, &authFailure{"invalid_format"}
	}

	digest := auth.QuickHash(plaintext)
	if a.cfg.Cache != nil {
		if cached, _ := a.cfg.Cache.GetAuthContext(ctx, digest); cached != nil {
			a.logSuccess(r, cached, true)
			return cached, nil
		}
	}

	candidates, err := a.cfg.Keys.GetAPIKeysByPrefix(ctx, parsed.Prefix)
	if err != nil {
		return nil, err
	}
	var key *model.APIKey
	for _, k := range candidates {
		if ok, err := auth.VerifyPassword(plaintext, k.KeyHash); err == nil && ok {
			key = k
			break
		}
	}
	if key == nil {
		return nil, &authFailure{"invalid_key"}
	}

	caller := &model.AuthContext{
		Method:        model.AuthMethodAPIKey,
		KeyID:         key.ID,
		KeyPrefix:     key.KeyPrefix,
		UserID:        key.UserID,
		Scopes:        key.Scopes,
		RateLimitTier: key.RateLimitTier,
	}
	if a.cfg.Cache != nil {
		_ = a.cfg.Cache.SetAuthContext(ctx, digest, caller)
	}

	// The request context is cancelled once the response is written.
	bg := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(bg, lastUsedTimeout)
		defer cancel()
		_ = a.cfg.Keys.UpdateAPIKeyLastUsed(ctx, key.ID)
	}()

	a.logSuccess(r, caller, false)
	return caller, nil
}

func (a authenticator) basic(r *http.Request, creds auth.BasicCredentials) (*model.AuthContext, error) {
	ctx := r.Context()
	if a.cfg.Cache != nil && a.cfg.BasicRPS > 0 {
		ip := getClientIP(r)
		result, err := a.cfg.Cache.CheckIPRateLimit(ctx, ip, a.cfg.BasicRPS, a.cfg.BasicBurst)
		if err == nil && !result.Allowed {
			return nil, &throttled{ip: ip, retryAfter: result.RetryAfter}
		}
	}

	user, err := a.cfg.Accounts.Authenticate(ctx, creds.Email, creds.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return nil, &authFailure{"invalid_password"}
	}
	if err != nil {
		return nil, err
	}

	caller := &model.AuthContext{
		Method:        model.AuthMethodBasic,
		UserID:        user.ID,
		Scopes:        user.Scopes(),
		RateLimitTier: model.TierFree,
	}
	a.logSuccess(r, caller, false)
	return caller, nil
}

func (a authenticator) logSuccess(r *http.Request, caller *model.AuthContext, cacheHit bool) {
	a.cfg.Logger.Info("authentication successful",
		slog.String("method", caller.Method),
		slog.String("key_id", caller.KeyID),
		slog.String("user_id", caller.UserID),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Bool("cache_hit", cacheHit),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// extractAPIKey reads "Authorization: Bearer <key>", falling back to X-API-Key.
func extractAPIKey(r *http.Request) string {
	if key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return key
	}
	return r.Header.Get("X-API-Key")
}

// writeAuthError answers 401 with one message for every cause so callers
// cannot tell unknown keys from wrong passwords.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="shelfdesk", charset="UTF-8"`)
	writeAccessError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing credentials")
}
