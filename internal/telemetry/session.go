package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apperrors "logistics-live-tracking/pkg/errors"
)

const (
	// Bounds applied to the validity window when the provider returns a
	// future-dated token and its expires_in cannot be taken at face value.
	minTokenTTL = time.Hour
	maxTokenTTL = 24 * time.Hour

	defaultRequestTimeout = 15 * time.Second
)

type SessionConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Session produces a currently-valid bearer token for the telemetry
// provider and shields callers from the provider's broken server clock.
// Tokens are held in memory and mirrored to a durable TokenStore so a
// restart can reuse an unexpired token.
//
// Token acquisition is safe to race: concurrent authentications simply
// overwrite each other and every caller proceeds with its own in-flight
// token.
type Session struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	store      TokenStore
	log        *zap.Logger
	now        func() time.Time

	mu    sync.Mutex
	token *Token
}

func NewSession(cfg SessionConfig, store TokenStore, log *zap.Logger) *Session {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Session{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
		store:      store,
		log:        log,
		now:        time.Now,
	}
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Authenticate posts the credentials and caches the resulting token. The
// token's embedded iat/exp claims are decoded only to measure clock skew;
// the cached expiry is always derived from expires_in measured against the
// local clock.
func (s *Session) Authenticate(ctx context.Context, username, password string) (*Token, error) {
	body, err := json.Marshal(authRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/authenticate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", apperrors.ErrAuthFailed, resp.StatusCode)
	}

	var ar authResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("%w: malformed response body", apperrors.ErrAuthFailed)
	}
	if ar.AccessToken == "" {
		return nil, fmt.Errorf("%w: response contains no access_token", apperrors.ErrAuthFailed)
	}

	token := s.buildToken(ar.AccessToken, ar.ExpiresIn)

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Put(ctx, username, token); err != nil {
			s.log.Warn("Failed to persist telemetry token", zap.Error(err))
		}
	}

	return token, nil
}

// buildToken derives the local validity window. A token whose embedded iat
// lies in the future is a known provider defect; the signed claim cannot be
// repaired, so expires_in is clamped into [minTokenTTL, maxTokenTTL]
// instead.
func (s *Session) buildToken(accessToken string, expiresIn int64) *Token {
	now := s.now()
	ttl := time.Duration(expiresIn) * time.Second

	var skew time.Duration
	if iat, ok := decodeIssuedAt(accessToken); ok {
		skew = iat.Sub(now)
		if iat.After(now) {
			s.log.Warn("Telemetry token is future-dated, overriding validity window",
				zap.Time("embedded_iat", iat),
				zap.Duration("skew", skew),
			)
			if ttl < minTokenTTL {
				ttl = minTokenTTL
			}
			if ttl > maxTokenTTL {
				ttl = maxTokenTTL
			}
		}
	}
	if ttl <= 0 {
		ttl = minTokenTTL
	}

	return &Token{
		AccessToken: accessToken,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
		SkewOffset:  skew,
	}
}

// ValidToken returns the cached token if still valid, consulting the
// durable store before giving up. Callers receiving ErrAuthExpired must
// re-authenticate.
func (s *Session) ValidToken(ctx context.Context) (*Token, error) {
	now := s.now()

	s.mu.Lock()
	if s.token.Valid(now) {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	if s.store != nil {
		stored, err := s.store.Get(ctx, s.username)
		if err != nil {
			s.log.Warn("Failed to read telemetry token cache", zap.Error(err))
		} else if stored.Valid(now) {
			s.mu.Lock()
			s.token = stored
			s.mu.Unlock()
			return stored, nil
		}
	}

	return nil, apperrors.ErrAuthExpired
}

// Invalidate discards the in-memory token and the durable mirror. Called on
// any 401/403 from the provider.
func (s *Session) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Delete(ctx, s.username); err != nil {
			s.log.Warn("Failed to clear telemetry token cache", zap.Error(err))
		}
	}
}

// ensureToken returns a valid token, authenticating with the session's own
// credentials when the cache is cold.
func (s *Session) ensureToken(ctx context.Context) (*Token, error) {
	token, err := s.ValidToken(ctx)
	if err == nil {
		return token, nil
	}
	return s.Authenticate(ctx, s.username, s.password)
}

// getJSON performs an authenticated GET against the provider and decodes
// the response. A 401/403 triggers exactly one re-authentication and retry;
// a second failure surfaces as ErrAuthExpired for this call only.
func (s *Session) getJSON(ctx context.Context, path string, out interface{}) error {
	token, err := s.ensureToken(ctx)
	if err != nil {
		return err
	}

	status, body, err := s.doGet(ctx, path, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		s.Invalidate(ctx)

		token, err = s.Authenticate(ctx, s.username, s.password)
		if err != nil {
			return err
		}

		status, body, err = s.doGet(ctx, path, token)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return apperrors.ErrAuthExpired
		}
	}

	if status < 200 || status >= 300 {
		return apperrors.NewAPIError(status, path)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return nil
}

func (s *Session) doGet(ctx context.Context, path string, token *Token) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+strings.TrimLeft(path, "/"), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	return resp.StatusCode, body, nil
}

func decodeIssuedAt(tokenString string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, false
	}

	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return time.Time{}, false
	}

	return iat.Time, true
}
