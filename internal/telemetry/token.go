package telemetry

import (
	"context"
	"time"
)

// Token is a bearer credential for the telemetry provider. IssuedAt and
// ExpiresAt are local timestamps derived from the provider's stated
// expires_in at acquisition time; the claims embedded in the token itself
// are never trusted (the provider's clock has been observed to run far
// ahead of reality).
type Token struct {
	AccessToken string
	IssuedAt    time.Time
	ExpiresAt   time.Time

	// SkewOffset is the difference between the token's embedded iat and the
	// local clock at acquisition, kept for diagnostics only.
	SkewOffset time.Duration
}

// Valid reports whether the token can still be presented at the given time.
func (t *Token) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// TokenStore is the durable side-cache for session tokens, so a process
// restart can reuse an unexpired token instead of re-authenticating.
type TokenStore interface {
	// Get returns the cached token for the credential, or (nil, nil) when
	// none is stored.
	Get(ctx context.Context, username string) (*Token, error)
	Put(ctx context.Context, username string, token *Token) error
	Delete(ctx context.Context, username string) error
}
