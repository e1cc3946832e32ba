package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/gridsync/gridsync/core/logger"
)

// TokenError reports a failed credential exchange. It aborts the affected
// source's extraction for the current cycle but is never fatal for the
// process.
type TokenError struct {
	Err error
}

func (e *TokenError) Error() string { return "token exchange failed: " + e.Err.Error() }
func (e *TokenError) Unwrap() error { return e.Err }

// Classification implements the pipeline error classifier.
func (e *TokenError) Classification() string { return "auth_error" }

// HTTPStatus implements the pipeline error classifier. The exchange carries
// no usable status code once oauth2 has wrapped the failure.
func (e *TokenError) HTTPStatus() int { return 0 }

// TokenManager owns the current access token and replaces it wholesale
// through the client-credentials exchange once it comes within the safety
// margin of expiry. The mutex is held across the exchange, so at most one
// refresh is in flight; concurrent callers block on it and reuse its result.
type TokenManager struct {
	conf   clientcredentials.Config
	margin time.Duration
	log    logger.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewTokenManager creates a TokenManager. Tokens are refreshed margin before
// their actual expiry.
func NewTokenManager(conf Conf, margin time.Duration, log logger.Logger) *TokenManager {
	return &TokenManager{
		conf:   conf.toOauth2Config(),
		margin: margin,
		log:    log,
	}
}

// Token returns a valid access token, performing the credential exchange if
// the cached token is missing, expired, or about to expire.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid() {
		return m.token.AccessToken, nil
	}
	tok, err := m.conf.Token(ctx)
	if err != nil {
		return "", &TokenError{Err: err}
	}
	m.token = tok
	m.log.Infof("access token acquired, expires at %s", tok.Expiry.Format(time.RFC3339))
	return tok.AccessToken, nil
}

// Invalidate drops the cached token so the next call performs a fresh
// exchange. Called after an Unauthorized upstream response.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = nil
	m.mu.Unlock()
	m.log.Warnf("access token invalidated, will refresh on next request")
}

// SetAuthHeader attaches a valid bearer token to the request.
func (m *TokenManager) SetAuthHeader(ctx context.Context, r *http.Request) error {
	tok, err := m.Token(ctx)
	if err != nil {
		return err
	}
	r.Header.Set("Authorization", "Bearer "+tok)
	return nil
}

func (m *TokenManager) valid() bool {
	if m.token == nil || m.token.AccessToken == "" {
		return false
	}
	if m.token.Expiry.IsZero() {
		return true
	}
	return time.Until(m.token.Expiry) > m.margin
}
