// Package upstream contains clients for the wearable platform's REST API:
// token issuance and per-user biometrics lookups.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	// ErrTokenIssuance indicates the platform refused or failed a token request.
	ErrTokenIssuance = errors.New("token issuance failed")
	// ErrBiometrics indicates a biometrics lookup failed.
	ErrBiometrics = errors.New("biometrics lookup failed")
)

// TokenSource supplies a bearer token for upstream calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	// Invalidate discards any cached token so the next call fetches a fresh one.
	Invalidate()
}

// TokenClient exchanges client credentials for a bearer token.
type TokenClient struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
}

// NewTokenClient constructs a TokenClient. A nil httpClient falls back to a
// client with a 10s timeout so a hung upstream cannot stall callers.
func NewTokenClient(baseURL, clientID, clientSecret string, httpClient *http.Client) *TokenClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenClient{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// FetchToken issues a fresh token request. Every call hits the upstream; use
// CachedTokenSource to avoid a round trip per message.
func (c *TokenClient) FetchToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"clientId":     c.clientID,
		"clientSecret": c.clientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrTokenIssuance, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenIssuance, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenIssuance, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: unexpected status %d", ErrTokenIssuance, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrTokenIssuance, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: empty accessToken in response", ErrTokenIssuance)
	}
	return payload.AccessToken, nil
}

// CachedTokenSource reuses a fetched token until its TTL elapses. The
// reference implementation fetched a token per call; the cache removes that
// round trip while Invalidate lets callers force a refresh after an
// upstream rejection.
type CachedTokenSource struct {
	client *TokenClient
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewCachedTokenSource wraps client with a TTL cache.
func NewCachedTokenSource(client *TokenClient, ttl time.Duration) *CachedTokenSource {
	return &CachedTokenSource{client: client, ttl: ttl, now: time.Now}
}

// Token returns the cached token, fetching a fresh one when absent or expired.
func (s *CachedTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expires) {
		return s.token, nil
	}

	token, err := s.client.FetchToken(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	s.expires = s.now().Add(s.ttl)
	return token, nil
}

// Invalidate drops the cached token.
func (s *CachedTokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expires = time.Time{}
	s.mu.Unlock()
}
