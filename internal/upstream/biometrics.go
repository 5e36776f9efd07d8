package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Biometrics holds the per-user measurements used for derived calculations.
// The platform omits fields it has no data for; missing values decode to
// zero rather than failing the lookup.
type Biometrics struct {
	Height int `json:"height"`
	Weight int `json:"weight"`
}

// BiometricsClient fetches current height/weight for a user.
type BiometricsClient struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

// NewBiometricsClient constructs a BiometricsClient. A nil httpClient falls
// back to a client with a 10s timeout.
func NewBiometricsClient(baseURL string, tokens TokenSource, httpClient *http.Client) *BiometricsClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &BiometricsClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
	}
}

// FetchBiometrics performs an authenticated lookup for userID.
func (c *BiometricsClient) FetchBiometrics(ctx context.Context, userID string) (Biometrics, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return Biometrics{}, fmt.Errorf("%w: %v", ErrBiometrics, err)
	}

	endpoint := c.baseURL + "/api/v1/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Biometrics{}, fmt.Errorf("%w: %v", ErrBiometrics, err)
	}
	req.Header.Set("Authorization", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Biometrics{}, fmt.Errorf("%w: %v", ErrBiometrics, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// Token may have been revoked upstream; force a refresh for the next call.
		c.tokens.Invalidate()
		return Biometrics{}, fmt.Errorf("%w: unexpected status %d", ErrBiometrics, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Biometrics{}, fmt.Errorf("%w: unexpected status %d", ErrBiometrics, resp.StatusCode)
	}

	var bio Biometrics
	if err := json.NewDecoder(resp.Body).Decode(&bio); err != nil {
		return Biometrics{}, fmt.Errorf("%w: decode response: %v", ErrBiometrics, err)
	}
	return bio, nil
}
