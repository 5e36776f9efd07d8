package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchTokenSendsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/token", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "client-1", body["clientId"])
		require.Equal(t, "s3cret", body["clientSecret"])

		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-abc"})
	}))
	defer server.Close()

	client := NewTokenClient(server.URL, "client-1", "s3cret", server.Client())
	token, err := client.FetchToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-abc", token)
}

func TestFetchTokenNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewTokenClient(server.URL, "client-1", "s3cret", server.Client())
	_, err := client.FetchToken(context.Background())
	require.ErrorIs(t, err, ErrTokenIssuance)
}

func TestCachedTokenSourceReusesUntilExpiry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok"})
	}))
	defer server.Close()

	source := NewCachedTokenSource(NewTokenClient(server.URL, "c", "s", server.Client()), time.Minute)
	now := time.Now()
	source.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := source.Token(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), calls.Load())

	now = now.Add(2 * time.Minute)
	_, err := source.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())

	source.Invalidate()
	_, err = source.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())
}

func TestFetchBiometrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/users/u1", r.URL.Path)
		require.Equal(t, "tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]int{"height": 180, "weight": 70})
	}))
	defer server.Close()

	client := NewBiometricsClient(server.URL, staticTokens("tok"), server.Client())
	bio, err := client.FetchBiometrics(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, Biometrics{Height: 180, Weight: 70}, bio)
}

func TestFetchBiometricsMissingFieldsAreZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int{"height": 175})
	}))
	defer server.Close()

	client := NewBiometricsClient(server.URL, staticTokens("tok"), server.Client())
	bio, err := client.FetchBiometrics(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, Biometrics{Height: 175, Weight: 0}, bio)
}

func TestFetchBiometricsUnauthorizedInvalidatesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := staticTokens("stale")
	client := NewBiometricsClient(server.URL, tokens, server.Client())
	_, err := client.FetchBiometrics(context.Background(), "u1")
	require.ErrorIs(t, err, ErrBiometrics)
	require.True(t, tokens.invalidated)
}

type staticTokenSource struct {
	token       string
	invalidated bool
}

func staticTokens(token string) *staticTokenSource {
	return &staticTokenSource{token: token}
}

func (s *staticTokenSource) Token(context.Context) (string, error) { return s.token, nil }
func (s *staticTokenSource) Invalidate()                           { s.invalidated = true }
