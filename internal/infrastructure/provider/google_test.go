package provider

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/roomhub/identity-service/internal/domain"
	"github.com/roomhub/identity-service/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func testProviderConfig() config.ProviderConfig {
	return config.ProviderConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "https://app.example.com/callback/google",
	}
}

func TestGoogleProvider_AuthorizationURL(t *testing.T) {
	p := NewGoogleProvider(testProviderConfig(), zap.NewNop())

	result, err := p.AuthorizationURL(domain.AuthorizationURLOptions{
		State: "state-123",
		Extra: map[string]string{"access_type": "offline", "prompt": "consent"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.CodeVerifier)

	parsed, err := url.Parse(result.URL)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "test-client", q.Get("client_id"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))

	// The challenge in the URL must derive from the returned verifier.
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	hash := sha256.Sum256([]byte(result.CodeVerifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(hash[:]), q.Get("code_challenge"))
}

func TestGoogleProvider_AuthorizationURLScopeOverride(t *testing.T) {
	p := NewGoogleProvider(testProviderConfig(), zap.NewNop())

	result, err := p.AuthorizationURL(domain.AuthorizationURLOptions{
		Scopes: []string{"openid", "https://www.googleapis.com/auth/calendar"},
	})
	require.NoError(t, err)

	parsed, err := url.Parse(result.URL)
	require.NoError(t, err)
	assert.Equal(t, "openid https://www.googleapis.com/auth/calendar", parsed.Query().Get("scope"))
}

func TestGoogleProvider_ExchangeCode(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotVerifier string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotVerifier = r.PostFormValue("code_verifier")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"Bearer","expires_in":3600}`))
		}))
		defer server.Close()

		p := NewGoogleProvider(testProviderConfig(), zap.NewNop())
		p.conf.Endpoint = oauth2.Endpoint{AuthURL: server.URL + "/auth", TokenURL: server.URL + "/token"}

		token, err := p.ExchangeCode(context.Background(), "the-code", "the-verifier")
		require.NoError(t, err)
		assert.Equal(t, "at-1", token.AccessToken)
		assert.Equal(t, "rt-1", token.RefreshToken)
		assert.False(t, token.ExpiresAt.IsZero())
		assert.Equal(t, "the-verifier", gotVerifier)
	})

	t.Run("surfaces the provider error description", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Malformed auth code."}`))
		}))
		defer server.Close()

		p := NewGoogleProvider(testProviderConfig(), zap.NewNop())
		p.conf.Endpoint = oauth2.Endpoint{AuthURL: server.URL + "/auth", TokenURL: server.URL + "/token"}

		_, err := p.ExchangeCode(context.Background(), "bad-code", "the-verifier")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Malformed auth code.")
	})
}

func TestGoogleProvider_FetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "108234",
			"email": "ana@example.com",
			"verified_email": true,
			"name": "Ana Souza",
			"given_name": "Ana",
			"family_name": "Souza",
			"picture": "https://lh3.example.com/photo.jpg"
		}`))
	}))
	defer server.Close()

	p := NewGoogleProvider(testProviderConfig(), zap.NewNop())
	p.userinfoURL = server.URL

	profile, err := p.FetchProfile(context.Background(), "at-1")
	require.NoError(t, err)
	assert.Equal(t, "google", profile.Provider)
	assert.Equal(t, "108234", profile.ProviderID)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "Ana Souza", profile.Name)
	assert.Equal(t, "Ana", profile.FirstName)
	assert.Equal(t, "Souza", profile.LastName)
	assert.Equal(t, "https://lh3.example.com/photo.jpg", profile.Picture)
}

func TestGoogleProvider_RevokeToken(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotToken string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotToken = r.PostFormValue("token")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		p := NewGoogleProvider(testProviderConfig(), zap.NewNop())
		p.revokeURL = server.URL

		require.NoError(t, p.RevokeToken(context.Background(), "at-1"))
		assert.Equal(t, "at-1", gotToken)
	})

	t.Run("failure surfaces the error description", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_token","error_description":"Token expired or revoked"}`))
		}))
		defer server.Close()

		p := NewGoogleProvider(testProviderConfig(), zap.NewNop())
		p.revokeURL = server.URL

		err := p.RevokeToken(context.Background(), "at-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Token expired or revoked")
	})
}

func TestGoogleProvider_RefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostFormValue("grant_type"))
		assert.Equal(t, "rt-1", r.PostFormValue("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-2","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	p := NewGoogleProvider(testProviderConfig(), zap.NewNop())
	p.conf.Endpoint = oauth2.Endpoint{AuthURL: server.URL + "/auth", TokenURL: server.URL + "/token"}

	token, err := p.RefreshToken(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "at-2", token.AccessToken)
}
