// Package provider implements the external identity provider adapters. Each
// adapter normalizes one provider's authorize, exchange, profile, refresh and
// revoke semantics into the domain.SocialProvider capability set.
package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roomhub/identity-service/internal/domain"
	"golang.org/x/oauth2"
)

const httpTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// exchangeError surfaces the provider's own error_description from a failed
// token endpoint call instead of a generic message.
func exchangeError(provider string, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		if rerr.ErrorDescription != "" {
			return fmt.Errorf("%s token endpoint: %s", provider, rerr.ErrorDescription)
		}
		if rerr.ErrorCode != "" {
			return fmt.Errorf("%s token endpoint: %s", provider, rerr.ErrorCode)
		}
	}
	return fmt.Errorf("%s token endpoint: %w", provider, err)
}

// apiError decodes a non-2xx provider API response, preferring the error
// description the provider supplies.
func apiError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
		Error            struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.ErrorDescription != "":
			return fmt.Errorf("%s api: %s", provider, payload.ErrorDescription)
		case payload.Message != "":
			return fmt.Errorf("%s api: %s", provider, payload.Message)
		case payload.Error.Message != "":
			return fmt.Errorf("%s api: %s", provider, payload.Error.Message)
		}
	}
	return fmt.Errorf("%s api returned status %d", provider, resp.StatusCode)
}

func toProviderToken(tok *oauth2.Token) *domain.ProviderToken {
	return &domain.ProviderToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
}

// authCodeOptions renders passthrough parameters for the authorize URL
func authCodeOptions(extra map[string]string) []oauth2.AuthCodeOption {
	opts := make([]oauth2.AuthCodeOption, 0, len(extra))
	for k, v := range extra {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return opts
}
