// Package oauthrefresh implements the credential refresh pass (component
// C7): on demand or on a periodic sweep, it finds OAuth2 credentials whose
// access token is at or within config.OAuthRefreshConfig.ExpirySkew of
// expiring, exchanges the stored refresh token for a new access token with
// the owning provider, and writes the result back through
// pkg/credentials.Service so the next workflow run reads a live token.
package oauthrefresh

import (
	"context"
	"fmt"
	"time"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

// RefreshedToken is what a Provider hands back after a successful refresh.
type RefreshedToken struct {
	AccessToken  string
	RefreshToken string // empty when the provider didn't rotate it
	ExpiresIn    time.Duration
}

// Provider exchanges a stored refresh token for a new access token with one
// external identity provider (Google, TikTok, ...).
type Provider interface {
	// Name is the CredentialsResource.Provider value this Provider handles.
	Name() string
	Refresh(ctx context.Context, cred *models.OAuth2Credential) (*RefreshedToken, error)
}

// registry maps CredentialsResource.Provider to the Provider that refreshes
// it. Populated by RegisterDefaultProviders; tests may build a Refresher
// with a narrower set via NewRefresher's providers argument.
func defaultProviders(httpTimeout time.Duration) map[string]Provider {
	google := NewGoogleProvider()
	tiktok := NewTikTokProvider(httpTimeout)
	return map[string]Provider{
		google.Name(): google,
		tiktok.Name(): tiktok,
	}
}

// ErrUnsupportedProvider is returned when a credential names a provider with
// no registered refresh strategy.
type unsupportedProviderError struct{ provider string }

func (e *unsupportedProviderError) Error() string {
	return fmt.Sprintf("oauthrefresh: no refresh provider registered for %q", e.provider)
}
