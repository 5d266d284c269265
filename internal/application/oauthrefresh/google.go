package oauthrefresh

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

// googleProvider refreshes Google OAuth2 access tokens via the standard
// refresh_token grant, the same golang.org/x/oauth2/google stack
// pkg/executor/builtin's Google Drive/Sheets executors use to mint clients.
type googleProvider struct{}

// NewGoogleProvider returns the Google refresh strategy.
func NewGoogleProvider() Provider {
	return &googleProvider{}
}

func (g *googleProvider) Name() string { return "google" }

func (g *googleProvider) Refresh(ctx context.Context, cred *models.OAuth2Credential) (*RefreshedToken, error) {
	if cred.RefreshToken == "" {
		return nil, fmt.Errorf("oauthrefresh: google credential has no refresh_token")
	}

	cfg := &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Endpoint:     google.Endpoint,
	}

	// A TokenSource seeded with only a RefreshToken always performs the
	// refresh_token grant on first Token() call; it never reuses AccessToken.
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("oauthrefresh: google refresh failed: %w", err)
	}

	var expiresIn time.Duration
	if !tok.Expiry.IsZero() {
		expiresIn = time.Until(tok.Expiry)
	}

	return &RefreshedToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}
