package oauthrefresh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

// defaultTikTokTokenURL is used when a credential doesn't carry its own
// TokenURL. TikTok has no Go SDK in the dependency set this repo draws on,
// so this is the one justified stdlib net/http client in the package
// (recorded in DESIGN.md) rather than a hand-rolled substitute for a
// library the rest of the codebase already imports.
const defaultTikTokTokenURL = "https://open.tiktokapis.com/v2/oauth/token/"

// tiktokProvider refreshes TikTok access tokens via its plain HTTP OAuth2
// token endpoint (TikTok's grant uses "client_key" instead of the usual
// "client_id", so golang.org/x/oauth2's Config can't drive it directly).
type tiktokProvider struct {
	client *http.Client
}

// NewTikTokProvider returns the TikTok refresh strategy, using client for
// outbound calls (nil chooses a bounded default timeout).
func NewTikTokProvider(timeout time.Duration) Provider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &tiktokProvider{client: &http.Client{Timeout: timeout}}
}

func (p *tiktokProvider) Name() string { return "tiktok" }

type tiktokTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ErrorMsg     string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

func (p *tiktokProvider) Refresh(ctx context.Context, cred *models.OAuth2Credential) (*RefreshedToken, error) {
	if cred.RefreshToken == "" {
		return nil, fmt.Errorf("oauthrefresh: tiktok credential has no refresh_token")
	}

	tokenURL := cred.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTikTokTokenURL
	}

	form := url.Values{
		"client_key":    {cred.ClientID},
		"client_secret": {cred.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {cred.RefreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("oauthrefresh: building tiktok refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauthrefresh: tiktok refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("oauthrefresh: reading tiktok refresh response: %w", err)
	}

	var parsed tiktokTokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("oauthrefresh: decoding tiktok refresh response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || parsed.AccessToken == "" {
		msg := parsed.ErrorDesc
		if msg == "" {
			msg = parsed.ErrorMsg
		}
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("oauthrefresh: tiktok refresh rejected: %s", msg)
	}

	return &RefreshedToken{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresIn:    time.Duration(parsed.ExpiresIn) * time.Second,
	}, nil
}
