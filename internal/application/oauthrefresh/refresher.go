package oauthrefresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smilemakc/mbflow/go/internal/config"
	"github.com/smilemakc/mbflow/go/internal/domain/repository"
	"github.com/smilemakc/mbflow/go/internal/infrastructure/logger"
	"github.com/smilemakc/mbflow/go/pkg/crypto"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// sweepPageSize bounds how many users Sweep loads per FindAllActive page.
const sweepPageSize = 100

// sweepInterval governs how often Start runs an unprompted Sweep pass,
// independent of any single credential's own expiry skew.
const sweepInterval = 10 * time.Minute

// Refresher keeps OAuth2 CredentialsResources usable: it refreshes an
// access token lazily, on EnsureFresh, when an executor is about to spend
// one, and periodically, on Sweep, so a credential nobody has touched in a
// while doesn't go stale right when a scheduled trigger needs it.
type Refresher struct {
	credsRepo  repository.CredentialsRepository
	userRepo   repository.UserRepository
	encryption *crypto.EncryptionService
	providers  map[string]Provider
	skew       time.Duration
	log        *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefresher builds a Refresher wired to the default Google/TikTok
// providers. cfg.ExpirySkew governs how far ahead of expiry a token is
// refreshed; a zero skew means a token is only refreshed once it has
// actually expired.
func NewRefresher(credsRepo repository.CredentialsRepository, userRepo repository.UserRepository, encryption *crypto.EncryptionService, cfg config.OAuthRefreshConfig, log *logger.Logger) *Refresher {
	return &Refresher{
		credsRepo:  credsRepo,
		userRepo:   userRepo,
		encryption: encryption,
		providers:  defaultProviders(10 * time.Second),
		skew:       cfg.ExpirySkew,
		log:        log,
	}
}

// EnsureFresh returns resourceID's decrypted OAuth2 view, refreshing it
// first if its access token is within the configured skew of expiry (or
// already expired). Callers that just need a token to call an API should
// use this instead of pkg/credentials.Service.GetOAuth2 directly.
func (r *Refresher) EnsureFresh(ctx context.Context, resourceID string) (*models.OAuth2Credential, error) {
	cred, err := r.credsRepo.GetCredentials(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("oauthrefresh: loading credential %s: %w", resourceID, err)
	}
	if cred.CredentialType != models.CredentialTypeOAuth2 {
		return nil, fmt.Errorf("oauthrefresh: credential %s is not oauth2", resourceID)
	}

	decrypted, err := r.decrypt(cred)
	if err != nil {
		return nil, err
	}

	if !r.needsRefresh(cred) {
		return decrypted, nil
	}

	return r.refresh(ctx, cred, decrypted)
}

// Start runs Sweep on a fixed interval until Stop is called. Like
// trigger.Manager, it owns its own cancellation context rather than relying
// on the caller's request-scoped one.
func (r *Refresher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Sweep(ctx); err != nil {
					r.log.Error("oauthrefresh: sweep pass failed", "error", err)
				}
			}
		}
	}()
}

// Stop cancels the running sweep loop and waits for it to exit.
func (r *Refresher) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
}

// Sweep walks every active user's OAuth2 credentials and refreshes those
// within the expiry skew, so scheduled polling triggers (component C6)
// never block on a cold refresh mid-tick.
func (r *Refresher) Sweep(ctx context.Context) error {
	offset := 0
	for {
		users, err := r.userRepo.FindAllActive(ctx, sweepPageSize, offset)
		if err != nil {
			return fmt.Errorf("oauthrefresh: listing active users: %w", err)
		}
		if len(users) == 0 {
			return nil
		}

		for _, user := range users {
			creds, err := r.credsRepo.GetCredentialsByOwner(ctx, user.ID.String())
			if err != nil {
				r.log.Error("oauthrefresh: listing credentials for owner failed", "owner_id", user.ID.String(), "error", err)
				continue
			}
			for _, cred := range creds {
				if cred.CredentialType != models.CredentialTypeOAuth2 || !r.needsRefresh(cred) {
					continue
				}
				decrypted, err := r.decrypt(cred)
				if err != nil {
					r.log.Error("oauthrefresh: decrypting credential failed", "resource_id", cred.ID, "error", err)
					continue
				}
				if _, err := r.refresh(ctx, cred, decrypted); err != nil {
					r.log.Error("oauthrefresh: sweep refresh failed", "resource_id", cred.ID, "provider", cred.Provider, "error", err)
				}
			}
		}

		if len(users) < sweepPageSize {
			return nil
		}
		offset += sweepPageSize
	}
}

func (r *Refresher) needsRefresh(cred *models.CredentialsResource) bool {
	if cred.ExpiresAt == nil {
		return false
	}
	return time.Now().Add(r.skew).After(*cred.ExpiresAt)
}

func (r *Refresher) decrypt(cred *models.CredentialsResource) (*models.OAuth2Credential, error) {
	decrypted, err := r.encryption.DecryptMap(cred.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("oauthrefresh: decrypting credential %s: %w", cred.ID, err)
	}
	cred.DecryptedData = decrypted
	return cred.GetOAuth2(), nil
}

func (r *Refresher) refresh(ctx context.Context, cred *models.CredentialsResource, decrypted *models.OAuth2Credential) (*models.OAuth2Credential, error) {
	provider, ok := r.providers[cred.Provider]
	if !ok {
		err := &unsupportedProviderError{provider: cred.Provider}
		return nil, &models.AuthError{UserID: cred.OwnerID, Action: "oauth_refresh", Err: err}
	}

	result, err := provider.Refresh(ctx, decrypted)
	if err != nil {
		return nil, &models.AuthError{UserID: cred.OwnerID, Action: "oauth_refresh", Err: err}
	}

	decrypted.AccessToken = result.AccessToken
	if result.RefreshToken != "" {
		decrypted.RefreshToken = result.RefreshToken
	}

	encrypted, err := r.encryption.EncryptMap(map[string]string{
		"client_id":     decrypted.ClientID,
		"client_secret": decrypted.ClientSecret,
		"access_token":  decrypted.AccessToken,
		"refresh_token": decrypted.RefreshToken,
		"token_url":     decrypted.TokenURL,
		"scopes":        decrypted.Scopes,
	})
	if err != nil {
		return nil, fmt.Errorf("oauthrefresh: encrypting refreshed credential %s: %w", cred.ID, err)
	}

	cred.EncryptedData = encrypted
	cred.DecryptedData = nil
	if result.ExpiresIn > 0 {
		expiresAt := time.Now().Add(result.ExpiresIn)
		cred.ExpiresAt = &expiresAt
	}

	if err := r.credsRepo.UpdateCredentials(ctx, cred); err != nil {
		return nil, fmt.Errorf("oauthrefresh: persisting refreshed credential %s: %w", cred.ID, err)
	}

	r.log.Info("oauthrefresh: refreshed credential", "resource_id", cred.ID, "provider", cred.Provider)
	return decrypted, nil
}
