package oauthrefresh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/mbflow/go/internal/config"
	"github.com/smilemakc/mbflow/go/internal/infrastructure/logger"
	"github.com/smilemakc/mbflow/go/pkg/crypto"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

type fakeCredsRepo struct {
	byID    map[string]*models.CredentialsResource
	byOwner map[string][]*models.CredentialsResource
	updated []*models.CredentialsResource
}

func newFakeCredsRepo() *fakeCredsRepo {
	return &fakeCredsRepo{byID: map[string]*models.CredentialsResource{}, byOwner: map[string][]*models.CredentialsResource{}}
}

func (f *fakeCredsRepo) CreateCredentials(ctx context.Context, cred *models.CredentialsResource) error {
	f.byID[cred.ID] = cred
	return nil
}
func (f *fakeCredsRepo) GetCredentials(ctx context.Context, resourceID string) (*models.CredentialsResource, error) {
	cred, ok := f.byID[resourceID]
	if !ok {
		return nil, models.ErrResourceNotFound
	}
	return cred, nil
}
func (f *fakeCredsRepo) GetCredentialsByOwner(ctx context.Context, ownerID string) ([]*models.CredentialsResource, error) {
	return f.byOwner[ownerID], nil
}
func (f *fakeCredsRepo) GetCredentialsByProvider(ctx context.Context, ownerID, provider string) ([]*models.CredentialsResource, error) {
	return nil, nil
}
func (f *fakeCredsRepo) UpdateCredentials(ctx context.Context, cred *models.CredentialsResource) error {
	f.byID[cred.ID] = cred
	f.updated = append(f.updated, cred)
	return nil
}
func (f *fakeCredsRepo) UpdateEncryptedData(ctx context.Context, resourceID string, encryptedData map[string]string) error {
	return nil
}
func (f *fakeCredsRepo) DeleteCredentials(ctx context.Context, resourceID string) error { return nil }
func (f *fakeCredsRepo) IncrementUsageCount(ctx context.Context, resourceID string) error {
	return nil
}
func (f *fakeCredsRepo) LogCredentialAccess(ctx context.Context, resourceID, action, actorID, actorType string, metadata map[string]any) error {
	return nil
}

type fakeProvider struct {
	name     string
	result   *RefreshedToken
	err      error
	received *models.OAuth2Credential
}

func (p *fakeProvider) Name() string { return p.name }
func (p *fakeProvider) Refresh(ctx context.Context, cred *models.OAuth2Credential) (*RefreshedToken, error) {
	p.received = cred
	return p.result, p.err
}

func newTestRefresher(t *testing.T, credsRepo *fakeCredsRepo) (*Refresher, *crypto.EncryptionService) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	enc, err := crypto.NewEncryptionService(key)
	require.NoError(t, err)

	r := &Refresher{
		credsRepo:  credsRepo,
		encryption: enc,
		providers:  map[string]Provider{},
		skew:       config.OAuthRefreshConfig{ExpirySkew: 5 * time.Minute}.ExpirySkew,
		log:        logger.New(config.LoggingConfig{Level: "error", Format: "text"}),
	}
	return r, enc
}

func seedOAuthCred(t *testing.T, enc *crypto.EncryptionService, id, ownerID, provider string, expiresAt *time.Time) *models.CredentialsResource {
	t.Helper()
	encrypted, err := enc.EncryptMap(map[string]string{
		"client_id":     "client",
		"client_secret": "secret",
		"access_token":  "stale-access",
		"refresh_token": "refresh-token",
	})
	require.NoError(t, err)

	return &models.CredentialsResource{
		BaseResource: models.BaseResource{
			ID:      id,
			OwnerID: ownerID,
			Status:  models.ResourceStatusActive,
		},
		CredentialType: models.CredentialTypeOAuth2,
		Provider:       provider,
		EncryptedData:  encrypted,
		ExpiresAt:      expiresAt,
	}
}

func TestRefresherEnsureFresh(t *testing.T) {
	t.Run("not near expiry returns decrypted view without refreshing", func(t *testing.T) {
		credsRepo := newFakeCredsRepo()
		r, enc := newTestRefresher(t, credsRepo)
		far := time.Now().Add(2 * time.Hour)
		cred := seedOAuthCred(t, enc, "cred-1", "user-1", "google", &far)
		credsRepo.byID["cred-1"] = cred

		fake := &fakeProvider{name: "google"}
		r.providers["google"] = fake

		got, err := r.EnsureFresh(context.Background(), "cred-1")
		require.NoError(t, err)
		assert.Equal(t, "stale-access", got.AccessToken)
		assert.Nil(t, fake.received)
		assert.Empty(t, credsRepo.updated)
	})

	t.Run("within skew refreshes and persists", func(t *testing.T) {
		credsRepo := newFakeCredsRepo()
		r, enc := newTestRefresher(t, credsRepo)
		soon := time.Now().Add(30 * time.Second)
		cred := seedOAuthCred(t, enc, "cred-2", "user-1", "google", &soon)
		credsRepo.byID["cred-2"] = cred

		fake := &fakeProvider{name: "google", result: &RefreshedToken{
			AccessToken: "fresh-access", RefreshToken: "fresh-refresh", ExpiresIn: time.Hour,
		}}
		r.providers["google"] = fake

		got, err := r.EnsureFresh(context.Background(), "cred-2")
		require.NoError(t, err)
		assert.Equal(t, "fresh-access", got.AccessToken)
		assert.Equal(t, "fresh-refresh", got.RefreshToken)
		require.Len(t, credsRepo.updated, 1)
		assert.True(t, credsRepo.updated[0].ExpiresAt.After(time.Now().Add(50*time.Minute)))
		require.NotNil(t, fake.received)
		assert.Equal(t, "refresh-token", fake.received.RefreshToken)
	})

	t.Run("unsupported provider yields AuthError", func(t *testing.T) {
		credsRepo := newFakeCredsRepo()
		r, enc := newTestRefresher(t, credsRepo)
		past := time.Now().Add(-time.Minute)
		cred := seedOAuthCred(t, enc, "cred-3", "user-1", "unknown-provider", &past)
		credsRepo.byID["cred-3"] = cred

		_, err := r.EnsureFresh(context.Background(), "cred-3")
		require.Error(t, err)
		var authErr *models.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "user-1", authErr.UserID)
	})

	t.Run("provider failure yields AuthError", func(t *testing.T) {
		credsRepo := newFakeCredsRepo()
		r, enc := newTestRefresher(t, credsRepo)
		past := time.Now().Add(-time.Minute)
		cred := seedOAuthCred(t, enc, "cred-4", "user-1", "google", &past)
		credsRepo.byID["cred-4"] = cred
		r.providers["google"] = &fakeProvider{name: "google", err: assertErr}

		_, err := r.EnsureFresh(context.Background(), "cred-4")
		require.Error(t, err)
		var authErr *models.AuthError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("no expiry never refreshes", func(t *testing.T) {
		credsRepo := newFakeCredsRepo()
		r, enc := newTestRefresher(t, credsRepo)
		cred := seedOAuthCred(t, enc, "cred-5", "user-1", "google", nil)
		credsRepo.byID["cred-5"] = cred
		fake := &fakeProvider{name: "google"}
		r.providers["google"] = fake

		_, err := r.EnsureFresh(context.Background(), "cred-5")
		require.NoError(t, err)
		assert.Nil(t, fake.received)
	})
}

var assertErr = &testProviderError{"token endpoint unreachable"}

type testProviderError struct{ msg string }

func (e *testProviderError) Error() string { return e.msg }
