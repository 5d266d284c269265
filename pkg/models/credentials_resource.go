package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CredentialType is the shape of credential data a CredentialsResource holds.
type CredentialType string

const (
	CredentialTypeAPIKey         CredentialType = "api_key"
	CredentialTypeBasicAuth      CredentialType = "basic_auth"
	CredentialTypeOAuth2         CredentialType = "oauth2"
	CredentialTypeServiceAccount CredentialType = "service_account"
	CredentialTypeCustom         CredentialType = "custom"
)

// ValidCredentialTypes returns every recognized credential type.
func ValidCredentialTypes() []CredentialType {
	return []CredentialType{
		CredentialTypeAPIKey,
		CredentialTypeBasicAuth,
		CredentialTypeOAuth2,
		CredentialTypeServiceAccount,
		CredentialTypeCustom,
	}
}

// IsValidCredentialType reports whether t is a recognized credential type.
func IsValidCredentialType(t CredentialType) bool {
	for _, valid := range ValidCredentialTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// CredentialsResource holds encrypted credentials for an external service.
// Every value in EncryptedData is encrypted at rest; DecryptedData is
// populated only transiently, on explicit request (pkg/credentials.Service).
type CredentialsResource struct {
	BaseResource
	CredentialType CredentialType    `json:"credential_type"`
	EncryptedData  map[string]string `json:"encrypted_data"`
	Provider       string            `json:"provider,omitempty"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
	LastUsedAt     *time.Time        `json:"last_used_at,omitempty"`
	UsageCount     int64             `json:"usage_count"`

	DecryptedData map[string]string `json:"-"`
}

// OAuth2Credential is the decrypted view of an OAuth2 CredentialsResource,
// the shape internal/application/oauthrefresh.Refresher reads and rewrites.
type OAuth2Credential struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenURL     string `json:"token_url,omitempty"`
	Scopes       string `json:"scopes,omitempty"`
}

// NewCredentialsResource creates an empty credentials resource for owner.
func NewCredentialsResource(ownerID, name string, credType CredentialType) *CredentialsResource {
	now := time.Now()
	return &CredentialsResource{
		BaseResource: BaseResource{
			Type:      ResourceTypeCredentials,
			OwnerID:   ownerID,
			Name:      name,
			Status:    ResourceStatusActive,
			Metadata:  make(map[string]any),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CredentialType: credType,
		EncryptedData:  make(map[string]string),
	}
}

// Validate validates the credentials resource and its type-specific fields.
func (c *CredentialsResource) Validate() error {
	if err := c.BaseResource.Validate(); err != nil {
		return err
	}

	if !IsValidCredentialType(c.CredentialType) {
		return &ValidationError{Field: "credential_type", Message: fmt.Sprintf("invalid credential type: %s", c.CredentialType)}
	}

	switch c.CredentialType {
	case CredentialTypeAPIKey:
		if _, ok := c.EncryptedData["api_key"]; !ok {
			return &ValidationError{Field: "encrypted_data.api_key", Message: "API key is required"}
		}
	case CredentialTypeBasicAuth:
		if _, ok := c.EncryptedData["username"]; !ok {
			return &ValidationError{Field: "encrypted_data.username", Message: "username is required"}
		}
		if _, ok := c.EncryptedData["password"]; !ok {
			return &ValidationError{Field: "encrypted_data.password", Message: "password is required"}
		}
	case CredentialTypeOAuth2:
		if _, ok := c.EncryptedData["client_id"]; !ok {
			return &ValidationError{Field: "encrypted_data.client_id", Message: "client_id is required"}
		}
		if _, ok := c.EncryptedData["client_secret"]; !ok {
			return &ValidationError{Field: "encrypted_data.client_secret", Message: "client_secret is required"}
		}
	case CredentialTypeServiceAccount:
		if _, ok := c.EncryptedData["json_key"]; !ok {
			return &ValidationError{Field: "encrypted_data.json_key", Message: "JSON key is required"}
		}
	case CredentialTypeCustom:
		if len(c.EncryptedData) == 0 {
			return &ValidationError{Field: "encrypted_data", Message: "at least one custom field is required"}
		}
	}

	return nil
}

// IsExpired reports whether the credential has a known, passed expiry.
func (c *CredentialsResource) IsExpired() bool {
	if c.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*c.ExpiresAt)
}

// IncrementUsage bumps the usage counter and last-used timestamp.
func (c *CredentialsResource) IncrementUsage() {
	now := time.Now()
	c.UsageCount++
	c.LastUsedAt = &now
	c.UpdatedAt = now
}

// GetAPIKey returns the decrypted API key, or "" if this isn't an API-key credential.
func (c *CredentialsResource) GetAPIKey() string {
	if c.CredentialType != CredentialTypeAPIKey || c.DecryptedData == nil {
		return ""
	}
	return c.DecryptedData["api_key"]
}

// GetBasicAuth returns the decrypted username/password pair.
func (c *CredentialsResource) GetBasicAuth() (username, password string) {
	if c.CredentialType != CredentialTypeBasicAuth || c.DecryptedData == nil {
		return "", ""
	}
	return c.DecryptedData["username"], c.DecryptedData["password"]
}

// GetOAuth2 returns the decrypted OAuth2 credential view.
func (c *CredentialsResource) GetOAuth2() *OAuth2Credential {
	if c.CredentialType != CredentialTypeOAuth2 || c.DecryptedData == nil {
		return nil
	}
	return &OAuth2Credential{
		ClientID:     c.DecryptedData["client_id"],
		ClientSecret: c.DecryptedData["client_secret"],
		AccessToken:  c.DecryptedData["access_token"],
		RefreshToken: c.DecryptedData["refresh_token"],
		TokenURL:     c.DecryptedData["token_url"],
		Scopes:       c.DecryptedData["scopes"],
	}
}

// GetServiceAccountJSON returns the decrypted service-account JSON key.
func (c *CredentialsResource) GetServiceAccountJSON() string {
	if c.CredentialType != CredentialTypeServiceAccount || c.DecryptedData == nil {
		return ""
	}
	return c.DecryptedData["json_key"]
}

// GetCustomValue returns a decrypted custom field value.
func (c *CredentialsResource) GetCustomValue(key string) string {
	if c.DecryptedData == nil {
		return ""
	}
	return c.DecryptedData[key]
}

// ToJSON renders the decrypted data as JSON, for template interpolation.
func (c *CredentialsResource) ToJSON() (string, error) {
	if c.DecryptedData == nil {
		return "{}", nil
	}
	data, err := json.Marshal(c.DecryptedData)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ClearDecryptedData drops the decrypted view from memory.
func (c *CredentialsResource) ClearDecryptedData() {
	c.DecryptedData = nil
}
