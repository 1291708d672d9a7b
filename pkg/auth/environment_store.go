package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore.
const (
	EnvAPIKey      = "TWITTER_API_KEY"
	EnvAPISecret   = "TWITTER_API_SECRET"
	EnvAccessToken = "TWITTER_ACCESS_TOKEN"
	EnvTokenSecret = "TWITTER_TOKEN_SECRET"
)

// EnvironmentStore is a read-only CredentialStore over the TWITTER_*
// variables. It holds at most one account.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment credentials under the requested name.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	account := &Account{
		Name:         name,
		APIKey:       os.Getenv(EnvAPIKey),
		APISecret:    os.Getenv(EnvAPISecret),
		AccessToken:  os.Getenv(EnvAccessToken),
		TokenSecret:  os.Getenv(EnvTokenSecret),
		LastModified: time.Now(),
	}
	if account.Validate() != nil {
		return nil, ErrCredentialsNotFound
	}
	if account.Name == "" {
		account.Name = "env"
	}
	return account, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
