package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	tkserrors "twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/twitter"
)

// DefaultAccount names credentials that were stored without a name.
const DefaultAccount = "default"

// Account is a named set of OAuth1 credentials for the remote API.
type Account struct {
	Name         string    `json:"name"`
	APIKey       string    `json:"api_key"`
	APISecret    string    `json:"api_secret"`
	AccessToken  string    `json:"access_token"`
	TokenSecret  string    `json:"token_secret"`
	LastModified time.Time `json:"last_modified"`
}

// Credentials returns the account's key pairs for the API client.
func (a *Account) Credentials() twitter.Credentials {
	return twitter.Credentials{
		APIKey:      a.APIKey,
		APISecret:   a.APISecret,
		AccessToken: a.AccessToken,
		TokenSecret: a.TokenSecret,
	}
}

// Validate reports every missing field.
func (a *Account) Validate() error {
	if a == nil {
		return ErrInvalidCredentials
	}
	var errs []error
	for field, v := range map[string]string{
		"api key":      a.APIKey,
		"api secret":   a.APISecret,
		"access token": a.AccessToken,
		"token secret": a.TokenSecret,
	} {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is required", field))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return tkserrors.Wrap(tkserrors.ErrorTypeValidation, errors.Join(errs...), "incomplete credentials")
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(name string) (*Account, error)
	List() ([]*Account, error)
	Delete(name string) error
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager tries the system keychain first, then an encrypted file in
// the config directory, then the TWITTER_* environment variables.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores builds a manager over explicit stores, tried in
// order.
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials in the first store that accepts them.
func (m *Manager) Store(account *Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	if account.Name == "" {
		account.Name = DefaultAccount
	}
	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(name string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(name); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for account %q", ErrCredentialsNotFound, name)
}

// Resolve picks the credentials for a run: the named account when name is
// set, otherwise the environment, otherwise the most recently stored
// account.
func (m *Manager) Resolve(name string) (*Account, error) {
	if name != "" {
		return m.Retrieve(name)
	}

	for _, store := range m.stores {
		if env, ok := store.(*EnvironmentStore); ok {
			if account, err := env.Retrieve(""); err == nil {
				return account, nil
			}
		}
	}

	accounts, err := m.List()
	if err == nil && len(accounts) > 0 {
		return accounts[0], nil
	}
	return nil, ErrCredentialsNotFound
}

// List returns the accounts of all stores, most recently modified first.
// An account held by several stores is listed once.
func (m *Manager) List() ([]*Account, error) {
	byName := make(map[string]*Account)
	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := byName[account.Name]; !ok || account.LastModified.After(existing.LastModified) {
				byName[account.Name] = account
			}
		}
	}

	result := make([]*Account, 0, len(byName))
	for _, account := range byName {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastModified.Equal(result[j].LastModified) {
			return result[i].Name < result[j].Name
		}
		return result[i].LastModified.After(result[j].LastModified)
	})
	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	return fmt.Errorf("%w for account %q", ErrCredentialsNotFound, name)
}

// getConfigDir returns the per-user configuration directory, creating it.
// TKS_CONFIG_DIR overrides the platform default.
func getConfigDir() (string, error) {
	configDir := os.Getenv("TKS_CONFIG_DIR")
	if configDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(base, "twitterkeywordsearch")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// SanitizeAccount creates a copy of the account with secrets masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Name:         account.Name,
		APIKey:       maskString(account.APIKey),
		APISecret:    maskString(account.APISecret),
		AccessToken:  maskString(account.AccessToken),
		TokenSecret:  maskString(account.TokenSecret),
		LastModified: account.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
