package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tkserrors "twitterkeywordsearch/pkg/errors"
)

func testAccount(name string) *Account {
	return &Account{
		Name:        name,
		APIKey:      "consumer_key_12345",
		APISecret:   "consumer_secret_67890",
		AccessToken: "access_token_abcdef",
		TokenSecret: "token_secret_ghijkl",
	}
}

func clearTwitterEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAPIKey, EnvAPISecret, EnvAccessToken, EnvTokenSecret} {
		t.Setenv(k, "")
	}
}

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	require.NoError(t, manager.Store(testAccount("research")))
	assert.Equal(t, 1, mockStore.Count())

	got, err := manager.Retrieve("research")
	require.NoError(t, err)
	assert.Equal(t, "consumer_key_12345", got.APIKey)
	assert.Equal(t, "token_secret_ghijkl", got.TokenSecret)
	assert.False(t, got.LastModified.IsZero())

	creds := got.Credentials()
	assert.True(t, creds.Valid())
	assert.Equal(t, got.AccessToken, creds.AccessToken)

	accounts, err := manager.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	require.NoError(t, manager.Delete("research"))
	_, err = manager.Retrieve("research")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Zero(t, mockStore.Count())
}

func TestStoreRejectsIncompleteAccount(t *testing.T) {
	manager, mockStore := NewMockManager()

	acc := testAccount("partial")
	acc.TokenSecret = ""
	err := manager.Store(acc)
	require.Error(t, err)
	assert.True(t, tkserrors.IsValidation(err))
	assert.Contains(t, err.Error(), "token secret is required")
	assert.Zero(t, mockStore.Count())
}

func TestStoreDefaultsName(t *testing.T) {
	manager, mockStore := NewMockManager()

	require.NoError(t, manager.Store(testAccount("")))
	assert.True(t, mockStore.Exists(DefaultAccount))
}

func TestStoreFallsThrough(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()
	manager := NewManagerWithStores(broken, working)

	require.NoError(t, manager.Store(testAccount("a")))
	assert.Zero(t, broken.Count())
	assert.Equal(t, 1, working.Count())
}

func TestResolve(t *testing.T) {
	clearTwitterEnv(t)
	store := NewMockStore()
	manager := NewManagerWithStores(store, NewEnvironmentStore())

	_, err := manager.Resolve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	older := testAccount("older")
	older.LastModified = time.Now().Add(-time.Hour)
	newer := testAccount("newer")
	newer.LastModified = time.Now()
	require.NoError(t, store.Store(older))
	require.NoError(t, store.Store(newer))

	got, err := manager.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "newer", got.Name)

	got, err = manager.Resolve("older")
	require.NoError(t, err)
	assert.Equal(t, "older", got.Name)

	t.Setenv(EnvAPIKey, "env_key")
	t.Setenv(EnvAPISecret, "env_secret")
	t.Setenv(EnvAccessToken, "env_token")
	t.Setenv(EnvTokenSecret, "env_token_secret")
	got, err = manager.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "env_key", got.APIKey, "environment wins when no account is named")
}

func TestSanitizeAccount(t *testing.T) {
	acc := testAccount("research")
	s := SanitizeAccount(acc)

	assert.Equal(t, "research", s.Name)
	assert.Equal(t, "cons...2345", s.APIKey)
	assert.NotEqual(t, acc.APISecret, s.APISecret)
	assert.NotEqual(t, acc.TokenSecret, s.TokenSecret)
	assert.Equal(t, "********", maskString("short"))
	assert.Nil(t, SanitizeAccount(nil))
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.enc")
	store, err := NewEncryptedFileStoreWithPassphrase(path, "test_passphrase_123")
	require.NoError(t, err)

	require.NoError(t, store.Store(testAccount("one")))
	require.NoError(t, store.Store(testAccount("two")))

	got, err := store.Retrieve("one")
	require.NoError(t, err)
	assert.Equal(t, "consumer_secret_67890", got.APISecret)

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "consumer_secret_67890")
	assert.NotContains(t, string(content), "token_secret_ghijkl")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, store.Delete("one"))
	assert.False(t, store.Exists("one"))
	require.NoError(t, store.Delete("two"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file removed with the last account")
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.enc")
	store, err := NewEncryptedFileStoreWithPassphrase(path, "right")
	require.NoError(t, err)
	require.NoError(t, store.Store(testAccount("one")))

	other, err := NewEncryptedFileStoreWithPassphrase(path, "wrong")
	require.NoError(t, err)
	_, err = other.Retrieve("one")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	t.Setenv(PassphraseEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(testAccount("one")))
	assert.FileExists(t, filepath.Join(dir, ".passphrase"))

	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	assert.True(t, reopened.Exists("one"))
}

func TestEnvironmentStore(t *testing.T) {
	clearTwitterEnv(t)
	store := NewEnvironmentStore()

	assert.False(t, store.Exists(""))
	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	t.Setenv(EnvAPIKey, "k")
	t.Setenv(EnvAPISecret, "s")
	t.Setenv(EnvAccessToken, "t")
	t.Setenv(EnvTokenSecret, "ts")

	acc, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "env", acc.Name)
	assert.Equal(t, "ts", acc.TokenSecret)

	assert.ErrorIs(t, store.Store(acc), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("env"), ErrStoreUnavailable)
}

func TestManagerDeleteMissing(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore(), NewEnvironmentStore())
	err := manager.Delete("nobody")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestGetConfigDirOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	t.Setenv("TKS_CONFIG_DIR", dir)

	got, err := getConfigDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
	assert.DirExists(t, dir)
}
