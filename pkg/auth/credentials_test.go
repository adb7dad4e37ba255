package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestManager builds a manager backed only by the given stores
func newTestManager(stores ...CredentialStore) *Manager {
	return NewManagerWithStores(stores...)
}

func TestManagerStoreAndRetrieve(t *testing.T) {
	mock := NewMockStore()
	manager := newTestManager(mock, NewEnvironmentStore())

	account := &Account{
		Label:       "work",
		BearerToken: "AAAA-test-token-value-long-enough",
	}

	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("work")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}

	if retrieved.Label != "work" {
		t.Errorf("Expected label work, got %s", retrieved.Label)
	}
	if retrieved.BearerToken != account.BearerToken {
		t.Errorf("Expected bearer token to round trip, got %s", retrieved.BearerToken)
	}
	if retrieved.LastModified.IsZero() {
		t.Error("Expected LastModified to be set on store")
	}
}

func TestManagerStoreValidation(t *testing.T) {
	manager := newTestManager(NewMockStore())

	if err := manager.Store(&Account{BearerToken: "token"}); err == nil {
		t.Error("Expected error for missing label")
	}
	if err := manager.Store(&Account{Label: "work"}); err == nil {
		t.Error("Expected error for missing bearer token")
	}
}

func TestManagerFallsBackToSecondStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	broken.RetrieveError = errors.New("keychain locked")

	working := NewMockStore()
	manager := newTestManager(broken, working)

	account := &Account{Label: "fallback", BearerToken: "token-value"}
	if err := manager.Store(account); err != nil {
		t.Fatalf("Expected store to fall back, got %v", err)
	}

	if !working.Exists("fallback") {
		t.Error("Expected account to land in the fallback store")
	}

	retrieved, err := manager.Retrieve("fallback")
	if err != nil {
		t.Fatalf("Expected retrieve to fall back, got %v", err)
	}
	if retrieved.BearerToken != "token-value" {
		t.Errorf("Expected token-value, got %s", retrieved.BearerToken)
	}
}

func TestManagerRetrieveMissing(t *testing.T) {
	manager := newTestManager(NewMockStore())

	if _, err := manager.Retrieve("ghost"); err == nil {
		t.Error("Expected error for unknown label")
	}
}

func TestManagerRetrieveDefaultPrefersEnvironment(t *testing.T) {
	os.Setenv("TWEETSTATS_BEARER_TOKEN", "env-token")
	defer os.Unsetenv("TWEETSTATS_BEARER_TOKEN")

	mock := NewMockStore()
	mock.Store(&Account{Label: "stored", BearerToken: "stored-token", LastModified: time.Now()})

	manager := newTestManager(mock, NewEnvironmentStore())

	account, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("Failed to retrieve default: %v", err)
	}
	if account.BearerToken != "env-token" {
		t.Errorf("Expected environment token to win, got %s", account.BearerToken)
	}
}

func TestManagerRetrieveDefaultFallsBackToStored(t *testing.T) {
	os.Unsetenv("TWEETSTATS_BEARER_TOKEN")

	mock := NewMockStore()
	mock.Store(&Account{Label: "only", BearerToken: "stored-token", LastModified: time.Now()})

	manager := newTestManager(mock, NewEnvironmentStore())

	account, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("Failed to retrieve default: %v", err)
	}
	if account.Label != "only" {
		t.Errorf("Expected stored account, got %s", account.Label)
	}
}

func TestManagerRetrieveDefaultEmpty(t *testing.T) {
	os.Unsetenv("TWEETSTATS_BEARER_TOKEN")

	manager := newTestManager(NewMockStore(), NewEnvironmentStore())
	if _, err := manager.RetrieveDefault(); err == nil {
		t.Error("Expected error when nothing is stored anywhere")
	}
}

func TestManagerDelete(t *testing.T) {
	mock := NewMockStore()
	manager := newTestManager(mock)

	mock.Store(&Account{Label: "gone", BearerToken: "token"})

	if err := manager.Delete("gone"); err != nil {
		t.Fatalf("Failed to delete account: %v", err)
	}
	if mock.Exists("gone") {
		t.Error("Expected account to be deleted")
	}

	if err := manager.Delete("never-existed"); err == nil {
		t.Error("Expected error deleting unknown label")
	}
}

func TestManagerListMergesStores(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	a := NewMockStore()
	a.Store(&Account{Label: "shared", BearerToken: "old-token", LastModified: older})
	a.Store(&Account{Label: "only-a", BearerToken: "token-a", LastModified: older})

	b := NewMockStore()
	b.Store(&Account{Label: "shared", BearerToken: "new-token", LastModified: newer})

	manager := newTestManager(a, b)

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(accounts))
	}

	for _, account := range accounts {
		if account.Label == "shared" && account.BearerToken != "new-token" {
			t.Errorf("Expected the newer version of the shared account, got %s", account.BearerToken)
		}
	}
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	os.Unsetenv("TWEETSTATS_BEARER_TOKEN")
	if _, err := store.Retrieve(""); err == nil {
		t.Error("Expected error when env var is unset")
	}
	if store.Exists("") {
		t.Error("Expected Exists to be false when env var is unset")
	}

	os.Setenv("TWEETSTATS_BEARER_TOKEN", "env-token")
	defer os.Unsetenv("TWEETSTATS_BEARER_TOKEN")

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if account.Label != "default" {
		t.Errorf("Expected default label, got %s", account.Label)
	}
	if account.BearerToken != "env-token" {
		t.Errorf("Expected env-token, got %s", account.BearerToken)
	}

	// Environment store is read only
	if err := store.Store(account); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable on store, got %v", err)
	}
	if err := store.Delete("default"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable on delete, got %v", err)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "auth_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	os.Setenv("TWEETSTATS_PASSPHRASE", "test-passphrase")
	defer os.Unsetenv("TWEETSTATS_PASSPHRASE")

	storePath := filepath.Join(tempDir, "credentials.enc")

	store, err := NewEncryptedFileStore(storePath)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Label:       "secret",
		BearerToken: "very-secret-bearer-token",
	}

	if err := store.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	// The file on disk must not contain the token in plaintext
	raw, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatalf("Failed to read store file: %v", err)
	}
	if string(raw) == "" {
		t.Fatal("Expected store file to have content")
	}
	if bytes.Contains(raw, []byte("very-secret-bearer-token")) {
		t.Error("Expected token to be encrypted on disk")
	}

	// A fresh store instance with the same passphrase can read it back
	reopened, err := NewEncryptedFileStore(storePath)
	if err != nil {
		t.Fatalf("Failed to reopen encrypted store: %v", err)
	}

	retrieved, err := reopened.Retrieve("secret")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.BearerToken != account.BearerToken {
		t.Errorf("Expected token to round trip, got %s", retrieved.BearerToken)
	}

	// Delete removes the entry
	if err := reopened.Delete("secret"); err != nil {
		t.Fatalf("Failed to delete account: %v", err)
	}
	if reopened.Exists("secret") {
		t.Error("Expected account to be gone after delete")
	}
}
