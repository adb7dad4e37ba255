package main

import (
	"testing"

	"tweetstats/pkg/auth"
	"tweetstats/pkg/config"
)

func TestStoredCredentialFillsConfig(t *testing.T) {
	store := auth.NewMockStore()
	if err := store.Store(&auth.Account{Label: "default", BearerToken: "stored-bearer-token-value"}); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	manager := auth.NewManagerWithStores(store)

	// A configuration without a token must survive validation so the
	// credential manager gets its chance to fill one in
	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected tokenless config to validate, got %v", err)
	}

	if err := applyStoredCredentials(cfg, manager, ""); err != nil {
		t.Fatalf("failed to apply stored credentials: %v", err)
	}

	if cfg.Twitter.BearerToken != "stored-bearer-token-value" {
		t.Errorf("expected stored token in config, got %q", cfg.Twitter.BearerToken)
	}
	if err := cfg.ValidateCredentials(); err != nil {
		t.Errorf("expected credential check to pass, got %v", err)
	}
}

func TestStoredCredentialByLabel(t *testing.T) {
	store := auth.NewMockStore()
	store.Store(&auth.Account{Label: "default", BearerToken: "default-token"})
	store.Store(&auth.Account{Label: "work", BearerToken: "work-token"})
	manager := auth.NewManagerWithStores(store)

	cfg := config.DefaultConfig()
	if err := applyStoredCredentials(cfg, manager, "work"); err != nil {
		t.Fatalf("failed to apply labeled credentials: %v", err)
	}
	if cfg.Twitter.BearerToken != "work-token" {
		t.Errorf("expected work token, got %q", cfg.Twitter.BearerToken)
	}

	if err := applyStoredCredentials(cfg, manager, "missing"); err == nil {
		t.Error("expected error for unknown credential label")
	}
}
