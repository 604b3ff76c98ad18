package model

import (
	"accounts/internal/config"
	"accounts/internal/entity/db"
	"context"
	"path/filepath"
	"testing"
)

func TestCreateRepositoryUnsupportedType(t *testing.T) {
	_, err := NewRepositoryFactory().CreateRepository(&config.Config{DBType: "oracle"})
	if err == nil {
		t.Fatal("expected error for unsupported database type")
	}
}

func TestInitRepositorySQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{DBType: "SQLite", DBPath: filepath.Join(dir, "nested", "accounts.db")}

	repo, err := InitRepository(cfg)
	if err != nil {
		t.Fatalf("unexpected error initialising repository: %v", err)
	}

	user := db.NewUser("factory_user", "factory@example.com", "hash")
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("unexpected error creating user: %v", err)
	}
	count, err := repo.CountUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error counting users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 user, got %d", count)
	}
}

func TestInitRepositoryNilConfig(t *testing.T) {
	if _, err := InitRepository(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
