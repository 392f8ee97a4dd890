package config

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	t.Setenv("ALGORITHM", "")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("PORT", "")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTAlgorithm != "HS256" {
		t.Fatalf("expected HS256, got %s", cfg.JWTAlgorithm)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("expected 30m token ttl, got %s", cfg.AccessTokenTTL)
	}
	if cfg.BcryptCost != bcrypt.DefaultCost {
		t.Fatalf("expected default bcrypt cost, got %d", cfg.BcryptCost)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ALGORITHM", "hs512")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("DB_URL", "postgres://localhost/mockpay")
	t.Setenv("PORT", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTAlgorithm != "HS512" {
		t.Fatalf("expected HS512, got %s", cfg.JWTAlgorithm)
	}
	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Fatalf("expected 5m, got %s", cfg.AccessTokenTTL)
	}
	if cfg.DatabaseURL != "postgres://localhost/mockpay" {
		t.Fatalf("expected DB_URL fallback, got %q", cfg.DatabaseURL)
	}
	if cfg.Address() != ":9090" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]struct {
		key, value, want string
	}{
		"missing secret":      {"SECRET_KEY", "", "SECRET_KEY"},
		"asymmetric alg":      {"ALGORITHM", "RS256", "unsupported ALGORITHM"},
		"bad ttl":             {"ACCESS_TOKEN_EXPIRE_MINUTES", "soon", "ACCESS_TOKEN_EXPIRE_MINUTES"},
		"negative ttl":        {"ACCESS_TOKEN_EXPIRE_MINUTES", "-1", "ACCESS_TOKEN_EXPIRE_MINUTES"},
		"bcrypt out of range": {"BCRYPT_COST", "99", "BCRYPT_COST"},
		"prod without db":     {"APP_ENV", "production", "DATABASE_URL"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}
