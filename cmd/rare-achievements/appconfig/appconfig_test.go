package appconfig_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"rare-achievements/cmd/rare-achievements/appconfig"
	"testing"
	"time"
)

var envKeys = []string{
	"SECRET_NAME", "SECRET_FIELD", "AWS_REGION", "SECRETS_ENDPOINT", "SECRET_TTL",
	"STEAM_API_KEY", "STEAM_API_ADDRESS", "STEAM_STORE_ADDRESS", "LOG_LEVEL",
}

// clearEnv blanks every variable the loader reads; empty values are ignored.
func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %s", name, err)
	}

	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := appconfig.Load("", filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %s", err)
	}

	if time.Duration(cfg.Secret.TTL) != time.Hour {
		t.Fatalf("expected default ttl of 1h, got %s", time.Duration(cfg.Secret.TTL))
	}

	if cfg.Log.Level != slog.LevelInfo {
		t.Fatalf("expected info level, got %s", cfg.Log.Level)
	}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error without secret or key")
	}
}

func TestLoadLayers(t *testing.T) {
	clearEnv(t)

	toml := writeFile(t, "config.toml", `
[secret]
name = "from-toml"
region = "us-west-2"
ttl = "30m"

[steam]
address = "http://toml.invalid"

[log]
level = "debug"
`)

	env := writeFile(t, ".env", "SECRET_NAME=from-dotenv\nAWS_REGION=eu-west-1\n")

	t.Setenv("AWS_REGION", "ap-south-1")

	cfg, err := appconfig.Load(toml, env)
	if err != nil {
		t.Fatalf("load: %s", err)
	}

	if cfg.Secret.Name != "from-dotenv" {
		t.Fatalf("expected dotenv to override toml, got %q", cfg.Secret.Name)
	}

	if cfg.Secret.Region != "ap-south-1" {
		t.Fatalf("expected process env to win, got %q", cfg.Secret.Region)
	}

	if time.Duration(cfg.Secret.TTL) != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %s", time.Duration(cfg.Secret.TTL))
	}

	if cfg.Steam.Address != "http://toml.invalid" {
		t.Fatalf("unexpected address %q", cfg.Steam.Address)
	}

	if cfg.Log.Level != slog.LevelDebug {
		t.Fatalf("expected debug level, got %s", cfg.Log.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %s", err)
	}
}

func TestLoadStaticKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("STEAM_API_KEY", "abc")

	cfg, err := appconfig.Load("", "")
	if err != nil {
		t.Fatalf("load: %s", err)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected static key to satisfy validation: %s", err)
	}
}

func TestLoadInvalidTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_TTL", "soon")

	if _, err := appconfig.Load("", ""); err == nil {
		t.Fatalf("expected error for bad ttl")
	}
}
