package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Secret SecretConfig `toml:"secret"`
	Steam  SteamConfig  `toml:"steam"`
	Log    LogConfig    `toml:"log"`
}

type SecretConfig struct {
	Name     string   `toml:"name"`
	Field    string   `toml:"field"`
	Region   string   `toml:"region"`
	Endpoint string   `toml:"endpoint"`
	TTL      Duration `toml:"ttl"`
}

type SteamConfig struct {
	// APIKey skips the secret store entirely when set.
	APIKey       string `toml:"api_key"`
	Address      string `toml:"address"`
	StoreAddress string `toml:"store_address"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
}

// Duration reads values like "1h" or "90s".
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}

	*d = Duration(v)

	return nil
}

func Default() Config {
	return Config{
		Secret: SecretConfig{
			TTL: Duration(time.Hour),
		},
		Log: LogConfig{
			Level: slog.LevelInfo,
		},
	}
}

// Load reads an optional TOML file, then an optional dotenv file, then the
// process environment. Later sources override earlier ones, and process
// variables win over the dotenv file.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}

		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	env := map[string]string{}

	if envFile != "" {
		m, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read env file: %w", err)
		}

		for k, v := range m {
			env[k] = v
		}
	}

	lookup := func(key string) (string, bool) {
		if v := os.Getenv(key); v != "" {
			return v, true
		}

		v, ok := env[key]
		return v, ok && v != ""
	}

	if err := cfg.apply(lookup); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) apply(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SECRET_NAME":         &cfg.Secret.Name,
		"SECRET_FIELD":        &cfg.Secret.Field,
		"AWS_REGION":          &cfg.Secret.Region,
		"SECRETS_ENDPOINT":    &cfg.Secret.Endpoint,
		"STEAM_API_KEY":       &cfg.Steam.APIKey,
		"STEAM_API_ADDRESS":   &cfg.Steam.Address,
		"STEAM_STORE_ADDRESS": &cfg.Steam.StoreAddress,
	}

	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("SECRET_TTL"); ok {
		if err := cfg.Secret.TTL.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("SECRET_TTL: %w", err)
		}
	}

	if v, ok := lookup("LOG_LEVEL"); ok {
		if err := cfg.Log.Level.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	return nil
}

// Validate reports configuration that cannot produce an API key.
func (cfg *Config) Validate() error {
	if cfg.Steam.APIKey != "" {
		return nil
	}

	if cfg.Secret.Name == "" {
		return fmt.Errorf("SECRET_NAME must be set when STEAM_API_KEY is not")
	}

	if cfg.Secret.Region == "" {
		return fmt.Errorf("AWS_REGION must be set when STEAM_API_KEY is not")
	}

	return nil
}
