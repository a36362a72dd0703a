package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Server  ServerConfig  `mapstructure:"server"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TMDBConfig holds metadata service access
type TMDBConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	PublicDir      string   `mapstructure:"public_dir"` // public SPA build, empty to disable
	AdminDir       string   `mapstructure:"admin_dir"`  // admin SPA build, empty to disable
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateLimit      int      `mapstructure:"rate_limit"` // requests per minute per IP, 0 disables
}

// AdminConfig holds the admin account and token settings
type AdminConfig struct {
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	PasswordHash string        `mapstructure:"password_hash"` // bcrypt, overrides password
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"` // 0 = tokens never expire
}

// StoreConfig holds the profile database location
type StoreConfig struct {
	Path string `mapstructure:"path"` // empty = memory only
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"` // empty = stderr
	Level string `mapstructure:"level"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// legacyEnv maps config keys to the unprefixed variables the backend has always read
var legacyEnv = map[string]string{
	"tmdb.api_key":     "TMDB_API_KEY",
	"server.port":      "PORT",
	"admin.username":   "ADMIN_USERNAME",
	"admin.password":   "ADMIN_PASSWORD",
	"admin.jwt_secret": "JWT_SECRET",
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TMDB: TMDBConfig{
			BaseURL: "https://api.themoviedb.org/3",
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Host:           "",
			Port:           8080,
			AllowedOrigins: []string{"*"},
			RateLimit:      120,
		},
		Admin: AdminConfig{
			Username:  "admin",
			Password:  "password",
			JWTSecret: "supersecretkey",
		},
		Store: StoreConfig{
			Path: filepath.Join(defaultDataPath(), "profile.db"),
		},
		Logging: LoggingConfig{
			File:  "",
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "lunastream")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "lunastream")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "lunastream")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "lunastream")
	}
}

// LoadConfig loads configuration from .env, the config file and the environment.
// path selects an explicit config file; empty searches the default locations.
// Precedence: environment, then config file, then defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides: LUNASTREAM_TMDB_API_KEY, ...
	v.SetEnvPrefix("LUNASTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envName := "LUNASTREAM_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", legacy, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	cfg.Server.PublicDir = expandHome(cfg.Server.PublicDir)
	cfg.Server.AdminDir = expandHome(cfg.Server.AdminDir)

	return cfg, nil
}

// setDefaults registers every default so AutomaticEnv can see all keys
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("tmdb.api_key", cfg.TMDB.APIKey)
	v.SetDefault("tmdb.base_url", cfg.TMDB.BaseURL)
	v.SetDefault("tmdb.timeout", cfg.TMDB.Timeout)

	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.public_dir", cfg.Server.PublicDir)
	v.SetDefault("server.admin_dir", cfg.Server.AdminDir)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)
	v.SetDefault("server.rate_limit", cfg.Server.RateLimit)

	v.SetDefault("admin.username", cfg.Admin.Username)
	v.SetDefault("admin.password", cfg.Admin.Password)
	v.SetDefault("admin.password_hash", cfg.Admin.PasswordHash)
	v.SetDefault("admin.jwt_secret", cfg.Admin.JWTSecret)
	v.SetDefault("admin.token_ttl", cfg.Admin.TokenTTL)

	v.SetDefault("store.path", cfg.Store.Path)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// Validate reports configuration that cannot work
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.TMDB.Timeout < 0 {
		return fmt.Errorf("invalid tmdb timeout %s", c.TMDB.Timeout)
	}
	if c.Admin.TokenTTL < 0 {
		return fmt.Errorf("invalid admin token ttl %s", c.Admin.TokenTTL)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit %d", c.Server.RateLimit)
	}
	if strings.TrimSpace(c.Admin.JWTSecret) == "" {
		return errors.New("admin jwt secret must not be empty")
	}
	return nil
}

// IsConfigured returns true if the metadata API key is set
func (c *Config) IsConfigured() bool {
	return c.TMDB.APIKey != ""
}

// expandHome expands a leading ~ in path
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
