// Package config provides configuration loading for the catalog server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"` // development, production
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c ServerConfig) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development" || c.Environment == "dev"
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	Name   string `mapstructure:"name"`
	Secret string `mapstructure:"secret"`
	MaxAge int    `mapstructure:"max_age"` // seconds
	Secure bool   `mapstructure:"secure"`
}

// OAuthConfig holds the identity provider client settings. Either
// ClientSecretFile (a Google client_secrets.json) or ClientID/ClientSecret
// must be set.
type OAuthConfig struct {
	ClientSecretFile string   `mapstructure:"client_secret_file"`
	ClientID         string   `mapstructure:"client_id"`
	ClientSecret     string   `mapstructure:"client_secret"`
	RedirectURL      string   `mapstructure:"redirect_url"`
	UserInfoURL      string   `mapstructure:"userinfo_url"`
	RevokeURL        string   `mapstructure:"revoke_url"`
	Scopes           []string `mapstructure:"scopes"`
}

// CatalogConfig holds catalog content settings.
type CatalogConfig struct {
	RecentItems    int      `mapstructure:"recent_items"`
	SeedCategories []string `mapstructure:"seed_categories"`
}

// TelegramConfig enables change notifications and the periodic digest.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"`
	ChatID         int64         `mapstructure:"chat_id"`
	DigestTime     string        `mapstructure:"digest_time"` // HH:MM, takes precedence over DigestInterval
	DigestInterval time.Duration `mapstructure:"digest_interval"`
}

// Enabled reports whether notifications should be sent.
func (c TelegramConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json
}

// DefaultCategories are seeded when no list is configured.
var DefaultCategories = []string{
	"Soccer", "Basketball", "Baseball", "Frisbee", "Snowboarding",
	"Rock Climbing", "Football", "Skating", "Hockey",
}

// Load reads configuration from files and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	v.SetDefault("database.url", "catalog.db")

	v.SetDefault("session.name", "catalog_session")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.max_age", 7*24*60*60)
	v.SetDefault("session.secure", false)

	v.SetDefault("oauth.client_secret_file", "")
	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("oauth.redirect_url", "http://localhost:8000/oauth2callback")
	v.SetDefault("oauth.userinfo_url", "https://www.googleapis.com/oauth2/v2/userinfo")
	v.SetDefault("oauth.revoke_url", "https://oauth2.googleapis.com/revoke")
	v.SetDefault("oauth.scopes", []string{
		"https://www.googleapis.com/auth/userinfo.profile",
		"https://www.googleapis.com/auth/userinfo.email",
	})

	v.SetDefault("catalog.recent_items", 10)
	v.SetDefault("catalog.seed_categories", DefaultCategories)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.digest_time", "")
	v.SetDefault("telegram.digest_interval", "6h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Session.Secret == "" && !c.Server.IsDevelopment() {
		errs = append(errs, errors.New("session.secret is required outside development"))
	}
	if c.Catalog.RecentItems <= 0 {
		errs = append(errs, fmt.Errorf("catalog.recent_items must be positive, got %d", c.Catalog.RecentItems))
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("telegram.chat_id is required when telegram.token is set"))
	}
	if c.Telegram.DigestInterval < 0 {
		errs = append(errs, errors.New("telegram.digest_interval must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// OAuth2 builds the client configuration, preferring the client secrets file
// when one is configured.
func (c OAuthConfig) OAuth2() (*oauth2.Config, error) {
	if c.ClientSecretFile != "" {
		data, err := os.ReadFile(c.ClientSecretFile)
		if err != nil {
			return nil, fmt.Errorf("read client secret file: %w", err)
		}
		cfg, err := google.ConfigFromJSON(data, c.Scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse client secret file: %w", err)
		}
		if c.RedirectURL != "" {
			cfg.RedirectURL = c.RedirectURL
		}
		return cfg, nil
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, errors.New("oauth.client_id and oauth.client_secret are required without oauth.client_secret_file")
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       c.Scopes,
		Endpoint:     google.Endpoint,
	}, nil
}
