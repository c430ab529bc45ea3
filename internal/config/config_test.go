package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2/google"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "catalog.db", cfg.Database.URL)
	assert.Equal(t, "catalog_session", cfg.Session.Name)
	assert.Equal(t, 10, cfg.Catalog.RecentItems)
	assert.Equal(t, DefaultCategories, cfg.Catalog.SeedCategories)
	assert.Len(t, cfg.OAuth.Scopes, 2)
	assert.Equal(t, 6*time.Hour, cfg.Telegram.DigestInterval)
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CATALOG_SERVER_PORT", "9090")
	t.Setenv("CATALOG_DATABASE_URL", "/tmp/other.db")
	t.Setenv("CATALOG_CATALOG_RECENT_ITEMS", "5")
	t.Setenv("CATALOG_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("CATALOG_TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("CATALOG_TELEGRAM_DIGEST_INTERVAL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/other.db", cfg.Database.URL)
	assert.Equal(t, 5, cfg.Catalog.RecentItems)
	assert.Equal(t, int64(-100200), cfg.Telegram.ChatID)
	assert.Equal(t, 30*time.Minute, cfg.Telegram.DigestInterval)
	assert.True(t, cfg.Telegram.Enabled())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := "catalog:\n  seed_categories:\n    - Tools\n    - Garden\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Tools", "Garden"}, cfg.Catalog.SeedCategories)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CATALOG_SERVER_ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.secret")

	t.Setenv("CATALOG_SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Server.IsDevelopment())
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Server:   ServerConfig{Port: 0, Environment: "development"},
		Catalog:  CatalogConfig{RecentItems: 0},
		Telegram: TelegramConfig{Token: "t"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "database.url")
	assert.Contains(t, err.Error(), "recent_items")
	assert.Contains(t, err.Error(), "telegram.chat_id")
}

func TestOAuth2FromCredentials(t *testing.T) {
	cfg, err := OAuthConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8000/oauth2callback",
		Scopes:       []string{"email"},
	}.OAuth2()
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, google.Endpoint.TokenURL, cfg.Endpoint.TokenURL)

	_, err = OAuthConfig{}.OAuth2()
	assert.Error(t, err)
}

func TestOAuth2FromClientSecretFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_secrets.json")
	data := `{"web":{"client_id":"file-id","client_secret":"file-secret",` +
		`"auth_uri":"https://accounts.google.com/o/oauth2/auth",` +
		`"token_uri":"https://oauth2.googleapis.com/token",` +
		`"redirect_uris":["http://localhost:8000/oauth2callback"]}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := OAuthConfig{ClientSecretFile: path, RedirectURL: "http://example.com/cb"}.OAuth2()
	require.NoError(t, err)
	assert.Equal(t, "file-id", cfg.ClientID)
	assert.Equal(t, "file-secret", cfg.ClientSecret)
	assert.Equal(t, "http://example.com/cb", cfg.RedirectURL)

	_, err = OAuthConfig{ClientSecretFile: filepath.Join(t.TempDir(), "missing.json")}.OAuth2()
	assert.Error(t, err)
}
