package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EntityAPIConfig(t *testing.T) {
	t.Setenv("ENTITY_API_URL", "http://entities.test/api")
	t.Setenv("ENTITY_API_TOKEN", "secret")
	t.Setenv("ENTITY_API_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://entities.test/api", cfg.EntityAPI.BaseURL)
	assert.Equal(t, "secret", cfg.EntityAPI.Token)
	assert.Equal(t, 3*time.Second, cfg.EntityAPI.Timeout)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("LIST_CACHE_TTL")
	os.Unsetenv("LIST_PAGE_SIZE")
	os.Unsetenv("ALLOWED_ORIGINS")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Listing.CacheTTL)
	assert.Equal(t, 10, cfg.Listing.PageSize)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestLoad_AllowedOriginsList(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_RejectsInvalidPageSize(t *testing.T) {
	t.Setenv("LIST_PAGE_SIZE", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEnv_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BACKOFFICE_TEST_KEY=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("BACKOFFICE_TEST_KEY") })

	n, err := LoadEnv(envFile, filepath.Join(dir, ".env.local"))
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, "from-dotenv", os.Getenv("BACKOFFICE_TEST_KEY"))
}
