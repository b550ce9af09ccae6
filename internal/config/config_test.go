package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoad_Postgres(t *testing.T) {
	setEnv(t, map[string]string{
		"STORE_DRIVER":      "Postgres",
		"PG_DSN":            "postgres://u:p@localhost:5432/todo",
		"HTTP_READ_TIMEOUT": "15",
		"REDIS_URL":         "",
		"REDIS_ADDR":        "",
		"CACHE_ENABLED":     "false",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout.Duration())
	assert.False(t, cfg.NeedsRedis())
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	setEnv(t, map[string]string{"STORE_DRIVER": "postgres", "PG_DSN": ""})

	_, err := Load()
	assert.ErrorContains(t, err, "PG_DSN")
}

func TestLoad_RedisFromURL(t *testing.T) {
	setEnv(t, map[string]string{
		"STORE_DRIVER": "redis",
		"REDIS_URL":    "redis://default:pw@redis.internal:6380/3",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "pw", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.NeedsRedis())
}

func TestLoad_CacheRequiresRedis(t *testing.T) {
	setEnv(t, map[string]string{
		"STORE_DRIVER":  "memory",
		"CACHE_ENABLED": "true",
		"REDIS_URL":     "",
		"REDIS_ADDR":    "",
	})

	_, err := Load()
	assert.ErrorContains(t, err, "REDIS_ADDR")
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	setEnv(t, map[string]string{"STORE_DRIVER": "surreal"})

	_, err := Load()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestLoad_RetryPolicy(t *testing.T) {
	setEnv(t, map[string]string{
		"STORE_DRIVER":          "memory",
		"CACHE_ENABLED":         "false",
		"STORE_CONNECT_RETRIES": "3",
		"STORE_CONNECT_BACKOFF": "500ms",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Store.ConnectRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Store.ConnectBackoff.Duration())

	t.Setenv("STORE_CONNECT_RETRIES", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	setEnv(t, map[string]string{"STORE_DRIVER": "memory", "HTTP_IDLE_TIMEOUT": "forever"})

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: postgres\npg:\n  dsn: postgres://file/todo\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://file/todo", cfg.PG.DSN)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("TODO_API_URL", "http://todo.local:9000/api/")
	t.Setenv("TODO_API_TIMEOUT", "2")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://todo.local:9000/api", cfg.APIURL)
	assert.Equal(t, 2*time.Second, cfg.Timeout.Duration())
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"10", 10 * time.Second},
		{"10s", 10 * time.Second},
		{"5m", 5 * time.Minute},
		{`"2s"`, 2 * time.Second},
		{" '1500ms' ", 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", `""`, "ten", "5 minutes"} {
		_, err := parseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoad_BadRedisURL(t *testing.T) {
	for _, bad := range []string{"http://localhost:6379", "redis://host:1/x"} {
		setEnv(t, map[string]string{"STORE_DRIVER": "redis", "REDIS_URL": bad})

		_, err := Load()
		assert.ErrorContains(t, err, "REDIS_URL", bad)
	}
}
