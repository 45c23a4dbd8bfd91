package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	glog "github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://legacy/")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_PORT", "")

	cfg := Load()
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 750*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, "amqp://legacy/", cfg.RabbitURL)
	assert.Equal(t, glog.DEBUG, cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_MySQLStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("STORE_TIMEOUT", "bogus")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASS", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "tickets")

	cfg := Load()
	assert.Equal(t, StoreMySQL, cfg.StoreDriver)
	assert.Equal(t, "app", cfg.DBUser)
	assert.Equal(t, "tickets", cfg.DBName)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOTENV_ONLY=from-file\nDOTENV_BOTH=from-file\n"), 0o600))
	t.Setenv("DOTENV_BOTH", "from-env")
	t.Setenv("DOTENV_ONLY", "")
	os.Unsetenv("DOTENV_ONLY")

	LoadDotEnv(path, filepath.Join(dir, "missing.env"))

	assert.Equal(t, "from-file", os.Getenv("DOTENV_ONLY"))
	assert.Equal(t, "from-env", os.Getenv("DOTENV_BOTH"))
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]glog.Lvl{
		"":        glog.INFO,
		"info":    glog.INFO,
		"DEBUG":   glog.DEBUG,
		"warning": glog.WARN,
		"error":   glog.ERROR,
		"off":     glog.OFF,
		"chatty":  glog.INFO,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("PURCHASE_LIMIT_BURST", "0")
	t.Setenv("PURCHASE_LIMIT_REFILL", "2s")
	t.Setenv("PURCHASE_LIMIT_IDLE_TTL", "1s")
	t.Setenv("PURCHASE_LIMIT_KEY", "by-phase-of-moon")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Burst)
	assert.Equal(t, 2*time.Second, cfg.IdleTTL)
	assert.Equal(t, LimitByUser, cfg.KeyBy)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("EVENT_CACHE_ENABLED", "off")
	t.Setenv("EVENT_CACHE_TTL", "0s")

	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, "events", cfg.Prefix)
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")

	opts, err := RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	t.Setenv("REDIS_URL", "redis://:pw@other:6379/3")
	opts, err = RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "other:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)
}
