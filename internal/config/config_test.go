package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/fitspace",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "secret",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "BANK_TRANSFER", cfg.DefaultPaymentMethod)
	require.Equal(t, 30*time.Second, cfg.PurchaseLockTTL)
	require.Equal(t, 50*time.Millisecond, cfg.LockRetryBackoff)
	require.Equal(t, 15*time.Minute, cfg.ExpirySweepInterval)
	require.Equal(t, 10, cfg.QueueConcurrency)
	require.Equal(t, "30-M", cfg.RateLimitPurchase)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	env["PAYMENT_DEFAULT_METHOD"] = "CREDIT_CARD"
	env["PURCHASE_LOCK_TTL"] = "10s"
	env["EXPIRY_SWEEP_INTERVAL"] = "1h"
	env["CORS_ALLOWED_ORIGINS"] = "https://app.example.com, https://admin.example.com"

	cfg, err := LoadForTests(env)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "CREDIT_CARD", cfg.DefaultPaymentMethod)
	require.Equal(t, 10*time.Second, cfg.PurchaseLockTTL)
	require.Equal(t, time.Hour, cfg.ExpirySweepInterval)
	require.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadRequiredValues(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "REDIS_URL", "JWT_SECRET"} {
		env := baseEnv()
		env[key] = ""
		_, err := LoadForTests(env)
		require.Error(t, err, key)
	}
}

func TestParseDurationFallback(t *testing.T) {
	require.Equal(t, 30*time.Second, parseDuration("garbage", "30s"))
	require.Equal(t, 5*time.Minute, parseDuration("5m", "30s"))
}
