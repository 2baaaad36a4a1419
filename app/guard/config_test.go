package guard_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/app/guard"
	"github.com/dmitrymomot/sessionguard/core/config"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, testConfig().Validate())
	})

	t.Run("defaults need a secret", func(t *testing.T) {
		err := guard.DefaultConfig().Validate()

		var ve *config.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Len(t, ve.Violations, 1)
		assert.Contains(t, ve.Violations[0], "COOKIE_SECRETS")
	})

	t.Run("enumerates every violation", func(t *testing.T) {
		cfg := testConfig()
		cfg.Cookie.Secrets = "short"
		cfg.Encryption.Algorithm = "des"
		cfg.Encryption.SaltLength = 4
		cfg.RateLimit.Store = "etcd"
		cfg.RateLimit.AuthMax = 0
		cfg.RateLimit.HealthWindow = 10 * time.Millisecond

		err := cfg.Validate()
		var ve *config.ValidationError
		require.ErrorAs(t, err, &ve)

		joined := strings.Join(ve.Violations, "\n")
		for _, want := range []string{
			"COOKIE_SECRETS",
			"ENCRYPTION_ALGORITHM",
			"ENCRYPTION_SALT_LENGTH",
			"RATE_LIMIT_STORE",
			`bucket "auth"`,
			`bucket "health"`,
		} {
			assert.Contains(t, joined, want)
		}
		assert.Contains(t, err.Error(), "6 violations")
	})

	t.Run("production requires secure cookies", func(t *testing.T) {
		cfg := testConfig()
		cfg.Env = "production"
		assert.ErrorContains(t, cfg.Validate(), "COOKIE_SECURE")

		cfg.Cookie.Secure = true
		assert.NoError(t, cfg.Validate())
	})

	t.Run("short encryption secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.EncryptionSecret = "too-short"
		assert.ErrorContains(t, cfg.Validate(), "ENCRYPTION_SECRET")
	})

	t.Run("redis needs url", func(t *testing.T) {
		cfg := testConfig()
		cfg.RateLimit.Store = guard.StoreRedis
		cfg.Redis.ConnectionURL = ""
		assert.ErrorContains(t, cfg.Validate(), "REDIS_URL")
	})
}

func TestConfig_ResolvedEncryptionSecret(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Cookie.Secrets = testSecret + "," + strings.Repeat("b", 32)
	assert.Equal(t, testSecret, cfg.ResolvedEncryptionSecret())

	cfg.EncryptionSecret = strings.Repeat("e", 32)
	assert.Equal(t, strings.Repeat("e", 32), cfg.ResolvedEncryptionSecret())
}

func TestRateLimitConfig_Buckets(t *testing.T) {
	t.Parallel()

	buckets := guard.DefaultRateLimitConfig().Buckets()
	require.Len(t, buckets, 4)

	byName := make(map[string][2]any)
	for _, b := range buckets {
		assert.True(t, b.ContinueAfterExceed)
		byName[b.Name] = [2]any{b.MaxRequests, b.Window}
	}

	assert.Equal(t, [2]any{100, 15 * time.Minute}, byName[guard.BucketGlobal])
	assert.Equal(t, [2]any{5, 15 * time.Minute}, byName[guard.BucketAuth])
	assert.Equal(t, [2]any{30, time.Minute}, byName[guard.BucketFeature])
	assert.Equal(t, [2]any{60, time.Minute}, byName[guard.BucketHealth])
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	cfg := testConfig()
	cfg.LogLevel = "warn"

	log := guard.NewLogger(cfg, &buf)
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"service":"sessionguard"`)

	buf.Reset()
	cfg.LogFormat = "text"
	guard.NewLogger(cfg, &buf).Warn("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
