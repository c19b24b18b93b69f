package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("POSTGRES_CONN_STR", "postgres://localhost/story")
	t.Setenv("ACCESS_TOKEN_SECRET", "a")
	t.Setenv("REFRESH_TOKEN_SECRET", "r")
	t.Setenv("S3_BUCKET", "media")
}

func TestLoad_Defaults(t *testing.T) {
	validEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "storybranch", cfg.MongoDatabase)
	assert.Equal(t, 5*time.Minute, cfg.TreeCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenExpiry)
	assert.Equal(t, 240*time.Hour, cfg.RefreshTokenExpiry)
	assert.Equal(t, "preserve", cfg.OrphanPolicy)
	assert.Equal(t, 5, cfg.VoteMaxRetries)
	assert.Equal(t, int64(100<<20), cfg.UploadMaxBytes)
	assert.True(t, cfg.IsDevelopment())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	validEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("ORPHAN_POLICY", " Cascade ")
	t.Setenv("TREE_CACHE_TTL", "30s")
	t.Setenv("VOTE_MAX_RETRIES", "9")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "cascade", cfg.OrphanPolicy)
	assert.Equal(t, 30*time.Second, cfg.TreeCacheTTL)
	assert.Equal(t, 9, cfg.VoteMaxRetries)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{OrphanPolicy: "shred"}
	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{"MONGO_URI", "POSTGRES_CONN_STR", "ACCESS_TOKEN_SECRET", "S3_BUCKET", "ORPHAN_POLICY", "expiries"} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %q", want, msg)
	}
}
