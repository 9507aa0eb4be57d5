package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "JWT_TTL", "BCRYPT_COST", "KAFKA_BROKERS", "ES_DIRECTORY_INDEX", "KAFKA_IDENTITY_TOPIC"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	assert.Equal(t, 8000, cfg.ServerPort)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Equal(t, "directory", cfg.ESIndex)
	assert.Equal(t, "identity_events", cfg.KafkaTopic)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")

	cfg := FromEnv()
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []byte("s3cret"), cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestEnvDurationDefault(t *testing.T) {
	t.Setenv("X_DUR", "900")
	assert.Equal(t, 900*time.Second, EnvDurationDefault("X_DUR", time.Minute))

	t.Setenv("X_DUR", "nonsense")
	assert.Equal(t, time.Minute, EnvDurationDefault("X_DUR", time.Minute))

	t.Setenv("X_DUR", "-5s")
	assert.Equal(t, time.Minute, EnvDurationDefault("X_DUR", time.Minute))
}

func TestEnvIntDefault_Invalid(t *testing.T) {
	t.Setenv("X_INT", "abc")
	assert.Equal(t, 7, EnvIntDefault("X_INT", 7))
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RECORDS_TEST_ONLY_KEY=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RECORDS_TEST_ONLY_KEY") })

	Load(path)
	assert.Equal(t, "from-file", os.Getenv("RECORDS_TEST_ONLY_KEY"))
}

func TestValidate(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://x", JWTSecret: []byte("k"), JWTTTL: time.Hour}
	require.NoError(t, cfg.Validate())

	missingDB := cfg
	missingDB.DatabaseURL = ""
	assert.ErrorContains(t, missingDB.Validate(), "DATABASE_URL")

	missingSecret := cfg
	missingSecret.JWTSecret = nil
	assert.ErrorContains(t, missingSecret.Validate(), "JWT_SECRET")
}
