package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "disease_db", cfg.Postgres.Database)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 10, cfg.Dashboard.RecentLimit)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "POSTGRES_HOST=db.internal\nPOSTGRES_PORT=6543\nKAFKA_BROKERS=k1:9092,k2:9092\nMODEL_PATH=/srv/model.onnx\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("ENV_FILE", path)
	for _, key := range []string{"POSTGRES_HOST", "POSTGRES_PORT", "KAFKA_BROKERS", "MODEL_PATH"} {
		// godotenv does not override existing variables, so make sure none leak in.
		if _, ok := os.LookupEnv(key); ok {
			t.Skipf("%s already set in environment", key)
		}
	}
	t.Cleanup(func() {
		for _, key := range []string{"POSTGRES_HOST", "POSTGRES_PORT", "KAFKA_BROKERS", "MODEL_PATH"} {
			os.Unsetenv(key)
		}
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "host=db.internal port=6543 user=postgres password= dbname=disease_db sslmode=disable", cfg.Postgres.DSN())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "/srv/model.onnx", cfg.Model.Path)
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("READ_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}
