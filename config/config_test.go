package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_PASSWORD", "")

	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  package_changed_topic_name: "package.changed"
redis:
  host: "localhost"
  port: 6379
portal:
  http_addr: ":8080"
  kafka_consumer_group: "portal-worker"
  tracking_view_ttl_seconds: 300
  jwt_secret: "s3cret"
  trust_proxy_headers: true
  admin_email: "admin@example.com"
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "package.changed", cfg.Kafka.PackageChangedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.Portal.HTTPAddr)
	require.Equal(t, "s3cret", cfg.Portal.JWTSecret)
	require.True(t, cfg.Portal.TrustProxyHeaders)
	require.Equal(t, "postgres://u:p@localhost:5432/db?sslmode=disable", cfg.PostgresDSN())
	require.Equal(t, "localhost:6379", cfg.RedisAddr())
	require.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers())
}

func TestLoadConfig_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("ADMIN_PASSWORD", "pw-env")

	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte("portal:\n  jwt_secret: \"file\"\n"), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Portal.JWTSecret)
	require.Equal(t, "pw-env", cfg.Portal.AdminPassword)
}

func TestConfig_OptionalBackends(t *testing.T) {
	cfg := &Config{}
	require.Empty(t, cfg.PostgresDSN())
	require.Empty(t, cfg.RedisAddr())
	require.Nil(t, cfg.KafkaBrokers())
	require.Equal(t, "package.changed", cfg.PackageChangedTopic())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
