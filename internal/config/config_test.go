package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1024, cfg.Engine.MaxResident)
	assert.Equal(t, 50, cfg.Engine.SnapshotEvery)
	assert.Equal(t, "wirelessmesh", cfg.MQTT.TopicPrefix)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoad_MergesWithDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /var/lib/wirelessmesh/events.db
engine:
  snapshot_every: 10
mqtt:
  enabled: true
  broker:
    host: broker.local
  qos: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/wirelessmesh/events.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Engine.SnapshotEvery)
	assert.Equal(t, 1024, cfg.Engine.MaxResident, "unset keys keep defaults")
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "broker.local", cfg.MQTT.Broker.Host)
	assert.Equal(t, 1883, cfg.MQTT.Broker.Port)
	assert.Equal(t, 0, cfg.MQTT.QoS)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  path: from-file.db\n")
	t.Setenv("WIRELESSMESH_DB_PATH", "from-env.db")
	t.Setenv("WIRELESSMESH_LOG_LEVEL", "debug")
	t.Setenv("WIRELESSMESH_MQTT_HOST", "mqtt.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "mqtt.example", cfg.MQTT.Broker.Host)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("WIRELESSMESH_DB_PATH", "env-only.db")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-only.db", cfg.Database.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "engine: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Database.Path = ""
	cfg.Engine.MaxResident = -1
	cfg.Logging.Level = "loud"
	cfg.MQTT.QoS = 3
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker.Port = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"database.path is required",
		"engine.max_resident",
		"logging.level",
		"mqtt.qos",
		"mqtt.broker.port",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_MetricsTextfile(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Textfile = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics.textfile")
}
