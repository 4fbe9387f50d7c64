package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http", cfg.Detector.Backend)
	assert.Equal(t, 0.25, cfg.Detector.Confidence)
	assert.Equal(t, "coco", cfg.Detector.Profile)
	assert.Equal(t, "csv", cfg.EventLog.Backend)
	assert.Equal(t, "data/detection_log.csv", cfg.EventLog.Path)
	assert.Equal(t, 100, cfg.Sitrep.Retain)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Contains(t, cfg.Uploads.AllowedExts, ".jpg")
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
detector:
  backend: onnx
  profile: military
  confidence: 0.4
eventLog:
  backend: postgres
database:
  host: db.internal
  port: 5432
  user: aegis
  password: secret
  name: aegis
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "onnx", cfg.Detector.Backend)
	assert.Equal(t, "military", cfg.Detector.Profile)
	assert.Equal(t, 0.4, cfg.Detector.Confidence)
	assert.Equal(t, "postgres", cfg.EventLog.Backend)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7777")
	t.Setenv("DETECTOR_PROFILE", "dota")
	t.Setenv("EVENTLOG_BACKEND", "mysql")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "dota", cfg.Detector.Profile)
	assert.Equal(t, "mysql", cfg.EventLog.Backend)
}

func TestDSNs(t *testing.T) {
	var cfg Config
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 3306
	cfg.Database.User = "aegis"
	cfg.Database.Password = "pw"
	cfg.Database.Name = "aegisdb"

	assert.Equal(t,
		"aegis:pw@tcp(localhost:3306)/aegisdb?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.MySQLDSN())

	cfg.Database.Port = 5432
	assert.Equal(t,
		"host=localhost port=5432 user=aegis password=pw dbname=aegisdb sslmode=disable",
		cfg.PostgresDSN())
}

func TestLLMAPIKey(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	t.Setenv("LLM_API_KEY", "sk-test")
	assert.Equal(t, "sk-test", cfg.LLMAPIKey())
}
