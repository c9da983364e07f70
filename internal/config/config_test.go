package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

validator:
  concurrency: 4
  helo_domain: "probe.example.com"
  mail_from: "probe@probe.example.com"
  probe_timeout_seconds: 15
  dns_timeout_seconds: 3
  catch_all_detection: true
  max_batch_size: 500

cache:
  ttl_hours: 12
  max_entries: 2000

ses:
  region: "eu-west-1"
  access_key: "test-access"
  secret_key: "test-secret"
  enabled: true
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Test server config
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Test validator config
	assert.Equal(t, 4, cfg.Validator.Concurrency)
	assert.Equal(t, "probe.example.com", cfg.Validator.HELODomain)
	assert.Equal(t, "probe@probe.example.com", cfg.Validator.MailFrom)
	assert.Equal(t, 15, cfg.Validator.ProbeTimeoutSeconds)
	assert.Equal(t, 3, cfg.Validator.DNSTimeoutSeconds)
	assert.True(t, cfg.Validator.CatchAllDetection)
	assert.Equal(t, 500, cfg.Validator.MaxBatchSize)

	// Test cache config
	assert.Equal(t, 12, cfg.Cache.TTLHours)
	assert.Equal(t, 2000, cfg.Cache.MaxEntries)

	// Test SES config
	assert.Equal(t, "eu-west-1", cfg.SES.Region)
	assert.Equal(t, "test-access", cfg.SES.AccessKey)
	assert.True(t, cfg.SES.Enabled)
}

func TestLoadDefaults(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Verify defaults are applied
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 2, cfg.Validator.Concurrency)
	assert.Equal(t, "validator.local", cfg.Validator.HELODomain)
	assert.Equal(t, "validator@validator.local", cfg.Validator.MailFrom)
	assert.Equal(t, 10, cfg.Validator.ProbeTimeoutSeconds)
	assert.Equal(t, 5, cfg.Validator.DNSTimeoutSeconds)
	assert.False(t, cfg.Validator.CatchAllDetection)
	assert.Equal(t, 1000, cfg.Validator.MaxBatchSize)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
	assert.Equal(t, "us-west-2", cfg.SES.Region)
	assert.False(t, cfg.SES.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
ses:
  access_key: "file-access"
  secret_key: "file-secret"
  region: "us-east-1"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Set environment variables
	os.Setenv("AWS_SES_ACCESS_KEY", "env-access")
	os.Setenv("AWS_SES_SECRET_KEY", "env-secret")
	os.Setenv("VALIDATOR_CONCURRENCY", "8")
	defer func() {
		os.Unsetenv("AWS_SES_ACCESS_KEY")
		os.Unsetenv("AWS_SES_SECRET_KEY")
		os.Unsetenv("VALIDATOR_CONCURRENCY")
	}()

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	// Environment variables should override file values
	assert.Equal(t, "env-access", cfg.SES.AccessKey)
	assert.Equal(t, "env-secret", cfg.SES.SecretKey)
	assert.Equal(t, "us-east-1", cfg.SES.Region)
	assert.Equal(t, 8, cfg.Validator.Concurrency)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestTimeouts(t *testing.T) {
	cfg := ValidatorConfig{ProbeTimeoutSeconds: 15, DNSTimeoutSeconds: 3}
	assert.Equal(t, 15*time.Second, cfg.ProbeTimeout())
	assert.Equal(t, 3*time.Second, cfg.DNSTimeout())

	cache := CacheConfig{TTLHours: 12}
	assert.Equal(t, 12*time.Hour, cache.TTL())
}
