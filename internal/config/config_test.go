package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "data/invoices.db", cfg.Database.Path)
	assert.Equal(t, time.Hour, cfg.Scheduler.OverdueInterval)
	assert.Equal(t, 3, cfg.Scheduler.ReminderLeadDays)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "/webhook/message", cfg.Webhook.Path)
}

func TestLoadRejectsBadPort(t *testing.T) {
	path := writeConfig(t, "server:\n  port: -1\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsPartialLarkConfig(t *testing.T) {
	path := writeConfig(t, "lark:\n  app_id: cli_abc\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
