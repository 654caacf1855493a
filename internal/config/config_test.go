package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	assert.NoError(t, err)

	check.Equal(t, ":8080", cfg.Server.Addr)
	check.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	check.Equal(t, "drazba.sqlite3", cfg.DB.Path)
	check.Equal(t, "Admin", cfg.Admin.User)
	check.True(t, cfg.Driver.Enabled)
	check.Equal(t, "@every 1s", cfg.Driver.Schedule)
	check.Equal(t, "@hourly", cfg.Driver.PurgeSchedule)
	check.Equal(t, "", cfg.NATS.URL)
	check.Equal(t, "drazba.events", cfg.NATS.SubjectPrefix)
	check.False(t, cfg.NATS.JetStream)
	check.Equal(t, "DRAZBA_EVENTS", cfg.NATS.Stream)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drazba.yaml")
	body := `
server:
  addr: "127.0.0.1:9000"
db:
  path: /tmp/auction.sqlite3
driver:
  schedule: "*/2 * * * * *"
nats:
  url: nats://localhost:4222
  jetstream: true
live:
  allowed_origins:
    - https://floor.example.com
`
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	assert.NoError(t, err)

	check.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	check.Equal(t, "/tmp/auction.sqlite3", cfg.DB.Path)
	check.Equal(t, "*/2 * * * * *", cfg.Driver.Schedule)
	check.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	check.True(t, cfg.NATS.JetStream)
	check.Equal(t, []string{"https://floor.example.com"}, cfg.Live.AllowedOrigins)
	// Unset keys keep their defaults.
	check.Equal(t, "Admin", cfg.Admin.User)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DRAZBA_SERVER_ADDR", ":9999")
	t.Setenv("DRAZBA_ADMIN_USER", "Auctioneer")
	t.Setenv("DRAZBA_LOG_LEVEL", "debug")

	cfg, err := Load("")
	assert.NoError(t, err)

	check.Equal(t, ":9999", cfg.Server.Addr)
	check.Equal(t, "Auctioneer", cfg.Admin.User)
	level, err := cfg.Log.SlogLevel()
	check.NoError(t, err)
	check.Equal(t, slog.LevelDebug, level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	check.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	assert.NoError(t, err)

	cfg.Server.Addr = ""
	cfg.Log.Level = "loud"
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.NATS.SubjectPrefix = " "
	check.Error(t, cfg.Validate())

	cfg, _ = Load("")
	cfg.NATS.JetStream = true
	cfg.NATS.Stream = "drazba.events"
	check.Error(t, cfg.Validate())

	cfg, _ = Load("")
	check.NoError(t, cfg.Validate())
}
