package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-sheet/internal/config"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")

	require.NoError(t, err)
	assert.Equal(t, "SW5e Character Sheet", cfg.App.Name)
	assert.True(t, strings.HasPrefix(cfg.App.Instance, "instance-"))
	assert.Equal(t, config.StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "sw5e-character-storage", cfg.Store.Key)
	assert.Equal(t, config.NotifyNone, cfg.Notify.Driver)
	assert.Equal(t, "sheet:changes", cfg.Notify.Channel)
	assert.Equal(t, time.Minute, cfg.Notify.Retention)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.Equal(t, "ability", cfg.Rules.SavingThrows)
	assert.False(t, cfg.Rules.ExternalCatalog)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
app:
  instance: desk-1
store:
  driver: sqlite
  sqlite_path: /tmp/chars.db
notify:
  driver: file
  dir: /tmp/sheet-drops
  retention: 30s
log:
  level: debug
  format: json
rules:
  saving_throws: proficient
`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "desk-1", cfg.App.Instance)
	assert.Equal(t, config.StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/chars.db", cfg.Store.SQLitePath)
	assert.Equal(t, config.NotifyFile, cfg.Notify.Driver)
	assert.Equal(t, "/tmp/sheet-drops", cfg.Notify.Dir)
	assert.Equal(t, 30*time.Second, cfg.Notify.Retention)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "proficient", cfg.Rules.SavingThrows)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: sqlite\n")
	t.Setenv("SHEET_STORE_DRIVER", "redis")
	t.Setenv("SHEET_STORE_REDIS_ADDR", "cache:6379")
	t.Setenv("SHEET_STORE_REDIS_DB", "3")
	t.Setenv("SHEET_RULES_EXTERNAL_CATALOG", "true")

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, config.StoreRedis, cfg.Store.Driver)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 3, cfg.Store.RedisDB)
	assert.True(t, cfg.Rules.ExternalCatalog)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("SHEET_STORE_DRIVER", "postgres")
	t.Setenv("SHEET_LOG_LEVEL", "loud")
	t.Setenv("SHEET_RULES_SAVING_THROWS", "sometimes")
	t.Setenv("SHEET_STORE_REDIS_DB", "16")

	cfg, err := config.Load("")

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.True(t, errors.IsInvalidArgument(err))
	fields := errors.FieldErrors(err)
	assert.Contains(t, fields, "store.driver")
	assert.Contains(t, fields, "log.level")
	assert.Contains(t, fields, "rules.saving_throws")
	assert.Equal(t, []string{"must be at most 15"}, fields["store.redis_db"])
}

func TestLoadRequiresDriverSettings(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: file
notify:
  driver: file
`)

	_, err := config.Load(path)

	require.Error(t, err)
	fields := errors.FieldErrors(err)
	assert.Contains(t, fields, "store.dir")
	assert.Contains(t, fields, "notify.dir")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidateRedisNotifyNeedsAddress(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Notify.Driver = config.NotifyRedis
	cfg.Store.RedisAddr = ""

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, errors.FieldErrors(err), "store.redis_addr")
}
