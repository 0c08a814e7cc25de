package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 60, cfg.Harvest.FetchTimeoutSeconds)
	assert.Equal(t, 4, cfg.Harvest.ImportWorkers)
	assert.Equal(t, "site_user", cfg.Harvest.SiteUser)
	assert.EqualValues(t, 64<<20, cfg.Harvest.MaxResponseBytes)
	assert.False(t, cfg.Storage.Enabled)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	env := "HARVEST_IMPORT_WORKERS=8\nDATABASE_DRIVER=sqlite\nLOG_FORMAT=console\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	t.Cleanup(func() {
		os.Unsetenv("HARVEST_IMPORT_WORKERS")
		os.Unsetenv("DATABASE_DRIVER")
		os.Unsetenv("LOG_FORMAT")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Harvest.ImportWorkers)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestHarvestConfig_Helpers(t *testing.T) {
	assert.Equal(t, 60*time.Second, HarvestConfig{}.FetchTimeout())
	assert.Equal(t, 5*time.Second, HarvestConfig{FetchTimeoutSeconds: 5}.FetchTimeout())
	assert.Equal(t, 1, HarvestConfig{}.Workers())
	assert.Equal(t, 3, HarvestConfig{ImportWorkers: 3}.Workers())
}
