package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crwatch/backend/config"
	"github.com/crwatch/backend/internal/infrastructure/cache"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "crw-server version "+Version+"\n", out.String())
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := rootCmd()

	configFlag := cmd.Flags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.NotNil(t, cmd.Flags().Lookup("log-level"))
}

func TestNewCache_Memory(t *testing.T) {
	cfg := &config.Config{Cache: config.CacheConfig{Type: "memory"}}

	c, err := newCache(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &cache.MemoryCache{}, c)
}

func TestRun_MissingConfigFile(t *testing.T) {
	err := run(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load configuration")
}

func TestRun_MissingDataset(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := "dataset:\n  path: " + filepath.Join(dir, "none.json") + "\n  watch: false\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	err := run(context.Background(), configPath, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load dataset")
}
