package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
endpoint = " localhost:8111 "
rpc_address = 82
verbose = true
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "localhost:8111", cfg.Endpoint)
	require.Equal(t, uint64(82), cfg.RpcAddress)
	require.True(t, cfg.Verbose)

	// Keys absent from the file keep their defaults.
	require.Equal(t, uint64(1), cfg.LogAddress)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
