package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.ServerURL = ""
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Timeout = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.ListenAddr = ""
	require.Error(t, cfg.Validate())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	l, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, Default().ServerURL, l.Get().ServerURL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sweetshop.yaml")
	require.NoError(t, os.WriteFile(file, []byte(
		"server_url: https://api.example.com\ntimeout: 10s\nlisten_addr: \":4000\"\n",
	), 0o600))

	l, err := Load(file, nil)
	require.NoError(t, err)
	cfg := l.Get()
	require.Equal(t, "https://api.example.com", cfg.ServerURL)
	require.Equal(t, 10*time.Second, cfg.Timeout)
	require.Equal(t, ":4000", cfg.ListenAddr)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sweetshop.yaml")
	require.NoError(t, os.WriteFile(file, []byte("timeout: -5s\n"), 0o600))

	_, err := Load(file, nil)
	require.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Parallel()
	_, err := Load("/does/not/exist.yaml", nil)
	require.Error(t, err)
}
