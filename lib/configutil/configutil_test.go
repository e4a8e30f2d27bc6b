package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl   string `json:"base_url"`
	CachePath string `json:"cache_path"`
	Timeout   int    `json:"timeout"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0644)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "client.json5"), `{
		// comments are allowed
		base_url: "https://us.frenchbee.com",
		timeout: 30,
	}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "client.json5"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "https://us.frenchbee.com", cfg.BaseUrl)
	require.Equal(t, 30, cfg.Timeout)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "client.json5"), `{
		base_url: "https://us.frenchbee.com",
		cache_path: ".cache",
	}`)
	writeFile(t, filepath.Join(dir, "client.local.json5"), `{
		base_url: "http://127.0.0.1:8080",
	}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "client.json5"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "http://127.0.0.1:8080", cfg.BaseUrl)
	require.Equal(t, ".cache", cfg.CachePath)
}

func TestReadConfigNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadConfig[testConfig](filepath.Join(dir, "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
