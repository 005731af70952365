package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"BIZDATA_API_KEY", "GEMINI_API_KEY", "API_KEY", "BIZDATA_MODEL", "BIZDATA_PROVIDER", "BIZDATA_TIMEZONE"} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Provider)
	assert.InDelta(t, 0.7, c.Temperature, 1e-9)
	assert.InDelta(t, 0.95, c.TopP, 1e-9)
	assert.Zero(t, c.MaxTokens)
	assert.Zero(t, c.HTTPTimeout())
	assert.Equal(t, ":8080", c.ServeAddr)
	assert.Equal(t, 5, c.ChatBurst)
	assert.Equal(t, 20, c.MaxUploadMB)
	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
	assert.Equal(t, Default(), c)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, DirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("model: from-file\nmax_tokens: 256\napi_key: file-key\n"), 0o600))

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.Model)
	assert.Equal(t, 256, c.MaxTokens)
	assert.Equal(t, "file-key", c.APIKey)

	t.Setenv("BIZDATA_MODEL", "from-env")
	t.Setenv("GEMINI_API_KEY", "env-key")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Model)
	assert.Equal(t, "env-key", c.APIKey)
}

func TestSaveAndReload(t *testing.T) {
	isolate(t)
	c := Default()
	c.APIKey = "abc"
	c.Timezone = "Local"
	c.HTTPTimeoutSec = 30
	require.NoError(t, Save(c, ""))

	path, err := Path("")
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	back, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, c, back)
	assert.Equal(t, 30*time.Second, back.HTTPTimeout())
	assert.Equal(t, "abc", back.RuntimeConfig().APIKey)
	assert.Equal(t, back.GeminiEndpoint, back.RuntimeConfig().BaseURL)
}

func TestLoadExplicitFile(t *testing.T) {
	isolate(t)
	p := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(p, []byte("provider: ollama\nollama_host: http://box:11434\n"), 0o600))
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Provider)
	assert.Equal(t, "http://box:11434", c.RuntimeConfig().Host)

	require.NoError(t, os.WriteFile(p, []byte("provider: [broken\n"), 0o600))
	_, err = Load(p)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Global){
		"provider":    func(c *Global) { c.Provider = "nope" },
		"temperature": func(c *Global) { c.Temperature = 3 },
		"top_p":       func(c *Global) { c.TopP = 1.5 },
		"negative":    func(c *Global) { c.MaxTokens = -1 },
		"timezone":    func(c *Global) { c.Timezone = "Mars/Olympus" },
		"log_format":  func(c *Global) { c.LogFormat = "xml" },
	} {
		c := Default()
		mutate(c)
		assert.Error(t, c.Validate(), name)
	}
	assert.NoError(t, Default().Validate())
}

func TestLoadFileIgnoresEnv(t *testing.T) {
	isolate(t)
	c := Default()
	c.Model = "from-file"
	require.NoError(t, Save(c, ""))
	t.Setenv("BIZDATA_MODEL", "from-env")
	t.Setenv("GEMINI_API_KEY", "secret")

	got, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "from-file", got.Model)
	assert.Empty(t, got.APIKey)

	withEnv, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", withEnv.Model)
	assert.Equal(t, "secret", withEnv.APIKey)
}
