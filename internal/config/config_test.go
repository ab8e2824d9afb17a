package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range apiKeyEnv {
		t.Setenv(name, "")
	}
}

func TestLoadCreatesDefault(t *testing.T) {
	clearKeyEnv(t)
	path := filepath.Join(t.TempDir(), ".roriagent", "config.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, "default", cfg.ActiveProfile)
	require.Equal(t, DefaultModel, cfg.GetModel())
	require.Equal(t, DefaultBaseURL, cfg.GetBaseURL())
	require.Equal(t, "coder", cfg.GetPersona())
	require.False(t, cfg.IsValid())

	require.Equal(t, 131072, cfg.ContextLimit())
	require.Equal(t, 8192, cfg.MaxOutputTokens())
	require.Equal(t, 3, cfg.MaxRetries())
	require.Equal(t, 2*time.Second, cfg.RetryDelay())
	require.InDelta(t, 0.1, cfg.Temperature(), 1e-6)
}

func TestLoadConfigHonoursHome(t *testing.T) {
	clearKeyEnv(t)
	home := t.TempDir()
	t.Setenv("RORIAGENT_HOME", home)

	_, err := LoadConfig()
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(home, ".roriagent", "config.json"))

	dir, err := Dir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".roriagent"), dir)
}

func TestAPIKeyFallback(t *testing.T) {
	clearKeyEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	t.Setenv("OPENAI_API_KEY", "sk-openai")
	require.Equal(t, "sk-openai", cfg.GetAPIKey())

	t.Setenv("HF_TOKEN", "hf-token")
	require.Equal(t, "hf-token", cfg.GetAPIKey())
	require.True(t, cfg.IsValid())

	require.NoError(t, cfg.UpdateProfile("default", Profile{APIKey: "explicit", Model: "m"}))
	require.Equal(t, "explicit", cfg.GetAPIKey())
	require.Equal(t, "m", cfg.GetModel())
}

func TestAgentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"profiles": {"work": {"api_key": "k", "model": "gpt", "persona": "debugger"}},
		"active_profile": "missing",
		"agent": {"context_limit": 32000, "max_output_tokens": 1000, "max_retries": 0,
		          "retry_delay_seconds": 0.5, "temperature": 0}
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "work", cfg.ActiveProfile)
	require.Equal(t, "debugger", cfg.GetPersona())
	require.Equal(t, 32000, cfg.ContextLimit())
	require.Equal(t, 1000, cfg.MaxOutputTokens())
	require.Equal(t, 0, cfg.MaxRetries())
	require.Equal(t, 500*time.Millisecond, cfg.RetryDelay())
	require.Zero(t, cfg.Temperature())
}

func TestProfileLifecycle(t *testing.T) {
	clearKeyEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, cfg.AddProfile("work", Profile{APIKey: "k", Model: "gpt"}))
	require.Error(t, cfg.AddProfile("work", Profile{}))
	require.NoError(t, cfg.Switch("work"))
	require.Error(t, cfg.Switch("nope"))
	require.NoError(t, cfg.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "work", reloaded.ActiveProfile)
	require.Equal(t, []string{"default", "work"}, reloaded.ProfileNames())

	require.NoError(t, reloaded.DeleteProfile("work"))
	require.Equal(t, "default", reloaded.ActiveProfile)
	require.NoError(t, reloaded.DeleteProfile("default"))
	require.Equal(t, []string{"default"}, reloaded.ProfileNames())
	require.Equal(t, DefaultModel, reloaded.GetModel())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RORIAGENT_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("RORIAGENT_TEST_VALUE", "")
	os.Unsetenv("RORIAGENT_TEST_VALUE")

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	require.Equal(t, "from-file", os.Getenv("RORIAGENT_TEST_VALUE"))
}
