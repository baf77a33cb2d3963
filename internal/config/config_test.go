package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, fileName), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{
		"discord": {"token": "tok"},
		"openrouter": {"apiKey": "key"}
	}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Discord.HistoryLimit != 30 {
		t.Errorf("HistoryLimit = %d, want default 30", cfg.Discord.HistoryLimit)
	}
	if cfg.Agent.MaxTurns != 6 || cfg.Agent.NestedMaxTurns != 8 {
		t.Errorf("Agent = %+v, want default turn budgets", cfg.Agent)
	}
	if cfg.OpenRouter.Model == "" {
		t.Error("Model default missing")
	}
	if cfg.OpenProject.Enabled() {
		t.Error("OpenProject must be disabled without credentials")
	}
}

func TestLoad_ResolvesEnvVars(t *testing.T) {
	t.Setenv("TB_TEST_TOKEN", "secret-from-env")
	dir := t.TempDir()
	writeConfig(t, dir, `{
		"discord": {"token": "${TB_TEST_TOKEN}"},
		"openrouter": {"apiKey": "key"}
	}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Discord.Token != "secret-from-env" {
		t.Errorf("Token = %q, want env value", cfg.Discord.Token)
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"discord": {"token": ""}}`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load() should fail without token and api key")
	}
	if !strings.Contains(err.Error(), "discord.token") || !strings.Contains(err.Error(), "openrouter.apiKey") {
		t.Errorf("error = %v, want both missing fields listed", err)
	}
}

func TestLoad_OpenProjectNeedsKeyWithURL(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{
		"discord": {"token": "tok"},
		"openrouter": {"apiKey": "key"},
		"openproject": {"baseURL": "https://op.example.com"}
	}`)

	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "openproject.apiKey") {
		t.Errorf("Load() error = %v, want openproject.apiKey complaint", err)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := &Config{
		Discord:     DiscordConfig{Token: "tok", HistoryLimit: 50},
		OpenRouter:  OpenRouterConfig{APIKey: "key", Model: "test/model"},
		OpenProject: OpenProjectConfig{BaseURL: "https://op.example.com", APIKey: "opkey"},
		Agent:       AgentConfig{MaxTurns: 4, NestedMaxTurns: 5},
	}

	if err := Save(dir, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *got != *want {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
	if !got.OpenProject.Enabled() {
		t.Error("OpenProject should be enabled with both fields set")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Error("Exists() = true for empty dir")
	}
	writeConfig(t, dir, `{}`)
	if !Exists(dir) {
		t.Error("Exists() = false after write")
	}
}
