package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Gateway.Host != DefaultHost || cfg.Gateway.Port != DefaultPort {
		t.Errorf("gateway defaults = %+v", cfg.Gateway)
	}
	if cfg.Program.LabelPrefix != "task-" || cfg.Program.CompleteLabel != "task-complete" {
		t.Errorf("label defaults = %+v", cfg.Program)
	}
	if cfg.Dedup.RetentionDays != DefaultRetentionDays {
		t.Errorf("retention = %d", cfg.Dedup.RetentionDays)
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnvOverrides(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Gateway.Port != DefaultPort {
		t.Errorf("port = %d, want default", cfg.Gateway.Port)
	}
	if cfg.Dedup.DBPath == "" {
		t.Error("dedup db path not backfilled")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnvOverrides(t)

	writeConfigFile(t, home, map[string]any{
		"gateway": map[string]any{"port": 9999},
		"forge": map[string]any{
			"baseUrl":  "https://forge.example.com/api/v1",
			"botLogin": "mentor-bot",
		},
	})

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Gateway.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Gateway.Port)
	}
	if cfg.Forge.BotLogin != "mentor-bot" {
		t.Errorf("bot login = %q", cfg.Forge.BotLogin)
	}
	// Fields the file omits keep their defaults.
	if cfg.Program.LabelPrefix != DefaultLabelPrefix {
		t.Errorf("label prefix = %q", cfg.Program.LabelPrefix)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnvOverrides(t)

	writeConfigFile(t, home, map[string]any{
		"forge": map[string]any{"token": "file-token"},
	})

	t.Setenv("MENTORBOT_FORGE_TOKEN", "env-token")
	t.Setenv("MENTORBOT_WEBHOOK_SECRET", "env-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Forge.Token != "env-token" {
		t.Errorf("token = %q, env must win over file", cfg.Forge.Token)
	}
	if cfg.Gateway.WebhookSecret != "env-secret" {
		t.Errorf("webhook secret = %q", cfg.Gateway.WebhookSecret)
	}
}

func TestLoadConfig_BadJSON(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnvOverrides(t)

	dir := filepath.Join(home, ".mentorbot")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnvOverrides(t)

	cfg := DefaultConfig()
	cfg.Forge.BaseURL = "https://forge.example.com/api/v1"
	cfg.TaskService.BaseURL = "https://tasks.example.com"

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig error: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if loaded.Forge.BaseURL != cfg.Forge.BaseURL {
		t.Errorf("forge url = %q", loaded.Forge.BaseURL)
	}
	if loaded.TaskService.BaseURL != cfg.TaskService.BaseURL {
		t.Errorf("task url = %q", loaded.TaskService.BaseURL)
	}
}

func writeConfigFile(t *testing.T, home string, content map[string]any) {
	t.Helper()
	dir := filepath.Join(home, ".mentorbot")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(content)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MENTORBOT_FORGE_TOKEN", "MENTORBOT_FORGE_BASE_URL",
		"MENTORBOT_TASK_TOKEN", "MENTORBOT_TASK_BASE_URL",
		"MENTORBOT_WEBHOOK_SECRET", "MENTORBOT_TELEGRAM_TOKEN",
	} {
		t.Setenv(key, "")
	}
}
