// Package config is the local process configuration: a JSON file under the
// user's home directory plus environment overrides. The mentorship program
// configuration itself (repositories, maintainers, message catalog) is
// remote and handled by internal/program.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 18890
	DefaultWebhookPath   = "/webhook"
	DefaultBufSize       = 100
	DefaultLabelPrefix   = "task-"
	DefaultCompleteLabel = "task-complete"
	DefaultRegistryPath  = "mentorship.yaml"
	DefaultCatalogPath   = "comment.yaml"
	DefaultRefreshSpec   = "0 */5 * * * *" // every five minutes, with seconds
	DefaultRetentionDays = 14
)

type Config struct {
	Gateway     GatewayConfig     `json:"gateway"`
	Forge       ForgeConfig       `json:"forge"`
	TaskService TaskServiceConfig `json:"taskService"`
	Program     ProgramConfig     `json:"program"`
	Notify      NotifyConfig      `json:"notify"`
	Dedup       DedupConfig       `json:"dedup"`
}

type GatewayConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	WebhookPath   string `json:"webhookPath"`
	WebhookSecret string `json:"webhookSecret,omitempty"`
}

type ForgeConfig struct {
	BaseURL  string `json:"baseUrl"`
	Token    string `json:"token,omitempty"`
	BotLogin string `json:"botLogin"` // the bot's own comments are ignored
}

type TaskServiceConfig struct {
	BaseURL string `json:"baseUrl"`
	Token   string `json:"token,omitempty"`
}

// ProgramConfig locates the remote program configuration and names the score
// label namespace.
type ProgramConfig struct {
	ConfigOwner   string `json:"configOwner"`
	ConfigRepo    string `json:"configRepo"`
	RegistryPath  string `json:"registryPath"`
	CatalogPath   string `json:"catalogPath"`
	RefreshSpec   string `json:"refreshSpec"`
	LabelPrefix   string `json:"labelPrefix"`
	CompleteLabel string `json:"completeLabel"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	ChatID  int64  `json:"chatId,omitempty"`
}

type DedupConfig struct {
	DBPath        string `json:"dbPath,omitempty"`
	RetentionDays int    `json:"retentionDays"`
}

func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host:        DefaultHost,
			Port:        DefaultPort,
			WebhookPath: DefaultWebhookPath,
		},
		Program: ProgramConfig{
			RegistryPath:  DefaultRegistryPath,
			CatalogPath:   DefaultCatalogPath,
			RefreshSpec:   DefaultRefreshSpec,
			LabelPrefix:   DefaultLabelPrefix,
			CompleteLabel: DefaultCompleteLabel,
		},
		Dedup: DedupConfig{
			RetentionDays: DefaultRetentionDays,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".mentorbot")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MENTORBOT_FORGE_TOKEN"); v != "" {
		cfg.Forge.Token = v
	}
	if v := os.Getenv("MENTORBOT_FORGE_BASE_URL"); v != "" {
		cfg.Forge.BaseURL = v
	}
	if v := os.Getenv("MENTORBOT_TASK_TOKEN"); v != "" {
		cfg.TaskService.Token = v
	}
	if v := os.Getenv("MENTORBOT_TASK_BASE_URL"); v != "" {
		cfg.TaskService.BaseURL = v
	}
	if v := os.Getenv("MENTORBOT_WEBHOOK_SECRET"); v != "" {
		cfg.Gateway.WebhookSecret = v
	}
	if v := os.Getenv("MENTORBOT_TELEGRAM_TOKEN"); v != "" {
		cfg.Notify.Telegram.Token = v
	}

	if cfg.Gateway.WebhookPath == "" {
		cfg.Gateway.WebhookPath = DefaultWebhookPath
	}
	if cfg.Program.LabelPrefix == "" {
		cfg.Program.LabelPrefix = DefaultLabelPrefix
	}
	if cfg.Program.CompleteLabel == "" {
		cfg.Program.CompleteLabel = DefaultCompleteLabel
	}
	if cfg.Program.RegistryPath == "" {
		cfg.Program.RegistryPath = DefaultRegistryPath
	}
	if cfg.Program.CatalogPath == "" {
		cfg.Program.CatalogPath = DefaultCatalogPath
	}
	if cfg.Program.RefreshSpec == "" {
		cfg.Program.RefreshSpec = DefaultRefreshSpec
	}
	if cfg.Dedup.DBPath == "" {
		cfg.Dedup.DBPath = filepath.Join(ConfigDir(), "data", "deliveries.db")
	}
	if cfg.Dedup.RetentionDays <= 0 {
		cfg.Dedup.RetentionDays = DefaultRetentionDays
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
