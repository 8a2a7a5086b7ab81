package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/mentorbot/internal/config"
	"github.com/stellarlinkco/mentorbot/internal/forge"
	"github.com/stellarlinkco/mentorbot/internal/gateway"
	"github.com/stellarlinkco/mentorbot/internal/program"
)

var rootCmd = &cobra.Command{
	Use:   "mentorbot",
	Short: "mentorbot - mentorship task bot for forge issues",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook gateway",
	RunE:  runServe,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize the local config file",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mentorbot configuration status",
	RunE:  runStatus,
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Fetch and validate the remote program configuration",
	RunE:  runCheckConfig,
}

func init() {
	rootCmd.AddCommand(serveCmd, onboardCmd, statusCmd, checkConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Forge.BaseURL == "" {
		return fmt.Errorf("forge base URL not set. Run 'mentorbot onboard' and edit %s", config.ConfigPath())
	}
	if cfg.TaskService.BaseURL == "" {
		return fmt.Errorf("task service base URL not set. Edit %s", config.ConfigPath())
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to set forge and task service endpoints\n", cfgPath)
	fmt.Println("  2. Set MENTORBOT_FORGE_TOKEN and MENTORBOT_TASK_TOKEN")
	fmt.Println("  3. Run 'mentorbot check-config' to verify the program config")
	fmt.Println("  4. Run 'mentorbot serve'")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Gateway: %s:%d%s\n", cfg.Gateway.Host, cfg.Gateway.Port, cfg.Gateway.WebhookPath)
	fmt.Printf("Forge: %s\n", orUnset(cfg.Forge.BaseURL))
	fmt.Printf("Forge token: %s\n", masked(cfg.Forge.Token))
	fmt.Printf("Task service: %s\n", orUnset(cfg.TaskService.BaseURL))
	fmt.Printf("Task token: %s\n", masked(cfg.TaskService.Token))
	fmt.Printf("Program config: %s/%s (%s, %s)\n",
		orUnset(cfg.Program.ConfigOwner), cfg.Program.ConfigRepo,
		cfg.Program.RegistryPath, cfg.Program.CatalogPath)
	fmt.Printf("Label prefix: %s (complete: %s)\n", cfg.Program.LabelPrefix, cfg.Program.CompleteLabel)
	fmt.Printf("Webhook secret: %s\n", masked(cfg.Gateway.WebhookSecret))
	fmt.Printf("Telegram notify: enabled=%v\n", cfg.Notify.Telegram.Enabled)

	return nil
}

func runCheckConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Forge.BaseURL == "" {
		return fmt.Errorf("forge base URL not set")
	}

	client := forge.NewClient(cfg.Forge.BaseURL, cfg.Forge.Token)
	loader := program.NewLoader(client, program.Source{
		Owner:        cfg.Program.ConfigOwner,
		Repo:         cfg.Program.ConfigRepo,
		RegistryPath: cfg.Program.RegistryPath,
		CatalogPath:  cfg.Program.CatalogPath,
	})

	snap, err := loader.Snapshot(context.Background())
	if err != nil {
		return fmt.Errorf("fetch program config: %w", err)
	}

	fmt.Printf("Registered repositories: %d\n", len(snap.Registry.Repos))
	for _, repo := range snap.Registry.Repos {
		fmt.Printf("  %s (%d maintainers)\n", repo.Name, len(repo.Maintainers))
	}
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func masked(s string) string {
	if s == "" {
		return "not set"
	}
	if len(s) > 8 {
		return s[:4] + "..." + s[len(s)-4:]
	}
	return "set"
}
