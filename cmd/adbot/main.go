package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marktr/adbot/internal/app"
	"github.com/marktr/adbot/internal/config"
)

var (
	cfgFile   string
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "adbot",
	Short: "Adbot - ad accounts control bot",
	Long:  `Adbot is a Telegram bot for managing ad accounts: reports, campaign control and creative generation.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot",
	Long:  `Start the bot: Telegram polling, scheduled reports and the metrics endpoint.`,
	RunE:  runServe,
}

var weekly bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Send a report once and exit",
	Long:  `Send the daily (or, with --weekly, the 7-day comparison) report to the operator chat and exit.`,
	RunE:  runReport,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("adbot version %s\n", version)
		if commit != "unknown" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	reportCmd.Flags().BoolVar(&weekly, "weekly", false, "send the 7-day comparison instead of the daily report")

	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(serveCmd, reportCmd, configCmd, versionCmd)
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return nil, fmt.Errorf("config file is required (use -c flag)")
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(context.Background())
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.ReportOnce(context.Background(), weekly)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  Accounts: %d\n", len(cfg.Facebook.AccountIDs))
	fmt.Printf("  Report: %02d:00 %s\n", cfg.Report.Hour, cfg.Report.Timezone)
	fmt.Printf("  Workspace sync: %v\n", cfg.Notion.Enabled())
	fmt.Printf("  State: %s\n", cfg.Creative.StatePath)

	return nil
}
