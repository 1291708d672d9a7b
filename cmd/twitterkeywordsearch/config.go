package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"twitterkeywordsearch/pkg/auth"
	"twitterkeywordsearch/pkg/config"
	"twitterkeywordsearch/pkg/ui"
)

const defaultConfigPath = ".twitterkeywordsearch.yaml"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage the configuration file.

Values are taken from, highest priority first:
  - Command line flags
  - Environment variables (TWITTER_*, DATABASE_URL, TKS_*)
  - .env files
  - The configuration file
  - Defaults`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for invalid values",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = defaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file %s already exists", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	ui.PrintSuccess("Configuration written to " + path)
	ui.PrintHint("Keep API keys out of it: use 'auth login' or TWITTER_* variables.")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, changedFlags(cmd.Flags()))
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(maskedConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(ui.Output, string(out))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(configFile, changedFlags(cmd.Flags())); err != nil {
		return err
	}
	ui.PrintSuccess("Configuration is valid")
	return nil
}

// maskedConfig returns a copy of cfg with credentials masked.
func maskedConfig(cfg *config.Config) *config.Config {
	c := *cfg
	masked := auth.SanitizeAccount(&auth.Account{
		APIKey:      cfg.Twitter.APIKey,
		APISecret:   cfg.Twitter.APISecret,
		AccessToken: cfg.Twitter.AccessToken,
		TokenSecret: cfg.Twitter.TokenSecret,
	})
	mask := func(orig, m string) string {
		if orig == "" {
			return ""
		}
		return m
	}
	c.Twitter.APIKey = mask(cfg.Twitter.APIKey, masked.APIKey)
	c.Twitter.APISecret = mask(cfg.Twitter.APISecret, masked.APISecret)
	c.Twitter.AccessToken = mask(cfg.Twitter.AccessToken, masked.AccessToken)
	c.Twitter.TokenSecret = mask(cfg.Twitter.TokenSecret, masked.TokenSecret)
	return &c
}
